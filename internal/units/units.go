// Package units holds the static table of interconvertible unit groups and
// applies display-only conversions. Stored values always stay in a property's
// native unit; conversion is a rendering transform.
package units

import "github.com/starford/uruz/internal/models"

// Group is a closed set of interconvertible units with a complete factor
// matrix: Factors[from][to] is the amount of "to" per one "from".
type Group struct {
	Units   []string
	Factors map[string]map[string]float64
}

var groups = map[string]Group{
	"pressure": {
		Units: []string{"МПа", "кгс/см²"},
		Factors: map[string]map[string]float64{
			"МПа": {
				"МПа":     1.0,
				"кгс/см²": 10.19716,
			},
			"кгс/см²": {
				"кгс/см²": 1.0,
				"МПа":     0.0980665,
			},
		},
	},
}

// groupFor finds the group containing the given unit.
func groupFor(unit string) (Group, bool) {
	for _, g := range groups {
		for _, u := range g.Units {
			if u == unit {
				return g, true
			}
		}
	}
	return Group{}, false
}

// Convert applies the from→to factor. When either unit is outside every
// group, or no factor is declared, the value is returned unconverted and
// ok is false.
func Convert(value float64, from, to string) (converted float64, ok bool) {
	g, found := groupFor(from)
	if !found {
		return value, false
	}
	factor, found := g.Factors[from][to]
	if !found {
		return value, false
	}
	return value * factor, true
}

// ConvertProperty converts a value stored in propKey's native unit into the
// target unit. Unknown properties or missing factors leave the value as is.
func ConvertProperty(value float64, propKey, target string) (float64, bool) {
	native, ok := models.NativeUnit(propKey)
	if !ok {
		return value, false
	}
	if target == "" || target == native {
		return value, false
	}
	return Convert(value, native, target)
}

// SelectableUnits returns the units a property's values can be displayed in.
// A property whose native unit belongs to no group is display-only and gets
// nil (unit selector disabled).
func SelectableUnits(propKey string) []string {
	native, ok := models.NativeUnit(propKey)
	if !ok {
		return nil
	}
	g, found := groupFor(native)
	if !found {
		return nil
	}
	out := make([]string, len(g.Units))
	copy(out, g.Units)
	return out
}
