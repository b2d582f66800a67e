// Package interp answers temperature-dependent property queries by exact
// lookup or pairwise linear interpolation between the nearest samples.
package interp

import (
	"math"
	"sort"
	"strconv"

	"github.com/starford/uruz/internal/models"
)

// NoDataText is the rendered placeholder for a query that cannot be answered.
const NoDataText = "-"

// Result is a tagged interpolation outcome: no data, an exact stored sample,
// or a value interpolated between two samples (rounded to 2 decimals).
type Result struct {
	valid        bool
	interpolated bool
	value        float64
}

// NoData is the sentinel result for a query outside the sampled range or
// against an empty series.
var NoData = Result{}

// Exact wraps a stored sample value, returned unmodified.
func Exact(v float64) Result { return Result{valid: true, value: v} }

// Interpolated wraps a computed value, rounded to two decimal places.
func Interpolated(v float64) Result {
	return Result{valid: true, interpolated: true, value: math.Round(v*100) / 100}
}

// Valid reports whether the result carries a value.
func (r Result) Valid() bool { return r.valid }

// Interpolated reports whether the value was computed rather than stored.
func (r Result) Interpolated() bool { return r.interpolated }

// Value returns the numeric value; ok is false for the no-data sentinel.
func (r Result) Value() (v float64, ok bool) { return r.value, r.valid }

// String renders the result for display: "-" for no data, the stored value
// untouched for exact hits, two decimals for interpolated values.
func (r Result) String() string {
	switch {
	case !r.valid:
		return NoDataText
	case r.interpolated:
		return strconv.FormatFloat(r.value, 'f', 2, 64)
	default:
		return strconv.FormatFloat(r.value, 'f', -1, 64)
	}
}

// ValueAt resolves a series at the given temperature. Nil or empty series
// yield the no-data sentinel.
func ValueAt(s *models.PropertySeries, temp float64) Result {
	if s == nil {
		return NoData
	}
	return ValueAtPairs(s.Pairs, temp)
}

// ValueAtPairs resolves a raw sample list at the given temperature.
//
// Samples are sorted by temperature first; order on disk is not required.
// An exact temperature hit returns the stored value unmodified. Otherwise the
// nearest samples strictly below and strictly above bracket the query and the
// value is linearly interpolated between them. A query outside the sampled
// range is not extrapolated.
func ValueAtPairs(pairs []models.Pair, temp float64) Result {
	if len(pairs) == 0 {
		return NoData
	}
	sorted := make([]models.Pair, len(pairs))
	copy(sorted, pairs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Temperature < sorted[j].Temperature
	})

	for _, p := range sorted {
		if p.Temperature == temp {
			return Exact(p.Value)
		}
	}

	var lower, upper *models.Pair
	for i := range sorted {
		p := sorted[i]
		if p.Temperature < temp {
			lower = &sorted[i]
		} else if p.Temperature > temp {
			upper = &sorted[i]
			break
		}
	}
	if lower == nil || upper == nil {
		return NoData
	}
	if upper.Temperature == lower.Temperature {
		// Degenerate duplicate samples: avoid division by zero.
		return Exact(lower.Value)
	}
	t := lower.Value + (temp-lower.Temperature)*(upper.Value-lower.Value)/(upper.Temperature-lower.Temperature)
	return Interpolated(t)
}
