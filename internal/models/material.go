// Package models defines the domain types for Uruz: material records backed
// by one JSON document each, with typed metadata, temperature-dependent
// property series, strength categories, and chemical composition sources.
package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// Material is one engineering material record.
type Material struct {
	ID         string                     `json:"material_id"`
	Metadata   Metadata                   `json:"metadata"`
	Physical   map[string]*PropertySeries `json:"physical_properties"`
	Mechanical MechanicalBlock            `json:"mechanical_properties"`
	Chemical   ChemicalBlock              `json:"chemical_properties"`
}

// Metadata carries naming, classification, and application data.
type Metadata struct {
	StandardName     string                  `json:"name_material_standard"`
	AlternativeNames []string                `json:"name_material_alternative"`
	ApplicationAreas []string                `json:"application_area"`
	Comment          string                  `json:"comment"`
	Classification   Classification          `json:"classification"`
	TemperatureLimit *TemperatureApplication `json:"temperature_application,omitempty"`
}

// Classification is the category/class/subclass triple.
type Classification struct {
	Category string `json:"classification_category"`
	Class    string `json:"classification_class"`
	Subclass string `json:"classification_subclass"`
}

// TemperatureApplication is the optional maximum application temperature.
type TemperatureApplication struct {
	Value   *float64 `json:"value"`
	Comment string   `json:"comment"`
}

// PropertySeries is a provenance-tagged set of (temperature, value) samples
// for one physical or mechanical property.
type PropertySeries struct {
	Source      string `json:"property_source"`
	SubSource   string `json:"property_subsource"`
	Comment     string `json:"comment"`
	Pairs       []Pair `json:"temperature_value_pairs"`
	LastUpdated string `json:"property_last_updated,omitempty"`
}

// Pair is one (temperature, value) sample, serialized as a two-element array.
type Pair struct {
	Temperature float64
	Value       float64
}

// MarshalJSON renders the pair as [temperature, value].
func (p Pair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.Temperature, p.Value})
}

// seriesDoc mirrors PropertySeries with raw sample rows so that malformed
// rows can be dropped instead of failing the whole document.
type seriesDoc struct {
	Source      string            `json:"property_source"`
	SubSource   string            `json:"property_subsource"`
	Comment     string            `json:"comment"`
	Pairs       []json.RawMessage `json:"temperature_value_pairs"`
	LastUpdated string            `json:"property_last_updated"`
}

// UnmarshalJSON decodes a series, silently excluding sample rows that are not
// a [number, number] pair (numeric strings are accepted).
func (s *PropertySeries) UnmarshalJSON(data []byte) error {
	var doc seriesDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	s.Source = doc.Source
	s.SubSource = doc.SubSource
	s.Comment = doc.Comment
	s.LastUpdated = doc.LastUpdated
	s.Pairs = s.Pairs[:0]
	for _, raw := range doc.Pairs {
		if p, ok := decodePair(raw); ok {
			s.Pairs = append(s.Pairs, p)
		}
	}
	return nil
}

func decodePair(raw json.RawMessage) (Pair, bool) {
	var row [2]any
	if err := json.Unmarshal(raw, &row); err != nil {
		return Pair{}, false
	}
	t, ok := asNumber(row[0])
	if !ok {
		return Pair{}, false
	}
	v, ok := asNumber(row[1])
	if !ok {
		return Pair{}, false
	}
	return Pair{Temperature: t, Value: v}, true
}

func asNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// MechanicalBlock wraps the ordered strength-category list.
type MechanicalBlock struct {
	StrengthCategories []*StrengthCategory `json:"strength_category"`
}

// StrengthCategory is one named bucket of mechanical property series
// (a heat-treatment/strength grade, e.g. "КП 100"). In the document the
// series sit as dynamic keys next to value_strength_category and hardness,
// so the type carries custom JSON marshaling.
type StrengthCategory struct {
	Name       string
	Properties map[string]*PropertySeries
	Hardness   []HardnessEntry
}

// HardnessEntry is one hardness range; hardness has no temperature dependency.
type HardnessEntry struct {
	Source    string   `json:"property_source"`
	SubSource string   `json:"property_subsource"`
	MinValue  *float64 `json:"min_value"`
	MaxValue  *float64 `json:"max_value"`
	Unit      string   `json:"unit_value"`
}

// MarshalJSON flattens the category into a single object with the name,
// each known mechanical property series under its key, and hardness.
func (c *StrengthCategory) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Properties)+2)
	out["value_strength_category"] = c.Name
	for k, s := range c.Properties {
		if s != nil {
			out[k] = s
		}
	}
	if c.Hardness == nil {
		out["hardness"] = []HardnessEntry{}
	} else {
		out["hardness"] = c.Hardness
	}
	return json.Marshal(out)
}

// UnmarshalJSON collects value_strength_category, hardness, and every known
// mechanical property key. Unknown keys are ignored.
func (c *StrengthCategory) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Properties = make(map[string]*PropertySeries)
	for k, v := range raw {
		switch {
		case k == "value_strength_category":
			if err := json.Unmarshal(v, &c.Name); err != nil {
				return fmt.Errorf("models: strength category name: %w", err)
			}
		case k == "hardness":
			if err := json.Unmarshal(v, &c.Hardness); err != nil {
				return fmt.Errorf("models: hardness: %w", err)
			}
		default:
			if _, known := MechanicalProperties[k]; !known {
				continue
			}
			var s PropertySeries
			if err := json.Unmarshal(v, &s); err != nil {
				return fmt.Errorf("models: series %q: %w", k, err)
			}
			c.Properties[k] = &s
		}
	}
	return nil
}

// Series returns the series for one of the category's mechanical properties.
func (c *StrengthCategory) Series(propKey string) (*PropertySeries, bool) {
	s, ok := c.Properties[propKey]
	return s, ok && s != nil
}

// ChemicalBlock wraps the ordered composition-source list.
type ChemicalBlock struct {
	Composition []*CompositionSource `json:"composition"`
}

// CompositionSource is the chemistry of the material according to one source.
type CompositionSource struct {
	Source      string         `json:"composition_source"`
	SubSource   string         `json:"composition_subsource"`
	Comment     string         `json:"comment"`
	BaseElement string         `json:"base_element"`
	Elements    []ElementEntry `json:"other_elements"`
}

// Element returns the entry for an element symbol, if present.
func (s *CompositionSource) Element(symbol string) (*ElementEntry, bool) {
	for i := range s.Elements {
		if s.Elements[i].Symbol == symbol {
			return &s.Elements[i], true
		}
	}
	return nil, false
}

// ElementEntry is one element's percentage bounds in a composition source.
// Tolerance strings may encode a numeric override of the matching bound.
type ElementEntry struct {
	Symbol       string   `json:"element"`
	MinValue     *float64 `json:"min_value"`
	MaxValue     *float64 `json:"max_value"`
	Unit         string   `json:"unit_value"`
	MinTolerance string   `json:"min_value_tolerance"`
	MaxTolerance string   `json:"max_value_tolerance"`
}

// Decode parses a material document. Malformed JSON fails the document as a
// whole; malformed sample rows inside a series are dropped, not fatal.
func Decode(data []byte) (*Material, error) {
	var m Material
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("models: decode material: %w", err)
	}
	if m.Physical == nil {
		m.Physical = map[string]*PropertySeries{}
	}
	return &m, nil
}

// Encode serializes the record in the on-disk document format.
func (m *Material) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("models: encode material: %w", err)
	}
	return append(data, '\n'), nil
}

// New returns an empty record template with a fresh id.
func New() *Material {
	return &Material{
		ID: uuid.NewString(),
		Metadata: Metadata{
			AlternativeNames: []string{},
			ApplicationAreas: []string{},
		},
		Physical:   map[string]*PropertySeries{},
		Mechanical: MechanicalBlock{StrengthCategories: []*StrengthCategory{}},
		Chemical:   ChemicalBlock{Composition: []*CompositionSource{}},
	}
}

// Validate checks the record is fit to persist.
func (m *Material) Validate() error {
	if err := validation.ValidateStruct(&m.Metadata,
		validation.Field(&m.Metadata.StandardName, validation.Required),
	); err != nil {
		return fmt.Errorf("models: metadata: %w", err)
	}
	return nil
}

// Name returns the standard name, or a placeholder when unset.
func (m *Material) Name() string {
	if m.Metadata.StandardName == "" {
		return "Без имени"
	}
	return m.Metadata.StandardName
}

// DisplayName formats "Standard (alt1, alt2)", skipping blank alternatives.
func (m *Material) DisplayName() string {
	name := m.Name()
	var alts []string
	for _, a := range m.Metadata.AlternativeNames {
		if t := strings.TrimSpace(a); t != "" {
			alts = append(alts, t)
		}
	}
	if len(alts) == 0 {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, strings.Join(alts, ", "))
}

// Copy returns an independent deep copy via the document form. An edit always
// operates on a copy; the catalog's record is never mutated in place.
func (m *Material) Copy() *Material {
	data, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	cp, err := Decode(data)
	if err != nil {
		return nil
	}
	return cp
}

// SeriesFor locates a property series: physical properties by key, mechanical
// ones inside the named category (first category holding the key when
// categoryName is empty).
func (m *Material) SeriesFor(propKey, categoryName string) (*PropertySeries, bool) {
	if s, ok := m.Physical[propKey]; ok && s != nil {
		return s, true
	}
	for _, cat := range m.Mechanical.StrengthCategories {
		if categoryName != "" && cat.Name != categoryName {
			continue
		}
		if s, ok := cat.Series(propKey); ok {
			return s, true
		}
	}
	return nil, false
}

// Normalize prepares an edited record for persistence: composition rows
// without an element symbol are dropped, and element units default to "%".
func (m *Material) Normalize() {
	for _, src := range m.Chemical.Composition {
		kept := src.Elements[:0]
		for _, e := range src.Elements {
			if strings.TrimSpace(e.Symbol) == "" {
				continue
			}
			if e.Unit == "" {
				e.Unit = "%"
			}
			kept = append(kept, e)
		}
		src.Elements = kept
	}
}

// TouchUpdated stamps property_last_updated on every series in the record.
// Called on save only, never on creation.
func (m *Material) TouchUpdated(now time.Time) {
	ts := now.Format(time.RFC3339)
	for _, s := range m.Physical {
		if s != nil {
			s.LastUpdated = ts
		}
	}
	for _, cat := range m.Mechanical.StrengthCategories {
		for _, s := range cat.Properties {
			if s != nil {
				s.LastUpdated = ts
			}
		}
	}
}

// Sources aggregates every unique source and subsource name used by the
// record: physical and mechanical series, hardness rows, and composition.
func (m *Material) Sources() []string {
	set := make(map[string]struct{})
	add := func(names ...string) {
		for _, n := range names {
			if n != "" {
				set[n] = struct{}{}
			}
		}
	}
	for _, s := range m.Physical {
		if s != nil {
			add(s.Source, s.SubSource)
		}
	}
	for _, cat := range m.Mechanical.StrengthCategories {
		for _, s := range cat.Properties {
			if s != nil {
				add(s.Source, s.SubSource)
			}
		}
		for _, h := range cat.Hardness {
			add(h.Source, h.SubSource)
		}
	}
	for _, src := range m.Chemical.Composition {
		add(src.Source, src.SubSource)
	}
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}

// CategoryNames returns the ordered strength-category names.
func (m *Material) CategoryNames() []string {
	out := make([]string, 0, len(m.Mechanical.StrengthCategories))
	for _, c := range m.Mechanical.StrengthCategories {
		out = append(out, c.Name)
	}
	return out
}
