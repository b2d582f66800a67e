// Package compmatch scores chemical composition sources against per-element
// target percentages. It backs a live filter, so scoring is a single linear
// pass over the targeted elements with no allocation-heavy machinery.
package compmatch

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/starford/uruz/internal/models"
)

// Classification is the per-element outcome of a match.
type Classification string

const (
	Match    Classification = "match"
	Mismatch Classification = "mismatch"
)

// PartialScore is the normalized score assigned to any source that is not
// fully matching, so it can never outrank a full match.
const PartialScore = -1

// Result classifies one composition source against a target set.
type Result struct {
	FullMatch bool                      `json:"full_match"`
	Score     int                       `json:"score"`
	Elements  map[string]Classification `json:"elements"`
}

// Score evaluates a source against targets (element symbol → target
// percentage). Only targeted elements are considered. An element absent from
// the source is a hard mismatch, not an ignorable unknown. Bounds come from
// min/max values, overridden by numeric tolerance strings when parseable;
// unbounded sides default to ±inf.
func Score(src *models.CompositionSource, targets map[string]float64) Result {
	res := Result{
		FullMatch: true,
		Elements:  make(map[string]Classification, len(targets)),
	}
	matched := 0
	for symbol, target := range targets {
		entry, ok := src.Element(symbol)
		if !ok {
			res.FullMatch = false
			res.Elements[symbol] = Mismatch
			continue
		}
		lower, upper := Bounds(entry)
		if lower <= target && target <= upper {
			matched++
			res.Elements[symbol] = Match
		} else {
			res.FullMatch = false
			res.Elements[symbol] = Mismatch
		}
	}
	if res.FullMatch {
		res.Score = matched
	} else {
		res.Score = PartialScore
	}
	return res
}

// Bounds computes the effective [lower, upper] range for an element entry.
func Bounds(e *models.ElementEntry) (lower, upper float64) {
	lower = math.Inf(-1)
	if e.MinValue != nil {
		lower = *e.MinValue
	}
	if v, ok := parseTolerance(e.MinTolerance); ok {
		lower = v
	}
	upper = math.Inf(1)
	if e.MaxValue != nil {
		upper = *e.MaxValue
	}
	if v, ok := parseTolerance(e.MaxTolerance); ok {
		upper = v
	}
	return lower, upper
}

func parseTolerance(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Scored pairs a composition source with its match result for ranking.
type Scored struct {
	Source *models.CompositionSource
	Result Result
}

// Rank sorts sources by (FullMatch, Score) descending: every full match sorts
// before any partial match, higher scores first within each group. The sort
// is stable so equally ranked sources keep their input order.
func Rank(items []Scored) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Result, items[j].Result
		if a.FullMatch != b.FullMatch {
			return a.FullMatch
		}
		return a.Score > b.Score
	})
}

// FormatRange renders an element's bounds for display: "10 - 14", "≤ 14",
// "≥ 10", with tolerance strings in parentheses when present. Zero bounds are
// treated as unset, matching how existing documents encode "no bound".
func FormatRange(e *models.ElementEntry) string {
	if e == nil {
		return "-"
	}
	minV, maxV := e.MinValue, e.MaxValue
	if minV != nil && *minV == 0 {
		minV = nil
	}
	if maxV != nil && *maxV == 0 {
		maxV = nil
	}
	minTol := strings.TrimSpace(e.MinTolerance)
	maxTol := strings.TrimSpace(e.MaxTolerance)
	switch {
	case minV != nil && maxV != nil:
		pre, post := "", ""
		if minTol != "" {
			pre = fmt.Sprintf("(%s) ", minTol)
		}
		if maxTol != "" {
			post = fmt.Sprintf(" (%s)", maxTol)
		}
		return fmt.Sprintf("%s%v - %v%s", pre, *minV, *maxV, post)
	case maxV != nil:
		if maxTol != "" {
			return fmt.Sprintf("≤ %v (%s)", *maxV, maxTol)
		}
		return fmt.Sprintf("≤ %v", *maxV)
	case minV != nil:
		if minTol != "" {
			return fmt.Sprintf("≥ %v (%s)", *minV, minTol)
		}
		return fmt.Sprintf("≥ %v", *minV)
	default:
		return "-"
	}
}
