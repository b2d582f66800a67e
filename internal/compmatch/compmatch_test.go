package compmatch

import (
	"testing"

	"github.com/starford/uruz/internal/models"
)

func fp(v float64) *float64 { return &v }

func sourceWith(elements ...models.ElementEntry) *models.CompositionSource {
	return &models.CompositionSource{
		Source:   "ГОСТ 5632",
		Elements: elements,
	}
}

func TestScore_InRange(t *testing.T) {
	src := sourceWith(models.ElementEntry{Symbol: "Cr", MinValue: fp(10), MaxValue: fp(14)})
	res := Score(src, map[string]float64{"Cr": 12})
	if !res.FullMatch || res.Score != 1 {
		t.Errorf("result = %+v, want full match score 1", res)
	}
	if res.Elements["Cr"] != Match {
		t.Errorf("Cr classification = %v", res.Elements["Cr"])
	}
}

func TestScore_OutOfRange(t *testing.T) {
	src := sourceWith(models.ElementEntry{Symbol: "Cr", MinValue: fp(10), MaxValue: fp(14)})
	res := Score(src, map[string]float64{"Cr": 15})
	if res.FullMatch {
		t.Error("expected mismatch for value above range")
	}
	if res.Score != PartialScore {
		t.Errorf("score = %d, want %d", res.Score, PartialScore)
	}
	if res.Elements["Cr"] != Mismatch {
		t.Errorf("Cr classification = %v", res.Elements["Cr"])
	}
}

func TestScore_BoundsInclusive(t *testing.T) {
	src := sourceWith(models.ElementEntry{Symbol: "Cr", MinValue: fp(10), MaxValue: fp(14)})
	for _, v := range []float64{10, 14} {
		res := Score(src, map[string]float64{"Cr": v})
		if !res.FullMatch {
			t.Errorf("boundary value %v should match", v)
		}
	}
}

func TestScore_AbsentElementIsMismatch(t *testing.T) {
	src := sourceWith(models.ElementEntry{Symbol: "Cr", MinValue: fp(10), MaxValue: fp(14)})
	res := Score(src, map[string]float64{"Cr": 12, "Ni": 9})
	if res.FullMatch {
		t.Error("absent targeted element must break a full match")
	}
	if res.Elements["Ni"] != Mismatch {
		t.Errorf("Ni classification = %v, want mismatch", res.Elements["Ni"])
	}
}

func TestScore_UnboundedSides(t *testing.T) {
	// Only an upper bound: anything below it matches.
	src := sourceWith(models.ElementEntry{Symbol: "C", MaxValue: fp(0.12)})
	if res := Score(src, map[string]float64{"C": 0.05}); !res.FullMatch {
		t.Errorf("value under sole upper bound should match: %+v", res)
	}
	if res := Score(src, map[string]float64{"C": 0.2}); res.FullMatch {
		t.Error("value above sole upper bound should mismatch")
	}
}

func TestScore_ToleranceOverridesBound(t *testing.T) {
	src := sourceWith(models.ElementEntry{
		Symbol: "Cr", MinValue: fp(10), MaxValue: fp(14), MaxTolerance: "14.5",
	})
	if res := Score(src, map[string]float64{"Cr": 14.3}); !res.FullMatch {
		t.Errorf("tolerance should widen the upper bound: %+v", res)
	}
	// Non-numeric tolerance is ignored.
	src = sourceWith(models.ElementEntry{
		Symbol: "Cr", MinValue: fp(10), MaxValue: fp(14), MaxTolerance: "по согласованию",
	})
	if res := Score(src, map[string]float64{"Cr": 14.3}); res.FullMatch {
		t.Error("unparseable tolerance must not widen the bound")
	}
}

func TestRank_FullMatchesFirst(t *testing.T) {
	full3 := Scored{Result: Result{FullMatch: true, Score: 3}}
	full1 := Scored{Result: Result{FullMatch: true, Score: 1}}
	partial := Scored{Result: Result{FullMatch: false, Score: PartialScore}}

	items := []Scored{partial, full1, full3}
	Rank(items)

	if !items[0].Result.FullMatch || items[0].Result.Score != 3 {
		t.Errorf("first = %+v, want full match score 3", items[0].Result)
	}
	if !items[1].Result.FullMatch || items[1].Result.Score != 1 {
		t.Errorf("second = %+v, want full match score 1", items[1].Result)
	}
	if items[2].Result.FullMatch {
		t.Errorf("partial match must sort last")
	}
}

func TestFormatRange(t *testing.T) {
	cases := []struct {
		entry *models.ElementEntry
		want  string
	}{
		{&models.ElementEntry{MinValue: fp(10), MaxValue: fp(14)}, "10 - 14"},
		{&models.ElementEntry{MaxValue: fp(0.12)}, "≤ 0.12"},
		{&models.ElementEntry{MinValue: fp(17)}, "≥ 17"},
		{&models.ElementEntry{MinValue: fp(0), MaxValue: fp(0)}, "-"},
		{nil, "-"},
	}
	for _, c := range cases {
		if got := FormatRange(c.entry); got != c.want {
			t.Errorf("FormatRange(%+v) = %q, want %q", c.entry, got, c.want)
		}
	}
}
