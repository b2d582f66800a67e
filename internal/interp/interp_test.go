package interp

import (
	"testing"

	"github.com/starford/uruz/internal/models"
)

var series = []models.Pair{
	{Temperature: 0, Value: 250},
	{Temperature: 100, Value: 230},
	{Temperature: 200, Value: 200},
}

func TestExactHit(t *testing.T) {
	r := ValueAtPairs(series, 200)
	v, ok := r.Value()
	if !ok || r.Interpolated() {
		t.Fatalf("expected exact hit, got %+v", r)
	}
	if v != 200 {
		t.Errorf("value = %v, want 200", v)
	}
	if r.String() != "200" {
		t.Errorf("string = %q, want 200 (exact values are not reformatted)", r.String())
	}
}

func TestInterpolatedBetweenSamples(t *testing.T) {
	r := ValueAtPairs(series, 150)
	v, ok := r.Value()
	if !ok || !r.Interpolated() {
		t.Fatalf("expected interpolated result, got %+v", r)
	}
	if v != 215 {
		t.Errorf("value = %v, want 215", v)
	}
	if r.String() != "215.00" {
		t.Errorf("string = %q, want 215.00", r.String())
	}
}

func TestInterpolatedRounding(t *testing.T) {
	pairs := []models.Pair{{Temperature: 0, Value: 0}, {Temperature: 3, Value: 1}}
	r := ValueAtPairs(pairs, 1)
	v, _ := r.Value()
	if v != 0.33 {
		t.Errorf("value = %v, want 0.33 (rounded to two decimals)", v)
	}
}

func TestNoExtrapolation(t *testing.T) {
	for _, temp := range []float64{-50, 300} {
		r := ValueAtPairs(series, temp)
		if r.Valid() {
			t.Errorf("temp %v outside range should yield no data, got %+v", temp, r)
		}
		if r.String() != NoDataText {
			t.Errorf("string = %q, want %q", r.String(), NoDataText)
		}
	}
}

func TestEmptyAndNilSeries(t *testing.T) {
	if r := ValueAtPairs(nil, 100); r.Valid() {
		t.Error("empty sample list should yield no data")
	}
	if r := ValueAt(nil, 100); r.Valid() {
		t.Error("nil series should yield no data")
	}
}

func TestUnsortedSamples(t *testing.T) {
	shuffled := []models.Pair{
		{Temperature: 200, Value: 200},
		{Temperature: 0, Value: 250},
		{Temperature: 100, Value: 230},
	}
	r := ValueAtPairs(shuffled, 150)
	v, ok := r.Value()
	if !ok || v != 215 {
		t.Errorf("unsorted input: value = %v ok=%v, want 215", v, ok)
	}
}

func TestSinglePoint(t *testing.T) {
	one := []models.Pair{{Temperature: 20, Value: 7850}}
	if r := ValueAtPairs(one, 20); !r.Valid() || r.Interpolated() {
		t.Errorf("single-point exact hit failed: %+v", r)
	}
	if r := ValueAtPairs(one, 25); r.Valid() {
		t.Error("single point cannot bracket any other temperature")
	}
}

func TestDuplicateTemperatures(t *testing.T) {
	dup := []models.Pair{
		{Temperature: 100, Value: 10},
		{Temperature: 100, Value: 20},
	}
	// Between the duplicates there is nothing to query; outside is no data.
	if r := ValueAtPairs(dup, 150); r.Valid() {
		t.Errorf("expected no data above duplicates, got %+v", r)
	}
	// An exact hit returns the first stored sample.
	r := ValueAtPairs(dup, 100)
	if v, ok := r.Value(); !ok || v != 10 {
		t.Errorf("exact hit on duplicates = %+v, want 10", r)
	}
}
