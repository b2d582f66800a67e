package units

import (
	"math"
	"testing"
)

func TestConvertPressure(t *testing.T) {
	got, ok := Convert(1, "МПа", "кгс/см²")
	if !ok {
		t.Fatal("expected conversion to succeed")
	}
	if math.Abs(got-10.19716) > 1e-9 {
		t.Errorf("1 МПа = %v кгс/см², want 10.19716", got)
	}

	back, ok := Convert(got, "кгс/см²", "МПа")
	if !ok {
		t.Fatal("expected reverse conversion to succeed")
	}
	if math.Abs(back-1) > 1e-4 {
		t.Errorf("round trip = %v, want ~1", back)
	}
}

func TestConvertIdentity(t *testing.T) {
	got, ok := Convert(42, "МПа", "МПа")
	if !ok || got != 42 {
		t.Errorf("identity conversion = %v ok=%v", got, ok)
	}
}

func TestConvertUnknownUnit(t *testing.T) {
	got, ok := Convert(42, "parsec", "МПа")
	if ok {
		t.Error("unknown unit should not convert")
	}
	if got != 42 {
		t.Errorf("value should pass through unconverted, got %v", got)
	}
}

func TestConvertProperty(t *testing.T) {
	// yield_strength is stored in МПа.
	got, ok := ConvertProperty(10, "yield_strength", "кгс/см²")
	if !ok {
		t.Fatal("expected property conversion to succeed")
	}
	if math.Abs(got-101.9716) > 1e-6 {
		t.Errorf("10 МПа = %v кгс/см², want 101.9716", got)
	}

	// Same unit requested: no conversion.
	if _, ok := ConvertProperty(10, "yield_strength", "МПа"); ok {
		t.Error("native-unit request should report no conversion")
	}

	// Unknown property key.
	if _, ok := ConvertProperty(10, "bogus", "кгс/см²"); ok {
		t.Error("unknown property should not convert")
	}
}

func TestSelectableUnits(t *testing.T) {
	got := SelectableUnits("yield_strength")
	if len(got) != 2 {
		t.Fatalf("selectable units = %v, want the pressure pair", got)
	}

	// density (кг/м³) belongs to no group: display-only.
	if got := SelectableUnits("density"); got != nil {
		t.Errorf("density should have no selectable units, got %v", got)
	}

	if got := SelectableUnits("bogus"); got != nil {
		t.Errorf("unknown property should have no selectable units, got %v", got)
	}
}
