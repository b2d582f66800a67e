package models

// PropertyInfo describes one property key: human-readable name, short symbol,
// and the native unit values are stored in on disk.
type PropertyInfo struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Unit   string `json:"unit"`
}

// PhysicalProperties enumerates the fixed physical property keys.
var PhysicalProperties = map[string]PropertyInfo{
	"modulus_elasticity":               {Name: "Модуль упругости", Symbol: "E", Unit: "МПа"},
	"coefficient_linear_expansion":     {Name: "Коэффициент линейного расширения (·10¯⁶)", Symbol: "α", Unit: "1/°С"},
	"coefficient_thermal_conductivity": {Name: "Коэффициент теплопроводности", Symbol: "λ", Unit: "Вт/(м·°С)"},
	"density":                          {Name: "Плотность", Symbol: "ρ", Unit: "кг/м³"},
	"specific_heat":                    {Name: "Удельная теплоемкость", Symbol: "С", Unit: "Дж/(кг‧°С)"},
}

// MechanicalProperties enumerates the fixed mechanical property keys carried
// by every strength category. Note: the creep key begins with a Cyrillic "с";
// that is how existing documents spell it, so it is preserved verbatim.
var MechanicalProperties = map[string]PropertyInfo{
	"yield_strength":                               {Name: "Предел текучести", Symbol: "σ_0,2", Unit: "МПа"},
	"tensile_strength":                             {Name: "Предел прочности", Symbol: "σ_в", Unit: "МПа"},
	"impact_strength":                              {Name: "Ударная вязкость", Symbol: "KCU", Unit: "Дж/см²"},
	"tensile_strength_limit_10_thousands_hours":    {Name: "Предел длит. прочности за 10 тыс.ч", Symbol: "σ_дп_10", Unit: "МПа"},
	"tensile_strength_limit_100_thousands_hours":   {Name: "Предел длит. прочности за 100 тыс.ч", Symbol: "σ_дп_100", Unit: "МПа"},
	"tensile_strength_limit_200_thousands_hours":   {Name: "Предел длит. прочности за 200 тыс.ч", Symbol: "σ_дп_200", Unit: "МПа"},
	"tensile_strength_limit_250_thousands_hours":   {Name: "Предел длит. прочности за 250 тыс.ч", Symbol: "σ_дп_250", Unit: "МПа"},
	"сreep_strain_rate_1_100_thousands_hours":      {Name: "Ползучесть при скорости деформации 1%/100 тыс.ч", Symbol: "σ_1_100", Unit: "МПа"},
	"decrement_oscillations_at_800":                {Name: "Декремент колебаний при 800 (·10¯⁴)", Symbol: "δψ_800", Unit: "кгс/см²"},
	"decrement_oscillations_at_1200":               {Name: "Декремент колебаний при 1200 (·10¯⁴)", Symbol: "δψ_1200", Unit: "кгс/см²"},
	"decrement_oscillations_at_1600":               {Name: "Декремент колебаний при 1600 (·10¯⁴)", Symbol: "δψ_1600", Unit: "кгс/см²"},
	"fatigue_limit_for_smooth_specimen":            {Name: "Предел выносливости (гладкий образец, N=10e7)", Symbol: "σ_-1_smooth", Unit: "МПа"},
	"fatigue_limit_for_notched_specimen":           {Name: "Предел выносливости (образец с надрезом, N=10e7)", Symbol: "σ_-1_notched", Unit: "МПа"},
}

// AllProperties is the union of physical and mechanical property keys.
var AllProperties = func() map[string]PropertyInfo {
	out := make(map[string]PropertyInfo, len(PhysicalProperties)+len(MechanicalProperties))
	for k, v := range PhysicalProperties {
		out[k] = v
	}
	for k, v := range MechanicalProperties {
		out[k] = v
	}
	return out
}()

// NativeUnit returns the unit a property's values are stored in.
func NativeUnit(propKey string) (string, bool) {
	info, ok := AllProperties[propKey]
	if !ok {
		return "", false
	}
	return info.Unit, true
}

// IsMechanical reports whether propKey belongs to the mechanical set.
func IsMechanical(propKey string) bool {
	_, ok := MechanicalProperties[propKey]
	return ok
}
