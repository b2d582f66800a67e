package mcpserver

// RecordFormatContract describes the canonical material record document that
// LLM consumers should follow when reading or proposing edits.
const RecordFormatContract = `# Uruz Material Record Format

Every material is one JSON document. Field names are fixed schema keys in
English; values (names, sources, comments) may use any language including
Cyrillic.

## Structure

` + "```" + `json
{
  "material_id": "c0ffee00-0000-4000-8000-000000000001",
  "metadata": {
    "name_material_standard": "12Х18Н10Т",
    "name_material_alternative": ["Х18Н10Т"],
    "application_area": ["Крепеж", "Трубопроводы"],
    "comment": "",
    "classification": {
      "classification_category": "Сталь",
      "classification_class": "Нержавеющая",
      "classification_subclass": "Аустенитная"
    },
    "temperature_application": {"value": 600, "comment": ""}
  },
  "physical_properties": {
    "modulus_elasticity": {
      "property_source": "ГОСТ ...",
      "property_subsource": "",
      "comment": "",
      "temperature_value_pairs": [[20, 198000], [100, 194000]],
      "property_last_updated": "2025-01-15T10:00:00Z"
    }
  },
  "mechanical_properties": {
    "strength_category": [
      {
        "value_strength_category": "КП 100",
        "yield_strength": {
          "property_source": "...",
          "property_subsource": "",
          "comment": "",
          "temperature_value_pairs": [[20, 100]]
        },
        "hardness": [
          {"property_source": "...", "property_subsource": "",
           "min_value": 121, "max_value": 151, "unit_value": "НВ"}
        ]
      }
    ]
  },
  "chemical_properties": {
    "composition": [
      {
        "composition_source": "ГОСТ 5632-2014",
        "composition_subsource": "",
        "comment": "",
        "base_element": "Fe",
        "other_elements": [
          {"element": "Cr", "min_value": 17, "max_value": 19, "unit_value": "%",
           "min_value_tolerance": "", "max_value_tolerance": ""}
        ]
      }
    ]
  }
}
` + "```" + `

## Rules

1. **` + "`" + `material_id` + "`" + ` is a UUID** assigned at creation and never edited.
2. **` + "`" + `name_material_standard` + "`" + ` is required.** It is the primary display
   name everywhere.
3. **Temperature series** are arrays of two-element ` + "`" + `[temperature, value]` + "`" + `
   rows in the property's native unit. Rows that are not a numeric pair are
   ignored by readers; do not rely on that.
4. **Physical property keys** are fixed: ` + "`" + `modulus_elasticity` + "`" + `,
   ` + "`" + `coefficient_linear_expansion` + "`" + `, ` + "`" + `coefficient_thermal_conductivity` + "`" + `,
   ` + "`" + `density` + "`" + `, ` + "`" + `specific_heat` + "`" + `.
5. **Mechanical property series** live inside a strength category, as sibling
   keys of ` + "`" + `value_strength_category` + "`" + ` and ` + "`" + `hardness` + "`" + `. Only the known
   mechanical keys are read; unknown keys are ignored.
6. **Hardness** has no temperature dependency: min/max bounds plus a unit.
7. **Composition bounds** use ` + "`" + `min_value` + "`" + `/` + "`" + `max_value` + "`" + ` percentages;
   tolerance strings, when numeric, override the matching bound.
8. **` + "`" + `property_last_updated` + "`" + ` is maintained by the service** on save; do
   not set it by hand.
9. **File paths** end with ` + "`" + `.json` + "`" + ` and use forward slashes; names are
   Latin, lowercase.
`
