package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"puc-service/internal/domain/puc"
	"puc-service/internal/utils"
)

// Candidate field keys. They mirror the intake form field names so the
// extractor output can be merged straight into editable form state.
const (
	FieldVehicleNumber    = "vehicle_number"
	FieldTestDate         = "test_date"
	FieldValidityDate     = "validity_date"
	FieldFuelType         = "fuel_type"
	FieldEmissionStandard = "emission_standard"
	FieldContactNumber    = "contact_number"
)

var (
	reDateTriad = regexp.MustCompile(`(\d{1,2})[./-](\d{1,2})[./-](\d{2,4})`)
	rePlate     = regexp.MustCompile(`(?i)\b[A-Z]{2}[\s-]?\d{1,2}[\s-]?[A-Z]{1,3}[\s-]?\d{3,4}\b`)
	reNumber    = regexp.MustCompile(`\d+(?:\.\d+)?`)
	rePhone     = regexp.MustCompile(`\d{10}`)
	reStandard  = regexp.MustCompile(`(?i)\bBS[\s-]?(VI|IV|III|6|4|3)\b`)
)

// fieldRule ties one candidate field to a label anchor and a value shape.
// Rules are independent: each one either contributes its field or stays
// silent, and no rule looks at another rule's result. A nil anchor means the
// value shape is distinctive enough to be searched in the whole text.
type fieldRule struct {
	field  string
	anchor *regexp.Regexp
	value  *regexp.Regexp
}

var rules = []fieldRule{
	{field: FieldVehicleNumber, anchor: nil, value: rePlate},
	{field: FieldTestDate, anchor: regexp.MustCompile(`(?i)test\s*date|date\s*of\s*test|tested\s*on`), value: reDateTriad},
	{field: FieldValidityDate, anchor: regexp.MustCompile(`(?i)valid(ity)?|expiry|expires`), value: reDateTriad},
	{field: FieldContactNumber, anchor: regexp.MustCompile(`(?i)mob(ile)?|phone|contact`), value: rePhone},
	{field: puc.ReadingCOLevel, anchor: regexp.MustCompile(`(?i)\bCO\b`), value: reNumber},
	{field: puc.ReadingHCLevel, anchor: regexp.MustCompile(`(?i)\bHC\b`), value: reNumber},
	{field: puc.ReadingCOHighIdle, anchor: regexp.MustCompile(`(?i)high\s*idl\w*\s*CO|CO\s*high\s*idl`), value: reNumber},
	{field: puc.ReadingRPMHighIdle, anchor: regexp.MustCompile(`(?i)\bRPM\b`), value: reNumber},
	{field: puc.ReadingLambda, anchor: regexp.MustCompile(`(?i)lambda`), value: reNumber},
	{field: puc.ReadingSmokeDensity, anchor: regexp.MustCompile(`(?i)smoke|opacity`), value: reNumber},
}

var fuelKeywords = []struct {
	keyword string
	fuel    puc.FuelType
}{
	{"PETROL", puc.FuelPetrol},
	{"DIESEL", puc.FuelDiesel},
	{"CNG", puc.FuelCNG},
	{"ELECTRIC", puc.FuelElectric},
}

// Extract pulls candidate intake-form values out of recognized document text.
// Best effort and strictly advisory: a field with no recognizable match is
// simply absent from the result, and malformed text never fails. The output
// pre-fills an editable form and is never committed without human review.
func Extract(text string) puc.ExtractionCandidate {
	out := puc.ExtractionCandidate{}
	if strings.TrimSpace(text) == "" {
		return out
	}

	lines := strings.Split(text, "\n")

	for _, rule := range rules {
		if v, ok := applyRule(rule, text, lines); ok {
			out[rule.field] = v
		}
	}

	// Enumerated fields resolve from keywords anywhere in the text,
	// independent of anchor proximity.
	upper := strings.ToUpper(text)
	for _, fk := range fuelKeywords {
		if strings.Contains(upper, fk.keyword) {
			out[FieldFuelType] = string(fk.fuel)
			break
		}
	}
	if m := reStandard.FindStringSubmatch(text); m != nil {
		out[FieldEmissionStandard] = canonicalStandard(m[1])
	}

	return out
}

// applyRule searches the rule's value shape in the neighborhood of its
// anchor: the remainder of the anchor's line first, then the following line.
func applyRule(rule fieldRule, text string, lines []string) (string, bool) {
	if rule.anchor == nil {
		if m := rule.value.FindString(text); m != "" {
			if v := renderValue(rule.field, m); v != "" {
				return v, true
			}
		}
		return "", false
	}

	for i, line := range lines {
		loc := rule.anchor.FindStringIndex(line)
		if loc == nil {
			continue
		}
		if m := rule.value.FindString(line[loc[1]:]); m != "" {
			if v := renderValue(rule.field, m); v != "" {
				return v, true
			}
		}
		if i+1 < len(lines) {
			if m := rule.value.FindString(lines[i+1]); m != "" {
				if v := renderValue(rule.field, m); v != "" {
					return v, true
				}
			}
		}
	}
	return "", false
}

func renderValue(field, raw string) string {
	switch field {
	case FieldVehicleNumber:
		return utils.NormalizeVehicleNumber(raw)
	case FieldTestDate, FieldValidityDate:
		if d, ok := normalizeDate(raw); ok {
			return d
		}
		return ""
	default:
		return strings.TrimSpace(raw)
	}
}

// normalizeDate turns a day/month/year triad into an unambiguous YYYY-MM-DD
// string. Two-digit years are promoted to the 2000s.
func normalizeDate(raw string) (string, bool) {
	m := reDateTriad.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if year < 100 {
		year += 2000
	}
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

func canonicalStandard(numeral string) string {
	switch strings.ToUpper(numeral) {
	case "VI", "6":
		return "BS-VI"
	case "IV", "4":
		return "BS-IV"
	default:
		return "BS-III"
	}
}
