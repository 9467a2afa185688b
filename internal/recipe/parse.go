package recipe

import (
	"regexp"
	"strconv"
	"strings"
)

// defaultUnits is the recognized-unit vocabulary: mass, volume, count, and
// culinary-portion units. The set is data, not logic; deployments extend it
// through the recipe.extra_units config key.
var defaultUnits = []string{
	"g", "kg", "mg", "ml", "l", "dl", "cl",
	"tsp", "tbsp", "cup", "cups", "oz", "lb", "lbs",
	"clove", "cloves", "piece", "pieces", "pinch",
	"bunch", "can", "cans", "slice", "slices",
	"sprig", "sprigs", "head", "heads", "stalk", "stalks",
	"handful", "dash", "drop", "drops", "packet", "packets",
	"sheet", "sheets", "stick", "sticks", "whole",
	"grams", "gram",
}

// UnitSet is a lowercase unit vocabulary for ingredient classification.
type UnitSet map[string]struct{}

// NewUnitSet builds the default vocabulary extended with extra unit names.
func NewUnitSet(extra ...string) UnitSet {
	set := make(UnitSet, len(defaultUnits)+len(extra))
	for _, unit := range defaultUnits {
		set[unit] = struct{}{}
	}
	for _, unit := range extra {
		if unit = strings.ToLower(strings.TrimSpace(unit)); unit != "" {
			set[unit] = struct{}{}
		}
	}
	return set
}

// Contains reports whether a unit token belongs to the vocabulary.
func (u UnitSet) Contains(unit string) bool {
	_, ok := u[strings.ToLower(unit)]
	return ok
}

var (
	hoursPattern   = regexp.MustCompile(`(\d+)H`)
	minutesPattern = regexp.MustCompile(`(\d+)M`)

	// quantity, one-or-two-word unit candidate, food remainder
	unitIngredientPattern = regexp.MustCompile(`^([\d]+(?:[./][\d]+)?(?:\s*-\s*[\d]+(?:[./][\d]+)?)?)\s+([a-zA-Z]+(?:\s[a-zA-Z]+)?)\s+(.+)$`)
	// quantity, food remainder
	bareIngredientPattern = regexp.MustCompile(`^([\d]+(?:[./][\d]+)?(?:\s*-\s*[\d]+(?:[./][\d]+)?)?)\s+(.+)$`)

	digitPattern = regexp.MustCompile(`\d+`)
)

// ParseISODurationMinutes converts an ISO 8601 duration like PT1H30M to
// minutes. Missing components contribute zero; malformed input yields zero.
func ParseISODurationMinutes(iso string) int {
	if iso == "" {
		return 0
	}
	total := 0
	if match := hoursPattern.FindStringSubmatch(iso); match != nil {
		if hours, err := strconv.Atoi(match[1]); err == nil {
			total += hours * 60
		}
	}
	if match := minutesPattern.FindStringSubmatch(iso); match != nil {
		if minutes, err := strconv.Atoi(match[1]); err == nil {
			total += minutes
		}
	}
	return total
}

// ParseQuantity parses an amount token: plain decimals, simple fractions
// (a/b), and ranges (a-b, resolved to the maximum so estimates err large).
// Unparseable tokens and zero denominators yield zero.
func ParseQuantity(token string) float64 {
	token = strings.TrimSpace(token)

	if strings.Contains(token, "-") {
		best := 0.0
		for _, part := range strings.Split(token, "-") {
			if value := ParseQuantity(part); value > best {
				best = value
			}
		}
		return best
	}

	if strings.Contains(token, "/") {
		parts := strings.Split(token, "/")
		if len(parts) != 2 {
			return 0
		}
		numerator, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return 0
		}
		denominator, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil || denominator == 0 {
			return 0
		}
		return numerator / denominator
	}

	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0
	}
	return value
}

// ParseIngredientLine parses a raw ingredient string into an Ingredient.
// A trailing free-text note splits off on the first ", " before any quantity
// parsing. Then, in order: quantity + unit + food when the unit token is in
// the vocabulary; quantity + unit-folded-into-food when it is not; quantity +
// food with no unit token; finally the whole string as a food with the
// no-amount flag set.
func ParseIngredientLine(raw string, units UnitSet) Ingredient {
	s := strings.TrimSpace(raw)
	note := ""
	if idx := strings.Index(s, ", "); idx >= 0 {
		note = s[idx+2:]
		s = s[:idx]
	}

	if match := unitIngredientPattern.FindStringSubmatch(s); match != nil {
		amount := ParseQuantity(match[1])
		unit, food := match[2], match[3]
		if units.Contains(unit) {
			return Ingredient{
				Amount: amount,
				Unit:   &Unit{Name: unit},
				Food:   Food{Name: strings.TrimSpace(food)},
				Note:   note,
			}
		}
		return Ingredient{
			Amount: amount,
			Food:   Food{Name: strings.TrimSpace(unit + " " + food)},
			Note:   note,
		}
	}

	if match := bareIngredientPattern.FindStringSubmatch(s); match != nil {
		return Ingredient{
			Amount: ParseQuantity(match[1]),
			Food:   Food{Name: strings.TrimSpace(match[2])},
			Note:   note,
		}
	}

	return Ingredient{
		Food:     Food{Name: s},
		Note:     note,
		NoAmount: true,
	}
}

// Section is one (header, body) pair split from an instruction blob.
type Section struct {
	Header string
	Body   string
}

// SplitInstructionSections splits markdown instruction text on "## " section
// markers. Empty segments are dropped. Text with no markers becomes a single
// synthetic "Instructions" section carrying the full text.
func SplitInstructionSections(text string) []Section {
	var sections []Section
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return sections
	}
	if !strings.Contains(text, "## ") {
		return []Section{{Header: "Instructions", Body: trimmed}}
	}

	for _, part := range strings.Split(text, "## ") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		header, body, hasBody := strings.Cut(part, "\n")
		if hasBody {
			body = strings.TrimSpace(body)
		} else {
			body = ""
		}
		sections = append(sections, Section{Header: strings.TrimSpace(header), Body: body})
	}

	if len(sections) == 0 {
		sections = append(sections, Section{Header: "Instructions", Body: trimmed})
	}
	return sections
}
