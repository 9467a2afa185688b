package recipe

import (
	"math"
	"strconv"
	"strings"
)

// ConvertOptions tunes conversion for one recipe. ServingsOverride rescales
// ingredient quantities when it differs from the document's own yield.
// DefaultServings applies when the yield string carries no digits (4 when
// unset). ExtraUnits extends the recognized-unit vocabulary.
type ConvertOptions struct {
	ServingsOverride int
	DefaultServings  int
	ExtraUnits       []string
}

// Convert transforms an extracted recipe document into the publish target's
// native record. Conversion is deterministic and never fails: malformed
// durations and quantities resolve to zero, and a missing name falls back to
// a placeholder.
func Convert(doc Document, opts ConvertOptions) Record {
	units := NewUnitSet(opts.ExtraUnits...)

	ingredients := make([]Ingredient, 0, len(doc.Ingredients))
	for _, raw := range doc.Ingredients {
		ingredients = append(ingredients, ParseIngredientLine(raw, units))
	}

	defaultServings := opts.DefaultServings
	if defaultServings <= 0 {
		defaultServings = 4
	}
	originalServings := defaultServings
	if match := digitPattern.FindString(string(doc.Yield)); match != "" {
		if parsed, err := strconv.Atoi(match); err == nil {
			originalServings = parsed
		}
	}
	targetServings := originalServings
	if opts.ServingsOverride > 0 {
		targetServings = opts.ServingsOverride
	}

	if opts.ServingsOverride > 0 && originalServings > 0 && opts.ServingsOverride != originalServings {
		scale := float64(opts.ServingsOverride) / float64(originalServings)
		for i := range ingredients {
			if ingredients[i].Amount > 0 {
				ingredients[i].Amount = math.Round(ingredients[i].Amount*scale*100) / 100
			}
		}
	}

	keywords := make([]Keyword, 0, len(doc.Keywords)+2)
	for _, keyword := range doc.Keywords {
		if keyword = strings.TrimSpace(keyword); keyword != "" {
			keywords = append(keywords, Keyword{Name: keyword})
		}
	}
	for _, label := range []string{doc.Cuisine, doc.Category} {
		if label = strings.TrimSpace(label); label != "" {
			keywords = append(keywords, Keyword{Name: label})
		}
	}

	description := doc.Description
	if author := doc.Author.Name; author != "" && !strings.Contains(description, author) {
		if description != "" {
			description = "By " + author + ". " + description
		} else {
			description = "By " + author
		}
	}

	name := strings.TrimSpace(doc.Name)
	if name == "" {
		name = "Untitled Recipe"
	}

	sections := SplitInstructionSections(doc.Instructions.Text())
	steps := make([]Step, 0, len(sections)+1)
	steps = append(steps, Step{
		Ingredients:          ingredients,
		ShowIngredientsTable: true,
	})
	for _, section := range sections {
		steps = append(steps, Step{
			Name:        section.Header,
			Instruction: section.Body,
			Ingredients: []Ingredient{},
		})
	}

	return Record{
		Name:         name,
		Description:  description,
		WorkingTime:  ParseISODurationMinutes(doc.PrepTime),
		WaitingTime:  ParseISODurationMinutes(doc.CookTime),
		Servings:     targetServings,
		ServingsText: "servings",
		SourceURL:    doc.URL,
		Internal:     true,
		Keywords:     keywords,
		Steps:        steps,
	}
}
