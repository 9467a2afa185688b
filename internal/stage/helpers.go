package stage

import (
	"encoding/json"
	"strings"

	"yt2tandoor/internal/recipe"
	"yt2tandoor/internal/services"
)

// ParseRecipeDocument decodes the recipe document stored on a queue item.
// On failure it returns a services.ErrValidation suitable for stage Execute methods.
func ParseRecipeDocument(raw string) (recipe.Document, error) {
	if strings.TrimSpace(raw) == "" {
		return recipe.Document{}, services.Wrap(
			services.ErrValidation, "stage", "parse recipe document",
			"Recipe data missing; rerun extraction", nil)
	}
	var doc recipe.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return recipe.Document{}, services.Wrap(
			services.ErrValidation, "stage", "parse recipe document",
			"Recipe data invalid; rerun extraction", err)
	}
	return doc, nil
}
