package stage

import (
	"testing"
)

func TestParseRecipeDocument_Valid(t *testing.T) {
	raw := `{"name":"Garlic Pasta","recipeIngredient":["2 cloves garlic"],"recipeInstructions":"Cook."}`
	doc, err := ParseRecipeDocument(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Name != "Garlic Pasta" {
		t.Fatalf("unexpected name: %q", doc.Name)
	}
	if len(doc.Ingredients) != 1 {
		t.Fatalf("unexpected ingredient count: %d", len(doc.Ingredients))
	}
}

func TestParseRecipeDocument_Empty(t *testing.T) {
	_, err := ParseRecipeDocument("   ")
	if err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestParseRecipeDocument_Invalid(t *testing.T) {
	_, err := ParseRecipeDocument("{invalid json")
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}
