package recipe_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"yt2tandoor/internal/recipe"
)

func TestExportWritesIndentedJSON(t *testing.T) {
	dir := t.TempDir()
	record := recipe.Record{
		Name:     "Garlic Butter Pasta",
		Servings: 4,
		Internal: true,
		Steps: []recipe.Step{
			{Name: "Ingredients", Instruction: "", ShowIngredientsTable: true},
		},
	}

	path, err := recipe.Export(record, dir)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if filepath.Base(path) != "Garlic_Butter_Pasta_tandoor.json" {
		t.Errorf("filename = %q", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "\n  \"name\": \"Garlic Butter Pasta\"") {
		t.Errorf("expected two-space indentation, got:\n%s", data)
	}
	var decoded recipe.Record
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("exported file should round-trip: %v", err)
	}
	if decoded.Name != record.Name || decoded.Servings != 4 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestExportDropsUnsafeCharacters(t *testing.T) {
	dir := t.TempDir()
	record := recipe.Record{Name: "Mom's \"Best\" Pasta (v2)!"}

	path, err := recipe.Export(record, dir)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if filepath.Base(path) != "Moms_Best_Pasta_v2_tandoor.json" {
		t.Errorf("filename = %q", filepath.Base(path))
	}
}

func TestExportDefaultsEmptyName(t *testing.T) {
	dir := t.TempDir()

	path, err := recipe.Export(recipe.Record{Name: "!!!"}, dir)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if filepath.Base(path) != "recipe_tandoor.json" {
		t.Errorf("filename = %q", filepath.Base(path))
	}
}

func TestExportCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fallback", "nested")

	path, err := recipe.Export(recipe.Record{Name: "Soup"}, dir)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected exported file: %v", err)
	}
}
