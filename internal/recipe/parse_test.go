package recipe_test

import (
	"reflect"
	"testing"

	"yt2tandoor/internal/recipe"
)

func TestParseISODurationMinutes(t *testing.T) {
	cases := []struct {
		name string
		iso  string
		want int
	}{
		{"hours and minutes", "PT1H30M", 90},
		{"minutes only", "PT45M", 45},
		{"hours only", "PT2H", 120},
		{"no PT prefix still parses", "1H5M", 65},
		{"empty", "", 0},
		{"no components", "PT", 0},
		{"lowercase units ignored", "45 minutes", 0},
		{"garbage", "soon", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := recipe.ParseISODurationMinutes(tc.iso); got != tc.want {
				t.Fatalf("ParseISODurationMinutes(%q) = %d, want %d", tc.iso, got, tc.want)
			}
		})
	}
}

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		name  string
		token string
		want  float64
	}{
		{"integer", "2", 2},
		{"decimal", "2.5", 2.5},
		{"fraction", "1/2", 0.5},
		{"fraction with spaces", "3 / 4", 0.75},
		{"range takes maximum", "1-2", 2},
		{"reversed range still maximum", "3-2", 3},
		{"range of fractions", "1/2-3/4", 0.75},
		{"zero denominator", "1/0", 0},
		{"double fraction", "1/2/3", 0},
		{"unparseable", "a few", 0},
		{"empty", "", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := recipe.ParseQuantity(tc.token); got != tc.want {
				t.Fatalf("ParseQuantity(%q) = %v, want %v", tc.token, got, tc.want)
			}
		})
	}
}

func TestParseIngredientLine(t *testing.T) {
	units := recipe.NewUnitSet()

	cases := []struct {
		name string
		raw  string
		want recipe.Ingredient
	}{
		{
			name: "quantity unit food and note",
			raw:  "200 g flour, sifted",
			want: recipe.Ingredient{
				Amount: 200,
				Unit:   &recipe.Unit{Name: "g"},
				Food:   recipe.Food{Name: "flour"},
				Note:   "sifted",
			},
		},
		{
			name: "unrecognized middle token folds into food",
			raw:  "2 large eggs",
			want: recipe.Ingredient{
				Amount: 2,
				Food:   recipe.Food{Name: "large eggs"},
			},
		},
		{
			name: "no numeric quantity",
			raw:  "a pinch of salt",
			want: recipe.Ingredient{
				Food:     recipe.Food{Name: "a pinch of salt"},
				NoAmount: true,
			},
		},
		{
			name: "fractional quantity",
			raw:  "1/2 cup sugar",
			want: recipe.Ingredient{
				Amount: 0.5,
				Unit:   &recipe.Unit{Name: "cup"},
				Food:   recipe.Food{Name: "sugar"},
			},
		},
		{
			name: "range quantity takes maximum",
			raw:  "2-3 cloves garlic",
			want: recipe.Ingredient{
				Amount: 3,
				Unit:   &recipe.Unit{Name: "cloves"},
				Food:   recipe.Food{Name: "garlic"},
			},
		},
		{
			name: "hyphenated food keeps the unit",
			raw:  "1 cup all-purpose flour",
			want: recipe.Ingredient{
				Amount: 1,
				Unit:   &recipe.Unit{Name: "cup"},
				Food:   recipe.Food{Name: "all-purpose flour"},
			},
		},
		{
			// The unit candidate greedily spans two words, so a known unit
			// followed by a multi-word food folds into the food name. This
			// mirrors the upstream converter; keep in sync with any future
			// vocabulary policy change.
			name: "two word food folds unit candidate",
			raw:  "2 tbsp soy sauce",
			want: recipe.Ingredient{
				Amount: 2,
				Food:   recipe.Food{Name: "tbsp soy sauce"},
			},
		},
		{
			name: "quantity and single word food",
			raw:  "3 eggs",
			want: recipe.Ingredient{
				Amount: 3,
				Food:   recipe.Food{Name: "eggs"},
			},
		},
		{
			name: "note splits before quantity parsing",
			raw:  "salt, to taste",
			want: recipe.Ingredient{
				Food:     recipe.Food{Name: "salt"},
				Note:     "to taste",
				NoAmount: true,
			},
		},
		{
			name: "only first comma splits the note",
			raw:  "100 g butter, softened, cubed",
			want: recipe.Ingredient{
				Amount: 100,
				Unit:   &recipe.Unit{Name: "g"},
				Food:   recipe.Food{Name: "butter"},
				Note:   "softened, cubed",
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := recipe.ParseIngredientLine(tc.raw, units)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ParseIngredientLine(%q) = %+v, want %+v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestParseIngredientLineExtraUnits(t *testing.T) {
	units := recipe.NewUnitSet("knob")

	got := recipe.ParseIngredientLine("1 knob ginger", units)
	if got.Unit == nil || got.Unit.Name != "knob" {
		t.Fatalf("expected extended vocabulary to classify knob, got %+v", got)
	}
	if got.Food.Name != "ginger" {
		t.Fatalf("expected food ginger, got %q", got.Food.Name)
	}
}

func TestUnitSetCaseInsensitive(t *testing.T) {
	units := recipe.NewUnitSet()

	got := recipe.ParseIngredientLine("200 G flour", units)
	if got.Unit == nil || got.Unit.Name != "G" {
		t.Fatalf("expected original-case unit G, got %+v", got)
	}
}

func TestSplitInstructionSections(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []recipe.Section
	}{
		{
			name: "two sections",
			text: "## Brown the meat\nBrown the beef in a pan.\n\n## Make the sauce\nAdd tomatoes and simmer.",
			want: []recipe.Section{
				{Header: "Brown the meat", Body: "Brown the beef in a pan."},
				{Header: "Make the sauce", Body: "Add tomatoes and simmer."},
			},
		},
		{
			name: "no markers yields synthetic section",
			text: "Mix everything and bake.",
			want: []recipe.Section{
				{Header: "Instructions", Body: "Mix everything and bake."},
			},
		},
		{
			name: "multiline text without markers stays whole",
			text: "Mix the dry ingredients.\nFold in the wet ingredients.",
			want: []recipe.Section{
				{Header: "Instructions", Body: "Mix the dry ingredients.\nFold in the wet ingredients."},
			},
		},
		{
			name: "header without body",
			text: "## Serve",
			want: []recipe.Section{
				{Header: "Serve", Body: ""},
			},
		},
		{
			name: "leading text becomes its own section",
			text: "Get everything ready.\n## Cook\nCook it.",
			want: []recipe.Section{
				{Header: "Get everything ready.", Body: ""},
				{Header: "Cook", Body: "Cook it."},
			},
		},
		{
			name: "empty",
			text: "",
			want: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := recipe.SplitInstructionSections(tc.text)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("SplitInstructionSections(%q) = %+v, want %+v", tc.text, got, tc.want)
			}
		})
	}
}

func TestSplitInstructionSectionsMultilineBody(t *testing.T) {
	text := "## Prep\nChop the onions.\nMince the garlic."
	got := recipe.SplitInstructionSections(text)
	if len(got) != 1 {
		t.Fatalf("expected 1 section, got %d", len(got))
	}
	if got[0].Body != "Chop the onions.\nMince the garlic." {
		t.Fatalf("unexpected body: %q", got[0].Body)
	}
}
