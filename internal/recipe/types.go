package recipe

import (
	"encoding/json"
	"strings"
)

// Document is the schema.org Recipe payload the extractor returns. Field
// shapes coming out of an LLM drift, so the flexible fields carry tolerant
// unmarshalers that default unknown shapes instead of failing the job.
type Document struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Author       Author       `json:"author"`
	URL          string       `json:"url"`
	Category     string       `json:"recipeCategory"`
	Cuisine      string       `json:"recipeCuisine"`
	Yield        FlexString   `json:"recipeYield"`
	PrepTime     string       `json:"prepTime"`
	CookTime     string       `json:"cookTime"`
	TotalTime    string       `json:"totalTime"`
	Ingredients  []string     `json:"recipeIngredient"`
	Instructions Instructions `json:"recipeInstructions"`
	Keywords     StringList   `json:"keywords"`
}

// Author accepts either a schema.org Person object or a bare string.
type Author struct {
	Name string
}

func (a *Author) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		a.Name = name
		return nil
	}
	var person struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &person); err == nil {
		a.Name = person.Name
		return nil
	}
	a.Name = ""
	return nil
}

func (a Author) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name string `json:"name"`
	}{Name: a.Name})
}

// FlexString accepts a JSON string or number, normalizing to text. Yields
// like "4 servings" and bare numbers both appear in the wild.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*f = FlexString(text)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err == nil {
		*f = FlexString(number.String())
		return nil
	}
	*f = ""
	return nil
}

// InstructionStep accepts a HowToStep object or a bare string.
type InstructionStep struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

func (s *InstructionStep) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		s.Text = text
		return nil
	}
	var step struct {
		Name string `json:"name"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &step); err == nil {
		s.Name = step.Name
		s.Text = step.Text
		return nil
	}
	s.Name = ""
	s.Text = ""
	return nil
}

// Instructions accepts an array of steps, a single step object, or a bare
// string for the recipeInstructions field.
type Instructions []InstructionStep

func (ins *Instructions) UnmarshalJSON(data []byte) error {
	var list []InstructionStep
	if err := json.Unmarshal(data, &list); err == nil {
		*ins = list
		return nil
	}
	var single InstructionStep
	if err := json.Unmarshal(data, &single); err == nil && single.Text != "" {
		*ins = Instructions{single}
		return nil
	}
	*ins = nil
	return nil
}

// Text returns the instruction blob: the first step's text. The extraction
// prompt asks for a single markdown-sectioned step, so later entries are not
// consulted.
func (ins Instructions) Text() string {
	if len(ins) == 0 {
		return ""
	}
	return ins[0].Text
}

// StringList accepts an array (keeping only string entries) or a single
// comma-separated string for keyword-style fields.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err == nil {
		values := make([]string, 0, len(raw))
		for _, element := range raw {
			var value string
			if err := json.Unmarshal(element, &value); err == nil {
				values = append(values, value)
			}
		}
		*l = values
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err == nil {
		var values []string
		for _, part := range strings.Split(joined, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
		*l = values
		return nil
	}
	*l = nil
	return nil
}

// Record is the normalized recipe in the publish target's native shape.
type Record struct {
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	WorkingTime  int       `json:"working_time"`
	WaitingTime  int       `json:"waiting_time"`
	Servings     int       `json:"servings"`
	ServingsText string    `json:"servings_text"`
	SourceURL    string    `json:"source_url"`
	Internal     bool      `json:"internal"`
	Keywords     []Keyword `json:"keywords"`
	Steps        []Step    `json:"steps"`
}

// Keyword labels a recipe; cuisine and category values fold into this list.
type Keyword struct {
	Name string `json:"name"`
}

// Step is one instruction section. The first step of every converted record
// carries the full ingredient list with the table enabled; instruction steps
// that follow carry no ingredients.
type Step struct {
	Name                 string       `json:"name"`
	Instruction          string       `json:"instruction"`
	Ingredients          []Ingredient `json:"ingredients"`
	ShowIngredientsTable bool         `json:"show_ingredients_table"`
}

// Ingredient is one parsed ingredient line.
type Ingredient struct {
	Amount   float64 `json:"amount"`
	Unit     *Unit   `json:"unit"`
	Food     Food    `json:"food"`
	Note     string  `json:"note"`
	NoAmount bool    `json:"no_amount,omitempty"`
}

// Unit is a recognized measurement unit. A nil *Unit on an Ingredient means
// no token matched the unit vocabulary.
type Unit struct {
	Name string `json:"name"`
}

// Food names the ingredient itself.
type Food struct {
	Name string `json:"name"`
}
