// Package language normalizes user-supplied language values to the ISO
// 639-1 codes whisper expects.
package language

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Full word forms and legacy bibliographic codes that x/text does not parse.
var words = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"fre":        "fr",
	"german":     "de",
	"ger":        "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"chi":        "zh",
	"russian":    "ru",
	"arabic":     "ar",
	"hindi":      "hi",
	"dutch":      "nl",
	"dut":        "nl",
	"polish":     "pl",
	"swedish":    "sv",
	"danish":     "da",
	"norwegian":  "no",
	"finnish":    "fi",
}

// Normalize resolves value to an ISO 639-1 base code. Full language words
// ("english"), 3-letter codes ("eng") and BCP 47 tags ("en-US") are all
// accepted. Unrecognized values come back lowercased alongside an error so
// config validation can surface them.
func Normalize(value string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return "", fmt.Errorf("language value is empty")
	}
	if code, ok := words[trimmed]; ok {
		return code, nil
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return trimmed, fmt.Errorf("unrecognized language %q", value)
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return trimmed, fmt.Errorf("unrecognized language %q", value)
	}
	return base.String(), nil
}

// ToISO2 is Normalize for callers holding already-validated config: it
// returns the resolved code, or empty string for unrecognized input.
func ToISO2(value string) string {
	code, err := Normalize(value)
	if err != nil {
		return ""
	}
	return code
}
