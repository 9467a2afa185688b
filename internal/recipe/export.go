package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Export writes the record as indented JSON into dir for manual import after
// a failed publish. The filename is derived from the recipe name; anything
// outside letters, digits, underscore, and hyphen is dropped. Returns the
// path written.
func Export(record Record, dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("recipe export: directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("recipe export: create directory: %w", err)
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(record); err != nil {
		return "", fmt.Errorf("recipe export: encode record: %w", err)
	}

	path := filepath.Join(dir, exportName(record.Name)+"_tandoor.json")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("recipe export: write file: %w", err)
	}
	return path, nil
}

// exportName keeps the recipe name recognizable in a filename. Spaces become
// underscores and any remaining character outside the safe set is removed;
// case is preserved so the file matches what the user saw in the queue.
func exportName(name string) string {
	replaced := strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	var b strings.Builder
	for _, r := range replaced {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "recipe"
	}
	return b.String()
}
