package api

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"yt2tandoor/internal/recipe"
)

// SortQueueItemsNewestFirst orders queue items by CreatedAt descending, breaking ties by ID descending.
func SortQueueItemsNewestFirst(items []QueueItem) []QueueItem {
	if len(items) == 0 {
		return nil
	}
	sorted := make([]QueueItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		ti := parseQueueTime(sorted[i].CreatedAt)
		tj := parseQueueTime(sorted[j].CreatedAt)
		if ti.Equal(tj) {
			return sorted[i].ID > sorted[j].ID
		}
		return ti.After(tj)
	})
	return sorted
}

func parseQueueTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}

// ParseQueueTime exposes queue timestamp parsing for consumers that need display formatting.
func ParseQueueTime(value string) time.Time {
	return parseQueueTime(value)
}

// RecipeSummary condenses an extracted recipe document for table rendering.
type RecipeSummary struct {
	Name        string
	Yield       string
	Ingredients int
	Steps       int
	Keywords    []string
	TotalTime   string
}

// SummarizeRecipe parses the item's stored recipe JSON into display fields.
// It returns false when the item carries no parseable recipe yet.
func SummarizeRecipe(item QueueItem) (RecipeSummary, bool) {
	if len(item.Recipe) == 0 {
		return RecipeSummary{}, false
	}
	var doc recipe.Document
	if err := json.Unmarshal(item.Recipe, &doc); err != nil {
		return RecipeSummary{}, false
	}
	summary := RecipeSummary{
		Name:        strings.TrimSpace(doc.Name),
		Yield:       strings.TrimSpace(string(doc.Yield)),
		Ingredients: len(doc.Ingredients),
		Steps:       len(recipe.SplitInstructionSections(doc.Instructions.Text())),
		TotalTime:   strings.TrimSpace(doc.TotalTime),
	}
	for _, keyword := range doc.Keywords {
		if keyword = strings.TrimSpace(keyword); keyword != "" {
			summary.Keywords = append(summary.Keywords, keyword)
		}
	}
	if summary.Name == "" {
		summary.Name = item.RecipeName
	}
	return summary, summary.Name != ""
}
