package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// QueueItem describes a queue entry in a transport-friendly format.
type QueueItem struct {
	ID                int64           `json:"id"`
	VideoURL          string          `json:"videoUrl"`
	VideoID           string          `json:"videoId,omitempty"`
	Title             string          `json:"title,omitempty"`
	Status            string          `json:"status"`
	Progress          QueueProgress   `json:"progress"`
	ErrorMessage      string          `json:"errorMessage,omitempty"`
	CreatedAt         string          `json:"createdAt,omitempty"`
	UpdatedAt         string          `json:"updatedAt,omitempty"`
	ServingsOverride  int             `json:"servingsOverride,omitempty"`
	BypassCache       bool            `json:"bypassCache,omitempty"`
	ForcePublish      bool            `json:"forcePublish,omitempty"`
	TranscriptCached  bool            `json:"transcriptCached"`
	AudioPath         string          `json:"audioPath,omitempty"`
	TranscriptPath    string          `json:"transcriptPath,omitempty"`
	RecipeName        string          `json:"recipeName,omitempty"`
	RecipeID          int64           `json:"recipeId,omitempty"`
	RecipeURL         string          `json:"recipeUrl,omitempty"`
	FallbackPath      string          `json:"fallbackPath,omitempty"`
	DuplicateRecipeID int64           `json:"duplicateRecipeId,omitempty"`
	NeedsReview       bool            `json:"needsReview"`
	ReviewReason      string          `json:"reviewReason,omitempty"`
	Recipe            json.RawMessage `json:"recipe,omitempty"`
}

// QueueProgress captures stage progress information for a queue entry.
type QueueProgress struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	QueueStats  map[string]int `json:"queueStats"`
	LastError   string         `json:"lastError,omitempty"`
	LastItem    *QueueItem     `json:"lastItem,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command,omitempty"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
	Severity    string `json:"severity,omitempty"`
}

// DependencySummary condenses dependency readiness into a single line.
type DependencySummary struct {
	Total           int    `json:"total"`
	Available       int    `json:"available"`
	MissingRequired int    `json:"missingRequired"`
	MissingOptional int    `json:"missingOptional"`
	Severity        string `json:"severity,omitempty"`
	Detail          string `json:"detail,omitempty"`
}

// StatusLine is a labeled status row used by human-oriented renderings.
type StatusLine struct {
	Label    string `json:"label"`
	Severity string `json:"severity,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	QueueDBPath  string             `json:"queueDbPath"`
	LockFilePath string             `json:"lockFilePath"`
	Workflow     WorkflowStatus     `json:"workflow"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// SubmitRequest carries a video submission from the HTTP API or IPC.
type SubmitRequest struct {
	URL      string `json:"url"`
	Servings int    `json:"servings,omitempty"`
	NoCache  bool   `json:"no_cache,omitempty"`
	Force    bool   `json:"force,omitempty"`
}

// SubmitResponse reports the admission outcome for a submitted video.
type SubmitResponse struct {
	ID       int64  `json:"id,omitempty"`
	Position int    `json:"position,omitempty"`
	Message  string `json:"message"`
}

// QueueStatsResponse provides a normalized queue stats payload.
type QueueStatsResponse struct {
	Counts map[string]int `json:"counts"`
}

// LogTailResponse carries log lines read from the daemon log file.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// QueueListResponse wraps a collection of queue items for API responses.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueItemResponse wraps a single queue item.
type QueueItemResponse struct {
	Item QueueItem `json:"item"`
}
