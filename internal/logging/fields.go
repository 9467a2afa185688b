package logging

const (
	// FieldEventType categorizes log events for filtering (e.g. stage_started, stage_complete).
	FieldEventType = "event_type"
	// FieldErrorKind carries the classified error kind from services.Details.
	FieldErrorKind = "error_kind"
	// FieldErrorOperation names the operation that produced an error.
	FieldErrorOperation = "error_operation"
	// FieldErrorHint carries a remediation hint for operators.
	FieldErrorHint = "error_hint"
	// FieldProgressStage is the standardized structured logging key for progress stage labels.
	FieldProgressStage = "progress_stage"
	// FieldProgressMessage is the standardized structured logging key for progress detail text.
	FieldProgressMessage = "progress_message"
	// FieldProgressPercent is the standardized structured logging key for progress percentages.
	FieldProgressPercent = "progress_percent"
)
