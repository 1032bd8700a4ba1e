package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldItemID is the standardized structured logging key for queue item identifiers.
	FieldItemID = "item_id"
	// FieldProfileID is the standardized structured logging key for profile identifiers.
	FieldProfileID = "profile_id"
	// FieldContentType is the standardized structured logging key for queue content types.
	FieldContentType = "content_type"
	// FieldState is the standardized structured logging key for queue item states.
	FieldState = "state"
	// FieldCorrelationID is the standardized structured logging key for install run correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType labels log lines that correspond to lifecycle events.
	FieldEventType = "event_type"
	// FieldErrorHint carries a short operator-facing remediation hint.
	FieldErrorHint = "error_hint"
)
