package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields, propagated through the call chain.
const (
	// FieldRequestID is the HTTP request ID (UUID).
	FieldRequestID = "request_id"

	// FieldRunID identifies one indexing or sync pipeline run.
	FieldRunID = "run_id"

	// FieldComponent is the component/module name.
	FieldComponent = "component"

	// FieldEntityType is the indexed entity class (task, project, comment).
	FieldEntityType = "entity_type"

	// FieldEntityID is the durable id of the entity being processed.
	FieldEntityID = "entity_id"
)

// Standard metric fields, attached at the log entry level for aggregation.
const (
	// FieldDurationMs is the execution duration in milliseconds.
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field.
	FieldCount = "count"

	// FieldStatus is the operation status.
	FieldStatus = "status"

	// FieldSize is a payload size in bytes.
	FieldSize = "size"
)
