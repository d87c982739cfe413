package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields, propagated through the call chain.
const (
	// FieldRunID identifies one migration or caption run (UUID).
	FieldRunID = "run_id"

	// FieldComponent is the component/module name.
	FieldComponent = "component"

	// FieldExternalID is the stable source-platform identifier of an item.
	FieldExternalID = "external_id"

	// FieldRemoteID is the identifier assigned by the destination platform.
	FieldRemoteID = "remote_id"
)

// Standard metric fields used in summary lines.
const (
	FieldOutcome    = "outcome"
	FieldCount      = "count"
	FieldDurationMs = "duration_ms"
)
