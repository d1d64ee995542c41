package emit

// Event is an observability event emitted during workflow execution: node
// completions, fan-out joins, checkpoint operations, and run failures.
type Event struct {
	// RunID identifies the workflow execution that emitted this event.
	RunID string

	// Step is the sequential step number in the workflow (1-indexed).
	// Zero for run-level events (resume, failure).
	Step int

	// NodeID identifies which node emitted this event. Empty for run-level
	// events.
	NodeID string

	// Msg is a human-readable description of the event.
	Msg string

	// Meta carries additional structured data, e.g. "checkpoint_id",
	// "error", "duration_ms".
	Meta map[string]interface{}
}
