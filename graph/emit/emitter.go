package emit

// Emitter receives observability events from workflow execution.
//
// Implementations must be thread-safe (nodes emit concurrently during
// fan-out) and must not block or panic; a slow or failing backend should
// drop events rather than stall the run.
type Emitter interface {
	Emit(event Event)
}
