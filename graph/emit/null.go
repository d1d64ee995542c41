package emit

// NullEmitter discards all events. Useful when observability output is not
// wanted, e.g. quiet CLI runs and benchmarks.
type NullEmitter struct{}

// NewNullEmitter creates a no-op emitter.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit discards the event.
func (n *NullEmitter) Emit(_ Event) {}
