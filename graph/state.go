package graph

import (
	"encoding/json"
	"fmt"
)

// Reducer merges a node's partial state update into the running state.
// It must be deterministic: the engine relies on it for reproducible
// checkpoints and for merging concurrent fan-out branches in a fixed order.
type Reducer[S any] func(prev, delta S) S

// deepCopy copies state via a JSON round trip. Fan-out branches each run on
// their own copy so concurrent nodes never share mutable state. The state
// type must be JSON-serializable (exported fields, no channels or funcs).
func deepCopy[S any](state S) (S, error) {
	var zero S

	data, err := json.Marshal(state)
	if err != nil {
		return zero, fmt.Errorf("failed to marshal state: %w", err)
	}

	var copied S
	if err := json.Unmarshal(data, &copied); err != nil {
		return zero, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	return copied, nil
}
