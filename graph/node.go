package graph

import "context"

// Node is a processing unit in the workflow graph. It receives the current
// state, performs its work (which may include external calls), and returns a
// NodeResult carrying a partial state update and a routing decision.
//
// Type parameter S is the state type shared across the workflow.
type Node[S any] interface {
	// Run executes the node's logic. The returned NodeResult contains the
	// state delta to merge, the next hop, and any error encountered.
	Run(ctx context.Context, state S) NodeResult[S]
}

// NodeResult is the output of one node execution.
type NodeResult[S any] struct {
	// Delta is the partial state update produced by this node. It is merged
	// into the running state by the engine's reducer.
	Delta S

	// Route selects the next step. Leave zero to fall back to edge-based
	// routing from this node.
	Route Next

	// Err halts the workflow when non-nil. The engine records the failure
	// and Run returns it; a failed run is never reported as a success.
	Err error
}

// Next specifies where execution goes after a node completes.
//
// Exactly one of the three modes should be set:
//   - Terminal: stop the workflow
//   - To: go to a single named node
//   - Many: fan out to several nodes concurrently and join on completion
//
// A zero Next defers to the graph's edges.
type Next struct {
	To       string
	Many     []string
	Terminal bool
}

// Stop returns a Next that terminates the workflow.
func Stop() Next {
	return Next{Terminal: true}
}

// Goto returns a Next that routes to the named node.
func Goto(nodeID string) Next {
	return Next{To: nodeID}
}

// FanOut returns a Next that starts every named node concurrently. The
// engine joins on completion of all branches and merges their deltas in the
// order given here, so the merge is deterministic regardless of which branch
// finishes first.
func FanOut(nodeIDs ...string) Next {
	return Next{Many: nodeIDs}
}

// NodeFunc adapts a plain function to the Node interface.
type NodeFunc[S any] func(ctx context.Context, state S) NodeResult[S]

// Run implements Node.
func (f NodeFunc[S]) Run(ctx context.Context, state S) NodeResult[S] {
	return f(ctx, state)
}

// NodeError is a structured error produced during node execution.
type NodeError struct {
	Message string
	Code    string
	NodeID  string
	Cause   error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	if e.NodeID != "" {
		return "node " + e.NodeID + ": " + e.Message
	}
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *NodeError) Unwrap() error {
	return e.Cause
}
