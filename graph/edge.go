// Package graph provides a generic, checkpointed workflow graph engine.
package graph

// Edge is a connection between two nodes. An edge with a nil predicate is
// unconditional; otherwise it is traversed only when the predicate returns
// true for the current state. Explicit routing via NodeResult.Route takes
// precedence over edges.
type Edge[S any] struct {
	From string
	To   string
	When Predicate[S]
}

// Predicate evaluates state to decide whether an edge should be traversed.
// Predicates must be pure: deterministic and free of side effects, since the
// engine may evaluate them on every step and during resumed runs.
type Predicate[S any] func(state S) bool
