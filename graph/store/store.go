package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested run ID or checkpoint ID does not exist.
var ErrNotFound = errors.New("not found")

// Store persists workflow state during execution.
//
// The engine saves the merged state after every node boundary, so a run can
// be inspected or resumed from its last completed step. Named checkpoints
// provide explicit resumption points independent of run IDs.
//
// Type parameter S is the state type to persist. Database-backed
// implementations serialize S as JSON, so it must round-trip through
// encoding/json.
type Store[S any] interface {
	// SaveStep persists the state after a node execution step. Each step is
	// identified by runID + step number; re-saving a step replaces it.
	SaveStep(ctx context.Context, runID string, step int, nodeID string, state S) error

	// LoadLatest retrieves the highest-numbered step for a run. Returns
	// ErrNotFound if the run has no persisted steps.
	LoadLatest(ctx context.Context, runID string) (state S, step int, err error)

	// SaveCheckpoint creates a named snapshot of workflow state. An existing
	// checkpoint with the same ID is overwritten.
	SaveCheckpoint(ctx context.Context, cpID string, state S, step int) error

	// LoadCheckpoint retrieves a previously saved checkpoint. Returns
	// ErrNotFound if the checkpoint ID doesn't exist.
	LoadCheckpoint(ctx context.Context, cpID string) (state S, step int, err error)
}

// StepRecord is one persisted execution step.
type StepRecord[S any] struct {
	Step   int
	NodeID string
	State  S
}

// Checkpoint is a named state snapshot.
type Checkpoint[S any] struct {
	ID    string
	State S
	Step  int
}
