package store

import (
	"context"
	"errors"
	"testing"
)

type memState struct {
	Value string `json:"value"`
}

func TestMemStoreSteps(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore[memState]()

	t.Run("LoadLatest on empty run", func(t *testing.T) {
		_, _, err := m.LoadLatest(ctx, "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("returns highest step", func(t *testing.T) {
		if err := m.SaveStep(ctx, "run-1", 1, "a", memState{Value: "first"}); err != nil {
			t.Fatal(err)
		}
		if err := m.SaveStep(ctx, "run-1", 3, "c", memState{Value: "third"}); err != nil {
			t.Fatal(err)
		}
		// Out-of-order save must not win.
		if err := m.SaveStep(ctx, "run-1", 2, "b", memState{Value: "second"}); err != nil {
			t.Fatal(err)
		}

		state, step, err := m.LoadLatest(ctx, "run-1")
		if err != nil {
			t.Fatalf("LoadLatest: %v", err)
		}
		if step != 3 || state.Value != "third" {
			t.Errorf("got step=%d value=%q, want step=3 value=third", step, state.Value)
		}
	})

	t.Run("runs are isolated", func(t *testing.T) {
		if err := m.SaveStep(ctx, "run-2", 1, "a", memState{Value: "other"}); err != nil {
			t.Fatal(err)
		}
		state, _, err := m.LoadLatest(ctx, "run-1")
		if err != nil {
			t.Fatal(err)
		}
		if state.Value != "third" {
			t.Errorf("run-1 state leaked: %q", state.Value)
		}
	})

	t.Run("step history preserves save order", func(t *testing.T) {
		history := m.StepHistory("run-1")
		if len(history) != 3 {
			t.Fatalf("history length = %d, want 3", len(history))
		}
		if history[1].NodeID != "c" {
			t.Errorf("history[1].NodeID = %q, want c (save order)", history[1].NodeID)
		}
	})
}

func TestMemStoreCheckpoints(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore[memState]()

	t.Run("missing checkpoint", func(t *testing.T) {
		_, _, err := m.LoadCheckpoint(ctx, "cp-missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("save and load", func(t *testing.T) {
		if err := m.SaveCheckpoint(ctx, "cp-1", memState{Value: "snap"}, 7); err != nil {
			t.Fatal(err)
		}
		state, step, err := m.LoadCheckpoint(ctx, "cp-1")
		if err != nil {
			t.Fatal(err)
		}
		if step != 7 || state.Value != "snap" {
			t.Errorf("got step=%d value=%q, want step=7 value=snap", step, state.Value)
		}
	})

	t.Run("overwrites same ID", func(t *testing.T) {
		if err := m.SaveCheckpoint(ctx, "cp-1", memState{Value: "newer"}, 9); err != nil {
			t.Fatal(err)
		}
		state, step, err := m.LoadCheckpoint(ctx, "cp-1")
		if err != nil {
			t.Fatal(err)
		}
		if step != 9 || state.Value != "newer" {
			t.Errorf("checkpoint not overwritten: step=%d value=%q", step, state.Value)
		}
	})
}
