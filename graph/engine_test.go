package graph

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/codeguardhq/codeguard/graph/emit"
	"github.com/codeguardhq/codeguard/graph/store"
)

type testState struct {
	Visited []string `json:"visited"`
	Count   int      `json:"count"`
	Flag    string   `json:"flag"`
}

func testReducer(prev, delta testState) testState {
	merged := prev
	merged.Visited = append(merged.Visited, delta.Visited...)
	merged.Count += delta.Count
	if delta.Flag != "" {
		merged.Flag = delta.Flag
	}
	return merged
}

func visitNode(name string, route Next) NodeFunc[testState] {
	return func(_ context.Context, _ testState) NodeResult[testState] {
		return NodeResult[testState]{
			Delta: testState{Visited: []string{name}, Count: 1},
			Route: route,
		}
	}
}

// captureEmitter records events for assertions.
type captureEmitter struct {
	mu     sync.Mutex
	events []emit.Event
}

func (c *captureEmitter) Emit(e emit.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *captureEmitter) messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := make([]string, len(c.events))
	for i, e := range c.events {
		msgs[i] = e.Msg
	}
	return msgs
}

func TestEngineConstruction(t *testing.T) {
	t.Run("rejects empty node ID", func(t *testing.T) {
		e := New(testReducer, store.NewMemStore[testState](), nil, Options{})
		if err := e.Add("", visitNode("a", Stop())); err == nil {
			t.Fatal("expected error for empty node ID")
		}
	})

	t.Run("rejects nil node", func(t *testing.T) {
		e := New(testReducer, store.NewMemStore[testState](), nil, Options{})
		if err := e.Add("a", nil); err == nil {
			t.Fatal("expected error for nil node")
		}
	})

	t.Run("rejects duplicate node ID", func(t *testing.T) {
		e := New(testReducer, store.NewMemStore[testState](), nil, Options{})
		if err := e.Add("a", visitNode("a", Stop())); err != nil {
			t.Fatalf("first add failed: %v", err)
		}
		err := e.Add("a", visitNode("a", Stop()))
		var engErr *EngineError
		if !errors.As(err, &engErr) || engErr.Code != "DUPLICATE_NODE" {
			t.Fatalf("expected DUPLICATE_NODE, got %v", err)
		}
	})

	t.Run("StartAt requires a registered node", func(t *testing.T) {
		e := New(testReducer, store.NewMemStore[testState](), nil, Options{})
		if err := e.StartAt("missing"); err == nil {
			t.Fatal("expected error for unknown start node")
		}
	})

	t.Run("Run requires reducer, store, and start node", func(t *testing.T) {
		ctx := context.Background()

		e := New[testState](nil, store.NewMemStore[testState](), nil, Options{})
		if _, err := e.Run(ctx, "r1", testState{}); err == nil {
			t.Fatal("expected error without reducer")
		}

		e = New[testState](testReducer, nil, nil, Options{})
		if _, err := e.Run(ctx, "r1", testState{}); err == nil {
			t.Fatal("expected error without store")
		}

		e = New(testReducer, store.NewMemStore[testState](), nil, Options{})
		if _, err := e.Run(ctx, "r1", testState{}); err == nil {
			t.Fatal("expected error without start node")
		}
	})
}

func TestEngineLinearRun(t *testing.T) {
	st := store.NewMemStore[testState]()
	emitter := &captureEmitter{}
	e := New(testReducer, st, emitter, Options{})

	if err := e.Add("a", visitNode("a", Next{})); err != nil {
		t.Fatal(err)
	}
	if err := e.Add("b", visitNode("b", Next{})); err != nil {
		t.Fatal(err)
	}
	if err := e.Add("c", visitNode("c", Stop())); err != nil {
		t.Fatal(err)
	}
	if err := e.Connect("a", "b", nil); err != nil {
		t.Fatal(err)
	}
	if err := e.Connect("b", "c", nil); err != nil {
		t.Fatal(err)
	}
	if err := e.StartAt("a"); err != nil {
		t.Fatal(err)
	}

	final, err := e.Run(context.Background(), "run-linear", testState{})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	want := []string{"a", "b", "c"}
	if len(final.Visited) != len(want) {
		t.Fatalf("visited = %v, want %v", final.Visited, want)
	}
	for i, name := range want {
		if final.Visited[i] != name {
			t.Errorf("visited[%d] = %q, want %q", i, final.Visited[i], name)
		}
	}
	if final.Count != 3 {
		t.Errorf("count = %d, want 3", final.Count)
	}

	// Every node boundary is persisted.
	state, step, err := st.LoadLatest(context.Background(), "run-linear")
	if err != nil {
		t.Fatalf("LoadLatest: %v", err)
	}
	if step != 3 {
		t.Errorf("latest step = %d, want 3", step)
	}
	if state.Count != 3 {
		t.Errorf("persisted count = %d, want 3", state.Count)
	}

	for _, msg := range emitter.messages() {
		if msg == "node completed" {
			return
		}
	}
	t.Error("expected at least one node completed event")
}

func TestEngineExplicitRouting(t *testing.T) {
	e := New(testReducer, store.NewMemStore[testState](), nil, Options{})

	// Goto overrides edges: the a->c edge must be ignored.
	if err := e.Add("a", visitNode("a", Goto("b"))); err != nil {
		t.Fatal(err)
	}
	if err := e.Add("b", visitNode("b", Stop())); err != nil {
		t.Fatal(err)
	}
	if err := e.Add("c", visitNode("c", Stop())); err != nil {
		t.Fatal(err)
	}
	if err := e.Connect("a", "c", nil); err != nil {
		t.Fatal(err)
	}
	if err := e.StartAt("a"); err != nil {
		t.Fatal(err)
	}

	final, err := e.Run(context.Background(), "run-goto", testState{})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(final.Visited) != 2 || final.Visited[1] != "b" {
		t.Errorf("visited = %v, want [a b]", final.Visited)
	}
}

func TestEngineConditionalEdges(t *testing.T) {
	build := func(flag string) *Engine[testState] {
		e := New(testReducer, store.NewMemStore[testState](), nil, Options{})
		start := NodeFunc[testState](func(_ context.Context, _ testState) NodeResult[testState] {
			return NodeResult[testState]{Delta: testState{Visited: []string{"start"}, Flag: flag}}
		})
		if err := e.Add("start", start); err != nil {
			t.Fatal(err)
		}
		if err := e.Add("left", visitNode("left", Stop())); err != nil {
			t.Fatal(err)
		}
		if err := e.Add("right", visitNode("right", Stop())); err != nil {
			t.Fatal(err)
		}
		if err := e.Connect("start", "left", func(s testState) bool { return s.Flag == "left" }); err != nil {
			t.Fatal(err)
		}
		if err := e.Connect("start", "right", nil); err != nil {
			t.Fatal(err)
		}
		if err := e.StartAt("start"); err != nil {
			t.Fatal(err)
		}
		return e
	}

	t.Run("predicate match wins", func(t *testing.T) {
		final, err := build("left").Run(context.Background(), "run-cond-left", testState{})
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if final.Visited[len(final.Visited)-1] != "left" {
			t.Errorf("visited = %v, want terminal left", final.Visited)
		}
	})

	t.Run("falls through to unconditional edge", func(t *testing.T) {
		final, err := build("other").Run(context.Background(), "run-cond-right", testState{})
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if final.Visited[len(final.Visited)-1] != "right" {
			t.Errorf("visited = %v, want terminal right", final.Visited)
		}
	})
}

func TestEngineNoRoute(t *testing.T) {
	e := New(testReducer, store.NewMemStore[testState](), nil, Options{})
	if err := e.Add("a", visitNode("a", Next{})); err != nil {
		t.Fatal(err)
	}
	if err := e.StartAt("a"); err != nil {
		t.Fatal(err)
	}

	_, err := e.Run(context.Background(), "run-noroute", testState{})
	var engErr *EngineError
	if !errors.As(err, &engErr) || engErr.Code != "NO_ROUTE" {
		t.Fatalf("expected NO_ROUTE, got %v", err)
	}
}

func TestEngineNodeError(t *testing.T) {
	e := New(testReducer, store.NewMemStore[testState](), nil, Options{})
	failing := NodeFunc[testState](func(_ context.Context, _ testState) NodeResult[testState] {
		return NodeResult[testState]{Err: errors.New("boom")}
	})
	if err := e.Add("fail", failing); err != nil {
		t.Fatal(err)
	}
	if err := e.StartAt("fail"); err != nil {
		t.Fatal(err)
	}

	_, err := e.Run(context.Background(), "run-err", testState{})
	var nodeErr *NodeError
	if !errors.As(err, &nodeErr) {
		t.Fatalf("expected NodeError, got %v", err)
	}
	if nodeErr.NodeID != "fail" {
		t.Errorf("NodeID = %q, want fail", nodeErr.NodeID)
	}
	if nodeErr.Code != "NODE_FAILED" {
		t.Errorf("Code = %q, want NODE_FAILED", nodeErr.Code)
	}
	if !strings.Contains(nodeErr.Error(), "boom") {
		t.Errorf("error %q should carry the cause message", nodeErr.Error())
	}
}

func TestEngineMaxSteps(t *testing.T) {
	e := New(testReducer, store.NewMemStore[testState](), nil, Options{MaxSteps: 5})
	if err := e.Add("loop", visitNode("loop", Goto("loop"))); err != nil {
		t.Fatal(err)
	}
	if err := e.StartAt("loop"); err != nil {
		t.Fatal(err)
	}

	_, err := e.Run(context.Background(), "run-loop", testState{})
	var engErr *EngineError
	if !errors.As(err, &engErr) || engErr.Code != "MAX_STEPS_EXCEEDED" {
		t.Fatalf("expected MAX_STEPS_EXCEEDED, got %v", err)
	}
	if !errors.Is(err, ErrMaxStepsExceeded) {
		t.Errorf("error does not wrap ErrMaxStepsExceeded: %v", err)
	}
}

func TestEngineContextCancellation(t *testing.T) {
	e := New(testReducer, store.NewMemStore[testState](), nil, Options{})
	if err := e.Add("a", visitNode("a", Stop())); err != nil {
		t.Fatal(err)
	}
	if err := e.StartAt("a"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Run(ctx, "run-cancelled", testState{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEngineNodeTimeout(t *testing.T) {
	e := New(testReducer, store.NewMemStore[testState](), nil, Options{
		DefaultNodeTimeout: 20 * time.Millisecond,
	})
	slow := NodeFunc[testState](func(ctx context.Context, _ testState) NodeResult[testState] {
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
		}
		return NodeResult[testState]{Route: Stop()}
	})
	if err := e.Add("slow", slow); err != nil {
		t.Fatal(err)
	}
	if err := e.StartAt("slow"); err != nil {
		t.Fatal(err)
	}

	_, err := e.Run(context.Background(), "run-slow", testState{})
	var engErr *EngineError
	if !errors.As(err, &engErr) || engErr.Code != "NODE_TIMEOUT" {
		t.Fatalf("expected NODE_TIMEOUT, got %v", err)
	}
}

func TestEngineFanOut(t *testing.T) {
	newFanEngine := func(branchNode func(name string) Node[testState]) *Engine[testState] {
		e := New(testReducer, store.NewMemStore[testState](), nil, Options{})
		split := NodeFunc[testState](func(_ context.Context, _ testState) NodeResult[testState] {
			return NodeResult[testState]{
				Delta: testState{Visited: []string{"split"}},
				Route: FanOut("b1", "b2", "b3"),
			}
		})
		if err := e.Add("split", split); err != nil {
			t.Fatal(err)
		}
		for _, name := range []string{"b1", "b2", "b3"} {
			if err := e.Add(name, branchNode(name)); err != nil {
				t.Fatal(err)
			}
		}
		if err := e.Add("join", visitNode("join", Stop())); err != nil {
			t.Fatal(err)
		}
		if err := e.Connect("split", "join", nil); err != nil {
			t.Fatal(err)
		}
		if err := e.StartAt("split"); err != nil {
			t.Fatal(err)
		}
		return e
	}

	t.Run("merges branch deltas in declared order", func(t *testing.T) {
		// Branches finish in reverse order; the merge must still follow the
		// FanOut declaration, not completion order.
		delays := map[string]time.Duration{"b1": 30 * time.Millisecond, "b2": 15 * time.Millisecond, "b3": 0}
		e := newFanEngine(func(name string) Node[testState] {
			return NodeFunc[testState](func(_ context.Context, _ testState) NodeResult[testState] {
				time.Sleep(delays[name])
				return NodeResult[testState]{Delta: testState{Visited: []string{name}, Count: 1}}
			})
		})

		final, err := e.Run(context.Background(), "run-fan", testState{})
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		want := []string{"split", "b1", "b2", "b3", "join"}
		if len(final.Visited) != len(want) {
			t.Fatalf("visited = %v, want %v", final.Visited, want)
		}
		for i, name := range want {
			if final.Visited[i] != name {
				t.Errorf("visited[%d] = %q, want %q", i, final.Visited[i], name)
			}
		}
	})

	t.Run("branches run on isolated copies", func(t *testing.T) {
		e := newFanEngine(func(name string) Node[testState] {
			return NodeFunc[testState](func(_ context.Context, state testState) NodeResult[testState] {
				// A branch mutating its own input must not leak into siblings.
				if len(state.Visited) > 0 {
					state.Visited[0] = "mutated-by-" + name
				}
				return NodeResult[testState]{Delta: testState{Visited: []string{name}}}
			})
		})

		final, err := e.Run(context.Background(), "run-fan-iso", testState{})
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if final.Visited[0] != "split" {
			t.Errorf("base state was mutated by a branch: %v", final.Visited)
		}
	})

	t.Run("branch error fails the step", func(t *testing.T) {
		e := newFanEngine(func(name string) Node[testState] {
			return NodeFunc[testState](func(_ context.Context, _ testState) NodeResult[testState] {
				if name == "b2" {
					return NodeResult[testState]{Err: errors.New("branch failed")}
				}
				return NodeResult[testState]{Delta: testState{Visited: []string{name}}}
			})
		})

		_, err := e.Run(context.Background(), "run-fan-err", testState{})
		var nodeErr *NodeError
		if !errors.As(err, &nodeErr) || nodeErr.NodeID != "b2" {
			t.Fatalf("expected NodeError from b2, got %v", err)
		}
	})

	t.Run("unknown fan-out target fails", func(t *testing.T) {
		e := New(testReducer, store.NewMemStore[testState](), nil, Options{})
		split := NodeFunc[testState](func(_ context.Context, _ testState) NodeResult[testState] {
			return NodeResult[testState]{Route: FanOut("nowhere")}
		})
		if err := e.Add("split", split); err != nil {
			t.Fatal(err)
		}
		if err := e.StartAt("split"); err != nil {
			t.Fatal(err)
		}

		_, err := e.Run(context.Background(), "run-fan-missing", testState{})
		var engErr *EngineError
		if !errors.As(err, &engErr) || engErr.Code != "NODE_NOT_FOUND" {
			t.Fatalf("expected NODE_NOT_FOUND, got %v", err)
		}
	})
}

func TestEngineCheckpointResume(t *testing.T) {
	st := store.NewMemStore[testState]()
	e := New(testReducer, st, nil, Options{})

	if err := e.Add("a", visitNode("a", Next{})); err != nil {
		t.Fatal(err)
	}
	if err := e.Add("b", visitNode("b", Stop())); err != nil {
		t.Fatal(err)
	}
	if err := e.Connect("a", "b", nil); err != nil {
		t.Fatal(err)
	}
	if err := e.StartAt("a"); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if _, err := e.Run(ctx, "run-cp", testState{}); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	t.Run("save and resume", func(t *testing.T) {
		if err := e.SaveCheckpoint(ctx, "run-cp", "cp-1"); err != nil {
			t.Fatalf("SaveCheckpoint: %v", err)
		}

		final, err := e.ResumeFromCheckpoint(ctx, "cp-1", "run-cp-resumed", "b")
		if err != nil {
			t.Fatalf("resume failed: %v", err)
		}
		// Resumed state carries the original history plus the replayed node.
		want := []string{"a", "b", "b"}
		if len(final.Visited) != len(want) {
			t.Fatalf("visited = %v, want %v", final.Visited, want)
		}

		if _, _, err := st.LoadLatest(ctx, "run-cp-resumed"); err != nil {
			t.Errorf("resumed run should persist its own steps: %v", err)
		}
	})

	t.Run("checkpoint for unknown run", func(t *testing.T) {
		err := e.SaveCheckpoint(ctx, "no-such-run", "cp-x")
		var engErr *EngineError
		if !errors.As(err, &engErr) || engErr.Code != "RUN_NOT_FOUND" {
			t.Fatalf("expected RUN_NOT_FOUND, got %v", err)
		}
	})

	t.Run("resume from unknown checkpoint", func(t *testing.T) {
		_, err := e.ResumeFromCheckpoint(ctx, "cp-missing", "run-x", "b")
		var engErr *EngineError
		if !errors.As(err, &engErr) || engErr.Code != "CHECKPOINT_NOT_FOUND" {
			t.Fatalf("expected CHECKPOINT_NOT_FOUND, got %v", err)
		}
	})

	t.Run("resume from unknown node", func(t *testing.T) {
		_, err := e.ResumeFromCheckpoint(ctx, "cp-1", "run-y", "nowhere")
		var engErr *EngineError
		if !errors.As(err, &engErr) || engErr.Code != "NODE_NOT_FOUND" {
			t.Fatalf("expected NODE_NOT_FOUND, got %v", err)
		}
	})
}
