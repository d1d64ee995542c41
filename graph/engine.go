package graph

import (
	"context"
	"sync"
	"time"

	"github.com/codeguardhq/codeguard/graph/emit"
	"github.com/codeguardhq/codeguard/graph/store"
)

// Engine orchestrates stateful workflow execution with checkpointing.
//
// The Engine is the core runtime that:
//   - Holds the workflow graph topology (nodes and edges)
//   - Executes nodes sequentially or as joined concurrent fan-outs
//   - Merges partial state updates via the reducer
//   - Persists state at each step via the store
//   - Emits observability events via the emitter
//   - Enforces step limits and per-node timeouts
//   - Supports checkpoint save/resume
//
// The graph is static: build it once at process start, then call Run once per
// workflow execution. Only the per-run state is mutable; a single Engine is
// safe to share across concurrent runs.
//
// Type parameter S is the state type shared across the workflow.
type Engine[S any] struct {
	mu sync.RWMutex

	reducer   Reducer[S]
	nodes     map[string]Node[S]
	edges     []Edge[S]
	startNode string
	store     store.Store[S]
	emitter   emit.Emitter
	opts      Options
}

// Options configures Engine execution behavior. Zero values are valid.
type Options struct {
	// MaxSteps limits workflow execution to prevent infinite loops.
	// 0 means no limit.
	MaxSteps int

	// DefaultNodeTimeout bounds each node execution, including every branch
	// of a fan-out. 0 means unlimited.
	DefaultNodeTimeout time.Duration

	// Metrics receives execution metrics when non-nil.
	Metrics *PrometheusMetrics
}

// New creates an Engine. The reducer and store are required for Run; the
// emitter may be nil. Validation happens when Run is called so construction
// order stays flexible.
func New[S any](reducer Reducer[S], st store.Store[S], emitter emit.Emitter, opts Options) *Engine[S] {
	return &Engine[S]{
		reducer: reducer,
		nodes:   make(map[string]Node[S]),
		edges:   make([]Edge[S], 0),
		store:   st,
		emitter: emitter,
		opts:    opts,
	}
}

// Add registers a node under a unique ID.
func (e *Engine[S]) Add(nodeID string, node Node[S]) error {
	if nodeID == "" {
		return &EngineError{Message: "node ID cannot be empty"}
	}
	if node == nil {
		return &EngineError{Message: "node cannot be nil"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.nodes[nodeID]; exists {
		return &EngineError{
			Message: "duplicate node ID: " + nodeID,
			Code:    "DUPLICATE_NODE",
		}
	}

	e.nodes[nodeID] = node
	return nil
}

// StartAt sets the entry node. The node must already be registered.
func (e *Engine[S]) StartAt(nodeID string) error {
	if nodeID == "" {
		return &EngineError{Message: "start node ID cannot be empty"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.nodes[nodeID]; !exists {
		return &EngineError{
			Message: "start node does not exist: " + nodeID,
			Code:    "NODE_NOT_FOUND",
		}
	}

	e.startNode = nodeID
	return nil
}

// Connect creates an edge between two nodes. A nil predicate makes the edge
// unconditional. Edges are evaluated in insertion order; the first match
// wins, so register conditional edges before their unconditional fallback.
func (e *Engine[S]) Connect(from, to string, predicate Predicate[S]) error {
	if from == "" {
		return &EngineError{Message: "from node ID cannot be empty"}
	}
	if to == "" {
		return &EngineError{Message: "to node ID cannot be empty"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.edges = append(e.edges, Edge[S]{From: from, To: to, When: predicate})
	return nil
}

// Run executes the workflow from the start node to a terminal node and
// returns the final state. Each step's merged state is persisted under runID
// before routing continues, so an interrupted run can be resumed from its
// last completed node.
//
// Any node error, timeout, routing dead end, or context cancellation ends
// the run with a non-nil error; the error is also emitted as an event. A
// failed run never returns a usable state.
func (e *Engine[S]) Run(ctx context.Context, runID string, initial S) (S, error) {
	var zero S

	if e.reducer == nil {
		return zero, &EngineError{Message: "reducer is required", Code: "MISSING_REDUCER"}
	}
	if e.store == nil {
		return zero, &EngineError{Message: "store is required", Code: "MISSING_STORE"}
	}
	if e.startNode == "" {
		return zero, &EngineError{Message: "start node not set (call StartAt before Run)", Code: "NO_START_NODE"}
	}

	final, err := e.execute(ctx, runID, e.startNode, initial)
	if err != nil {
		e.opts.Metrics.RecordRun("failed")
		e.emitEvent(runID, 0, "", "run failed: "+err.Error(), nil)
		return zero, err
	}

	e.opts.Metrics.RecordRun("completed")
	return final, nil
}

// execute is the shared run loop used by Run and ResumeFromCheckpoint.
func (e *Engine[S]) execute(ctx context.Context, runID, startNode string, initial S) (S, error) {
	var zero S

	currentState := initial
	currentNode := startNode
	step := 0

	for {
		step++

		if e.opts.MaxSteps > 0 && step > e.opts.MaxSteps {
			return zero, &EngineError{
				Message: "workflow exceeded MaxSteps limit",
				Code:    "MAX_STEPS_EXCEEDED",
				Cause:   ErrMaxStepsExceeded,
			}
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		nodeImpl, exists := e.lookup(currentNode)
		if !exists {
			return zero, &EngineError{
				Message: "node not found during execution: " + currentNode,
				Code:    "NODE_NOT_FOUND",
			}
		}

		result, err := e.runNode(ctx, nodeImpl, currentNode, currentState)
		if err != nil {
			return zero, err
		}
		if result.Err != nil {
			return zero, &NodeError{
				Message: result.Err.Error(),
				Code:    "NODE_FAILED",
				NodeID:  currentNode,
				Cause:   result.Err,
			}
		}

		currentState = e.reducer(currentState, result.Delta)

		if len(result.Route.Many) > 0 {
			merged, lastStep, err := e.runFanOut(ctx, runID, step, result.Route.Many, currentState)
			if err != nil {
				return zero, err
			}
			currentState = merged
			step = lastStep
		}

		if err := e.store.SaveStep(ctx, runID, step, currentNode, currentState); err != nil {
			return zero, &EngineError{
				Message: "failed to save step: " + err.Error(),
				Code:    "STORE_ERROR",
			}
		}

		e.emitEvent(runID, step, currentNode, "node completed", nil)

		if result.Route.Terminal {
			return currentState, nil
		}

		if result.Route.To != "" {
			currentNode = result.Route.To
			continue
		}

		nextNode := e.evaluateEdges(currentNode, currentState)
		if nextNode == "" {
			return zero, &EngineError{
				Message: "no valid route from node: " + currentNode,
				Code:    "NO_ROUTE",
			}
		}

		currentNode = nextNode
	}
}

// runFanOut starts every target node concurrently, each on a deep copy of
// the base state, joins on completion of all branches, and merges the branch
// deltas in the order they were declared. Downstream nodes therefore never
// observe a partially-merged state, and the merge result does not depend on
// branch completion order.
//
// Branch routing decisions are ignored: after the join, flow continues from
// the fan-out node's edges. Any branch error fails the whole step.
func (e *Engine[S]) runFanOut(ctx context.Context, runID string, stepStart int, targets []string, base S) (S, int, error) {
	var zero S

	type branch struct {
		result NodeResult[S]
		err    error
	}

	branches := make([]branch, len(targets))
	var wg sync.WaitGroup

	for i, nodeID := range targets {
		nodeImpl, exists := e.lookup(nodeID)
		if !exists {
			return zero, 0, &EngineError{
				Message: "fan-out target does not exist: " + nodeID,
				Code:    "NODE_NOT_FOUND",
			}
		}

		snapshot, err := deepCopy(base)
		if err != nil {
			return zero, 0, &EngineError{
				Message: "failed to snapshot state for fan-out: " + err.Error(),
				Code:    "STATE_COPY_FAILED",
			}
		}

		wg.Add(1)
		go func(i int, nodeID string, node Node[S], snap S) {
			defer wg.Done()
			res, err := e.runNode(ctx, node, nodeID, snap)
			branches[i] = branch{result: res, err: err}
		}(i, nodeID, nodeImpl, snapshot)
	}

	wg.Wait()

	state := base
	step := stepStart

	for i, nodeID := range targets {
		if branches[i].err != nil {
			return zero, 0, branches[i].err
		}
		if branches[i].result.Err != nil {
			return zero, 0, &NodeError{
				Message: branches[i].result.Err.Error(),
				Code:    "NODE_FAILED",
				NodeID:  nodeID,
				Cause:   branches[i].result.Err,
			}
		}

		state = e.reducer(state, branches[i].result.Delta)
		step++

		if err := e.store.SaveStep(ctx, runID, step, nodeID, state); err != nil {
			return zero, 0, &EngineError{
				Message: "failed to save step: " + err.Error(),
				Code:    "STORE_ERROR",
			}
		}

		e.emitEvent(runID, step, nodeID, "fan-out branch merged", nil)
	}

	return state, step, nil
}

// runNode executes one node with timeout enforcement and metrics.
func (e *Engine[S]) runNode(ctx context.Context, node Node[S], nodeID string, state S) (NodeResult[S], error) {
	e.opts.Metrics.NodeStarted()
	start := time.Now()

	result, err := executeNodeWithTimeout(ctx, node, nodeID, state, e.opts.DefaultNodeTimeout)

	status := "ok"
	if err != nil || result.Err != nil {
		status = "error"
	}
	e.opts.Metrics.RecordStepLatency(nodeID, time.Since(start), status)
	e.opts.Metrics.NodeFinished()

	return result, err
}

// evaluateEdges finds the first matching edge out of fromNode. A nil
// predicate always matches. Returns "" when no edge matches.
func (e *Engine[S]) evaluateEdges(fromNode string, state S) string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, edge := range e.edges {
		if edge.From != fromNode {
			continue
		}
		if edge.When == nil || edge.When(state) {
			return edge.To
		}
	}

	return ""
}

func (e *Engine[S]) lookup(nodeID string) (Node[S], bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	node, exists := e.nodes[nodeID]
	return node, exists
}

func (e *Engine[S]) emitEvent(runID string, step int, nodeID, msg string, meta map[string]interface{}) {
	if e.emitter == nil {
		return
	}
	e.emitter.Emit(emit.Event{
		RunID:  runID,
		Step:   step,
		NodeID: nodeID,
		Msg:    msg,
		Meta:   meta,
	})
}

// SaveCheckpoint snapshots the most recent persisted state of a run under a
// named checkpoint ID, enabling later resumption via ResumeFromCheckpoint.
func (e *Engine[S]) SaveCheckpoint(ctx context.Context, runID, cpID string) error {
	latestState, latestStep, err := e.store.LoadLatest(ctx, runID)
	if err != nil {
		return &EngineError{
			Message: "cannot create checkpoint: run state not found: " + err.Error(),
			Code:    "RUN_NOT_FOUND",
		}
	}

	if err := e.store.SaveCheckpoint(ctx, cpID, latestState, latestStep); err != nil {
		return &EngineError{
			Message: "failed to save checkpoint: " + err.Error(),
			Code:    "CHECKPOINT_SAVE_FAILED",
		}
	}

	e.emitEvent(runID, latestStep, "", "checkpoint saved: "+cpID, map[string]interface{}{
		"checkpoint_id": cpID,
	})

	return nil
}

// ResumeFromCheckpoint restarts execution from a saved checkpoint under a new
// run ID, beginning at startNode (typically the node after the checkpointed
// one). The resumed run persists its own step history.
func (e *Engine[S]) ResumeFromCheckpoint(ctx context.Context, cpID, newRunID, startNode string) (S, error) {
	var zero S

	if e.reducer == nil {
		return zero, &EngineError{Message: "reducer is required", Code: "MISSING_REDUCER"}
	}
	if e.store == nil {
		return zero, &EngineError{Message: "store is required", Code: "MISSING_STORE"}
	}
	if startNode == "" {
		return zero, &EngineError{Message: "start node not specified for resume", Code: "NO_START_NODE"}
	}
	if _, exists := e.lookup(startNode); !exists {
		return zero, &EngineError{
			Message: "resume start node does not exist: " + startNode,
			Code:    "NODE_NOT_FOUND",
		}
	}

	checkpointState, checkpointStep, err := e.store.LoadCheckpoint(ctx, cpID)
	if err != nil {
		return zero, &EngineError{
			Message: "cannot resume: checkpoint not found: " + err.Error(),
			Code:    "CHECKPOINT_NOT_FOUND",
		}
	}

	e.emitEvent(newRunID, 0, startNode, "resuming from checkpoint: "+cpID, map[string]interface{}{
		"checkpoint_id":   cpID,
		"checkpoint_step": checkpointStep,
	})

	final, err := e.execute(ctx, newRunID, startNode, checkpointState)
	if err != nil {
		e.opts.Metrics.RecordRun("failed")
		e.emitEvent(newRunID, 0, "", "run failed: "+err.Error(), nil)
		return zero, err
	}

	e.opts.Metrics.RecordRun("completed")
	return final, nil
}
