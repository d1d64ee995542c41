package workflow

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/codeguardhq/codeguard/graph"
	"github.com/codeguardhq/codeguard/graph/emit"
	"github.com/codeguardhq/codeguard/graph/store"
	"github.com/codeguardhq/codeguard/internal/agents"
	"github.com/codeguardhq/codeguard/internal/jira"
	"github.com/codeguardhq/codeguard/internal/review"
)

// maxSteps bounds a run well above the pipeline's six nodes; hitting it
// means a routing bug, not a long review.
const maxSteps = 16

// Deps carries everything the review pipeline needs.
type Deps struct {
	Reviewers     []agents.Reviewer
	Tickets       jira.Creator
	Publisher     CommentPublisher
	Store         store.Store[review.RunState]
	Emitter       emit.Emitter
	Metrics       *graph.PrometheusMetrics
	Log           *slog.Logger
	ReviewTimeout time.Duration
}

// New builds the review workflow graph:
//
//	entry -> parallel_review -> supervisor
//	supervisor -> jira_escalation (escalate) -> aggregator
//	supervisor -> aggregator (proceed)
//	aggregator -> notify -> terminal
func New(deps Deps) (*graph.Engine[review.RunState], error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("workflow requires a store")
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}

	engine := graph.New(review.Reduce, deps.Store, deps.Emitter, graph.Options{
		MaxSteps: maxSteps,
		Metrics:  deps.Metrics,
	})

	nodes := map[string]graph.Node[review.RunState]{
		NodeEntry:          &EntryNode{Log: deps.Log},
		NodeParallelReview: &ParallelReviewNode{Reviewers: deps.Reviewers, Timeout: deps.ReviewTimeout, Log: deps.Log},
		NodeSupervisor:     &SupervisorNode{Log: deps.Log},
		NodeEscalation:     &EscalationNode{Tickets: deps.Tickets, Log: deps.Log},
		NodeAggregator:     &AggregatorNode{Log: deps.Log},
		NodeNotify:         &NotifyNode{Publisher: deps.Publisher, Log: deps.Log},
	}
	for id, node := range nodes {
		if err := engine.Add(id, node); err != nil {
			return nil, err
		}
	}

	if err := engine.StartAt(NodeEntry); err != nil {
		return nil, err
	}

	edges := []struct {
		from, to string
		when     graph.Predicate[review.RunState]
	}{
		{NodeEntry, NodeParallelReview, nil},
		{NodeParallelReview, NodeSupervisor, nil},
		{NodeSupervisor, NodeEscalation, decisionIs(review.DecisionEscalate)},
		{NodeSupervisor, NodeAggregator, decisionIs(review.DecisionProceed)},
		{NodeEscalation, NodeAggregator, nil},
		{NodeAggregator, NodeNotify, nil},
	}
	for _, e := range edges {
		if err := engine.Connect(e.from, e.to, e.when); err != nil {
			return nil, err
		}
	}

	return engine, nil
}

func decisionIs(want review.Decision) graph.Predicate[review.RunState] {
	return func(state review.RunState) bool {
		return state.Decision == want
	}
}
