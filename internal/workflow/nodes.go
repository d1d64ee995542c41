// Package workflow assembles the pull request review pipeline on top of the
// graph engine: entry -> parallel_review -> supervisor -> optional
// escalation -> aggregator -> notify.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codeguardhq/codeguard/graph"
	"github.com/codeguardhq/codeguard/internal/agents"
	"github.com/codeguardhq/codeguard/internal/jira"
	"github.com/codeguardhq/codeguard/internal/review"
)

// externalCallTimeout bounds each Jira and GitHub call. Both SDKs use
// default HTTP transports with no client timeout, so a stalled round trip
// would otherwise block the run indefinitely.
const externalCallTimeout = 30 * time.Second

// Node IDs.
const (
	NodeEntry          = "entry"
	NodeParallelReview = "parallel_review"
	NodeSupervisor     = "supervisor"
	NodeEscalation     = "jira_escalation"
	NodeAggregator     = "aggregator"
	NodeNotify         = "notify"
)

// CommentPublisher posts the final report back to the pull request.
type CommentPublisher interface {
	PublishComment(ctx context.Context, repoFullName string, prNumber int, body string) error
}

// EntryNode validates run input and seeds the message trace.
type EntryNode struct {
	Log *slog.Logger
}

// Run rejects runs without a repo or changeset; everything downstream
// assumes both exist.
func (n *EntryNode) Run(_ context.Context, state review.RunState) graph.NodeResult[review.RunState] {
	if state.Repo == "" || state.PRNumber == 0 {
		return graph.NodeResult[review.RunState]{
			Err: fmt.Errorf("run is missing repo or PR number"),
		}
	}
	if len(state.Changes) == 0 {
		return graph.NodeResult[review.RunState]{
			Err: fmt.Errorf("run has no changed files to review"),
		}
	}

	n.Log.Info("review run started",
		slog.String("repo", state.Repo),
		slog.Int("pr", state.PRNumber),
		slog.Int("files", len(state.Changes)))

	return graph.NodeResult[review.RunState]{
		Delta: review.RunState{
			Messages: []string{fmt.Sprintf("Review started for %s #%d (%d files)",
				state.Repo, state.PRNumber, len(state.Changes))},
		},
	}
}

// ParallelReviewNode fans the changeset out to every reviewer concurrently
// and joins their outcomes.
//
// Reviewer failures are isolated: a failed or timed-out reviewer is recorded
// as an unavailable outcome and the run continues. Only the failure of every
// reviewer is fatal. The security outcome then drives severity derivation,
// including the unavailable-security case.
type ParallelReviewNode struct {
	Reviewers []agents.Reviewer
	Timeout   time.Duration
	Log       *slog.Logger
}

// Run runs all reviewers and merges their outcomes into one delta.
func (n *ParallelReviewNode) Run(ctx context.Context, state review.RunState) graph.NodeResult[review.RunState] {
	if len(n.Reviewers) == 0 {
		return graph.NodeResult[review.RunState]{
			Err: errors.New("no reviewers configured"),
		}
	}

	outcomes := make([]review.Outcome, len(n.Reviewers))
	var wg sync.WaitGroup

	for i, reviewer := range n.Reviewers {
		wg.Add(1)
		go func(i int, reviewer agents.Reviewer) {
			defer wg.Done()
			outcomes[i] = n.runReviewer(ctx, reviewer, state.Repo, state.Changes)
		}(i, reviewer)
	}

	wg.Wait()

	delta := review.RunState{
		Outcomes: make(map[review.Dimension]review.Outcome, len(outcomes)),
	}

	failed := 0
	for _, out := range outcomes {
		delta.Outcomes[out.Dimension] = out
		if out.Unavailable {
			failed++
		}
	}
	if failed == len(outcomes) {
		return graph.NodeResult[review.RunState]{
			Err: errors.New("all reviewers failed"),
		}
	}

	security, ok := delta.Outcomes[review.DimSecurity]
	if !ok {
		security = review.UnavailableOutcome(review.DimSecurity, nil)
		delta.Outcomes[review.DimSecurity] = security
	}
	delta.Severity = review.DeriveSeverity(security)

	delta.Messages = reviewMessages(delta.Outcomes, delta.Severity)

	n.Log.Info("parallel review complete",
		slog.String("severity", string(delta.Severity)),
		slog.Int("reviewers", len(outcomes)),
		slog.Int("unavailable", failed))

	return graph.NodeResult[review.RunState]{Delta: delta}
}

func (n *ParallelReviewNode) runReviewer(ctx context.Context, reviewer agents.Reviewer, repo string, changes []review.ChangeUnit) review.Outcome {
	reviewCtx := ctx
	if n.Timeout > 0 {
		var cancel context.CancelFunc
		reviewCtx, cancel = context.WithTimeout(ctx, n.Timeout)
		defer cancel()
	}

	out, err := reviewer.Review(reviewCtx, repo, changes)
	if err != nil {
		n.Log.Warn("reviewer unavailable",
			slog.String("dimension", string(reviewer.Dimension())),
			slog.String("error", err.Error()))
		return review.UnavailableOutcome(reviewer.Dimension(), err)
	}

	out.Dimension = reviewer.Dimension()
	return out
}

func reviewMessages(outcomes map[review.Dimension]review.Outcome, severity review.Severity) []string {
	messages := make([]string, 0, len(review.Dimensions)+1)

	for _, dim := range review.Dimensions {
		out, ok := outcomes[dim]
		if !ok {
			continue
		}
		if out.Unavailable {
			messages = append(messages, fmt.Sprintf("%s review unavailable", dim))
			continue
		}
		switch dim {
		case review.DimSecurity:
			messages = append(messages, fmt.Sprintf("Security review complete — risk: %d/10", out.RiskScore))
		default:
			messages = append(messages, fmt.Sprintf("%s review complete — score: %d/10", titleCase(dim), out.Score))
		}
	}

	messages = append(messages, fmt.Sprintf("Severity: %s", severity))
	return messages
}

func titleCase(dim review.Dimension) string {
	s := string(dim)
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// SupervisorNode maps the derived severity to a routing decision. The
// mapping is pure; conditional edges act on the stored decision.
type SupervisorNode struct {
	Log *slog.Logger
}

// Run records the routing decision, failing the run on an unknown
// severity.
func (n *SupervisorNode) Run(_ context.Context, state review.RunState) graph.NodeResult[review.RunState] {
	decision, err := review.RouteSeverity(state.Severity)
	if err != nil {
		return graph.NodeResult[review.RunState]{Err: err}
	}

	n.Log.Info("supervisor decision",
		slog.String("severity", string(state.Severity)),
		slog.String("decision", string(decision)))

	return graph.NodeResult[review.RunState]{
		Delta: review.RunState{
			Decision: decision,
			Messages: []string{fmt.Sprintf("Supervisor: %s -> %s", state.Severity, decision)},
		},
	}
}

// EscalationNode creates tickets for HIGH and CRITICAL findings. Ticket
// creation is best-effort: individual failures are logged and the run
// continues, a blocked review comment is worse than a missing ticket.
type EscalationNode struct {
	Tickets jira.Creator
	Log     *slog.Logger
}

// Run builds ticket requests from the current outcomes and creates them.
func (n *EscalationNode) Run(ctx context.Context, state review.RunState) graph.NodeResult[review.RunState] {
	report := review.BuildReport(state)
	requests := review.TicketRequests(report)

	tickets := make([]review.Ticket, 0, len(requests))
	for _, req := range requests {
		ticket, err := n.createTicket(ctx, req)
		if err != nil {
			n.Log.Error("ticket creation failed",
				slog.String("summary", req.Summary),
				slog.String("error", err.Error()))
			continue
		}
		tickets = append(tickets, ticket)
	}

	n.Log.Info("escalation complete",
		slog.Int("requested", len(requests)),
		slog.Int("created", len(tickets)))

	return graph.NodeResult[review.RunState]{
		Delta: review.RunState{
			Tickets:  tickets,
			Messages: []string{fmt.Sprintf("Escalated %d of %d findings to Jira", len(tickets), len(requests))},
		},
	}
}

func (n *EscalationNode) createTicket(ctx context.Context, req review.TicketRequest) (review.Ticket, error) {
	callCtx, cancel := context.WithTimeout(ctx, externalCallTimeout)
	defer cancel()
	return n.Tickets.CreateTicket(callCtx, req)
}

// AggregatorNode merges all outcomes into the final report.
type AggregatorNode struct {
	Log *slog.Logger
}

// Run builds and stores the FinalReport.
func (n *AggregatorNode) Run(_ context.Context, state review.RunState) graph.NodeResult[review.RunState] {
	report := review.BuildReport(state)

	n.Log.Info("report aggregated",
		slog.Int("total", report.Counts.Total),
		slog.Int("critical", report.Counts.Critical),
		slog.Int("high", report.Counts.High),
		slog.Bool("approved", report.Approved))

	return graph.NodeResult[review.RunState]{
		Delta: review.RunState{
			Report:   &report,
			Messages: []string{fmt.Sprintf("Final report: %d total issues", report.Counts.Total)},
		},
	}
}

// NotifyNode renders the report as a Markdown comment and posts it to the
// pull request. Publish failures are logged, not fatal: the report already
// exists in the persisted state. This node is terminal.
type NotifyNode struct {
	Publisher CommentPublisher
	Log       *slog.Logger
}

// Run posts the comment and ends the run.
func (n *NotifyNode) Run(ctx context.Context, state review.RunState) graph.NodeResult[review.RunState] {
	if state.Report == nil {
		return graph.NodeResult[review.RunState]{
			Err: errors.New("notify reached without a report"),
		}
	}

	delta := review.RunState{}
	body := review.RenderComment(*state.Report)

	if n.Publisher == nil {
		delta.Messages = []string{"No publisher configured, comment not posted"}
	} else if err := n.publish(ctx, state.Repo, state.PRNumber, body); err != nil {
		n.Log.Error("failed to post review comment",
			slog.String("repo", state.Repo),
			slog.Int("pr", state.PRNumber),
			slog.String("error", err.Error()))
		delta.Messages = []string{"Failed to post review comment: " + err.Error()}
	} else {
		delta.CommentPosted = true
		delta.Messages = []string{"Review comment posted"}
	}

	result := graph.NodeResult[review.RunState]{Delta: delta}
	result.Route = graph.Stop()
	return result
}

func (n *NotifyNode) publish(ctx context.Context, repo string, prNumber int, body string) error {
	callCtx, cancel := context.WithTimeout(ctx, externalCallTimeout)
	defer cancel()
	return n.Publisher.PublishComment(callCtx, repo, prNumber, body)
}
