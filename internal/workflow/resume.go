package workflow

import (
	"fmt"

	"github.com/codeguardhq/codeguard/internal/review"
)

// RunKey identifies a review run by its changeset. Runs, steps, and
// checkpoints are persisted under this key, so an interrupted review can be
// located and resumed from the repo and PR number alone.
func RunKey(repo string, prNumber int) string {
	return fmt.Sprintf("%s#%d", repo, prNumber)
}

// NextNode infers where an interrupted run should resume. RunState is
// self-describing: each pipeline stage fills fields the earlier stages
// leave empty, so the furthest populated field names the next node. Returns
// done=true when the run already posted its comment.
//
// A run whose escalation produced no tickets re-enters escalation; ticket
// creation is idempotent enough (simulation keys are deterministic, real
// duplicates are visible in Jira) that re-running beats silently skipping.
func NextNode(state review.RunState) (startNode string, done bool) {
	switch {
	case len(state.Outcomes) == 0:
		return NodeEntry, false
	case state.Decision == "":
		return NodeSupervisor, false
	case state.Decision == review.DecisionEscalate && state.Report == nil && len(state.Tickets) == 0:
		return NodeEscalation, false
	case state.Report == nil:
		return NodeAggregator, false
	case !state.CommentPosted:
		return NodeNotify, false
	default:
		return "", true
	}
}
