package review

// RunState is the shared workflow state for one pull request review run.
//
// Nodes never mutate RunState in place: each node returns a delta holding
// only the fields it produced, and Reduce merges deltas into the canonical
// state between steps. The engine deep-copies state before fan-out, so
// concurrent reviewers each see an isolated snapshot.
type RunState struct {
	// Input, set once at entry.
	Repo     string       `json:"repo"`
	PRNumber int          `json:"pr_number"`
	PRTitle  string       `json:"pr_title"`
	PRAuthor string       `json:"pr_author"`
	Changes  []ChangeUnit `json:"changes"`

	// Reviewer outcomes, keyed by dimension. Write-once per dimension.
	Outcomes map[Dimension]Outcome `json:"outcomes,omitempty"`

	// Control flow.
	Severity Severity `json:"severity,omitempty"`
	Decision Decision `json:"decision,omitempty"`

	// Output.
	Report        *FinalReport `json:"report,omitempty"`
	Tickets       []Ticket     `json:"tickets,omitempty"`
	CommentPosted bool         `json:"comment_posted,omitempty"`

	// Messages accumulates a human-readable trace across nodes.
	Messages []string `json:"messages,omitempty"`
}

// Reduce merges a node's delta into the previous state and returns the
// result. Merge rules:
//
//   - Input fields are sticky: the delta only fills them when prev is empty.
//   - Outcomes are write-once: a dimension already present in prev is never
//     overwritten, so a reviewer outcome cannot be clobbered by a later
//     delta regardless of merge order.
//   - Severity, Decision, Report, and Tickets are last-writer-wins when the
//     delta sets them.
//   - Messages append.
//
// Reduce never mutates prev or delta.
func Reduce(prev, delta RunState) RunState {
	merged := prev

	if merged.Repo == "" {
		merged.Repo = delta.Repo
	}
	if merged.PRNumber == 0 {
		merged.PRNumber = delta.PRNumber
	}
	if merged.PRTitle == "" {
		merged.PRTitle = delta.PRTitle
	}
	if merged.PRAuthor == "" {
		merged.PRAuthor = delta.PRAuthor
	}
	if len(merged.Changes) == 0 {
		merged.Changes = delta.Changes
	}

	if len(delta.Outcomes) > 0 {
		outcomes := make(map[Dimension]Outcome, len(prev.Outcomes)+len(delta.Outcomes))
		for dim, out := range prev.Outcomes {
			outcomes[dim] = out
		}
		for dim, out := range delta.Outcomes {
			if _, exists := outcomes[dim]; !exists {
				outcomes[dim] = out
			}
		}
		merged.Outcomes = outcomes
	}

	if delta.Severity != "" {
		merged.Severity = delta.Severity
	}
	if delta.Decision != "" {
		merged.Decision = delta.Decision
	}
	if delta.Report != nil {
		merged.Report = delta.Report
	}
	if len(delta.Tickets) > 0 {
		merged.Tickets = delta.Tickets
	}
	if delta.CommentPosted {
		merged.CommentPosted = true
	}

	if len(delta.Messages) > 0 {
		messages := make([]string, 0, len(prev.Messages)+len(delta.Messages))
		messages = append(messages, prev.Messages...)
		messages = append(messages, delta.Messages...)
		merged.Messages = messages
	}

	return merged
}

// Outcome returns the recorded outcome for a dimension, if any.
func (s RunState) Outcome(dim Dimension) (Outcome, bool) {
	out, ok := s.Outcomes[dim]
	return out, ok
}
