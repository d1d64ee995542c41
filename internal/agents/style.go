package agents

import (
	"context"
	"fmt"

	"github.com/codeguardhq/codeguard/internal/model"
	"github.com/codeguardhq/codeguard/internal/review"
)

const styleSystemPrompt = `You are CodeGuard's Style Agent — a senior software engineer
doing a thorough code style review. You review code diffs and identify
style, formatting, naming, complexity, and documentation issues.

You are strict but fair. You only flag real issues, not personal preferences.

IMPORTANT: You have access to similar code from this team's codebase.
Use it to understand their conventions and flag deviations specifically.

Categories you review:
- naming: variable/function/class names that are unclear or inconsistent
- formatting: indentation, line length, whitespace issues
- complexity: functions too long, too many nested blocks
- documentation: missing docstrings, unclear comments, no type hints
- best_practice: anti-patterns, poor error handling, code duplication

Severity levels:
- LOW: minor issue, nice to fix
- MEDIUM: should be fixed before merge
- HIGH: must be fixed, blocks merge

Respond with a JSON object:
{
  "pr_summary": "one sentence summary of what this PR does",
  "issues": [
    {
      "file": "filename where issue was found",
      "line": 0,
      "severity": "LOW, MEDIUM, or HIGH",
      "category": "naming, formatting, complexity, documentation, or best_practice",
      "message": "clear description of the issue",
      "suggestion": "exactly how to fix it"
    }
  ],
  "overall_score": 0,
  "approved": false
}`

// StyleReviewer reviews naming, formatting, complexity, and documentation.
type StyleReviewer struct {
	Chat    model.Chat
	Context ContextSource
}

// Dimension returns review.DimStyle.
func (r *StyleReviewer) Dimension() review.Dimension {
	return review.DimStyle
}

type styleReply struct {
	PRSummary string `json:"pr_summary"`
	Issues    []struct {
		File       string `json:"file"`
		Line       int    `json:"line"`
		Severity   string `json:"severity"`
		Category   string `json:"category"`
		Message    string `json:"message"`
		Suggestion string `json:"suggestion"`
	} `json:"issues"`
	OverallScore int  `json:"overall_score"`
	Approved     bool `json:"approved"`
}

// Review runs the style check against the changeset.
func (r *StyleReviewer) Review(ctx context.Context, repo string, changes []review.ChangeUnit) (review.Outcome, error) {
	diff := FormatDiff(changes)
	teamCtx := teamContext(ctx, r.Context, repo, diff)

	text, err := complete(ctx, r.Chat,
		styleSystemPrompt,
		userPrompt("Review this pull request diff. Reference specific examples from the team codebase when flagging issues.", teamCtx, diff))
	if err != nil {
		return review.Outcome{}, err
	}

	var reply styleReply
	if err := decodeReply(text, &reply); err != nil {
		return review.Outcome{}, fmt.Errorf("style reviewer: %w", err)
	}

	findings := make([]review.Finding, 0, len(reply.Issues))
	for _, issue := range reply.Issues {
		findings = append(findings, review.Finding{
			File:       issue.File,
			Line:       issue.Line,
			Severity:   review.Severity(issue.Severity),
			Category:   issue.Category,
			Message:    issue.Message,
			Suggestion: issue.Suggestion,
		})
	}

	return review.Outcome{
		Dimension: review.DimStyle,
		Summary:   reply.PRSummary,
		Findings:  findings,
		Score:     reply.OverallScore,
		Approved:  reply.Approved,
	}, nil
}
