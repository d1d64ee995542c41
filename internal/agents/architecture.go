package agents

import (
	"context"
	"fmt"

	"github.com/codeguardhq/codeguard/internal/model"
	"github.com/codeguardhq/codeguard/internal/review"
)

const architectureSystemPrompt = `You are CodeGuard's Architecture Agent — an expert in
software design principles and clean architecture.

You review code for violations of:

SOLID Principles:
- SRP (Single Responsibility): class/function does ONE thing only
- OCP (Open/Closed): open for extension, closed for modification
- LSP (Liskov Substitution): subclasses must be substitutable
- ISP (Interface Segregation): no fat interfaces, split them up
- DIP (Dependency Inversion): depend on abstractions, not concretions

Design Principles:
- DRY (Don't Repeat Yourself): no duplicated logic
- KISS (Keep It Simple): unnecessary complexity
- COUPLING: tight coupling between modules, circular dependencies
- COHESION: unrelated responsibilities in same class/module

Code Smells:
- God classes (doing too many things)
- Long parameter lists (more than 4 params)
- Feature envy (method uses another class's data too much)
- Shotgun surgery (one change requires many small changes)
- Dead code (unused functions, variables)

Severity:
- LOW    : minor design smell
- MEDIUM : should be refactored soon
- HIGH   : significant design problem, technical debt

Respond with a JSON object:
{
  "pr_summary": "one sentence architecture summary",
  "issues": [
    {
      "file": "filename where issue was found",
      "line": 0,
      "severity": "LOW, MEDIUM, or HIGH",
      "principle": "SRP, OCP, LSP, ISP, DIP, DRY, KISS, or COUPLING",
      "message": "clear description of the architectural issue",
      "suggestion": "exactly how to fix it",
      "impact": "long-term impact if not fixed"
    }
  ],
  "arch_score": 0,
  "approved": false
}`

// ArchitectureReviewer checks design principles and structural smells.
type ArchitectureReviewer struct {
	Chat    model.Chat
	Context ContextSource
}

// Dimension returns review.DimArchitecture.
func (r *ArchitectureReviewer) Dimension() review.Dimension {
	return review.DimArchitecture
}

type architectureReply struct {
	PRSummary string `json:"pr_summary"`
	Issues    []struct {
		File       string `json:"file"`
		Line       int    `json:"line"`
		Severity   string `json:"severity"`
		Principle  string `json:"principle"`
		Message    string `json:"message"`
		Suggestion string `json:"suggestion"`
		Impact     string `json:"impact"`
	} `json:"issues"`
	ArchScore int  `json:"arch_score"`
	Approved  bool `json:"approved"`
}

// Review runs the architecture analysis against the changeset.
func (r *ArchitectureReviewer) Review(ctx context.Context, repo string, changes []review.ChangeUnit) (review.Outcome, error) {
	diff := FormatDiff(changes)
	teamCtx := teamContext(ctx, r.Context, repo, diff)

	text, err := complete(ctx, r.Chat,
		architectureSystemPrompt,
		userPrompt("Review this pull request for architectural issues.", teamCtx, diff))
	if err != nil {
		return review.Outcome{}, err
	}

	var reply architectureReply
	if err := decodeReply(text, &reply); err != nil {
		return review.Outcome{}, fmt.Errorf("architecture reviewer: %w", err)
	}

	findings := make([]review.Finding, 0, len(reply.Issues))
	for _, issue := range reply.Issues {
		findings = append(findings, review.Finding{
			File:       issue.File,
			Line:       issue.Line,
			Severity:   review.Severity(issue.Severity),
			Principle:  issue.Principle,
			Message:    issue.Message,
			Suggestion: issue.Suggestion,
			Impact:     issue.Impact,
		})
	}

	return review.Outcome{
		Dimension: review.DimArchitecture,
		Summary:   reply.PRSummary,
		Findings:  findings,
		Score:     reply.ArchScore,
		Approved:  reply.Approved,
	}, nil
}
