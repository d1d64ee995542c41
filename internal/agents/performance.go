package agents

import (
	"context"
	"fmt"

	"github.com/codeguardhq/codeguard/internal/model"
	"github.com/codeguardhq/codeguard/internal/review"
)

const performanceSystemPrompt = `You are CodeGuard's Performance Agent — an expert in
code performance, algorithmic complexity, and system efficiency.

Performance issues you detect:

1. N+1 Query Problem:
   - Database queries inside loops
   - Missing eager loading / prefetch_related
   - Repeated identical queries

2. Algorithmic Complexity:
   - O(n²) or worse nested loops on large datasets
   - Sorting inside loops
   - Linear search instead of hash lookup

3. Memory Issues:
   - Loading entire dataset into memory
   - Missing pagination
   - Large object creation in tight loops
   - Missing generator usage

4. Blocking I/O:
   - Synchronous I/O in async functions
   - Missing async/await on I/O calls
   - Large file reads without streaming

5. Inefficient Queries:
   - Missing database indexes
   - SELECT * when specific columns needed
   - Missing query result caching

6. Redundant Computation:
   - Same calculation repeated in loop
   - Missing memoization
   - Recomputing values that could be precomputed

Severity:
- LOW    : minor optimization opportunity
- MEDIUM : noticeable performance impact
- HIGH   : significant bottleneck, must fix

Respond with a JSON object:
{
  "pr_summary": "one sentence performance summary",
  "issues": [
    {
      "file": "filename where issue was found",
      "line": 0,
      "severity": "LOW, MEDIUM, or HIGH",
      "category": "n_plus_one, complexity, memory_leak, blocking_io, inefficient_query, or redundant_computation",
      "message": "clear description of the performance issue",
      "suggestion": "exactly how to fix it",
      "impact": "estimated performance impact"
    }
  ],
  "perf_score": 0,
  "approved": false
}`

// PerformanceReviewer looks for algorithmic and I/O bottlenecks.
type PerformanceReviewer struct {
	Chat    model.Chat
	Context ContextSource
}

// Dimension returns review.DimPerformance.
func (r *PerformanceReviewer) Dimension() review.Dimension {
	return review.DimPerformance
}

type performanceReply struct {
	PRSummary string `json:"pr_summary"`
	Issues    []struct {
		File       string `json:"file"`
		Line       int    `json:"line"`
		Severity   string `json:"severity"`
		Category   string `json:"category"`
		Message    string `json:"message"`
		Suggestion string `json:"suggestion"`
		Impact     string `json:"impact"`
	} `json:"issues"`
	PerfScore int  `json:"perf_score"`
	Approved  bool `json:"approved"`
}

// Review runs the performance analysis against the changeset.
func (r *PerformanceReviewer) Review(ctx context.Context, repo string, changes []review.ChangeUnit) (review.Outcome, error) {
	diff := FormatDiff(changes)
	teamCtx := teamContext(ctx, r.Context, repo, diff)

	text, err := complete(ctx, r.Chat,
		performanceSystemPrompt,
		userPrompt("Analyze this pull request for performance issues.", teamCtx, diff))
	if err != nil {
		return review.Outcome{}, err
	}

	var reply performanceReply
	if err := decodeReply(text, &reply); err != nil {
		return review.Outcome{}, fmt.Errorf("performance reviewer: %w", err)
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
			Impact:     issue.Impact,
		})
	}

	return review.Outcome{
		Dimension: review.DimPerformance,
		Summary:   reply.PRSummary,
		Findings:  findings,
		Score:     reply.PerfScore,
		Approved:  reply.Approved,
	}, nil
}
