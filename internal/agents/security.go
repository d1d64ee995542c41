package agents

import (
	"context"
	"fmt"

	"github.com/codeguardhq/codeguard/internal/model"
	"github.com/codeguardhq/codeguard/internal/review"
)

const securitySystemPrompt = `You are CodeGuard's Security Agent — an expert in application security.

You analyze code diffs for security vulnerabilities using OWASP Top 10:
- A03 Injection (SQL, NoSQL, OS, LDAP)
- A02 Cryptographic Failures
- A07 Authentication Failures
- A01 Broken Access Control
- A05 Security Misconfiguration

Additional patterns:
- Hardcoded secrets, passwords, API keys
- Missing input validation
- Path traversal vulnerabilities
- Insecure deserialization

Severity:
- LOW      : minor security concern
- MEDIUM   : should fix before merge
- HIGH     : must fix, significant risk
- CRITICAL : blocks merge immediately, easily exploitable

Respond with a JSON object:
{
  "pr_summary": "one sentence security summary",
  "issues": [
    {
      "file": "filename where issue was found",
      "line": 0,
      "severity": "LOW, MEDIUM, HIGH, or CRITICAL",
      "category": "injection, auth, crypto, exposure, misconfiguration, or insecure_design",
      "cwe_id": "CWE ID e.g. CWE-89 for SQL injection",
      "message": "clear description of the vulnerability",
      "suggestion": "exactly how to fix it",
      "exploitable": false
    }
  ],
  "risk_score": 0,
  "has_critical": false,
  "approved": false
}`

// SecurityReviewer analyzes the changeset for vulnerabilities. Its outcome
// is the only one that feeds severity derivation.
type SecurityReviewer struct {
	Chat    model.Chat
	Context ContextSource
}

// Dimension returns review.DimSecurity.
func (r *SecurityReviewer) Dimension() review.Dimension {
	return review.DimSecurity
}

type securityReply struct {
	PRSummary string `json:"pr_summary"`
	Issues    []struct {
		File        string `json:"file"`
		Line        int    `json:"line"`
		Severity    string `json:"severity"`
		Category    string `json:"category"`
		CWE         string `json:"cwe_id"`
		Message     string `json:"message"`
		Suggestion  string `json:"suggestion"`
		Exploitable bool   `json:"exploitable"`
	} `json:"issues"`
	RiskScore   int  `json:"risk_score"`
	HasCritical bool `json:"has_critical"`
	Approved    bool `json:"approved"`
}

// Review runs the security analysis against the changeset.
func (r *SecurityReviewer) Review(ctx context.Context, repo string, changes []review.ChangeUnit) (review.Outcome, error) {
	diff := FormatDiff(changes)
	teamCtx := teamContext(ctx, r.Context, repo, diff)

	text, err := complete(ctx, r.Chat,
		securitySystemPrompt,
		userPrompt("Analyze this pull request for security vulnerabilities.", teamCtx, diff))
	if err != nil {
		return review.Outcome{}, err
	}

	var reply securityReply
	if err := decodeReply(text, &reply); err != nil {
		return review.Outcome{}, fmt.Errorf("security reviewer: %w", err)
	}

	findings := make([]review.Finding, 0, len(reply.Issues))
	hasCritical := reply.HasCritical
	for _, issue := range reply.Issues {
		sev := review.Severity(issue.Severity)
		if sev == review.SeverityCritical {
			hasCritical = true
		}
		findings = append(findings, review.Finding{
			File:        issue.File,
			Line:        issue.Line,
			Severity:    sev,
			Category:    issue.Category,
			Message:     issue.Message,
			Suggestion:  issue.Suggestion,
			CWE:         issue.CWE,
			Exploitable: issue.Exploitable,
		})
	}

	return review.Outcome{
		Dimension:   review.DimSecurity,
		Summary:     reply.PRSummary,
		Findings:    findings,
		RiskScore:   reply.RiskScore,
		HasCritical: hasCritical,
		Approved:    reply.Approved,
	}, nil
}
