package review

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// summaryLimit is Jira's hard cap on the summary field.
const summaryLimit = 255

// TicketRequest describes one ticket to be created for an escalated finding.
type TicketRequest struct {
	Summary     string   `json:"summary"`
	Description string   `json:"description"`
	IssueType   string   `json:"issue_type"`
	Priority    string   `json:"priority"`
	Labels      []string `json:"labels"`
}

// Ticket records the result of creating a ticket.
type Ticket struct {
	Key    string `json:"key"`
	URL    string `json:"url"`
	Status string `json:"status"` // created or simulated
}

// TicketRequests builds one ticket request per HIGH or CRITICAL finding in
// the report. MEDIUM and LOW findings never produce tickets, they would be
// noise. CRITICAL findings become Highest-priority Bugs; HIGH findings
// become High-priority Tasks. Request order follows report order so repeated
// runs produce the same tickets.
func TicketRequests(report FinalReport) []TicketRequest {
	findings := report.FindingsAtOrAbove(SeverityHigh)
	if len(findings) == 0 {
		return nil
	}

	prURL := fmt.Sprintf("https://github.com/%s/pull/%d", report.Repo, report.PRNumber)
	requests := make([]TicketRequest, 0, len(findings))

	for _, finding := range findings {
		priority := "High"
		issueType := "Task"
		if finding.Severity == SeverityCritical {
			priority = "Highest"
			issueType = "Bug"
		}

		summary := truncate(
			fmt.Sprintf("[CodeGuard] [%s] %s", finding.Severity, truncate(finding.Message, 100)),
			summaryLimit,
		)

		requests = append(requests, TicketRequest{
			Summary:     summary,
			Description: ticketDescription(report, prURL, finding),
			IssueType:   issueType,
			Priority:    priority,
			Labels:      []string{"codeguard", strings.ToLower(string(finding.Severity)), "pr-review"},
		})
	}

	return requests
}

func ticketDescription(report FinalReport, prURL string, finding Finding) string {
	category := finding.Category
	if category == "" {
		category = finding.Principle
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CodeGuard automated review found a %s issue in PR #%d.\n\n",
		finding.Severity, report.PRNumber)
	fmt.Fprintf(&b, "*Pull Request:* [%s|%s]\n", report.PRTitle, prURL)
	fmt.Fprintf(&b, "*File:* %s\n", orNA(finding.File))
	fmt.Fprintf(&b, "*Line:* %d\n", finding.Line)
	fmt.Fprintf(&b, "*Category:* %s\n\n", orNA(category))
	fmt.Fprintf(&b, "*Issue:*\n%s\n\n", orNA(finding.Message))
	fmt.Fprintf(&b, "*Suggested Fix:*\n%s\n\n", orNA(finding.Suggestion))
	b.WriteString("_This ticket was automatically created by CodeGuard._\n")
	return b.String()
}

// truncate cuts s to at most limit bytes without splitting a UTF-8 sequence.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
