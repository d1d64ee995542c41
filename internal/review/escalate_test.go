package review

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func escalationReport() FinalReport {
	outcomes := fullOutcomes()
	sec := outcomes[DimSecurity]
	sec.Findings = append(sec.Findings,
		Finding{
			File: "auth.go", Line: 12, Severity: SeverityCritical,
			Category: "injection", Message: "SQL injection in login handler",
			Suggestion: "use parameterized queries", CWE: "CWE-89",
		},
		Finding{
			File: "token.go", Line: 40, Severity: SeverityHigh,
			Category: "crypto", Message: "MD5 used for token hashing",
			Suggestion: "switch to SHA-256",
		},
	)
	outcomes[DimSecurity] = sec
	return BuildReport(RunState{
		Repo:     "acme/widgets",
		PRNumber: 7,
		PRTitle:  "Rework login flow",
		Severity: SeverityCritical,
		Outcomes: outcomes,
	})
}

func TestTicketRequests(t *testing.T) {
	t.Run("only high and critical findings escalate", func(t *testing.T) {
		requests := TicketRequests(escalationReport())
		// The base outcomes carry one LOW and one MEDIUM finding; neither
		// may produce a ticket.
		if len(requests) != 2 {
			t.Fatalf("got %d requests, want 2", len(requests))
		}
	})

	t.Run("no requests for a clean report", func(t *testing.T) {
		if requests := TicketRequests(BuildReport(RunState{Outcomes: fullOutcomes()})); requests != nil {
			t.Errorf("expected nil, got %d requests", len(requests))
		}
	})

	t.Run("critical becomes highest priority bug", func(t *testing.T) {
		requests := TicketRequests(escalationReport())
		crit := requests[0]
		if crit.Priority != "Highest" || crit.IssueType != "Bug" {
			t.Errorf("critical mapping = %s/%s, want Highest/Bug", crit.Priority, crit.IssueType)
		}
		if !strings.Contains(crit.Summary, "[CodeGuard] [CRITICAL]") {
			t.Errorf("summary = %q", crit.Summary)
		}
	})

	t.Run("high becomes high priority task", func(t *testing.T) {
		requests := TicketRequests(escalationReport())
		high := requests[1]
		if high.Priority != "High" || high.IssueType != "Task" {
			t.Errorf("high mapping = %s/%s, want High/Task", high.Priority, high.IssueType)
		}
	})

	t.Run("labels carry severity", func(t *testing.T) {
		requests := TicketRequests(escalationReport())
		want := []string{"codeguard", "critical", "pr-review"}
		if len(requests[0].Labels) != len(want) {
			t.Fatalf("labels = %v", requests[0].Labels)
		}
		for i, label := range want {
			if requests[0].Labels[i] != label {
				t.Errorf("labels[%d] = %q, want %q", i, requests[0].Labels[i], label)
			}
		}
	})

	t.Run("summary respects jira limit", func(t *testing.T) {
		outcomes := map[Dimension]Outcome{
			DimSecurity: {
				Dimension: DimSecurity,
				RiskScore: 9,
				Findings: []Finding{{
					Severity: SeverityHigh,
					Message:  strings.Repeat("very long vulnerability description ", 20),
				}},
			},
		}
		requests := TicketRequests(BuildReport(RunState{Outcomes: outcomes}))
		if len(requests) != 1 {
			t.Fatalf("got %d requests, want 1", len(requests))
		}
		if len(requests[0].Summary) > 255 {
			t.Errorf("summary length = %d, exceeds 255", len(requests[0].Summary))
		}
	})

	t.Run("description carries pr context", func(t *testing.T) {
		requests := TicketRequests(escalationReport())
		desc := requests[0].Description

		for _, want := range []string{
			"*Pull Request:* [Rework login flow|https://github.com/acme/widgets/pull/7]",
			"*File:* auth.go",
			"*Line:* 12",
			"*Category:* injection",
			"SQL injection in login handler",
			"use parameterized queries",
		} {
			if !strings.Contains(desc, want) {
				t.Errorf("description missing %q:\n%s", want, desc)
			}
		}
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		report := escalationReport()
		first := TicketRequests(report)
		second := TicketRequests(report)
		if len(first) != len(second) {
			t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
		}
		for i := range first {
			if first[i].Summary != second[i].Summary {
				t.Errorf("request %d differs: %q vs %q", i, first[i].Summary, second[i].Summary)
			}
		}
	})
}

func TestTruncate(t *testing.T) {
	t.Run("short strings pass through", func(t *testing.T) {
		if got := truncate("hello", 10); got != "hello" {
			t.Errorf("truncate = %q", got)
		}
	})

	t.Run("ascii cut at limit", func(t *testing.T) {
		got := truncate(strings.Repeat("a", 300), 255)
		if len(got) != 255 {
			t.Errorf("len = %d, want 255", len(got))
		}
	})

	t.Run("multibyte cut stays valid utf-8", func(t *testing.T) {
		// Each rune is 3 bytes, so a 255-byte limit lands mid-rune.
		s := strings.Repeat("界", 100)
		got := truncate(s, 255)
		if !utf8.ValidString(got) {
			t.Errorf("truncated string is not valid UTF-8: %q", got)
		}
		if len(got) > 255 {
			t.Errorf("len = %d, exceeds 255", len(got))
		}
		if len(got) != 253 {
			t.Errorf("len = %d, want 253 (84 full runes)", len(got))
		}
	})
}

func TestTicketRequestsMultibyteSummary(t *testing.T) {
	report := escalationReport()
	report.Sections[1].Findings = []Finding{{
		File: "auth.go", Line: 12, Severity: SeverityCritical,
		Category: "injection", Message: strings.Repeat("注入攻撃", 100),
	}}

	requests := TicketRequests(report)
	if len(requests) != 1 {
		t.Fatalf("got %d requests, want 1", len(requests))
	}
	if !utf8.ValidString(requests[0].Summary) {
		t.Errorf("summary is not valid UTF-8: %q", requests[0].Summary)
	}
	if len(requests[0].Summary) > 255 {
		t.Errorf("summary length = %d, exceeds 255", len(requests[0].Summary))
	}
}
