package review

import (
	"fmt"
	"strings"
	"testing"
)

func TestRenderComment(t *testing.T) {
	t.Run("deterministic output", func(t *testing.T) {
		report := BuildReport(RunState{
			Repo:     "acme/widgets",
			PRNumber: 7,
			Severity: SeverityLow,
			Outcomes: fullOutcomes(),
		})

		first := RenderComment(report)
		second := RenderComment(report)
		if first != second {
			t.Error("same report must render identical bytes")
		}
	})

	t.Run("header and verdict", func(t *testing.T) {
		report := BuildReport(RunState{
			Repo:     "acme/widgets",
			PRNumber: 7,
			Severity: SeverityLow,
			Outcomes: fullOutcomes(),
		})
		comment := RenderComment(report)

		if !strings.Contains(comment, "## CodeGuard Review — acme/widgets #7") {
			t.Errorf("missing header:\n%s", comment)
		}
		if !strings.Contains(comment, "**Approved** · severity LOW") {
			t.Errorf("missing verdict line:\n%s", comment)
		}
		if !strings.Contains(comment, "_Automated review by CodeGuard._") {
			t.Errorf("missing footer:\n%s", comment)
		}
	})

	t.Run("changes requested verdict", func(t *testing.T) {
		outcomes := fullOutcomes()
		sec := outcomes[DimSecurity]
		sec.HasCritical = true
		sec.Findings = append(sec.Findings, Finding{
			File: "auth.go", Line: 3, Severity: SeverityCritical,
			Category: "injection", Message: "SQL injection in login",
			Suggestion: "use parameterized queries", CWE: "CWE-89",
		})
		outcomes[DimSecurity] = sec
		report := BuildReport(RunState{Severity: SeverityCritical, Outcomes: outcomes})
		comment := RenderComment(report)

		if !strings.Contains(comment, "**Changes requested** · severity CRITICAL") {
			t.Errorf("missing verdict:\n%s", comment)
		}
		if !strings.Contains(comment, "### Critical findings") {
			t.Errorf("missing critical section:\n%s", comment)
		}
		if !strings.Contains(comment, "- **auth.go:3** [injection] SQL injection in login") {
			t.Errorf("missing finding line:\n%s", comment)
		}
		if !strings.Contains(comment, "  - Fix: use parameterized queries") {
			t.Errorf("missing suggestion:\n%s", comment)
		}
		if !strings.Contains(comment, "  - CWE-89") {
			t.Errorf("missing CWE:\n%s", comment)
		}
	})

	t.Run("high findings capped", func(t *testing.T) {
		outcomes := fullOutcomes()
		perf := outcomes[DimPerformance]
		for i := 0; i < 8; i++ {
			perf.Findings = append(perf.Findings, Finding{
				File: "hot.go", Line: i + 1, Severity: SeverityHigh,
				Category: "allocation", Message: fmt.Sprintf("high finding %d", i),
			})
		}
		outcomes[DimPerformance] = perf
		comment := RenderComment(BuildReport(RunState{Severity: SeverityHigh, Outcomes: outcomes}))

		if !strings.Contains(comment, "…and 3 more high findings.") {
			t.Errorf("missing overflow line:\n%s", comment)
		}
		if strings.Contains(comment, "high finding 5") {
			t.Errorf("finding beyond the cap was rendered:\n%s", comment)
		}
		if !strings.Contains(comment, "high finding 4") {
			t.Errorf("finding within the cap was dropped:\n%s", comment)
		}
	})

	t.Run("unavailable dimension row", func(t *testing.T) {
		outcomes := fullOutcomes()
		outcomes[DimArchitecture] = UnavailableOutcome(DimArchitecture, nil)
		comment := RenderComment(BuildReport(RunState{Severity: SeverityLow, Outcomes: outcomes}))

		if !strings.Contains(comment, "| Architecture | unavailable | — |") {
			t.Errorf("missing unavailable row:\n%s", comment)
		}
	})

	t.Run("security score rendered as risk", func(t *testing.T) {
		comment := RenderComment(BuildReport(RunState{Severity: SeverityLow, Outcomes: fullOutcomes()}))
		if !strings.Contains(comment, "| Security | risk 2/10 | 1 |") {
			t.Errorf("missing security row:\n%s", comment)
		}
		if !strings.Contains(comment, "| Style | 8/10 | 1 |") {
			t.Errorf("missing style row:\n%s", comment)
		}
	})

	t.Run("counts line", func(t *testing.T) {
		comment := RenderComment(BuildReport(RunState{Severity: SeverityLow, Outcomes: fullOutcomes()}))
		if !strings.Contains(comment, "2 findings: 0 critical, 0 high, 1 medium, 1 low") {
			t.Errorf("missing counts line:\n%s", comment)
		}
	})
}
