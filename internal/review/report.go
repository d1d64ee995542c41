package review

import (
	"fmt"
	"strings"
)

// highlightCap limits how many HIGH findings the comment lists in full.
// CRITICAL findings are never capped.
const highlightCap = 5

var dimensionTitles = map[Dimension]string{
	DimStyle:        "Style",
	DimSecurity:     "Security",
	DimPerformance:  "Performance",
	DimArchitecture: "Architecture",
}

// RenderComment formats a FinalReport as the Markdown comment posted back to
// the pull request. Output is fully determined by the report: same report,
// same bytes.
func RenderComment(report FinalReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## CodeGuard Review — %s #%d\n\n", report.Repo, report.PRNumber)

	verdict := "Changes requested"
	if report.Approved {
		verdict = "Approved"
	}
	fmt.Fprintf(&b, "**%s** · severity %s\n\n", verdict, report.Severity)

	b.WriteString("| Dimension | Score | Findings |\n")
	b.WriteString("|-----------|-------|----------|\n")
	for _, section := range report.Sections {
		title := dimensionTitles[section.Dimension]
		if section.Unavailable {
			fmt.Fprintf(&b, "| %s | unavailable | — |\n", title)
			continue
		}
		fmt.Fprintf(&b, "| %s | %s | %d |\n",
			title, scoreCell(report.Scores, section.Dimension), len(section.Findings))
	}

	fmt.Fprintf(&b, "\n%d findings: %d critical, %d high, %d medium, %d low\n",
		report.Counts.Total, report.Counts.Critical, report.Counts.High,
		report.Counts.Medium, report.Counts.Low)

	if critical := report.FindingsAtOrAbove(SeverityCritical); len(critical) > 0 {
		b.WriteString("\n### Critical findings\n\n")
		for _, finding := range critical {
			writeFinding(&b, finding)
		}
	}

	if high := findingsAt(report, SeverityHigh); len(high) > 0 {
		b.WriteString("\n### High findings\n\n")
		shown := high
		if len(shown) > highlightCap {
			shown = shown[:highlightCap]
		}
		for _, finding := range shown {
			writeFinding(&b, finding)
		}
		if len(high) > highlightCap {
			fmt.Fprintf(&b, "…and %d more high findings.\n", len(high)-highlightCap)
		}
	}

	b.WriteString("\n---\n_Automated review by CodeGuard._\n")

	return b.String()
}

func scoreCell(scores ScoreSummary, dim Dimension) string {
	switch dim {
	case DimStyle:
		return fmt.Sprintf("%d/10", scores.Style)
	case DimSecurity:
		return fmt.Sprintf("risk %d/10", scores.SecurityRisk)
	case DimPerformance:
		return fmt.Sprintf("%d/10", scores.Performance)
	case DimArchitecture:
		return fmt.Sprintf("%d/10", scores.Architecture)
	default:
		return "—"
	}
}

func findingsAt(report FinalReport, sev Severity) []Finding {
	var findings []Finding
	for _, section := range report.Sections {
		for _, finding := range section.Findings {
			if finding.Severity == sev {
				findings = append(findings, finding)
			}
		}
	}
	return findings
}

func writeFinding(b *strings.Builder, finding Finding) {
	fmt.Fprintf(b, "- **%s:%d** [%s] %s\n", finding.File, finding.Line,
		finding.Category, finding.Message)
	if finding.Suggestion != "" {
		fmt.Fprintf(b, "  - Fix: %s\n", finding.Suggestion)
	}
	if finding.CWE != "" {
		fmt.Fprintf(b, "  - %s\n", finding.CWE)
	}
}
