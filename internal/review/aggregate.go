package review

// SeverityCounts tallies findings by severity across every dimension.
type SeverityCounts struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// ScoreSummary collects the per-dimension scores for the report header.
// SecurityRisk is a risk score (higher is worse); the rest are quality
// scores (higher is better).
type ScoreSummary struct {
	Style        int `json:"style_score"`
	SecurityRisk int `json:"security_risk"`
	Performance  int `json:"perf_score"`
	Architecture int `json:"arch_score"`
}

// DimensionSection is one dimension's slice of the final report.
type DimensionSection struct {
	Dimension   Dimension `json:"dimension"`
	Summary     string    `json:"summary"`
	Findings    []Finding `json:"findings"`
	Unavailable bool      `json:"unavailable,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// FinalReport is the merged result of all dimension reviews.
//
// Sections follow the canonical dimension order and findings keep each
// reviewer's original ordering, so building a report twice from the same
// state yields byte-identical output.
type FinalReport struct {
	Repo     string             `json:"repo"`
	PRNumber int                `json:"pr_number"`
	PRTitle  string             `json:"pr_title"`
	Severity Severity           `json:"severity"`
	Counts   SeverityCounts     `json:"counts"`
	Scores   ScoreSummary       `json:"scores"`
	Sections []DimensionSection `json:"sections"`
	Approved bool               `json:"approved"`
}

// BuildReport merges the recorded outcomes into a FinalReport.
//
// A dimension with no recorded outcome is reported as unavailable. Approval
// requires no CRITICAL and no HIGH findings anywhere, and a completed
// security review: an unavailable security reviewer can never approve a PR.
func BuildReport(state RunState) FinalReport {
	report := FinalReport{
		Repo:     state.Repo,
		PRNumber: state.PRNumber,
		PRTitle:  state.PRTitle,
		Severity: state.Severity,
		Sections: make([]DimensionSection, 0, len(Dimensions)),
	}

	securityCompleted := false

	for _, dim := range Dimensions {
		out, ok := state.Outcomes[dim]
		if !ok {
			out = UnavailableOutcome(dim, nil)
		}

		section := DimensionSection{
			Dimension:   dim,
			Summary:     out.Summary,
			Findings:    out.Findings,
			Unavailable: out.Unavailable,
			Error:       out.Error,
		}
		report.Sections = append(report.Sections, section)

		if out.Unavailable {
			continue
		}

		switch dim {
		case DimStyle:
			report.Scores.Style = out.Score
		case DimSecurity:
			report.Scores.SecurityRisk = out.RiskScore
			securityCompleted = true
		case DimPerformance:
			report.Scores.Performance = out.Score
		case DimArchitecture:
			report.Scores.Architecture = out.Score
		}

		for _, finding := range out.Findings {
			report.Counts.Total++
			switch finding.Severity {
			case SeverityCritical:
				report.Counts.Critical++
			case SeverityHigh:
				report.Counts.High++
			case SeverityMedium:
				report.Counts.Medium++
			case SeverityLow:
				report.Counts.Low++
			}
		}
	}

	report.Approved = securityCompleted &&
		report.Counts.Critical == 0 &&
		report.Counts.High == 0

	return report
}

// FindingsAtOrAbove returns every finding in the report with severity >= min,
// preserving section and finding order.
func (r FinalReport) FindingsAtOrAbove(min Severity) []Finding {
	var findings []Finding
	for _, section := range r.Sections {
		for _, finding := range section.Findings {
			if finding.Severity.Rank() >= min.Rank() && finding.Severity.Known() {
				findings = append(findings, finding)
			}
		}
	}
	return findings
}
