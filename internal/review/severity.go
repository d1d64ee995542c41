package review

import "fmt"

// Risk score thresholds for severity derivation.
const (
	riskHighThreshold   = 7
	riskMediumThreshold = 4
)

// DeriveSeverity computes the overall run severity from the security
// outcome. Only security feeds the gate: a pile of style or performance
// findings never blocks a merge on its own, while a single critical
// vulnerability always does.
//
//	has_critical        -> CRITICAL
//	risk score >= 7     -> HIGH
//	risk score >= 4     -> MEDIUM
//	otherwise           -> LOW
//
// When the security reviewer was unavailable the severity is HIGH: without a
// security verdict the run must not silently report LOW, and HIGH forces
// escalation so a human looks at it.
func DeriveSeverity(security Outcome) Severity {
	if security.Unavailable {
		return SeverityHigh
	}
	if security.HasCritical {
		return SeverityCritical
	}
	if security.RiskScore >= riskHighThreshold {
		return SeverityHigh
	}
	if security.RiskScore >= riskMediumThreshold {
		return SeverityMedium
	}
	return SeverityLow
}

// Decision is the supervisor's routing verdict for a run.
type Decision string

const (
	// DecisionEscalate routes the run through ticket escalation before
	// aggregation.
	DecisionEscalate Decision = "escalate"

	// DecisionProceed routes the run directly to aggregation.
	DecisionProceed Decision = "proceed"
)

// RouteSeverity maps a severity to a routing decision. HIGH and CRITICAL
// escalate; LOW and MEDIUM proceed. An unknown severity is a programming
// error and fails the run rather than guessing a route.
func RouteSeverity(sev Severity) (Decision, error) {
	switch sev {
	case SeverityCritical, SeverityHigh:
		return DecisionEscalate, nil
	case SeverityMedium, SeverityLow:
		return DecisionProceed, nil
	default:
		return "", fmt.Errorf("cannot route unknown severity %q", sev)
	}
}
