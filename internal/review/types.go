package review

// Dimension identifies one review perspective. Each pull request is reviewed
// across all four dimensions concurrently.
type Dimension string

const (
	DimStyle        Dimension = "style"
	DimSecurity     Dimension = "security"
	DimPerformance  Dimension = "performance"
	DimArchitecture Dimension = "architecture"
)

// Dimensions lists every review dimension in canonical order. Aggregation
// and reporting iterate this slice so output ordering never depends on map
// iteration.
var Dimensions = []Dimension{DimStyle, DimSecurity, DimPerformance, DimArchitecture}

// Severity ranks a finding or an overall review outcome.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Rank returns the ordinal position of a severity, LOW=0 through CRITICAL=3.
// Unknown severities rank below LOW.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	default:
		return -1
	}
}

// Known reports whether s is one of the four defined severity levels.
func (s Severity) Known() bool {
	return s.Rank() >= 0
}

// ChangeUnit is one changed file in a pull request, as extracted from the
// diff.
type ChangeUnit struct {
	File      string `json:"file"`
	Status    string `json:"status"` // added, modified, removed, renamed
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch"`
}

// Finding is a single issue raised by a reviewer. The core fields are shared
// across dimensions; the remaining fields are dimension-specific and stay
// empty outside their dimension:
//
//   - security fills CWE and Exploitable
//   - performance fills Impact
//   - architecture fills Principle and Impact
type Finding struct {
	File       string   `json:"file"`
	Line       int      `json:"line"`
	Severity   Severity `json:"severity"`
	Category   string   `json:"category"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion"`

	CWE         string `json:"cwe_id,omitempty"`
	Exploitable bool   `json:"exploitable,omitempty"`
	Impact      string `json:"impact,omitempty"`
	Principle   string `json:"principle,omitempty"`
}

// Outcome is the result of one dimension's review of a pull request.
//
// Score semantics differ per dimension: style, performance, and architecture
// report a quality score (1-10, higher is better) while security reports a
// risk score (1-10, higher is worse) plus the HasCritical flag. Only the
// security outcome feeds severity derivation.
//
// Unavailable marks a reviewer that failed or timed out. An unavailable
// outcome carries no findings and its scores are meaningless; aggregation
// reports the dimension as unavailable instead of silently treating it as
// clean.
type Outcome struct {
	Dimension   Dimension `json:"dimension"`
	Summary     string    `json:"summary"`
	Findings    []Finding `json:"findings"`
	Score       int       `json:"score,omitempty"`
	RiskScore   int       `json:"risk_score,omitempty"`
	HasCritical bool      `json:"has_critical,omitempty"`
	Approved    bool      `json:"approved"`
	Unavailable bool      `json:"unavailable,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// UnavailableOutcome builds the sentinel outcome recorded when a reviewer
// fails. The cause is preserved for the report but the run continues.
func UnavailableOutcome(dim Dimension, cause error) Outcome {
	out := Outcome{
		Dimension:   dim,
		Summary:     "reviewer unavailable",
		Unavailable: true,
	}
	if cause != nil {
		out.Error = cause.Error()
	}
	return out
}
