package model

// Outcome is the process exit signal of a scan invocation.
type Outcome int

const (
	// OutcomeClean means no element failed any rule.
	OutcomeClean Outcome = 0

	// OutcomeIssues means violations exist but none is critical.
	OutcomeIssues Outcome = 1

	// OutcomeCritical means at least one violation has critical impact.
	OutcomeCritical Outcome = 2

	// OutcomeError means the scan could not complete.
	OutcomeError Outcome = 3
)

// String returns a short description of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeClean:
		return "clean"
	case OutcomeIssues:
		return "issues"
	case OutcomeCritical:
		return "critical"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// OutcomeOf maps a completed scan to its exit signal.
// A critical violation takes precedence over every other count.
func OutcomeOf(result *ScanResult) Outcome {
	if result == nil {
		return OutcomeError
	}
	for _, v := range result.Violations {
		if v.Impact == ImpactCritical {
			return OutcomeCritical
		}
	}
	if Summarize(result).HasViolations() {
		return OutcomeIssues
	}
	return OutcomeClean
}
