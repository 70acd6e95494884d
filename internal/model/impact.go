package model

import "strings"

// Impact represents the user-facing severity of an accessibility violation
// as reported by the rule engine.
//
// Design decision: Impact is string-backed rather than iota-based because the
// rule engine reports it as free text. Values outside the four known levels
// must survive normalization untouched so that the aggregator can count them
// in the overall total while leaving every severity bucket alone.
type Impact string

const (
	// ImpactMinor indicates a nuisance that rarely blocks users.
	ImpactMinor Impact = "minor"

	// ImpactModerate indicates an issue that makes content harder to use.
	ImpactModerate Impact = "moderate"

	// ImpactSerious indicates an issue that seriously hinders some users.
	ImpactSerious Impact = "serious"

	// ImpactCritical indicates an issue that blocks some users entirely.
	ImpactCritical Impact = "critical"
)

// Impacts lists the known impact levels from most to least severe.
// Reports iterate this slice so severity sections always appear in the same order.
var Impacts = []Impact{
	ImpactCritical,
	ImpactSerious,
	ImpactModerate,
	ImpactMinor,
}

// Known reports whether the impact is one of the four recognized levels.
func (i Impact) Known() bool {
	return i.Rank() > 0
}

// Rank returns the position of the impact in the total order
// minor < moderate < serious < critical, starting at 1 for minor.
// Unknown impacts rank 0, below every known level.
func (i Impact) Rank() int {
	switch i {
	case ImpactMinor:
		return 1
	case ImpactModerate:
		return 2
	case ImpactSerious:
		return 3
	case ImpactCritical:
		return 4
	default:
		return 0
	}
}

// Label returns the upper-case label used in text reports.
// Unknown impacts are upper-cased verbatim; an empty impact yields "UNKNOWN".
func (i Impact) Label() string {
	if i == "" {
		return "UNKNOWN"
	}
	return strings.ToUpper(string(i))
}

// String returns the impact as reported by the rule engine.
func (i Impact) String() string {
	return string(i)
}
