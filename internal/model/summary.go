package model

import "time"

// ScanSummary holds severity counts derived from a ScanResult.
// Every count is in affected elements, not in violation types.
type ScanSummary struct {
	TotalViolations int
	Critical        int
	Serious         int
	Moderate        int
	Minor           int
	URL             string
	Timestamp       time.Time
}

// Summarize computes the severity summary of a scan result.
//
// TotalViolations is the number of failing elements across all violations.
// A violation whose impact is not one of the four known levels still counts
// toward TotalViolations but toward no bucket, so the bucket sum may be lower
// than the total.
func Summarize(result *ScanResult) ScanSummary {
	if result == nil {
		return ScanSummary{}
	}

	summary := ScanSummary{
		URL:       result.URL,
		Timestamp: result.Timestamp,
	}

	for _, v := range result.Violations {
		count := len(v.Nodes)
		summary.TotalViolations += count

		switch v.Impact {
		case ImpactCritical:
			summary.Critical += count
		case ImpactSerious:
			summary.Serious += count
		case ImpactModerate:
			summary.Moderate += count
		case ImpactMinor:
			summary.Minor += count
		}
	}

	return summary
}

// Count returns the bucket count for a known impact, or 0.
func (s ScanSummary) Count(impact Impact) int {
	switch impact {
	case ImpactCritical:
		return s.Critical
	case ImpactSerious:
		return s.Serious
	case ImpactModerate:
		return s.Moderate
	case ImpactMinor:
		return s.Minor
	default:
		return 0
	}
}

// BucketTotal returns critical+serious+moderate+minor.
func (s ScanSummary) BucketTotal() int {
	return s.Critical + s.Serious + s.Moderate + s.Minor
}

// HasViolations reports whether any element failed a rule.
func (s ScanSummary) HasViolations() bool {
	return s.TotalViolations > 0
}

// ViolationTypes returns the number of distinct failed rules in the result.
func ViolationTypes(result *ScanResult) int {
	if result == nil {
		return 0
	}
	return len(result.Violations)
}
