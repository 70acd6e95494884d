package model

import (
	"encoding/hex"
	"sort"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Direction describes how the accessibility of a page changed between two scans.
type Direction string

const (
	// DirectionImproved means the weighted violation score went down.
	DirectionImproved Direction = "improved"

	// DirectionWorsened means the weighted violation score went up.
	DirectionWorsened Direction = "worsened"

	// DirectionUnchanged means the weighted violation score is the same.
	DirectionUnchanged Direction = "unchanged"
)

// NodeChange is a failing element that appeared or disappeared between two scans.
type NodeChange struct {
	Fingerprint string   `json:"fingerprint"`
	RuleID      string   `json:"rule_id"`
	Impact      Impact   `json:"impact"`
	Help        string   `json:"help"`
	Target      []string `json:"target"`
	HTML        string   `json:"html"`
}

// ScanDiff is the comparison of two scans of the same page.
type ScanDiff struct {
	URL       string       `json:"url"`
	Previous  ScanSummary  `json:"previous"`
	Current   ScanSummary  `json:"current"`
	New       []NodeChange `json:"new,omitempty"`
	Resolved  []NodeChange `json:"resolved,omitempty"`
	Unchanged int          `json:"unchanged"`
	Direction Direction    `json:"direction"`
}

// Delta returns current minus previous for the given impact bucket.
func (d *ScanDiff) Delta(impact Impact) int {
	return d.Current.Count(impact) - d.Previous.Count(impact)
}

// TotalDelta returns the change in failing elements.
func (d *ScanDiff) TotalDelta() int {
	return d.Current.TotalViolations - d.Previous.TotalViolations
}

// Fingerprint identifies a failing element across scans from the rule ID and
// the target segments. The HTML snippet is not hashed, so attribute churn
// (e.g. generated ids in class names) does not make a node look new.
func Fingerprint(ruleID string, node ViolationNode) string {
	sum := sha3.Sum256([]byte(ruleID + "\x00" + strings.Join(node.Target, "\x1f")))
	return hex.EncodeToString(sum[:12])
}

// Diff compares two results. previous and current may be nil, which is
// treated as a scan without violations.
func Diff(previous, current *ScanResult) *ScanDiff {
	diff := &ScanDiff{
		Previous: Summarize(previous),
		Current:  Summarize(current),
	}
	if current != nil {
		diff.URL = current.URL
	} else if previous != nil {
		diff.URL = previous.URL
	}

	before := nodeIndex(previous)
	after := nodeIndex(current)

	for key, change := range after {
		if _, ok := before[key]; !ok {
			diff.New = append(diff.New, change)
		}
	}
	for key, change := range before {
		if _, ok := after[key]; ok {
			diff.Unchanged++
			continue
		}
		diff.Resolved = append(diff.Resolved, change)
	}

	sortChanges(diff.New)
	sortChanges(diff.Resolved)

	prevScore := weightedScore(diff.Previous)
	currScore := weightedScore(diff.Current)
	switch {
	case currScore < prevScore:
		diff.Direction = DirectionImproved
	case currScore > prevScore:
		diff.Direction = DirectionWorsened
	default:
		diff.Direction = DirectionUnchanged
	}

	return diff
}

func nodeIndex(result *ScanResult) map[string]NodeChange {
	index := make(map[string]NodeChange)
	if result == nil {
		return index
	}
	for _, v := range result.Violations {
		for _, n := range v.Nodes {
			fp := Fingerprint(v.ID, n)
			index[fp] = NodeChange{
				Fingerprint: fp,
				RuleID:      v.ID,
				Impact:      v.Impact,
				Help:        v.Help,
				Target:      n.Target,
				HTML:        n.HTML,
			}
		}
	}
	return index
}

// sortChanges orders by severity first, then rule and fingerprint, so output is stable.
func sortChanges(changes []NodeChange) {
	sort.Slice(changes, func(i, j int) bool {
		a, b := changes[i], changes[j]
		if a.Impact.Rank() != b.Impact.Rank() {
			return a.Impact.Rank() > b.Impact.Rank()
		}
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		return a.Fingerprint < b.Fingerprint
	})
}

// weightedScore gives critical and serious elements more weight than the rest.
func weightedScore(s ScanSummary) int {
	return s.Critical*100 + s.Serious*25 + s.Moderate*5 + s.Minor
}
