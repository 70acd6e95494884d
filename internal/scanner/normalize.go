package scanner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nao1215/a11yscan/internal/model"
)

// shadowSeparator joins the selectors of a target that crosses shadow roots.
const shadowSeparator = " >>> "

// normalizeViolations converts engine output into the internal model,
// keeping the engine's order. Entries without affected elements are dropped,
// since every Violation has at least one node.
func normalizeViolations(raw []RawViolation) ([]model.Violation, error) {
	violations := make([]model.Violation, 0, len(raw))
	for _, rv := range raw {
		if len(rv.Nodes) == 0 {
			continue
		}
		nodes := make([]model.ViolationNode, 0, len(rv.Nodes))
		for i, rn := range rv.Nodes {
			target, err := normalizeTarget(rn.Target)
			if err != nil {
				return nil, fmt.Errorf("rule %s node %d: %w", rv.ID, i, err)
			}
			nodes = append(nodes, model.ViolationNode{
				HTML:           rn.HTML,
				Target:         target,
				FailureSummary: rn.FailureSummary,
			})
		}

		tags := rv.Tags
		if tags == nil {
			tags = []string{}
		}

		violations = append(violations, model.Violation{
			ID:          rv.ID,
			Impact:      model.Impact(rv.Impact),
			Description: rv.Description,
			Help:        rv.Help,
			HelpURL:     rv.HelpURL,
			Tags:        tags,
			Nodes:       nodes,
		})
	}
	return violations, nil
}

// normalizeTarget accepts a selector string, a list of selectors, or a list
// mixing selectors and nested selector lists. Nested lists describe a path
// through shadow roots and collapse into one segment.
func normalizeTarget(raw json.RawMessage) ([]string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("missing target")
	}

	var single string
	if err := json.Unmarshal(trimmed, &single); err == nil {
		return []string{single}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("unsupported target shape %s", truncateRaw(trimmed))
	}

	segments := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			segments = append(segments, s)
			continue
		}
		var nested []string
		if err := json.Unmarshal(item, &nested); err == nil {
			segments = append(segments, strings.Join(nested, shadowSeparator))
			continue
		}
		return nil, fmt.Errorf("unsupported target segment %s", truncateRaw(item))
	}
	return segments, nil
}

func truncateRaw(b []byte) string {
	const limit = 60
	if len(b) <= limit {
		return string(b)
	}
	return string(b[:limit]) + "..."
}
