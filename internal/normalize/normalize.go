// Package normalize converts heterogeneous scanner reports into the
// canonical finding shape the moderation pipeline consumes.
package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/leakgate/leakgate/internal/finding"
)

// Scanner format identifiers.
const (
	FormatSARIF   = "sarif"
	FormatSemgrep = "semgrep"
	FormatGeneric = "generic"
)

// DetectFormat inspects a raw report and picks a parser. SARIF reports
// always carry a top-level "runs" key.
func DetectFormat(raw json.RawMessage) string {
	var probe struct {
		Runs    []json.RawMessage `json:"runs"`
		Tool    string            `json:"tool"`
		Scanner string            `json:"scanner"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return FormatGeneric
	}
	if probe.Runs != nil {
		return FormatSARIF
	}
	tool := strings.ToLower(probe.Tool + probe.Scanner)
	if strings.Contains(tool, "semgrep") {
		return FormatSemgrep
	}
	return FormatGeneric
}

// Report parses a raw scanner report into the canonical normalized form.
// Mapping is deterministic: one raw result becomes exactly one finding,
// preserving rule id and snippet metadata for the audit trail.
func Report(raw json.RawMessage) (finding.NormalizedReport, error) {
	if len(raw) == 0 {
		return finding.NormalizedReport{}, fmt.Errorf("empty report payload")
	}
	switch DetectFormat(raw) {
	case FormatSARIF:
		return parseSARIF(raw)
	case FormatSemgrep:
		return parseSemgrep(raw)
	default:
		return parseGeneric(raw)
	}
}

// Findings converts a normalized report into the moderation input shape.
// IDs come from the run/result indices recorded during parsing, falling
// back to the positional index.
func Findings(rep finding.NormalizedReport) []finding.Finding {
	out := make([]finding.Finding, 0, len(rep.Findings))
	for i, nf := range rep.Findings {
		id := strconv.Itoa(i)
		if runIdx, ok := intMeta(nf.Metadata, "run_index"); ok {
			if resIdx, ok := intMeta(nf.Metadata, "result_index"); ok {
				id = fmt.Sprintf("%d:%d", runIdx, resIdx)
			}
		}

		snippet, _ := nf.Metadata["snippet"].(string)
		out = append(out, finding.Finding{
			ID:      id,
			Path:    nf.FilePath,
			Line:    nf.Line,
			Key:     nf.RuleID,
			Value:   nf.Message,
			Context: snippet,
			Extra: map[string]any{
				"rule_id":  nf.RuleID,
				"scanner":  nf.Scanner,
				"severity": nf.Severity,
			},
		})
	}
	return out
}

func intMeta(meta map[string]any, key string) (int, bool) {
	switch v := meta[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}
