package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leakgate/leakgate/internal/finding"
)

type sarifReport struct {
	Version string     `json:"version"`
	Source  string     `json:"source"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool struct {
		Driver struct {
			Rules []sarifRule `json:"rules"`
		} `json:"driver"`
	} `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifRule struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	DefaultConfiguration struct {
		Level string `json:"level"`
	} `json:"defaultConfiguration"`
}

type sarifResult struct {
	RuleID  string `json:"ruleId"`
	Level   string `json:"level"`
	Message struct {
		Text string `json:"text"`
	} `json:"message"`
	Locations []struct {
		PhysicalLocation struct {
			ArtifactLocation struct {
				URI string `json:"uri"`
			} `json:"artifactLocation"`
			Region struct {
				StartLine int `json:"startLine"`
				Snippet   struct {
					Text string `json:"text"`
				} `json:"snippet"`
			} `json:"region"`
		} `json:"physicalLocation"`
	} `json:"locations"`
}

func parseSARIF(raw json.RawMessage) (finding.NormalizedReport, error) {
	var rep sarifReport
	if err := json.Unmarshal(raw, &rep); err != nil {
		return finding.NormalizedReport{}, fmt.Errorf("decode sarif report: %w", err)
	}

	var findings []finding.NormalizedFinding
	for runIdx, run := range rep.Runs {
		rules := make(map[string]sarifRule, len(run.Tool.Driver.Rules))
		for _, r := range run.Tool.Driver.Rules {
			rules[r.ID] = r
		}

		for resIdx, res := range run.Results {
			rule := rules[res.RuleID]

			var filePath, snippet string
			var line int
			if len(res.Locations) > 0 {
				phys := res.Locations[0].PhysicalLocation
				filePath = phys.ArtifactLocation.URI
				line = phys.Region.StartLine
				snippet = phys.Region.Snippet.Text
			}

			level := res.Level
			if level == "" {
				level = rule.DefaultConfiguration.Level
			}
			if level == "" {
				level = "unknown"
			}

			message := res.Message.Text
			if message == "" {
				message = snippet
			}

			ruleID := res.RuleID
			if ruleID == "" {
				ruleID = "UNKNOWN_RULE"
			}

			findings = append(findings, finding.NormalizedFinding{
				Scanner:  FormatSARIF,
				RuleID:   ruleID,
				Severity: strings.ToLower(level),
				Message:  message,
				FilePath: filePath,
				Line:     line,
				Metadata: map[string]any{
					"rule_name":    rule.Name,
					"snippet":      snippet,
					"run_index":    runIdx,
					"result_index": resIdx,
				},
			})
		}
	}

	return finding.NormalizedReport{
		Source:   rep.Source,
		Findings: findings,
		Metadata: map[string]any{
			"format":        FormatSARIF,
			"sarif_version": rep.Version,
		},
	}, nil
}

type semgrepReport struct {
	Repo    string `json:"repo"`
	Source  string `json:"source"`
	Tool    string `json:"tool"`
	Results []struct {
		Rule          string `json:"rule"`
		SeverityLevel string `json:"severity_level"`
		Message       string `json:"message"`
		Location      struct {
			File string `json:"file"`
			Line int    `json:"line"`
		} `json:"location"`
		Extra struct {
			Commit string `json:"commit"`
			Repo   string `json:"repo"`
		} `json:"extra"`
	} `json:"results"`
}

func parseSemgrep(raw json.RawMessage) (finding.NormalizedReport, error) {
	var rep semgrepReport
	if err := json.Unmarshal(raw, &rep); err != nil {
		return finding.NormalizedReport{}, fmt.Errorf("decode semgrep report: %w", err)
	}

	var findings []finding.NormalizedFinding
	for _, r := range rep.Results {
		ruleID := r.Rule
		if ruleID == "" {
			ruleID = "UNKNOWN_RULE"
		}
		severity := r.SeverityLevel
		if severity == "" {
			severity = "unknown"
		}
		findings = append(findings, finding.NormalizedFinding{
			Scanner:  FormatSemgrep,
			RuleID:   ruleID,
			Severity: strings.ToLower(severity),
			Message:  r.Message,
			FilePath: r.Location.File,
			Line:     r.Location.Line,
			Metadata: map[string]any{
				"commit": r.Extra.Commit,
				"repo":   r.Extra.Repo,
			},
		})
	}

	source := rep.Repo
	if source == "" {
		source = rep.Source
	}

	return finding.NormalizedReport{
		Source:   source,
		Findings: findings,
		Metadata: map[string]any{
			"scanner": FormatSemgrep,
			"tool":    rep.Tool,
		},
	}, nil
}

// knownGenericKeys are lifted into typed fields; everything else a generic
// result carries lands in finding metadata.
var knownGenericKeys = map[string]bool{
	"rule_id":   true,
	"severity":  true,
	"message":   true,
	"file_path": true,
	"line":      true,
}

func parseGeneric(raw json.RawMessage) (finding.NormalizedReport, error) {
	var rep struct {
		Source  string           `json:"source"`
		Scanner string           `json:"scanner"`
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(raw, &rep); err != nil {
		return finding.NormalizedReport{}, fmt.Errorf("decode generic report: %w", err)
	}

	scanner := rep.Scanner
	if scanner == "" {
		scanner = FormatGeneric
	}

	var findings []finding.NormalizedFinding
	for _, r := range rep.Results {
		ruleID, _ := r["rule_id"].(string)
		if ruleID == "" {
			ruleID = "UNKNOWN_RULE"
		}
		severity, _ := r["severity"].(string)
		if severity == "" {
			severity = "unknown"
		}
		message, _ := r["message"].(string)
		filePath, _ := r["file_path"].(string)

		line := 0
		if f, ok := r["line"].(float64); ok {
			line = int(f)
		}

		meta := make(map[string]any)
		for k, v := range r {
			if !knownGenericKeys[k] {
				meta[k] = v
			}
		}

		findings = append(findings, finding.NormalizedFinding{
			Scanner:  scanner,
			RuleID:   ruleID,
			Severity: strings.ToLower(severity),
			Message:  message,
			FilePath: filePath,
			Line:     line,
			Metadata: meta,
		})
	}

	return finding.NormalizedReport{
		Source:   rep.Source,
		Findings: findings,
		Metadata: map[string]any{"scanner": scanner},
	}, nil
}
