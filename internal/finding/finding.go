package finding

// Finding is one candidate secret occurrence reported by a scanner,
// normalized into the shape the moderation pipeline consumes.
// The pipeline never mutates a Finding.
type Finding struct {
	ID      string         `json:"id"`
	Path    string         `json:"path"`
	Line    int            `json:"line,omitempty"`
	Key     string         `json:"key,omitempty"`
	Value   string         `json:"value,omitempty"`
	Context string         `json:"context,omitempty"`
	Extra   map[string]any `json:"extra,omitempty"`
}

// ModerationResult is the verdict for one Finding, correlated by ID.
// Reasons accumulate across pipeline stages and are never removed.
type ModerationResult struct {
	ID              string   `json:"id"`
	IsFalsePositive bool     `json:"is_false_positive"`
	FPScore         float64  `json:"fp_score"`
	Entropy         float64  `json:"entropy"`
	Reasons         []string `json:"reasons"`
}

// NormalizedFinding is the canonical per-finding record emitted by the
// report normalizer, before conversion into moderation Findings.
type NormalizedFinding struct {
	Scanner  string         `json:"scanner"`
	RuleID   string         `json:"rule_id"`
	Severity string         `json:"severity"`
	Message  string         `json:"message"`
	FilePath string         `json:"file_path"`
	Line     int            `json:"line,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NormalizedReport is the normalizer's output for one raw scanner report.
type NormalizedReport struct {
	Source   string              `json:"source,omitempty"`
	Findings []NormalizedFinding `json:"findings"`
	Metadata map[string]any      `json:"metadata,omitempty"`
}
