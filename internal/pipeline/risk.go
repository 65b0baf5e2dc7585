package pipeline

import (
	"strings"
)

// RiskConfig tunes the risk score attached to findings that survive
// moderation as probable true positives.
type RiskConfig struct {
	SensitivePathMarkers []string
	SensitivePrefixes    []string
	LongValueLength      int
}

// DefaultRiskConfig returns the baseline risk markers.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		SensitivePathMarkers: []string{"auth", "token", "secrets"},
		SensitivePrefixes:    []string{"AKIA"},
		LongValueLength:      30,
	}
}

// RiskScorer ranks confirmed findings by blast-radius signals so that
// downstream consumers can order remediation work.
type RiskScorer struct {
	cfg RiskConfig
}

// NewRiskScorer builds a RiskScorer, filling unset fields from defaults.
func NewRiskScorer(cfg RiskConfig) *RiskScorer {
	def := DefaultRiskConfig()
	if cfg.SensitivePathMarkers == nil {
		cfg.SensitivePathMarkers = def.SensitivePathMarkers
	}
	if cfg.SensitivePrefixes == nil {
		cfg.SensitivePrefixes = def.SensitivePrefixes
	}
	if cfg.LongValueLength == 0 {
		cfg.LongValueLength = def.LongValueLength
	}
	return &RiskScorer{cfg: cfg}
}

// Score computes a [0,1] risk estimate for a moderated finding from the
// pipeline's confidence that it is real plus path and format signals.
func (r *RiskScorer) Score(secret, path string, probReal float64) (float64, []string) {
	risk := 0.0
	var reasons []string

	if probReal >= 0.5 {
		risk += probReal
		reasons = append(reasons, "classified_real_secret")
	}

	lowered := strings.ToLower(path)
	for _, m := range r.cfg.SensitivePathMarkers {
		if m != "" && strings.Contains(lowered, m) {
			risk += 0.3
			reasons = append(reasons, "sensitive_path")
			break
		}
	}

	if r.formatLooksSensitive(secret) {
		risk += 0.3
		reasons = append(reasons, "format_looks_sensitive")
	}

	if risk > 1.0 {
		risk = 1.0
	}
	return risk, reasons
}

func (r *RiskScorer) formatLooksSensitive(secret string) bool {
	if len(secret) > r.cfg.LongValueLength {
		return true
	}
	for _, p := range r.cfg.SensitivePrefixes {
		if p != "" && strings.HasPrefix(secret, p) {
			return true
		}
	}
	return false
}
