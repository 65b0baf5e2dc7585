package heuristic

import (
	"fmt"
	"math"
	"strings"

	"github.com/leakgate/leakgate/internal/finding"
)

// Config holds the marker lists, rule weights, and decision threshold for
// the heuristic pre-filter. All values are tunable; Default returns the
// calibrated baseline.
type Config struct {
	TestPathMarkers []string
	FakeKeyMarkers  []string
	CommentMarkers  []string

	PathWeight    float64
	KeyWeight     float64
	EntropyWeight float64
	CommentWeight float64

	LowEntropyCutoff float64
	FPThreshold      float64
}

// Default returns the baseline heuristic configuration.
func Default() Config {
	return Config{
		TestPathMarkers: []string{
			"/test/", "/tests/", "/mock/", "/mocks/", "/example/", "/examples/",
		},
		FakeKeyMarkers: []string{
			"example", "fake", "test_key", "dummy", "sample", "placeholder",
		},
		CommentMarkers: []string{"todo", "fixme"},

		PathWeight:    0.4,
		KeyWeight:     0.4,
		EntropyWeight: 0.3,
		CommentWeight: 0.2,

		LowEntropyCutoff: 3.0,
		FPThreshold:      0.5,
	}
}

// Scorer is the rule-based first pass of the moderation cascade.
// It is stateless and safe for concurrent use.
type Scorer struct {
	cfg Config
}

// NewScorer builds a Scorer. Numeric fields are taken at face value, so a
// zero weight disables its rule; start from Default and override. Marker
// lists left nil fall back to the Default lists.
func NewScorer(cfg Config) *Scorer {
	def := Default()
	if cfg.TestPathMarkers == nil {
		cfg.TestPathMarkers = def.TestPathMarkers
	}
	if cfg.FakeKeyMarkers == nil {
		cfg.FakeKeyMarkers = def.FakeKeyMarkers
	}
	if cfg.CommentMarkers == nil {
		cfg.CommentMarkers = def.CommentMarkers
	}
	return &Scorer{cfg: cfg}
}

// Entropy computes the Shannon entropy of s in bits per character.
// Empty input has zero entropy.
func Entropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := make(map[rune]int)
	n := 0
	for _, r := range s {
		counts[r]++
		n++
	}
	var h float64
	for _, c := range counts {
		p := float64(c) / float64(n)
		h -= p * math.Log2(p)
	}
	return h
}

// Evaluate applies the heuristic rules to one finding. Each triggered rule
// adds its weight and a reason tag; the summed score is clamped to [0,1].
// Rules with a zero weight are skipped entirely.
func (s *Scorer) Evaluate(f finding.Finding) finding.ModerationResult {
	score := 0.0
	var reasons []string

	path := strings.ToLower(f.Path)
	if s.cfg.PathWeight > 0 && containsAny(path, s.cfg.TestPathMarkers) {
		score += s.cfg.PathWeight
		reasons = append(reasons, "path_looks_like_test_or_example")
	}

	key := strings.ToLower(f.Key)
	if s.cfg.KeyWeight > 0 && containsAny(key, s.cfg.FakeKeyMarkers) {
		score += s.cfg.KeyWeight
		reasons = append(reasons, "key_looks_fake_or_example")
	}

	ent := Entropy(f.Value)
	if s.cfg.EntropyWeight > 0 && f.Value != "" && ent < s.cfg.LowEntropyCutoff {
		score += s.cfg.EntropyWeight
		reasons = append(reasons, fmt.Sprintf("low_entropy_%.2f", ent))
	}

	ctx := strings.ToLower(f.Context)
	if s.cfg.CommentWeight > 0 && containsAny(ctx, s.cfg.CommentMarkers) {
		score += s.cfg.CommentWeight
		reasons = append(reasons, "inside_todo_or_fixme_comment")
	}

	if score > 1.0 {
		score = 1.0
	}

	return finding.ModerationResult{
		ID:              f.ID,
		IsFalsePositive: score >= s.cfg.FPThreshold,
		FPScore:         score,
		Entropy:         ent,
		Reasons:         reasons,
	}
}

func containsAny(s string, markers []string) bool {
	if s == "" {
		return false
	}
	for _, m := range markers {
		if m != "" && strings.Contains(s, m) {
			return true
		}
	}
	return false
}
