package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/leakgate/leakgate/internal/heuristic"
)

// Config holds leakgate configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Model     ModelConfig     `yaml:"model"`
	Heuristic HeuristicConfig `yaml:"heuristic"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Arbiter   ArbiterConfig   `yaml:"arbiter"`
	Risk      RiskConfig      `yaml:"risk"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"` // HTTP listen address, e.g. ":8080"
	// BatchTimeoutSeconds bounds one background triage run.
	BatchTimeoutSeconds int `yaml:"batch_timeout_seconds"`
}

// ModelConfig points at the CharCNN bundle directory containing
// charcnn.onnx, vocab.json, and feat_norm.json.
type ModelConfig struct {
	BundleDir string `yaml:"bundle_dir"`
	MaxLen    int    `yaml:"max_len"`
}

// HeuristicConfig tunes the rule-based pre-filter. Empty lists fall back
// to the built-in baselines. The numeric fields are pointers so an omitted
// field takes its default while an explicit zero is honored (a zero weight
// disables that rule).
type HeuristicConfig struct {
	TestPathMarkers []string `yaml:"test_path_markers"`
	FakeKeyMarkers  []string `yaml:"fake_key_markers"`
	CommentMarkers  []string `yaml:"comment_markers"`

	PathWeight    *float64 `yaml:"path_weight"`
	KeyWeight     *float64 `yaml:"key_weight"`
	EntropyWeight *float64 `yaml:"entropy_weight"`
	CommentWeight *float64 `yaml:"comment_weight"`

	LowEntropyCutoff *float64 `yaml:"low_entropy_cutoff"`
	FPThreshold      *float64 `yaml:"fp_threshold"`
}

// PipelineConfig tunes the cascade cutoffs. ModelWeight is a pointer for
// the same reason as the heuristic weights: an explicit zero is a valid
// setting (fusion driven entirely by the arbiter), distinct from omitted.
type PipelineConfig struct {
	FPThreshold   float64  `yaml:"fp_threshold"`
	BandLow       float64  `yaml:"band_low"`
	BandHigh      float64  `yaml:"band_high"`
	ModelWeight   *float64 `yaml:"model_weight"`
	MaxConcurrent int      `yaml:"max_concurrent"`
}

// ArbiterConfig configures the LLM judge endpoint. The API token is read
// from the environment variable named by TokenEnv; a missing token is not
// an error, the arbiter degrades to its fallback verdict.
type ArbiterConfig struct {
	URL            string `yaml:"url"`
	TokenEnv       string `yaml:"token_env"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// RiskConfig tunes risk scoring of confirmed findings.
type RiskConfig struct {
	SensitivePathMarkers []string `yaml:"sensitive_path_markers"`
	SensitivePrefixes    []string `yaml:"sensitive_prefixes"`
	LongValueLength      int      `yaml:"long_value_length"`
}

// Load reads configuration from a YAML file.
// If the file doesn't exist, it returns a default config and no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.BatchTimeoutSeconds == 0 {
		cfg.Server.BatchTimeoutSeconds = 600
	}

	if cfg.Model.BundleDir == "" {
		cfg.Model.BundleDir = "model"
	}
	if cfg.Model.MaxLen == 0 {
		cfg.Model.MaxLen = 256
	}

	if cfg.Pipeline.FPThreshold == 0 {
		cfg.Pipeline.FPThreshold = 0.45
	}
	if cfg.Pipeline.BandLow == 0 && cfg.Pipeline.BandHigh == 0 {
		cfg.Pipeline.BandLow = 0.30
		cfg.Pipeline.BandHigh = 0.70
	}
	cfg.Pipeline.ModelWeight = floatDefault(cfg.Pipeline.ModelWeight, 0.5)
	if cfg.Pipeline.MaxConcurrent == 0 {
		cfg.Pipeline.MaxConcurrent = 4
	}

	h := heuristic.Default()
	cfg.Heuristic.PathWeight = floatDefault(cfg.Heuristic.PathWeight, h.PathWeight)
	cfg.Heuristic.KeyWeight = floatDefault(cfg.Heuristic.KeyWeight, h.KeyWeight)
	cfg.Heuristic.EntropyWeight = floatDefault(cfg.Heuristic.EntropyWeight, h.EntropyWeight)
	cfg.Heuristic.CommentWeight = floatDefault(cfg.Heuristic.CommentWeight, h.CommentWeight)
	cfg.Heuristic.LowEntropyCutoff = floatDefault(cfg.Heuristic.LowEntropyCutoff, h.LowEntropyCutoff)
	cfg.Heuristic.FPThreshold = floatDefault(cfg.Heuristic.FPThreshold, h.FPThreshold)

	if cfg.Arbiter.TokenEnv == "" {
		cfg.Arbiter.TokenEnv = "ARBITER_API_TOKEN"
	}
	if cfg.Arbiter.TimeoutSeconds == 0 {
		cfg.Arbiter.TimeoutSeconds = 30
	}
}

// floatDefault keeps an explicitly configured value, zero included, and
// fills only a missing one.
func floatDefault(p *float64, def float64) *float64 {
	if p == nil {
		return &def
	}
	return p
}
