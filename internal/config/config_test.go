package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 256, cfg.Model.MaxLen)
	assert.Equal(t, 0.45, cfg.Pipeline.FPThreshold)
	assert.Equal(t, 0.30, cfg.Pipeline.BandLow)
	assert.Equal(t, 0.70, cfg.Pipeline.BandHigh)
	assert.Equal(t, 4, cfg.Pipeline.MaxConcurrent)
	assert.Equal(t, 0.5, *cfg.Pipeline.ModelWeight)
	assert.Equal(t, 0.3, *cfg.Heuristic.EntropyWeight)
	assert.Equal(t, 0.5, *cfg.Heuristic.FPThreshold)
	assert.Equal(t, "ARBITER_API_TOKEN", cfg.Arbiter.TokenEnv)

	require.NoError(t, Validate(cfg))
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leakgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
model:
  bundle_dir: /opt/leakgate/model
pipeline:
  fp_threshold: 0.5
  band_low: 0.4
  band_high: 0.6
arbiter:
  url: https://llm.internal/generate
  token_env: LLM_TOKEN
heuristic:
  fake_key_markers: ["redacted", "changeme"]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "/opt/leakgate/model", cfg.Model.BundleDir)
	assert.Equal(t, 0.5, cfg.Pipeline.FPThreshold)
	assert.Equal(t, 0.4, cfg.Pipeline.BandLow)
	assert.Equal(t, 0.6, cfg.Pipeline.BandHigh)
	assert.Equal(t, "LLM_TOKEN", cfg.Arbiter.TokenEnv)
	assert.Equal(t, []string{"redacted", "changeme"}, cfg.Heuristic.FakeKeyMarkers)

	// Untouched sections keep their defaults.
	assert.Equal(t, 256, cfg.Model.MaxLen)
	assert.Equal(t, 30, cfg.Arbiter.TimeoutSeconds)

	require.NoError(t, Validate(cfg))
}

func TestLoad_ExplicitZeroDisablesWeight(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leakgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
heuristic:
  entropy_weight: 0
pipeline:
  model_weight: 0
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// An explicit zero is a tuning decision, not an omission.
	assert.Equal(t, 0.0, *cfg.Heuristic.EntropyWeight)
	assert.Equal(t, 0.0, *cfg.Pipeline.ModelWeight)

	// Omitted siblings still pick up their defaults.
	assert.Equal(t, 0.4, *cfg.Heuristic.PathWeight)
	assert.Equal(t, 0.2, *cfg.Heuristic.CommentWeight)

	require.NoError(t, Validate(cfg))
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not: valid"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := defaultConfig()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "nil config",
			mutate:  nil,
			wantErr: "config is nil",
		},
		{
			name:    "missing addr",
			mutate:  func(c *Config) { c.Server.Addr = "  " },
			wantErr: "server.addr",
		},
		{
			name:    "missing bundle dir",
			mutate:  func(c *Config) { c.Model.BundleDir = "" },
			wantErr: "model.bundle_dir",
		},
		{
			name:    "inverted band",
			mutate:  func(c *Config) { c.Pipeline.BandLow, c.Pipeline.BandHigh = 0.7, 0.3 },
			wantErr: "inverted",
		},
		{
			name:    "threshold out of range",
			mutate:  func(c *Config) { c.Pipeline.FPThreshold = 1.5 },
			wantErr: "pipeline.fp_threshold",
		},
		{
			name:    "negative heuristic weight",
			mutate:  func(c *Config) { w := -0.1; c.Heuristic.PathWeight = &w },
			wantErr: "heuristic.path_weight",
		},
		{
			name:    "non-positive concurrency",
			mutate:  func(c *Config) { c.Pipeline.MaxConcurrent = -2 },
			wantErr: "max_concurrent",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var cfg *Config
			if tc.mutate != nil {
				cfg = base()
				tc.mutate(cfg)
			}
			err := Validate(cfg)
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}
