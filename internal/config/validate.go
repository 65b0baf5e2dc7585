package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the loaded config for required fields and sane values.
// A nonsense cutoff at startup is a fatal condition, not something to
// discover one verdict at a time.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return errors.New("server.addr must be set")
	}

	if strings.TrimSpace(cfg.Model.BundleDir) == "" {
		return errors.New("model.bundle_dir must be set")
	}
	if cfg.Model.MaxLen <= 0 {
		return fmt.Errorf("model.max_len must be positive, got %d", cfg.Model.MaxLen)
	}

	if p := cfg.Heuristic.FPThreshold; p != nil {
		if err := validateUnit("heuristic.fp_threshold", *p, false); err != nil {
			return err
		}
	}
	for name, w := range map[string]*float64{
		"heuristic.path_weight":    cfg.Heuristic.PathWeight,
		"heuristic.key_weight":     cfg.Heuristic.KeyWeight,
		"heuristic.entropy_weight": cfg.Heuristic.EntropyWeight,
		"heuristic.comment_weight": cfg.Heuristic.CommentWeight,
	} {
		if w != nil && *w < 0 {
			return fmt.Errorf("%s must not be negative, got %v", name, *w)
		}
	}

	if err := validateUnit("pipeline.fp_threshold", cfg.Pipeline.FPThreshold, false); err != nil {
		return err
	}
	if err := validateUnit("pipeline.band_low", cfg.Pipeline.BandLow, true); err != nil {
		return err
	}
	if err := validateUnit("pipeline.band_high", cfg.Pipeline.BandHigh, true); err != nil {
		return err
	}
	if cfg.Pipeline.BandLow >= cfg.Pipeline.BandHigh {
		return fmt.Errorf("pipeline uncertainty band is inverted: (%v, %v)",
			cfg.Pipeline.BandLow, cfg.Pipeline.BandHigh)
	}
	if p := cfg.Pipeline.ModelWeight; p != nil {
		if err := validateUnit("pipeline.model_weight", *p, true); err != nil {
			return err
		}
	}
	if cfg.Pipeline.MaxConcurrent <= 0 {
		return fmt.Errorf("pipeline.max_concurrent must be positive, got %d", cfg.Pipeline.MaxConcurrent)
	}

	if cfg.Arbiter.TimeoutSeconds <= 0 {
		return fmt.Errorf("arbiter.timeout_seconds must be positive, got %d", cfg.Arbiter.TimeoutSeconds)
	}

	return nil
}

func validateUnit(name string, v float64, allowZero bool) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s must be within [0, 1], got %v", name, v)
	}
	if !allowZero && v == 0 {
		return fmt.Errorf("%s must be set", name)
	}
	return nil
}
