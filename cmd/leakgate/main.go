package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/leakgate/leakgate/internal/arbiter"
	"github.com/leakgate/leakgate/internal/classifier"
	"github.com/leakgate/leakgate/internal/config"
	"github.com/leakgate/leakgate/internal/heuristic"
	"github.com/leakgate/leakgate/internal/pipeline"
	"github.com/leakgate/leakgate/internal/server"
	"github.com/leakgate/leakgate/internal/task"
)

func main() {
	addrFlag := flag.String("addr", "", "HTTP listen address (overrides config)")
	configPath := flag.String("config", "leakgate.yaml", "Path to leakgate config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	addr := cfg.Server.Addr
	if *addrFlag != "" {
		addr = *addrFlag
	}

	// A missing model artifact is fatal: degrading silently here would
	// change every verdict the service hands out.
	model, err := classifier.Load(cfg.Model.BundleDir, cfg.Model.MaxLen)
	if err != nil {
		log.Fatalf("failed to load classifier model: %v", err)
	}
	log.Printf("classifier model loaded from %s", cfg.Model.BundleDir)

	token := os.Getenv(cfg.Arbiter.TokenEnv)
	if token == "" {
		log.Printf("warning: %s not set, arbiter will answer with fallback verdicts", cfg.Arbiter.TokenEnv)
	}
	judge := arbiter.NewClient(cfg.Arbiter.URL, token,
		time.Duration(cfg.Arbiter.TimeoutSeconds)*time.Second)

	scorer := heuristic.NewScorer(heuristic.Config{
		TestPathMarkers:  cfg.Heuristic.TestPathMarkers,
		FakeKeyMarkers:   cfg.Heuristic.FakeKeyMarkers,
		CommentMarkers:   cfg.Heuristic.CommentMarkers,
		PathWeight:       *cfg.Heuristic.PathWeight,
		KeyWeight:        *cfg.Heuristic.KeyWeight,
		EntropyWeight:    *cfg.Heuristic.EntropyWeight,
		CommentWeight:    *cfg.Heuristic.CommentWeight,
		LowEntropyCutoff: *cfg.Heuristic.LowEntropyCutoff,
		FPThreshold:      *cfg.Heuristic.FPThreshold,
	})

	pipe := pipeline.New(scorer, model, judge, pipeline.Config{
		FPThreshold:   cfg.Pipeline.FPThreshold,
		BandLow:       cfg.Pipeline.BandLow,
		BandHigh:      cfg.Pipeline.BandHigh,
		ModelWeight:   *cfg.Pipeline.ModelWeight,
		MaxConcurrent: cfg.Pipeline.MaxConcurrent,
	})

	risk := pipeline.NewRiskScorer(pipeline.RiskConfig{
		SensitivePathMarkers: cfg.Risk.SensitivePathMarkers,
		SensitivePrefixes:    cfg.Risk.SensitivePrefixes,
		LongValueLength:      cfg.Risk.LongValueLength,
	})

	runner := task.NewRunner(task.NewStore(), pipe, risk,
		time.Duration(cfg.Server.BatchTimeoutSeconds)*time.Second)

	srv := server.New(cfg, runner, pipe)
	if err := srv.Start(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
