package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/leakgate/leakgate/internal/arbiter"
	"github.com/leakgate/leakgate/internal/classifier"
	"github.com/leakgate/leakgate/internal/config"
	"github.com/leakgate/leakgate/internal/finding"
	"github.com/leakgate/leakgate/internal/heuristic"
	"github.com/leakgate/leakgate/internal/pipeline"
)

// leakgate-bench runs the moderation cascade offline over a findings JSON
// file and reports verdicts plus latency percentiles. The arbiter runs
// without a token, so escalated findings get deterministic fallback
// verdicts and no network calls are made.
func main() {
	cfgPath := flag.String("config", "", "path to config yaml (required)")
	findingsPath := flag.String("findings", "", "path to findings JSON file (required)")
	n := flag.Int("n", 1, "number of passes over the batch")
	flag.Parse()

	if *cfgPath == "" || *findingsPath == "" {
		log.Fatalf("config and findings flags are required")
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	data, err := os.ReadFile(*findingsPath)
	if err != nil {
		log.Fatalf("read findings: %v", err)
	}
	var findings []finding.Finding
	if err := json.Unmarshal(data, &findings); err != nil {
		log.Fatalf("decode findings: %v", err)
	}
	if len(findings) == 0 {
		log.Fatalf("findings file is empty")
	}

	model, err := classifier.Load(cfg.Model.BundleDir, cfg.Model.MaxLen)
	if err != nil {
		log.Fatalf("load classifier model: %v", err)
	}

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

	judge := arbiter.NewClient(cfg.Arbiter.URL, "",
		time.Duration(cfg.Arbiter.TimeoutSeconds)*time.Second)

	pipe := pipeline.New(scorer, model, judge, pipeline.Config{
		FPThreshold:   cfg.Pipeline.FPThreshold,
		BandLow:       cfg.Pipeline.BandLow,
		BandHigh:      cfg.Pipeline.BandHigh,
		ModelWeight:   *cfg.Pipeline.ModelWeight,
		MaxConcurrent: cfg.Pipeline.MaxConcurrent,
	})

	if *n <= 0 {
		*n = 1
	}

	ctx := context.Background()
	durations := make([]time.Duration, 0, *n)
	var results []finding.ModerationResult
	for i := 0; i < *n; i++ {
		start := time.Now()
		results, err = pipe.Process(ctx, findings)
		if err != nil {
			log.Fatalf("process batch: %v", err)
		}
		durations = append(durations, time.Since(start))
	}

	fps := 0
	for _, res := range results {
		verdict := "TP"
		if res.IsFalsePositive {
			verdict = "FP"
			fps++
		}
		fmt.Printf("%-12s %-2s fp_score=%.3f entropy=%.2f reasons=%s\n",
			res.ID, verdict, res.FPScore, res.Entropy, strings.Join(res.Reasons, ","))
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	avg := float64(total.Microseconds()) / 1000.0 / float64(len(durations))
	p50 := float64(durations[len(durations)/2].Microseconds()) / 1000.0

	fmt.Printf("bench: findings=%d fp=%d tp=%d passes=%d avg_ms=%.2f p50_ms=%.2f\n",
		len(findings), fps, len(findings)-fps, *n, avg, p50)
}
