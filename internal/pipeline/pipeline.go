// Package pipeline composes the moderation cascade: heuristic pre-filter,
// structural classifier, and arbiter escalation for the uncertainty band.
package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/leakgate/leakgate/internal/arbiter"
	"github.com/leakgate/leakgate/internal/finding"
	"github.com/leakgate/leakgate/internal/heuristic"
)

// Classifier scores a candidate string with the probability that it is a
// genuine secret. Implemented by classifier.Model.
type Classifier interface {
	Predict(candidate string) (float64, error)
}

// Config holds the cascade's tunable cutoffs. The mechanism (short-circuit,
// band escalation, probability averaging) is fixed; the values are not.
type Config struct {
	// FPThreshold is the fp_score at or above which a finding is FP.
	FPThreshold float64
	// BandLow/BandHigh bound the uncertainty band (exclusive) in which
	// the arbiter is consulted.
	BandLow  float64
	BandHigh float64
	// ModelWeight is the structural model's share in score fusion; the
	// arbiter carries the remainder. Zero is honored and hands fusion
	// entirely to the arbiter.
	ModelWeight float64
	// MaxConcurrent caps concurrent per-finding evaluations within a
	// batch and in-flight arbiter calls across the whole Pipeline,
	// however many batches run at once.
	MaxConcurrent int
}

// DefaultConfig returns the calibrated baseline cutoffs.
func DefaultConfig() Config {
	return Config{
		FPThreshold:   0.45,
		BandLow:       0.30,
		BandHigh:      0.70,
		ModelWeight:   0.5,
		MaxConcurrent: 4,
	}
}

// Pipeline runs the cascade over batches of findings. All dependencies are
// long-lived, injected once, and used read-only per request.
type Pipeline struct {
	scorer     *heuristic.Scorer
	classifier Classifier
	judge      arbiter.Judge
	cfg        Config

	// arbiterSem spans every batch this Pipeline runs: errgroup's limit
	// only bounds one Process call, so concurrent submissions would
	// otherwise multiply in-flight arbiter calls past the cap.
	arbiterSem *semaphore.Weighted
}

// New builds a Pipeline. Zero values for the threshold, the band, and the
// concurrency cap are nonsensical and fall back to DefaultConfig;
// ModelWeight is taken as given.
func New(scorer *heuristic.Scorer, classifier Classifier, judge arbiter.Judge, cfg Config) *Pipeline {
	def := DefaultConfig()
	if cfg.FPThreshold == 0 {
		cfg.FPThreshold = def.FPThreshold
	}
	if cfg.BandLow == 0 && cfg.BandHigh == 0 {
		cfg.BandLow, cfg.BandHigh = def.BandLow, def.BandHigh
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	return &Pipeline{
		scorer:     scorer,
		classifier: classifier,
		judge:      judge,
		cfg:        cfg,
		arbiterSem: semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
	}
}

// Process moderates a batch. Results preserve input order, one per finding,
// correlated by ID. Findings are independent and evaluated concurrently up
// to MaxConcurrent; only a cancelled context fails the batch.
func (p *Pipeline) Process(ctx context.Context, findings []finding.Finding) ([]finding.ModerationResult, error) {
	results := make([]finding.ModerationResult, len(findings))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.MaxConcurrent)
	for i, f := range findings {
		i, f := i, f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = p.moderate(ctx, f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("moderate batch: %w", err)
	}
	return results, nil
}

// moderate runs the cascade for one finding. Reasons accumulate across
// stages in the order they are produced and are never discarded.
func (p *Pipeline) moderate(ctx context.Context, f finding.Finding) finding.ModerationResult {
	res := p.scorer.Evaluate(f)

	// The heuristic stage is deliberately conservative about flagging FP,
	// so its positive verdict is the high-confidence escape hatch.
	if res.IsFalsePositive {
		res.FPScore = 1.0
		return res
	}

	probReal, err := p.classifier.Predict(f.Value)
	if err != nil {
		// One bad prediction must not abort the batch: degrade to a
		// neutral probability and record the failure.
		probReal = 0.5
		res.Reasons = append(res.Reasons, fmt.Sprintf("ml_error=%v", err))
	}
	res.Reasons = append(res.Reasons, fmt.Sprintf("ml_prob=%.3f", probReal))
	res.FPScore = 1.0 - probReal
	res.IsFalsePositive = res.FPScore >= p.cfg.FPThreshold

	if res.FPScore > p.cfg.BandLow && res.FPScore < p.cfg.BandHigh {
		v := p.consultArbiter(ctx, f)

		probRealLLM := v.Confidence
		if v.Verdict != arbiter.VerdictTP {
			probRealLLM = 1.0 - v.Confidence
		}
		probFinal := p.cfg.ModelWeight*probReal + (1.0-p.cfg.ModelWeight)*probRealLLM

		res.FPScore = 1.0 - probFinal
		res.IsFalsePositive = res.FPScore >= p.cfg.FPThreshold
		res.Reasons = append(res.Reasons, fmt.Sprintf("llm=%s,conf=%.2f", v.Verdict, v.Confidence))
	}

	return res
}

// consultArbiter calls the judge under the shared semaphore. A slot that
// never frees up before the context ends maps to the usual TP-biased
// fallback, same as any other arbiter failure.
func (p *Pipeline) consultArbiter(ctx context.Context, f finding.Finding) arbiter.Verdict {
	if err := p.arbiterSem.Acquire(ctx, 1); err != nil {
		return arbiter.Fallback(fmt.Sprintf("llm unavailable: %v", err))
	}
	defer p.arbiterSem.Release(1)
	return p.judge.Classify(ctx, f.Value, f.Path, f.Context)
}
