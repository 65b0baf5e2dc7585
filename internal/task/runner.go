package task

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leakgate/leakgate/internal/finding"
	"github.com/leakgate/leakgate/internal/normalize"
)

// Moderator runs the moderation cascade over a batch of findings.
// Implemented by pipeline.Pipeline.
type Moderator interface {
	Process(ctx context.Context, findings []finding.Finding) ([]finding.ModerationResult, error)
}

// RiskScorer ranks a moderated finding. Implemented by pipeline.RiskScorer.
type RiskScorer interface {
	Score(secret, path string, probReal float64) (float64, []string)
}

// Runner creates tasks and executes them off the request path. Each
// scheduled task runs normalization, moderation, and result assembly, and
// reaches exactly one terminal state.
type Runner struct {
	store     *Store
	moderator Moderator
	risk      RiskScorer
	timeout   time.Duration

	wg sync.WaitGroup
}

// NewRunner wires a Runner. batchTimeout bounds one task's execution;
// zero means an hour.
func NewRunner(store *Store, moderator Moderator, risk RiskScorer, batchTimeout time.Duration) *Runner {
	if batchTimeout <= 0 {
		batchTimeout = time.Hour
	}
	return &Runner{
		store:     store,
		moderator: moderator,
		risk:      risk,
		timeout:   batchTimeout,
	}
}

// Create allocates a pending task for the given raw report and persists it.
func (r *Runner) Create(source string, payload json.RawMessage) Task {
	now := time.Now().UTC()
	t := Task{
		ID:             uuid.NewString(),
		Status:         StatusPending,
		Source:         source,
		RequestPayload: payload,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.store.Save(t)
	return t
}

// Schedule hands the task to a background goroutine and returns
// immediately. The caller observes only pending and polls for the outcome.
func (r *Runner) Schedule(t Task) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		r.run(ctx, t)
	}()
}

// Get returns a snapshot of the task, if known.
func (r *Runner) Get(id string) (Task, bool) {
	return r.store.Get(id)
}

// Wait blocks until every scheduled task has reached a terminal state.
// Used on shutdown and in tests.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) run(ctx context.Context, t Task) {
	log.Printf("task %s: starting triage (source=%s)", t.ID, t.Source)
	t.setStatus(StatusInProgress)
	r.store.Save(t)

	rep, err := normalize.Report(t.RequestPayload)
	if err != nil {
		r.fail(t, "normalize report: "+err.Error())
		return
	}

	findings := normalize.Findings(rep)
	log.Printf("task %s: normalized %d findings", t.ID, len(findings))

	results, err := r.moderator.Process(ctx, findings)
	if err != nil {
		r.fail(t, "moderate findings: "+err.Error())
		return
	}

	t.Result = r.assemble(findings, results)
	t.setStatus(StatusCompleted)
	r.store.Save(t)
	log.Printf("task %s: completed (%d findings, %d filtered as FP)",
		t.ID, t.Result.Stats.TotalFindings, t.Result.Stats.FilteredFP)
}

// fail records the error and transitions to failed. No partial results are
// stored: the transition is all-or-nothing for the batch.
func (r *Runner) fail(t Task, msg string) {
	log.Printf("task %s: failed: %s", t.ID, msg)
	t.Result = nil
	t.Error = msg
	t.setStatus(StatusFailed)
	r.store.Save(t)
}

// assemble joins moderation results back to their findings by id and
// builds the caller-facing report plus aggregate stats.
func (r *Runner) assemble(findings []finding.Finding, results []finding.ModerationResult) *Result {
	byID := make(map[string]finding.ModerationResult, len(results))
	for _, res := range results {
		byID[res.ID] = res
	}

	out := &Result{Findings: make([]ReportFinding, 0, len(findings))}
	for _, f := range findings {
		res := byID[f.ID]
		probReal := 1.0 - res.FPScore

		risk := 0.0
		var riskReasons []string
		if r.risk != nil && !res.IsFalsePositive {
			risk, riskReasons = r.risk.Score(f.Value, f.Path, probReal)
		}

		snippet := f.Context
		if snippet == "" {
			snippet = f.Value
		}

		ruleID, _ := f.Extra["rule_id"].(string)
		out.Findings = append(out.Findings, ReportFinding{
			RuleID:          ruleID,
			FilePath:        f.Path,
			SecretSnippet:   snippet,
			IsFalsePositive: res.IsFalsePositive,
			Confidence:      probReal,
			Risk:            risk,
			Reasons:         append(res.Reasons, riskReasons...),
			OriginalLocation: Location{
				Path: f.Path,
				Line: f.Line,
			},
		})

		out.Stats.TotalFindings++
		if res.IsFalsePositive {
			out.Stats.FilteredFP++
		} else {
			out.Stats.RemainingTP++
		}
	}
	return out
}
