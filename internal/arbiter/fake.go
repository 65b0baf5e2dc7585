package arbiter

import (
	"context"
	"sync"
)

// FakeJudge returns canned verdicts in order and records its calls.
// Used by tests and by the offline bench tool. Safe for concurrent use.
type FakeJudge struct {
	mu       sync.Mutex
	verdicts []Verdict
	calls    int
}

// NewFake creates a judge that always answers with the given verdict.
func NewFake(v Verdict) *FakeJudge {
	return &FakeJudge{verdicts: []Verdict{v}}
}

// NewFakeSequence creates a judge that answers with each verdict in turn,
// repeating the last one once the sequence is exhausted.
func NewFakeSequence(verdicts ...Verdict) *FakeJudge {
	return &FakeJudge{verdicts: verdicts}
}

func (f *FakeJudge) Classify(ctx context.Context, secret, filePath, snippet string) Verdict {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.verdicts) == 0 {
		return Fallback("fake judge has no verdicts")
	}
	v := f.verdicts[0]
	if len(f.verdicts) > 1 {
		f.verdicts = f.verdicts[1:]
	}
	return v
}

// Calls reports how many times Classify was invoked.
func (f *FakeJudge) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var _ Judge = (*FakeJudge)(nil)
