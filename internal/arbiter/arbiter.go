// Package arbiter implements the LLM judge consulted for findings the
// structural classifier is unsure about. Every failure mode degrades to a
// TP-biased fallback verdict instead of an error: an unreachable arbiter
// must bias toward "treat as real secret", never suppress a true positive.
package arbiter

import "context"

// Verdict values.
const (
	VerdictTP = "TP"
	VerdictFP = "FP"
)

// Stable fallback reason strings, one per failure mode.
const (
	ReasonTokenMissing        = "llm token missing"
	ReasonInvalidResponse     = "llm invalid json response"
	ReasonUnexpectedStructure = "llm unexpected json structure"
	ReasonNoJSONBlock         = "llm no json block found"
	ReasonInvalidJSONBlock    = "llm invalid json block"
)

// Verdict is the judge's answer for one candidate secret.
type Verdict struct {
	Verdict    string  `json:"verdict"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Judge is the interface the pipeline consults for ambiguous findings.
type Judge interface {
	Classify(ctx context.Context, secret, filePath, snippet string) Verdict
}

// Fallback is the deterministic TP-biased verdict used for every
// recovery path.
func Fallback(reason string) Verdict {
	return Verdict{
		Verdict:    VerdictTP,
		Confidence: 0.5,
		Reason:     reason,
	}
}
