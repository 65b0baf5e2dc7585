// Package task owns the asynchronous batch-triage unit of work: its state
// machine, its in-memory store, and the background runner that drives one
// task from pending to a terminal state.
package task

import (
	"encoding/json"
	"time"
)

// Status is the task lifecycle state. Transitions are
// pending -> in_progress -> {completed | failed}; terminal states accept
// no further transitions.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Task wraps one submitted scanner report. Result is non-nil iff the task
// completed; Error is non-empty iff it failed.
type Task struct {
	ID             string          `json:"id"`
	Status         Status          `json:"status"`
	Source         string          `json:"source"`
	RequestPayload json.RawMessage `json:"-"`
	Result         *Result         `json:"result,omitempty"`
	Error          string          `json:"error,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// setStatus transitions the task and refreshes its update timestamp.
func (t *Task) setStatus(s Status) {
	t.Status = s
	t.UpdatedAt = time.Now().UTC()
}

// Result holds the assembled outcome of a completed task.
type Result struct {
	Findings []ReportFinding `json:"findings"`
	Stats    Stats           `json:"stats"`
}

// ReportFinding is the caller-facing view of one moderated finding.
type ReportFinding struct {
	RuleID           string   `json:"rule_id"`
	FilePath         string   `json:"file_path"`
	SecretSnippet    string   `json:"secret_snippet"`
	IsFalsePositive  bool     `json:"is_false_positive"`
	Confidence       float64  `json:"confidence"`
	Risk             float64  `json:"risk"`
	Reasons          []string `json:"reasons,omitempty"`
	OriginalLocation Location `json:"original_location"`
}

// Location points back at the raw scanner result.
type Location struct {
	Path string `json:"path"`
	Line int    `json:"line,omitempty"`
}

// Stats aggregates a completed batch.
type Stats struct {
	TotalFindings int `json:"total_findings"`
	FilteredFP    int `json:"filtered_fp"`
	RemainingTP   int `json:"remaining_tp"`
}
