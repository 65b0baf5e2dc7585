package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/leakgate/leakgate/internal/task"
)

type analyzeRequest struct {
	Tool   string          `json:"tool"`
	Report json.RawMessage `json:"report"`
}

type analyzeResponse struct {
	ReportID string      `json:"report_id"`
	Status   task.Status `json:"status"`
}

// handleAnalyze accepts a raw scanner report, allocates a task, and
// schedules triage in the background. The caller gets the id back
// immediately and polls /api/reports/{id} for the outcome.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Tool) == "" {
		writeError(w, http.StatusBadRequest, "missing tool")
		return
	}
	if len(req.Report) == 0 {
		writeError(w, http.StatusBadRequest, "missing report")
		return
	}

	t := s.runner.Create(req.Tool, req.Report)
	s.runner.Schedule(t)

	writeJSON(w, http.StatusAccepted, analyzeResponse{
		ReportID: t.ID,
		Status:   t.Status,
	})
}

type reportResponse struct {
	ReportID string               `json:"report_id"`
	Status   task.Status          `json:"status"`
	Findings []task.ReportFinding `json:"findings,omitempty"`
	Stats    *task.Stats          `json:"stats,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// handleReport returns the current state of one task. Findings and stats
// appear only once the task completed; the error only once it failed. An
// unknown id is a distinct not-found condition, never an empty task.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/api/reports/"))
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}

	t, ok := s.runner.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}

	resp := reportResponse{
		ReportID: t.ID,
		Status:   t.Status,
	}
	switch t.Status {
	case task.StatusCompleted:
		if t.Result != nil {
			resp.Findings = t.Result.Findings
			resp.Stats = &t.Result.Stats
		}
	case task.StatusFailed:
		resp.Error = t.Error
	}

	writeJSON(w, http.StatusOK, resp)
}
