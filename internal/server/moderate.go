package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/leakgate/leakgate/internal/finding"
)

type moderateRequest struct {
	Source   string            `json:"source"`
	Findings []finding.Finding `json:"findings"`
}

type moderateResponse struct {
	Results []finding.ModerationResult `json:"results"`
}

// handleModerate runs the cascade synchronously over already-normalized
// findings, one result per input, correlated by id.
func (s *Server) handleModerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req moderateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Source) == "" {
		writeError(w, http.StatusBadRequest, "missing source")
		return
	}

	results, err := s.moderator.Process(r.Context(), req.Findings)
	if err != nil {
		log.Printf("moderate request from %q failed: %v", req.Source, err)
		writeError(w, http.StatusInternalServerError, "moderation failed")
		return
	}

	writeJSON(w, http.StatusOK, moderateResponse{Results: results})
}

type configResponse struct {
	Addr          string  `json:"addr"`
	ModelBundle   string  `json:"model_bundle"`
	FPThreshold   float64 `json:"fp_threshold"`
	BandLow       float64 `json:"band_low"`
	BandHigh      float64 `json:"band_high"`
	MaxConcurrent int     `json:"max_concurrent"`
	ArbiterURL    string  `json:"arbiter_url"`
}

// handleConfig reports the effective tuning values. Secrets never appear
// here; the arbiter token is env-injected and not part of the config.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, configResponse{
		Addr:          s.cfg.Server.Addr,
		ModelBundle:   s.cfg.Model.BundleDir,
		FPThreshold:   s.cfg.Pipeline.FPThreshold,
		BandLow:       s.cfg.Pipeline.BandLow,
		BandHigh:      s.cfg.Pipeline.BandHigh,
		MaxConcurrent: s.cfg.Pipeline.MaxConcurrent,
		ArbiterURL:    s.cfg.Arbiter.URL,
	})
}
