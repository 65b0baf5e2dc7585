// Package server exposes the triage service over HTTP: report submission,
// result polling, and direct moderation.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/leakgate/leakgate/internal/config"
	"github.com/leakgate/leakgate/internal/task"
)

// Server wraps the HTTP components for leakgate.
type Server struct {
	mux       *http.ServeMux
	cfg       *config.Config
	runner    *task.Runner
	moderator task.Moderator
}

// New creates a server with all routes registered.
func New(cfg *config.Config, runner *task.Runner, moderator task.Moderator) *Server {
	s := &Server{
		mux:       http.NewServeMux(),
		cfg:       cfg,
		runner:    runner,
		moderator: moderator,
	}

	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/analyze", s.handleAnalyze)
	s.mux.HandleFunc("/api/reports/", s.handleReport)
	s.mux.HandleFunc("/api/moderate", s.handleModerate)
	s.mux.HandleFunc("/api/config", s.handleConfig)

	return s
}

// Handler returns the route mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start runs the HTTP server on addr.
func (s *Server) Start(addr string) error {
	log.Printf("leakgate listening on %s", addr)
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintln(w, "ok")
}

type apiErrorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiErrorBody{Error: msg})
}
