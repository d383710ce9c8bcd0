// Package http exposes the bot over a transport-agnostic JSON API.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"budgetbot/internal/bot"
	"budgetbot/internal/log"
	"budgetbot/internal/metrics"
	"budgetbot/internal/middleware/trace"
)

// Server serves the command endpoint plus health and metrics.
type Server struct {
	httpServer *http.Server
	router     *bot.Router
	logger     *log.Logger
}

func NewServer(addr string, router *bot.Router, m *metrics.Metrics, logger *log.Logger) *Server {
	s := &Server{
		router: router,
		logger: logger.WithComponent(log.ComponentHTTP),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/command", s.handleCommand)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}

	traced := trace.NewMiddleware(logger).Middleware(mux)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      traced,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the full middleware-wrapped handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start blocks serving requests until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// commandRequest is one inbound chat message.
type commandRequest struct {
	UserID int64  `json:"user_id"`
	Text   string `json:"text"`
}

// commandResponse is the reply; File is base64-encoded when present.
type commandResponse struct {
	Text     string `json:"text"`
	FileName string `json:"file_name,omitempty"`
	File     []byte `json:"file,omitempty"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "user_id must be positive")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text must not be empty")
		return
	}

	resp := s.router.Handle(r.Context(), req.UserID, req.Text)
	writeJSON(w, http.StatusOK, commandResponse{
		Text:     resp.Text,
		FileName: resp.FileName,
		File:     resp.File,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
