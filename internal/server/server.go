// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides a local stand-in for the chat API.
//
// Endpoints:
//   - POST /api/chat - {"userMessage": "..."} -> {"reply": "..."}
//   - GET  /health   - Health check
//   - GET  /stats    - Request counters
//
// The reply comes from a Responder; the default echoes the message back.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/jeranaias/elysian-tui/internal/chatapi"
	"github.com/jeranaias/elysian-tui/internal/logging"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr matches the endpoint the client uses by default.
	DefaultAddr = "localhost:8081"

	// MaxRequestBodySize bounds request bodies (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// MaxMessageLength bounds the userMessage field, in runes.
	MaxMessageLength = 100000
)

// Version is reported by /health. Set by main at start-up.
var Version = "dev"

// ============================================================================
// RESPONDER
// ============================================================================

// Responder produces the reply for one user message.
type Responder interface {
	Respond(ctx context.Context, userMessage string) (string, error)
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, userMessage string) (string, error)

// Respond implements Responder.
func (f ResponderFunc) Respond(ctx context.Context, userMessage string) (string, error) {
	return f(ctx, userMessage)
}

// EchoResponder replies "You said: <message>".
var EchoResponder = ResponderFunc(func(_ context.Context, msg string) (string, error) {
	return "You said: " + msg, nil
})

// ============================================================================
// SERVER STATS
// ============================================================================

// Stats tracks request counters.
type Stats struct {
	TotalRequests atomic.Int64
	Replies       atomic.Int64
	Errors        atomic.Int64
	StartTime     time.Time
}

// StatsSnapshot is the JSON form of Stats.
type StatsSnapshot struct {
	TotalRequests int64  `json:"total_requests"`
	Replies       int64  `json:"replies"`
	Errors        int64  `json:"errors"`
	Uptime        string `json:"uptime"`
}

// Snapshot returns a copy of the counters.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		TotalRequests: s.TotalRequests.Load(),
		Replies:       s.Replies.Load(),
		Errors:        s.Errors.Load(),
		Uptime:        time.Since(s.StartTime).Round(time.Second).String(),
	}
}

// ============================================================================
// SERVER
// ============================================================================

// Options configures a Server.
type Options struct {
	Addr           string
	AllowedOrigins []string
	// RatePerSec and Burst limit requests per client IP. RatePerSec 0 disables.
	RatePerSec float64
	Burst      int
}

// Server is the development chat API server.
type Server struct {
	opts      Options
	responder Responder
	stats     *Stats
	limiter   *IPRateLimiter
	router    chi.Router

	mu     sync.Mutex
	server *http.Server
}

// NewServer creates a server that answers with the echo responder.
func NewServer(opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	s := &Server{
		opts:      opts,
		responder: EchoResponder,
		stats:     &Stats{StartTime: time.Now()},
	}
	if opts.RatePerSec > 0 {
		s.limiter = NewIPRateLimiter(opts.RatePerSec, opts.Burst)
	}
	s.setupRoutes()
	return s
}

// WithResponder replaces the responder.
func (s *Server) WithResponder(r Responder) *Server {
	s.responder = r
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Stats returns the live counters.
func (s *Server) Stats() *Stats {
	return s.stats
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(SecurityHeadersMiddleware)
	r.Use(CORSMiddleware(s.opts.AllowedOrigins))

	r.Get("/health", s.handleHealth)
	r.Get("/stats", s.handleStats)

	r.Route("/api", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware)
		}
		r.Post("/chat", s.handleChat)
	})

	s.router = r
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	s.stats.TotalRequests.Add(1)
	ctx := logging.WithRequestID(r.Context(), chimiddleware.GetReqID(r.Context()))

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	var req chatapi.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.stats.Errors.Add(1)
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	msg := strings.TrimSpace(req.UserMessage)
	if msg == "" {
		s.stats.Errors.Add(1)
		s.writeError(w, http.StatusBadRequest, "userMessage is required")
		return
	}
	if len([]rune(msg)) > MaxMessageLength {
		s.stats.Errors.Add(1)
		s.writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("userMessage exceeds %d characters", MaxMessageLength))
		return
	}

	reply, err := s.responder.Respond(ctx, msg)
	if err != nil {
		s.stats.Errors.Add(1)
		logging.Event(ctx, slog.LevelError, "RESPONDER_FAILED", "error", err.Error())
		s.writeError(w, http.StatusBadGateway, "failed to generate a reply")
		return
	}

	s.stats.Replies.Add(1)
	s.writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": Version,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.stats.Snapshot())
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// ListenAndServe binds the configured address and serves until Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	logging.Event(context.Background(), slog.LevelInfo, "SERVER_START",
		"addr", ln.Addr().String(), "version", Version)

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	snap := s.stats.Snapshot()
	logging.Event(ctx, slog.LevelInfo, "SERVER_SHUTDOWN",
		"requests", snap.TotalRequests, "errors", snap.Errors)
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return srv.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes {"error": message}.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
