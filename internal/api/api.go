// Package api implements the HTTP and WebSocket API hosting the review
// engine for browser-based review UIs.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/scanline-ai/shieldrev/internal/geometry"
	"github.com/scanline-ai/shieldrev/internal/review"
	"github.com/scanline-ai/shieldrev/internal/session"
)

// Server is the shieldrev HTTP API server.
type Server struct {
	addr       string
	mux        *http.ServeMux
	server     *http.Server
	store      *session.Store
	resolver   review.Resolver
	thresholds geometry.Thresholds
	log        *zap.Logger
}

// New creates a new API server. The session store may be nil; WS review
// sessions then run without local durability.
func New(addr string, resolver review.Resolver, store *session.Store, thresholds geometry.Thresholds, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		addr:       addr,
		store:      store,
		resolver:   resolver,
		thresholds: thresholds,
		log:        log,
	}
	s.mux = http.NewServeMux()
	s.registerRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/conflicts", s.handleConflicts)
	s.mux.HandleFunc("GET /api/sessions/{caseID}", s.handleGetSession)
	s.mux.HandleFunc("DELETE /api/sessions/{caseID}", s.handleDeleteSession)
	s.mux.HandleFunc("GET /api/ws", s.handleWebSocket)
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.log.Info("shieldrev API server listening", zap.String("addr", s.addr))
	return s.server.ListenAndServe()
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.log.Warn("json encode error", zap.Error(err))
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// readJSON decodes a JSON request body into v.
func readJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("empty request body")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
