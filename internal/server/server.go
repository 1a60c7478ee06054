// Package server provides the HTTP server for the signalhand dashboard.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/signalhand/internal/server/api"
	"github.com/ayusman/signalhand/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir    string
	Store        *store.Store
	Controller   api.Controller
	Frames       FrameSource
	FeedInterval time.Duration
}

// Server represents the HTTP server for the signalhand application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	feed   *StateFeed
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Controller != nil {
		timingHandler := api.NewTimingHandler(s.config.Controller)
		s.mux.Handle("/api/timing", timingHandler)
		s.mux.Handle("/api/timing/", timingHandler)
		s.mux.Handle("/api/state", api.NewStateHandler(s.config.Controller))
		s.mux.Handle("/api/gestures/enabled", api.NewEnabledHandler(s.config.Controller))

		s.feed = NewStateFeed(s.config.Controller, s.config.FeedInterval)
		s.mux.Handle("/api/ws", s.feed)
	}

	if s.config.Store != nil {
		history := api.NewHistoryHandler(s.config.Store)
		s.mux.HandleFunc("/api/events", history.Events)
		s.mux.HandleFunc("/api/status/latest", history.LatestStatus)
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Controller != nil {
		response["transport_open"] = s.config.Controller.Snapshot().TransportOpen
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Close stops the state feed.
func (s *Server) Close() {
	if s.feed != nil {
		s.feed.Close()
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
