// Package server provides the HTTP API: health, the gesture event log,
// action bindings, the live camera stream, gesture push over websocket and
// Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

// Controller is the part of the app the API can see and toggle.
type Controller interface {
	IsEnabled() bool
	SetEnabled(enabled bool) error
	Current() (gesture.Entry, bool)
}

// Config holds the server configuration. Every field is optional; routes
// whose dependency is missing are not registered.
type Config struct {
	StaticDir string
	Store     *store.Store
	Plugins   api.PluginChecker
	App       Controller
	Latest    *capture.Latest
	Hub       *Hub
	Metrics   http.Handler
	Log       logrus.FieldLogger
}

// Server represents the HTTP server for the mudra application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	log    logrus.FieldLogger
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		log:    logging.OrDiscard(config.Log).WithField("component", "server"),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.App != nil {
		s.mux.HandleFunc("/api/enabled", s.handleEnabled)
	}

	if s.config.Store != nil {
		actions := api.NewActionHandler(s.config.Store, s.config.Plugins, s.log)
		s.mux.Handle("/api/actions", actions)
		s.mux.Handle("/api/actions/", actions)
		s.mux.Handle("/api/events", api.NewEventHandler(s.config.Store, s.log))
	}

	if s.config.Latest != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Latest))
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/gestures/ws", s.config.Hub)
	}

	if s.config.Metrics != nil {
		s.mux.Handle("/metrics", s.config.Metrics)
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

type healthResponse struct {
	Status  string         `json:"status"`
	Uptime  string         `json:"uptime"`
	Enabled *bool          `json:"enabled,omitempty"`
	Current *gesture.Entry `json:"current,omitempty"`
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := healthResponse{
		Status: "ok",
		Uptime: time.Since(s.start).Round(time.Second).String(),
	}
	if s.config.App != nil {
		enabled := s.config.App.IsEnabled()
		response.Enabled = &enabled
		if cur, ok := s.config.App.Current(); ok {
			response.Current = &cur
		}
	}

	writeJSON(w, http.StatusOK, response)
}

type enabledBody struct {
	Enabled *bool `json:"enabled"`
}

// handleEnabled reads (GET) or sets (PUT) the detection toggle.
func (s *Server) handleEnabled(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var body enabledBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Enabled == nil {
			http.Error(w, "Body must be {\"enabled\": bool}", http.StatusBadRequest)
			return
		}
		if err := s.config.App.SetEnabled(*body.Enabled); err != nil {
			s.log.WithError(err).Error("Failed to persist enabled setting")
			http.Error(w, "Failed to save setting", http.StatusInternalServerError)
			return
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	enabled := s.config.App.IsEnabled()
	writeJSON(w, http.StatusOK, enabledBody{Enabled: &enabled})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if s.config.Hub != nil {
		s.config.Hub.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
