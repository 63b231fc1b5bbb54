// Package server exposes the PII guard to other local processes over
// HTTP: a check endpoint returning boolean verdicts, counters, and a
// WebSocket event feed. Checked text is read, judged, and discarded;
// it is never logged or stored.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/TheSethRose/Moltbook-Wrapper/internal/config"
	"github.com/TheSethRose/Moltbook-Wrapper/internal/events"
	"github.com/TheSethRose/Moltbook-Wrapper/internal/logger"
	"github.com/TheSethRose/Moltbook-Wrapper/internal/policy"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Server is the local guard server.
type Server struct {
	config     *config.Config
	logger     *logger.Logger
	guard      *policy.Guard
	router     *mux.Router
	server     *http.Server
	hub        *events.Hub
	startedAt  time.Time
	requestSeq uint64

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a guard server around an already-configured guard.
func New(cfg *config.Config, guard *policy.Guard, log *logger.Logger) *Server {
	hub := events.NewHub(cfg.WebSocket, log.WithComponent("events").Logger)

	s := &Server{
		config: cfg,
		logger: log.WithComponent("server"),
		guard:  guard,
		router: mux.NewRouter(),
		hub:    hub,
		done:   make(chan struct{}),
	}

	// Every decision the guard makes is mirrored to the event feed,
	// metadata only.
	guard.SetDecisionHook(func(field string, allowed bool, reason string) {
		hub.BroadcastEvent(events.Event{
			Type:      events.EventTypeDecision,
			Timestamp: time.Now(),
			Data: events.DecisionEvent{
				Field:   field,
				Allowed: allowed,
				Reason:  reason,
			},
		})
	})

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/info", s.handleInfo).Methods("GET")
	s.router.HandleFunc("/stats", s.handleStats).Methods("GET")
	s.router.HandleFunc("/check", s.handleCheck).Methods("POST")

	if s.config.WebSocket.Enabled {
		s.router.HandleFunc(s.config.WebSocket.Path, s.handleWebSocket).Methods("GET")
	}
}

// Start starts the HTTP server and the event hub. It blocks until the
// server stops.
func (s *Server) Start() error {
	s.startedAt = time.Now()
	s.logger.Info("Starting guard server", zap.Int("port", s.config.Server.Port))

	go s.hub.Run()
	go s.statusLoop()

	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server, the status loop, and the event
// hub. Safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping guard server")
	s.stopOnce.Do(func() { close(s.done) })
	s.hub.Stop()
	return s.server.Shutdown(ctx)
}

// Hub returns the event hub.
func (s *Server) Hub() *events.Hub {
	return s.hub
}

// statusLoop periodically broadcasts counters to the event feed until
// the server stops.
func (s *Server) statusLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}

		stats := s.guard.Stats()
		s.hub.BroadcastEvent(events.Event{
			Type:      events.EventTypeSystemStatus,
			Timestamp: time.Now(),
			Data: events.SystemStatusEvent{
				Status:            "healthy",
				Uptime:            time.Since(s.startedAt).Round(time.Second).String(),
				ProtectionEnabled: stats.ProtectionEnabled,
				PostsBlocked:      stats.PostsBlocked,
				PostsAllowed:      stats.PostsAllowed,
				ConnectedClients:  int(s.hub.GetStats().ActiveConnections),
			},
		})
	}
}

// handleWebSocket hands the connection to the event hub.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.hub.HandleWebSocket(w, r)
}
