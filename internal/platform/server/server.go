package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/utfunderscore/serverless-discord/internal/interactions"
	"github.com/utfunderscore/serverless-discord/internal/platform/middleware"
)

const defaultShutdownTimeout = 10 * time.Second

// Dependencies holds all injected dependencies for the server.
type Dependencies struct {
	InteractionHandler *interactions.Handler
	Logger             *slog.Logger
	// MetricsHandler is mounted at MetricsPath when both are set.
	MetricsHandler  http.Handler
	MetricsPath     string
	OnPanic         func()
	ShutdownTimeout time.Duration
}

type Server struct {
	name            string
	httpServer      *http.Server
	handler         http.Handler
	shutdownTimeout time.Duration
}

func New(addr string, deps Dependencies) *Server {
	mux := http.NewServeMux()

	s := newServer("server", addr, deps.ShutdownTimeout)

	mux.HandleFunc("GET /healthz", handleHealth)
	ready := deps.InteractionHandler != nil
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"reason": "interaction handler not configured",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	if deps.InteractionHandler != nil {
		h := http.HandlerFunc(deps.InteractionHandler.HandleInteraction)
		mux.Handle("POST /{$}", h)
		mux.Handle("POST /interactions", h)
	}
	if deps.MetricsHandler != nil && deps.MetricsPath != "" {
		mux.Handle("GET "+deps.MetricsPath, deps.MetricsHandler)
	}

	var handler http.Handler = mux
	handler = middleware.Recover(deps.OnPanic)(handler)
	if deps.Logger != nil {
		handler = middleware.Logging(deps.Logger)(handler)
	}
	handler = middleware.RequestID(handler)

	s.handler = handler
	s.httpServer.Handler = handler
	return s
}

// NewMetricsServer serves only h, for exposing metrics on a listener the
// public internet cannot reach.
func NewMetricsServer(addr, path string, h http.Handler) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.Handle("GET "+path, h)

	s := newServer("metrics server", addr, 0)
	s.handler = mux
	s.httpServer.Handler = mux
	return s
}

func newServer(name, addr string, shutdownTimeout time.Duration) *Server {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	return &Server{
		name: name,
		httpServer: &http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		shutdownTimeout: shutdownTimeout,
	}
}

// Handler returns the full middleware-wrapped handler chain (for testing).
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	slog.Info(s.name+" starting", "addr", listener.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info(s.name + " shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
