// Package server exposes the container gauges over HTTP. Every scrape of
// /metrics runs one collection cycle before the registry is serialized, so
// a failed cycle is visible to the scraper as a 500 instead of stale data.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rusenback/docker-exporter/internal/metrics"
)

var contentType = string(metrics.ExpositionFormat)

// Collector runs one synchronous collection cycle.
type Collector interface {
	Collect(ctx context.Context) error
}

// Renderer serializes the current gauge values.
type Renderer interface {
	Render(w io.Writer) error
}

// Pinger reports whether the container engine answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the listener settings.
type Config struct {
	Addr    string
	TLSCert string
	TLSKey  string
}

// Server serves /metrics and /healthz.
type Server struct {
	cfg       Config
	collector Collector
	renderer  Renderer
	pinger    Pinger
	logger    *zap.Logger
	srv       *http.Server
}

func New(cfg Config, collector Collector, renderer Renderer, pinger Pinger, logger *zap.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		collector: collector,
		renderer:  renderer,
		pinger:    pinger,
		logger:    logger,
	}
	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if err := s.collector.Collect(r.Context()); err != nil {
		s.logger.Error("Scrape failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		http.Error(w, fmt.Sprintf("collection failed: %v", err), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf); err != nil {
		s.logger.Error("Render failed", zap.Error(err))
		http.Error(w, fmt.Sprintf("render failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.pinger.Ping(ctx); err != nil {
		s.logger.Warn("Health check failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	_, _ = w.Write([]byte("ok\n"))
}

// Run listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if s.cfg.TLSCert != "" && s.cfg.TLSKey != "" {
			s.logger.Info("Serving HTTPS", zap.String("addr", s.cfg.Addr))
			err = s.srv.ListenAndServeTLS(s.cfg.TLSCert, s.cfg.TLSKey)
		} else {
			s.logger.Info("Serving HTTP", zap.String("addr", s.cfg.Addr))
			err = s.srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to bind %s: %w", s.cfg.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
