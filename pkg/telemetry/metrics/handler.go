package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns an HTTP handler serving the sink's registry in
// Prometheus exposition format.
func (s *Sink) Handler() http.Handler {
	return promhttp.HandlerFor(
		s.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			ErrorHandling:     promhttp.ContinueOnError,
		},
	)
}

// Server runs the scrape endpoint on its own listener.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// NewServer mounts the sink's handler at /metrics on addr.
func NewServer(sink *Sink, addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", sink.Handler())

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: slog.Default().With("component", "metrics"),
	}
}

// Start begins serving scrapes in a background goroutine.
func (s *Server) Start() {
	go func() {
		s.logger.Info("metrics endpoint listening", "address", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics endpoint failed", "error", err)
		}
	}()
}

// Stop shuts the scrape endpoint down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
