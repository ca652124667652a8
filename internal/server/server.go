// Package server exposes the dashboards over a read-only JSON API.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/matsen/citedash/internal/dashboard"
	"github.com/matsen/citedash/internal/github"
	"github.com/matsen/citedash/internal/logging"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 10 * time.Second

// StatsFetcher fetches repository statistics.
type StatsFetcher interface {
	FetchStats(ctx context.Context, urlOrShorthand string) (*github.Stats, error)
}

// Options configure a Server. Catalog is required.
type Options struct {
	Catalog   *dashboard.Catalog
	Baselines dashboard.BaselineSource // nil: trends are synthetic
	GitHub    StatsFetcher             // nil: the github route answers 404
	Logger    *zap.Logger
	Registry  *prometheus.Registry // nil: a fresh registry
	Now       func() time.Time
}

// Server serves the dashboard API.
type Server struct {
	catalog   *dashboard.Catalog
	baselines dashboard.BaselineSource
	github    StatsFetcher
	logger    *zap.Logger
	metrics   *Metrics
	now       func() time.Time
	router    chi.Router
}

// New builds the server and its routes.
func New(opts Options) *Server {
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	s := &Server{
		catalog:   opts.Catalog,
		baselines: opts.Baselines,
		github:    opts.GitHub,
		logger:    logging.OrNop(opts.Logger),
		metrics:   NewMetrics(reg),
		now:       opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	for _, info := range s.catalog.List() {
		s.metrics.DashboardRecords.WithLabelValues(info.Name).Set(float64(info.Records))
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/dashboards", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Route("/{name}", func(r chi.Router) {
			r = r.With(s.withDashboard)
			r.Get("/summary", s.handleSummary)
			r.Get("/trends", s.handleTrends)
			r.Get("/distributions/{field}", s.handleDistribution)
			r.Get("/geography", s.handleGeography)
			r.Get("/projection", s.handleProjection)
			r.Get("/citations", s.handleCitations)
			r.Get("/citations.csv", s.handleCitationsCSV)
			r.Get("/values/{field}", s.handleValues)
			r.Get("/github", s.handleGitHub)
		})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr), zap.Strings("dashboards", s.catalog.Names()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// instrument logs each request and records its metrics under the matched
// route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		s.metrics.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		s.metrics.Duration.WithLabelValues(route).Observe(elapsed.Seconds())
		s.logger.Debug("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", elapsed))
	})
}
