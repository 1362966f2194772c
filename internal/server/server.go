// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spigell/interview-analyzer/internal/analysis"
	"github.com/spigell/interview-analyzer/internal/metrics"
	"github.com/spigell/interview-analyzer/internal/store"
)

const (
	maxBodyBytes    = 10 << 20
	shutdownTimeout = 15 * time.Second
)

// Pipeline is the part of *analysis.Analyzer the handlers use.
type Pipeline interface {
	Analyze(ctx context.Context, in analysis.Input) (*analysis.Report, error)
	IdealAnswer(ctx context.Context, question, jobDescription string) (string, error)
	ScoreAnswer(ctx context.Context, question, candidateAnswer, idealAnswer, jobDescription string) (analysis.Score, error)
}

// Publisher announces stored reports.
type Publisher interface {
	PublishReport(ctx context.Context, report *analysis.Report) error
}

// Config holds the listener settings.
type Config struct {
	Listen string `mapstructure:"listen"`
}

// Deps wires the server. Store and Publisher may be nil.
type Deps struct {
	Pipeline  Pipeline
	Store     store.Store
	StoreName string
	Publisher Publisher
	Gatherer  prometheus.Gatherer
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

type Server struct {
	pipeline  Pipeline
	store     store.Store
	storeName string
	publisher Publisher
	gatherer  prometheus.Gatherer
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func New(deps Deps) *Server {
	s := &Server{
		pipeline:  deps.Pipeline,
		store:     deps.Store,
		storeName: deps.StoreName,
		publisher: deps.Publisher,
		gatherer:  deps.Gatherer,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
	}
	if s.store == nil {
		s.store = store.Nop{}
		s.storeName = string(store.DriverNone)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	return s
}

// Handler returns the routed handler with logging and metrics applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.route(mux, "POST /api/analyze-mock", s.handleAnalyzeMock)
	s.route(mux, "POST /api/analyze", s.handleAnalyze)
	s.route(mux, "GET /api/reports/{interviewId}", s.handleGetReport)
	s.route(mux, "POST /api/generate-ideal-answer", s.handleIdealAnswer)
	s.route(mux, "POST /api/score-answer-realtime", s.handleScoreAnswer)
	s.route(mux, "GET /api/health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	return mux
}

// Run serves on listen until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, listen string) error {
	srv := &http.Server{
		Addr:              listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("listen", listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, s.instrument(pattern, h))
}

// instrument records status and latency for every request.
func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next(wrapped, r)

		took := time.Since(start)
		s.metrics.ObserveHTTP(route, r.Method, wrapped.statusCode, took)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapped.statusCode),
			zap.Duration("took", took),
		)
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
