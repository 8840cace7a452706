// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the pipeline over HTTP: JSON endpoints for fetch,
// dedup, abstract extraction and batch processing, plus a server-sent
// events stream for progress.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-pipeline/internal/fetch"
	"github.com/pdiddy/paper-pipeline/internal/pipeline"
	"github.com/pdiddy/paper-pipeline/pkg/types"
)

// Fetcher retrieves candidate papers from the metadata provider.
type Fetcher interface {
	Fetch(ctx context.Context, req fetch.Request) (fetch.Result, error)
}

// Deduper removes duplicate papers.
type Deduper interface {
	Dedupe(papers []types.Paper) ([]types.Paper, int)
}

// Processor runs the enrichment pipeline.
type Processor interface {
	Process(ctx context.Context, papers []types.Paper) (pipeline.BatchResult, error)
	Stream(ctx context.Context, papers []types.Paper) (<-chan types.ProgressEvent, error)
	ExtractAbstracts(ctx context.Context, papers []types.Paper) (pipeline.ExtractResult, error)
}

// Deps are the components the server routes to.
type Deps struct {
	Fetcher   Fetcher
	Deduper   Deduper
	Processor Processor

	// Gatherer backs the metrics endpoint. Nil disables it.
	Gatherer prometheus.Gatherer

	// Sources lists the active abstract adapters, reported by /healthz.
	Sources []string
}

// Server is the HTTP API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	cfg        types.ServerConfig
	metricsCfg types.MetricsConfig
	deps       Deps
	validate   *validator.Validate
	logger     zerolog.Logger
}

// New builds a Server with its routes.
func New(cfg types.ServerConfig, metricsCfg types.MetricsConfig, deps Deps, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:        cfg,
		metricsCfg: metricsCfg,
		deps:       deps,
		validate:   newValidator(),
		logger:     logger.With().Str("component", "http-server").Logger(),
	}
	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/healthz", s.healthHandler)
	if s.metricsCfg.Enabled && s.deps.Gatherer != nil {
		r.Handle(s.metricsCfg.Path, promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/fetch", s.fetchPapers)
		r.Post("/deduplicate", s.deduplicate)
		r.Post("/extract-abstracts", s.extractAbstracts)
		r.Post("/process-complete", s.processComplete)
		r.Post("/process-stream", s.processStream)
	})

	return r
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens and serves until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	s.logger.Info().Str("address", ln.Addr().String()).Msg("HTTP server starting")
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	srcs := s.deps.Sources
	if srcs == nil {
		srcs = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sources": srcs})
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
