// Package api - Thin HTTP layer over the pricing core and the proposal workflow.
// The API is ONLY responsible for: input decoding, orchestration, output serialization.
// The API NEVER performs pricing logic.
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"roofquote/adapters/catalog"
	"roofquote/adapters/storage"
	"roofquote/core/pricing"
	"roofquote/core/scoring"
	"roofquote/core/workflow"
	"roofquote/internal/errors"
	"roofquote/internal/logging"
)

// Options wires a Server
type Options struct {
	Version string

	// Catalog supplies the cost model and score weights; nil uses the built-in one
	Catalog *catalog.Catalog

	Renderer workflow.Renderer
	Sender   workflow.Sender

	// Store persists pricing runs and lead scores; nil disables persistence
	Store storage.Store

	// CollaboratorTimeout bounds each workflow transition that calls out
	CollaboratorTimeout time.Duration

	Logger *zap.Logger
}

// Server is the API server
type Server struct {
	router   chi.Router
	version  string
	calc     *pricing.Calculator
	scorer   *scoring.Scorer
	flow     *workflow.Workflow
	sessions *sessionStore
	store    storage.Store
	timeout  time.Duration
	logger   *zap.Logger
}

// NewServer validates the options and builds the router
func NewServer(opts Options) (*Server, error) {
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Named(logging.ComponentAPI)
	}

	calc, err := pricing.NewCalculator(opts.Catalog.Model)
	if err != nil {
		return nil, err
	}
	scorer, err := scoring.NewScorer(opts.Catalog.Weights)
	if err != nil {
		return nil, err
	}

	wfOpts := []workflow.Option{workflow.WithLogger(opts.Logger.Named("workflow"))}
	if opts.Store != nil {
		wfOpts = append(wfOpts, workflow.WithRecorder(opts.Store))
	}
	flow, err := workflow.New(calc, opts.Renderer, opts.Sender, wfOpts...)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:   chi.NewRouter(),
		version:  opts.Version,
		calc:     calc,
		scorer:   scorer,
		flow:     flow,
		sessions: newSessionStore(),
		store:    opts.Store,
		timeout:  opts.CollaboratorTimeout,
		logger:   opts.Logger,
	}
	s.registerRoutes()
	return s, nil
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleVersion)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/tiers", s.handleTiers)
		r.Post("/tiers/workbook", s.handleTiersWorkbook)
		r.Post("/financing", s.handleFinancing)
		r.Post("/leads/score", s.handleLeadScore)
		r.Get("/leads", s.handleListLeads)
		r.Get("/leads/{id}", s.handleGetLead)

		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/compare", s.handleCompareRuns)
		r.Get("/runs/{id}", s.handleGetRun)

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Post("/measurements", s.handleSubmitMeasurements)
			r.Post("/tier", s.handleSelectTier)
			r.Post("/proposal", s.handleGenerateProposal)
			r.Post("/send", s.handleSendProposal)
			r.Post("/revise-measurements", s.handleReviseMeasurements)
			r.Post("/revise-tier", s.handleReviseTier)
			r.Post("/abandon", s.handleAbandon)
		})
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			logging.RequestID(middleware.GetReqID(r.Context())))
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":  "healthy",
		"version": s.version,
		"storage": s.store != nil,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"version":     s.version,
		"engine":      "roofquote",
		"api_version": "v1",
	}, http.StatusOK)
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, code, message string, status int) {
	s.writeJSON(w, ErrorResponse{Error: ErrorBody{Code: code, Message: message}}, status)
}

// fail maps a domain error onto an HTTP status
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.TypeOf(err) {
	case errors.TypeInvalidInput:
		status = http.StatusBadRequest
	case errors.TypeInvalidTransition:
		status = http.StatusConflict
	case errors.TypeNotFound:
		status = http.StatusNotFound
	case errors.TypeExternal:
		status = http.StatusBadGateway
		if stderrors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
	}
	code := string(errors.TypeOf(err))
	if status >= 500 {
		s.logger.Warn("request failed", zap.String("code", code), zap.Error(err))
	}
	s.writeError(w, code, err.Error(), status)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe starts the server and shuts it down when ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
