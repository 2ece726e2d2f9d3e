// Package api exposes the HTTP interface for the analyzer service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medialens/analyzer/internal/metrics"
	"github.com/medialens/analyzer/internal/report"
)

// Analyzer runs the analysis pipeline for one URL.
type Analyzer interface {
	Analyze(ctx context.Context, rawURL string) (report.AnalysisReport, error)
}

// Server wires HTTP handlers to the pipeline and report store.
type Server struct {
	router   chi.Router
	analyzer Analyzer
	store    report.Store
	logger   *zap.Logger
}

// requestTimeout bounds one analysis request end to end: navigation,
// archive fallback and the full model retry budget.
const requestTimeout = 6 * time.Minute

// NewServer constructs a Server with middleware and routes.
func NewServer(analyzer Analyzer, store report.Store, logger *zap.Logger) *Server {
	s := &Server{
		analyzer: analyzer,
		store:    store,
		logger:   logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(timeoutMiddleware(requestTimeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/analyze", s.analyze)
		r.Get("/reports/{hash}", s.getReport)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req report.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}
	if req.URL == "" {
		s.writeError(w, http.StatusBadRequest, "url is required", nil)
		return
	}

	rep, err := s.analyzer.Analyze(r.Context(), req.URL)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	rep, ok, err := s.store.Get(r.Context(), hash)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "report lookup failed", nil)
		return
	}
	if !ok {
		s.writeError(w, http.StatusNotFound, "report not found", nil)
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

func (s *Server) writeAnalysisError(w http.ResponseWriter, err error) {
	var pe *report.PipelineError
	if !errors.As(err, &pe) {
		s.writeError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}

	switch pe.Kind {
	case report.KindBlock:
		s.writeError(w, http.StatusUnprocessableEntity,
			"the page blocked automated access and no archive snapshot was found", pe)
	case report.KindAcquisition:
		s.writeError(w, http.StatusBadGateway, "failed to load the page", nil)
	case report.KindModel:
		s.writeError(w, http.StatusBadGateway, "analysis service is unavailable, try again later", nil)
	default:
		s.writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

type errorResponse struct {
	Error        bool   `json:"error"`
	Message      string `json:"message"`
	IsBlockError bool   `json:"isBlockError,omitempty"`
	Prompt       string `json:"prompt,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string, blockErr *report.PipelineError) {
	resp := errorResponse{Error: true, Message: msg}
	if blockErr != nil {
		resp.IsBlockError = true
		resp.Prompt = blockErr.ManualPrompt
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		metrics.ObserveHTTPRequest(r.Method, ww.status)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				s.writeError(w, http.StatusInternalServerError, "internal server error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type requestIDKey struct{}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
