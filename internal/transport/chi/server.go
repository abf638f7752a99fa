// Package chi exposes the HTTP API: question answering, page ingestion,
// review records, and health.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/profscope/profscope/internal/domain"
	"github.com/profscope/profscope/internal/logger"
	answeruc "github.com/profscope/profscope/internal/usecase/answer"
	healthuc "github.com/profscope/profscope/internal/usecase/health"
	ingestuc "github.com/profscope/profscope/internal/usecase/ingest"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// ReviewLister reads stored review records for one entity.
type ReviewLister interface {
	ListByEntity(ctx context.Context, entityName string) ([]domain.ReviewRecord, error)
}

// Server routes HTTP requests to the usecase services.
type Server struct {
	answers       *answeruc.Service
	ingester      *ingestuc.Service
	records       ReviewLister
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	answers *answeruc.Service,
	ingester *ingestuc.Service,
	records ReviewLister,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		answers:  answers,
		ingester: ingester,
		records:  records,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		partialIndexHandler,
		sentinelHandler(domain.ErrBadRequest, http.StatusBadRequest),
		sentinelHandler(domain.ErrExtraction, http.StatusInternalServerError),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway),
		sentinelHandler(domain.ErrRetrieval, http.StatusInternalServerError),
		sentinelHandler(domain.ErrGeneration, http.StatusInternalServerError),
	}
	return s
}

// Routes mounts all API endpoints on r.
func (s *Server) Routes(r chi.Router) {
	r.Options("/query", corsPreflight)
	r.Post("/query", s.handleQuery)
	r.Delete("/query", s.handleClearSession)

	r.Options("/ingest", corsPreflight)
	r.Post("/ingest", s.handleIngest)

	r.Get("/reviews", s.handleListReviews)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

type queryRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"sessionId"`
}

type queryResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
}

// handleQuery handles POST /query.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "No question provided")
		return
	}

	res, err := s.answers.Answer(r.Context(), req.Question, req.SessionID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Response:  res.Response,
		SessionID: res.SessionID,
	})
}

type clearSessionRequest struct {
	SessionID string `json:"sessionId"`
}

// handleClearSession handles DELETE /query.
func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	var req clearSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Clearing an unknown or empty session is a no-op, not an error.
	if req.SessionID != "" {
		s.answers.ClearSession(req.SessionID)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type ingestRequest struct {
	URL string `json:"url"`
}

type ingestResponse struct {
	Message       string                `json:"message"`
	EntityName    string                `json:"entityName,omitempty"`
	ChunksIndexed int                   `json:"chunksIndexed"`
	Reviews       []domain.ReviewRecord `json:"reviews,omitempty"`
}

// handleIngest handles POST /ingest.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "No URL provided")
		return
	}

	report, err := s.ingester.Ingest(r.Context(), req.URL)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{
		Message:       "Document successfully processed",
		EntityName:    report.EntityName,
		ChunksIndexed: report.ChunksIndexed,
		Reviews:       report.Reviews,
	})
}

// handleListReviews handles GET /reviews?entity=.
func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	entity := r.URL.Query().Get("entity")
	if entity == "" {
		writeError(w, http.StatusBadRequest, "No entity provided")
		return
	}

	records, err := s.records.ListByEntity(r.Context(), entity)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if records == nil {
		records = []domain.ReviewRecord{}
	}
	writeJSON(w, http.StatusOK, map[string][]domain.ReviewRecord{"reviews": records})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// corsPreflight answers OPTIONS requests from browser clients.
func corsPreflight(w http.ResponseWriter, _ *http.Request) {
	h := w.Header()
	h.Set("Access-Control-Allow-Methods", "POST, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
	writeJSON(w, http.StatusOK, map[string]any{})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// safeMessage returns a sentinel error message for the client without
// exposing internals.
func safeMessage(err error) string {
	sentinels := []error{
		domain.ErrBadRequest,
		domain.ErrExtraction,
		domain.ErrNoReviews,
		domain.ErrEmbeddingProvider,
		domain.ErrRetrieval,
		domain.ErrGeneration,
		domain.ErrPartialIndex,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, msg)
		return true
	}
}

// partialIndexHandler reports which chunks failed so a client can retry.
func partialIndexHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrPartialIndex) {
		return false
	}
	var pErr *domain.PartialIndexError
	if errors.As(err, &pErr) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":         msg,
			"failed_chunks": pErr.FailedChunks,
		})
		return true
	}
	writeError(w, http.StatusInternalServerError, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	// Prefer the request-scoped logger so the warning carries the request id.
	reqLogger := logger.FromContext(r.Context())
	reqLogger.Warn("domain error", zap.Error(err))

	msg := safeMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
