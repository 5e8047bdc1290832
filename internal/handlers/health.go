package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"examenbot/internal/contextutil"
	"examenbot/internal/index"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// IndexStatus reports the published corpus.
type IndexStatus interface {
	Current() *index.Corpus
}

// SessionCounter reports the number of live chat sessions.
type SessionCounter interface {
	Count() int
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	vectorStore        Pinger
	index              IndexStatus
	sessions           SessionCounter
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(vectorStore Pinger, idx IndexStatus, sessions SessionCounter) *HealthHandler {
	return &HealthHandler{
		vectorStore:        vectorStore,
		index:              idx,
		sessions:           sessions,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy", "degraded", or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is degraded or unhealthy)
	Issues []string `json:"issues,omitempty"`

	// Published corpus; absent until documents are indexed
	Corpus *CorpusResponse `json:"corpus,omitempty"`

	// Live chat sessions
	Sessions int `json:"sessions"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// Returns 200 OK when the vector store answers. An empty index only degrades
// the status, since chat still answers with the no-documents message.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Create context with timeout for health checks
	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string

	vectorStoreOK := h.checkVectorStore(checkCtx, logger)
	if vectorStoreOK {
		checks["vector_store"] = "ok"
	} else {
		checks["vector_store"] = "error"
		issues = append(issues, "vector_store_unavailable")
	}

	corpus := h.index.Current()
	if corpus != nil {
		checks["index"] = "ok"
	} else {
		checks["index"] = "empty"
	}

	// Determine overall status
	status := "healthy"
	httpStatus := http.StatusOK
	switch {
	case !vectorStoreOK:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	case corpus == nil:
		status = "degraded"
		issues = append(issues, "no_documents_indexed")
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Corpus:    toCorpusResponse(corpus),
		Sessions:  h.sessions.Count(),
	}

	if len(issues) > 0 {
		response.Issues = issues
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.ErrorContext(ctx, "failed to encode health response", "error", err)
	}
}

// checkVectorStore checks if the vector store is accessible.
func (h *HealthHandler) checkVectorStore(ctx context.Context, logger *slog.Logger) bool {
	if err := h.vectorStore.Ping(ctx); err != nil {
		logger.WarnContext(ctx, "vector store health check failed", "error", err)
		return false
	}
	return true
}
