package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"examenbot/internal/contextutil"
	"examenbot/internal/domain"
	"examenbot/internal/index"
	"examenbot/internal/ingest"
	"examenbot/internal/rag"
	"examenbot/internal/service"
)

// AdminHandler handles the administrator routes.
type AdminHandler struct {
	adminService  service.AdminService
	maxUploadSize int64
}

// NewAdminHandler creates a new AdminHandler. maxUploadSize bounds the
// multipart body of an upload.
func NewAdminHandler(adminService service.AdminService, maxUploadSize int64) *AdminHandler {
	return &AdminHandler{
		adminService:  adminService,
		maxUploadSize: maxUploadSize,
	}
}

// LoginRequest represents the admin login payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse reports the admin state of the session.
type LoginResponse struct {
	Authenticated bool `json:"authenticated"`
}

// DocumentResponse describes one stored PDF.
type DocumentResponse struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	SizeBytes  int64     `json:"size_bytes"`
	Pages      int       `json:"pages"`
	Chunks     int       `json:"chunks"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// CorpusResponse describes the published corpus.
type CorpusResponse struct {
	ID         string    `json:"id"`
	Collection string    `json:"collection"`
	ChunkCount int       `json:"chunk_count"`
	BuiltAt    time.Time `json:"built_at"`
}

// DocumentsResponse is the admin overview of indexed documents.
type DocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Corpus    *CorpusResponse    `json:"corpus"`
	Retrieval rag.Settings       `json:"retrieval"`
}

// UploadResponse reports the outcome of an upload. Error is set when no
// corpus could be built from the files.
type UploadResponse struct {
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
	Files     []service.FileStatus `json:"files"`
	Removed   []string             `json:"removed,omitempty"`
	Corpus    *CorpusResponse      `json:"corpus,omitempty"`
	Error     string               `json:"error,omitempty"`
}

func toCorpusResponse(c *index.Corpus) *CorpusResponse {
	if c == nil {
		return nil
	}
	return &CorpusResponse{
		ID:         c.ID,
		Collection: c.Collection,
		ChunkCount: c.ChunkCount,
		BuiltAt:    c.BuiltAt,
	}
}

// Login handles POST /api/admin/login.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.adminService.Login(ctx, sess, req.Username, req.Password); err != nil {
		handleServiceError(ctx, w, err, "Failed to log in")
		return
	}
	writeJSON(ctx, w, http.StatusOK, LoginResponse{Authenticated: true})
}

// Logout handles POST /api/admin/logout.
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	h.adminService.Logout(r.Context(), sess)
	writeJSON(r.Context(), w, http.StatusOK, LoginResponse{Authenticated: false})
}

// ListDocuments handles GET /api/admin/documents.
func (h *AdminHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	overview, err := h.adminService.Documents(ctx, sess)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list documents")
		return
	}

	docs := make([]DocumentResponse, 0, len(overview.Documents))
	for _, d := range overview.Documents {
		docs = append(docs, DocumentResponse{
			ID:         d.ID,
			Filename:   d.Filename,
			SizeBytes:  d.SizeBytes,
			Pages:      d.Pages,
			Chunks:     d.Chunks,
			UploadedAt: d.UploadedAt,
		})
	}
	writeJSON(ctx, w, http.StatusOK, DocumentsResponse{
		Documents: docs,
		Corpus:    toCorpusResponse(overview.Corpus),
		Retrieval: overview.Settings,
	})
}

// UploadDocuments handles POST /api/admin/documents. PDFs are sent as
// multipart "files"; ?append=true keeps the stored documents.
func (h *AdminHandler) UploadDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	// Checked before the body is read; the service checks again.
	if !sess.Admin().Authenticated {
		handleServiceError(ctx, w, domain.ErrNotAuthenticated, "")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Upload too large")
			return
		}
		logger.WarnContext(ctx, "invalid multipart body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	headers := r.MultipartForm.File["files"]
	files := make([]ingest.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			logger.WarnContext(ctx, "failed to open uploaded file", "filename", fh.Filename, "error", err)
			writeError(w, http.StatusBadRequest, "Invalid uploaded file")
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			logger.WarnContext(ctx, "failed to read uploaded file", "filename", fh.Filename, "error", err)
			writeError(w, http.StatusBadRequest, "Invalid uploaded file")
			return
		}
		files = append(files, ingest.File{Name: fh.Filename, Data: data})
	}

	appendMode := r.URL.Query().Get("append") == "true"
	result, err := h.adminService.Upload(ctx, sess, files, appendMode)
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) && len(result.Files) > 0 {
		// The per-file outcomes explain why nothing was indexed.
		logger.WarnContext(ctx, "no documents indexed", "error", err, "failed", result.Failed)
		writeJSON(ctx, w, http.StatusUnprocessableEntity, UploadResponse{
			Succeeded: result.Succeeded,
			Failed:    result.Failed,
			Files:     result.Files,
			Error:     validationErr.Message,
		})
		return
	}
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to index documents")
		return
	}

	writeJSON(ctx, w, http.StatusOK, UploadResponse{
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
		Files:     result.Files,
		Removed:   result.Removed,
		Corpus:    toCorpusResponse(result.Corpus),
	})
}

// DownloadDocument handles GET /api/admin/documents/{id}.
func (h *AdminHandler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	doc, err := h.adminService.Document(ctx, sess, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to load document")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Data); err != nil {
		logger.WarnContext(ctx, "failed to write document", "filename", doc.Filename, "error", err)
	}
}

// DeleteDocuments handles DELETE /api/admin/documents.
func (h *AdminHandler) DeleteDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	if err := h.adminService.DeleteDocuments(ctx, sess); err != nil {
		handleServiceError(ctx, w, err, "Failed to delete documents")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetRetrieval handles PUT /api/admin/retrieval.
func (h *AdminHandler) SetRetrieval(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req rag.Settings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	settings, err := h.adminService.SetRetrieval(ctx, sess, req)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to update retrieval settings")
		return
	}
	writeJSON(ctx, w, http.StatusOK, settings)
}
