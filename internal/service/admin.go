package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"examenbot/internal/contextutil"
	"examenbot/internal/domain"
	"examenbot/internal/index"
	"examenbot/internal/ingest"
	"examenbot/internal/rag"
	"examenbot/internal/session"
	"examenbot/internal/storage"
)

// CorpusIndex builds and publishes the embedding index.
type CorpusIndex interface {
	Stage(ctx context.Context, chunks []domain.TextChunk) (*index.Corpus, error)
	Publish(ctx context.Context, corpus index.Corpus)
	Attach(ctx context.Context, corpus index.Corpus) error
	Discard(ctx context.Context, corpus index.Corpus) error
	Invalidate(ctx context.Context)
	Current() *index.Corpus
}

// RetrievalTuner reads and changes the retrieval settings.
type RetrievalTuner interface {
	Settings() rag.Settings
	SetSettings(s rag.Settings) error
}

// AdminConfig holds the administrator credentials and the upload directory.
type AdminConfig struct {
	Username  string
	Password  string
	UploadDir string
}

// FileStatus is the outcome of one uploaded file.
type FileStatus struct {
	Filename string `json:"filename"`
	Pages    int    `json:"pages"`
	Chunks   int    `json:"chunks"`
	Error    string `json:"error,omitempty"`
}

// UploadResult reports how an upload went.
type UploadResult struct {
	Succeeded int
	Failed    int
	Files     []FileStatus
	// Removed lists stored documents dropped because they could no longer be read.
	Removed []string
	Corpus  *index.Corpus
}

// DocumentFile is a stored PDF.
type DocumentFile struct {
	Filename string
	Data     []byte
}

// DocumentsOverview describes what is currently indexed.
type DocumentsOverview struct {
	Documents []storage.DocumentRecord
	Corpus    *index.Corpus
	Settings  rag.Settings
}

// AdminService provides document management for administrators.
type AdminService interface {
	// Login marks the session as admin when the credentials match.
	Login(ctx context.Context, sess *session.Session, username, password string) error
	// Logout clears the admin flag.
	Logout(ctx context.Context, sess *session.Session)
	// Documents lists the stored documents and the published corpus.
	Documents(ctx context.Context, sess *session.Session) (DocumentsOverview, error)
	// Document returns one stored PDF.
	Document(ctx context.Context, sess *session.Session, id string) (DocumentFile, error)
	// Upload indexes files, replacing the stored set or adding to it.
	Upload(ctx context.Context, sess *session.Session, files []ingest.File, appendMode bool) (UploadResult, error)
	// DeleteDocuments removes all stored documents and unpublishes the corpus.
	DeleteDocuments(ctx context.Context, sess *session.Session) error
	// SetRetrieval changes k and the distance threshold.
	SetRetrieval(ctx context.Context, sess *session.Session, settings rag.Settings) (rag.Settings, error)
	// Restore publishes the stored corpus at startup, rebuilding it when needed.
	Restore(ctx context.Context) error
}

// adminService implements AdminService.
type adminService struct {
	cfg      AdminConfig
	ingestor *ingest.Ingestor
	index    CorpusIndex
	tuner    RetrievalTuner
	docs     storage.DocumentStore
	corpora  storage.CorpusStore

	mu sync.Mutex // serializes changes to the document set
}

// NewAdminService creates a new AdminService.
func NewAdminService(
	cfg AdminConfig,
	ingestor *ingest.Ingestor,
	idx CorpusIndex,
	tuner RetrievalTuner,
	docs storage.DocumentStore,
	corpora storage.CorpusStore,
) AdminService {
	return &adminService{
		cfg:      cfg,
		ingestor: ingestor,
		index:    idx,
		tuner:    tuner,
		docs:     docs,
		corpora:  corpora,
	}
}

func requireAdmin(sess *session.Session) error {
	if sess == nil || !sess.Admin().Authenticated {
		return domain.ErrNotAuthenticated
	}
	return nil
}

// Login checks the credentials with constant-time comparison.
func (s *adminService) Login(ctx context.Context, sess *session.Session, username, password string) error {
	logger := contextutil.LoggerFromContext(ctx)

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.Password)) == 1
	if !userOK || !passOK {
		logger.WarnContext(ctx, "admin login failed", "session_id", sess.ID)
		return domain.ErrAuthFailure
	}

	admin := sess.Admin()
	admin.Authenticated = true
	sess.SetAdmin(admin)

	logger.InfoContext(ctx, "admin logged in", "session_id", sess.ID)
	return nil
}

// Logout clears the admin state of the session.
func (s *adminService) Logout(ctx context.Context, sess *session.Session) {
	sess.SetAdmin(session.AdminSession{})
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "admin logged out", "session_id", sess.ID)
}

// Documents returns the document registry and the published corpus.
func (s *adminService) Documents(ctx context.Context, sess *session.Session) (DocumentsOverview, error) {
	if err := requireAdmin(sess); err != nil {
		return DocumentsOverview{}, err
	}

	docs, err := s.docs.List(ctx)
	if err != nil {
		return DocumentsOverview{}, WrapError(err, "failed to list documents")
	}
	return DocumentsOverview{
		Documents: docs,
		Corpus:    s.index.Current(),
		Settings:  s.tuner.Settings(),
	}, nil
}

// Document loads a stored PDF for download.
func (s *adminService) Document(ctx context.Context, sess *session.Session, id string) (DocumentFile, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := requireAdmin(sess); err != nil {
		return DocumentFile{}, err
	}

	doc, err := s.docs.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return DocumentFile{}, domain.ErrDocumentNotFound
	}
	if err != nil {
		return DocumentFile{}, WrapError(err, "failed to load document")
	}

	data, err := os.ReadFile(doc.Path)
	if errors.Is(err, os.ErrNotExist) {
		logger.WarnContext(ctx, "stored document missing on disk", "document_id", id, "path", doc.Path)
		return DocumentFile{}, domain.ErrDocumentNotFound
	}
	if err != nil {
		return DocumentFile{}, WrapError(err, "failed to read document")
	}
	return DocumentFile{Filename: doc.Filename, Data: data}, nil
}

// Upload parses files, builds a new corpus and records the documents. In
// append mode the stored documents are indexed together with the new ones;
// stored documents that can no longer be read are dropped from the registry.
// Files that cannot be parsed are reported and skipped.
//
// The new corpus is published only after the files, the registry and the
// active corpus record are saved. Until then a failure leaves the published
// corpus and the registry as they were.
func (s *adminService) Upload(ctx context.Context, sess *session.Session, files []ingest.File, appendMode bool) (UploadResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := requireAdmin(sess); err != nil {
		return UploadResult{}, err
	}
	if len(files) == 0 {
		return UploadResult{}, &ValidationError{Field: "files", Message: "at least one PDF is required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous, err := s.docs.List(ctx)
	if err != nil {
		return UploadResult{}, WrapError(err, "failed to list documents")
	}

	uploaded := s.ingestor.IngestAll(ctx, files)
	result := newUploadResult(uploaded)
	if result.Succeeded == 0 {
		return result, &ValidationError{Field: "files", Message: "none of the files could be read as PDF"}
	}

	chunks := uploaded.Chunks()
	var kept, dropped []storage.DocumentRecord
	if appendMode && len(previous) > 0 {
		var stored []domain.TextChunk
		kept, dropped, stored = s.reingest(ctx, previous)
		chunks = append(stored, chunks...)
	}
	if err := ctx.Err(); err != nil {
		return result, WrapError(err, "upload canceled")
	}

	corpus, err := s.index.Stage(ctx, chunks)
	if err != nil {
		if errors.Is(err, domain.ErrNoChunks) {
			return result, &ValidationError{Field: "files", Message: "the files contain no readable text"}
		}
		logger.ErrorContext(ctx, "failed to build index", "error", err)
		return result, WrapError(err, "failed to build index")
	}

	records, err := s.saveFiles(files, uploaded)
	if err != nil {
		s.discard(ctx, *corpus)
		return result, WrapError(err, "failed to store documents")
	}

	all := records
	if appendMode {
		all = append(kept, records...)
	}
	if appendMode && len(dropped) == 0 {
		err = s.docs.Insert(ctx, records)
	} else {
		err = s.docs.ReplaceAll(ctx, all)
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to record documents", "error", err)
		s.removeFiles(ctx, records)
		s.discard(ctx, *corpus)
		return result, WrapError(err, "failed to record documents")
	}

	if err := s.corpora.SaveActive(ctx, &storage.CorpusRecord{
		ID:         corpus.ID,
		Collection: corpus.Collection,
		DocsetHash: storage.DocsetHash(all),
		ChunkCount: corpus.ChunkCount,
		CreatedAt:  corpus.BuiltAt,
	}); err != nil {
		logger.ErrorContext(ctx, "failed to record corpus", "error", err)
		if restoreErr := s.docs.ReplaceAll(context.WithoutCancel(ctx), previous); restoreErr != nil {
			logger.ErrorContext(ctx, "failed to restore document registry", "error", restoreErr)
		}
		s.removeFiles(ctx, records)
		s.discard(ctx, *corpus)
		return result, WrapError(err, "failed to record corpus")
	}

	s.index.Publish(ctx, *corpus)
	result.Corpus = corpus

	if appendMode {
		s.removeFiles(ctx, dropped)
	} else {
		s.removeFiles(ctx, previous)
	}
	for _, doc := range dropped {
		result.Removed = append(result.Removed, doc.Filename)
	}

	admin := sess.Admin()
	admin.CorpusID = corpus.ID
	sess.SetAdmin(admin)

	logger.InfoContext(ctx, "documents uploaded",
		"append", appendMode,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"removed", len(dropped),
		"documents", len(all),
		"corpus_id", corpus.ID,
		"chunks", corpus.ChunkCount,
	)
	return result, nil
}

func newUploadResult(res ingest.Result) UploadResult {
	result := UploadResult{
		Succeeded: res.Succeeded(),
		Failed:    res.Failed(),
		Files:     make([]FileStatus, 0, len(res.Files)),
	}
	for _, f := range res.Files {
		status := FileStatus{Filename: f.Filename, Pages: f.Pages, Chunks: len(f.Chunks)}
		if f.Err != nil {
			status.Error = "could not read this file as PDF"
		}
		result.Files = append(result.Files, status)
	}
	return result
}

// saveFiles writes the successfully parsed files to the upload directory.
func (s *adminService) saveFiles(files []ingest.File, res ingest.Result) ([]storage.DocumentRecord, error) {
	now := time.Now().UTC()
	records := make([]storage.DocumentRecord, 0, len(files))
	for i, f := range files {
		fr := res.Files[i]
		if fr.Err != nil {
			continue
		}

		id := uuid.New().String()
		path := filepath.Join(s.cfg.UploadDir, id+"-"+filepath.Base(f.Name))
		if err := os.WriteFile(path, f.Data, 0644); err != nil {
			for _, written := range records {
				_ = os.Remove(written.Path)
			}
			return nil, fmt.Errorf("failed to write %s: %w", f.Name, err)
		}

		records = append(records, storage.DocumentRecord{
			ID:         id,
			Filename:   f.Name,
			Path:       path,
			Hash:       fmt.Sprintf("%x", sha256.Sum256(f.Data)),
			SizeBytes:  int64(len(f.Data)),
			Pages:      fr.Pages,
			Chunks:     len(fr.Chunks),
			UploadedAt: now,
		})
	}
	return records, nil
}

// reingest parses the stored documents again. Documents whose file is gone
// or no longer parses are returned in dropped and contribute no chunks.
func (s *adminService) reingest(ctx context.Context, docs []storage.DocumentRecord) (kept, dropped []storage.DocumentRecord, chunks []domain.TextChunk) {
	logger := contextutil.LoggerFromContext(ctx)

	files := make([]ingest.File, 0, len(docs))
	readable := make([]storage.DocumentRecord, 0, len(docs))
	for _, doc := range docs {
		data, err := os.ReadFile(doc.Path)
		if err != nil {
			logger.WarnContext(ctx, "stored document unreadable", "filename", doc.Filename, "path", doc.Path, "error", err)
			dropped = append(dropped, doc)
			continue
		}
		files = append(files, ingest.File{Name: doc.Filename, Data: data})
		readable = append(readable, doc)
	}

	res := s.ingestor.IngestAll(ctx, files)
	for i, fr := range res.Files {
		if fr.Err != nil {
			dropped = append(dropped, readable[i])
			continue
		}
		kept = append(kept, readable[i])
	}
	return kept, dropped, res.Chunks()
}

func (s *adminService) removeFiles(ctx context.Context, docs []storage.DocumentRecord) {
	logger := contextutil.LoggerFromContext(ctx)
	for _, doc := range docs {
		if err := os.Remove(doc.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.WarnContext(ctx, "failed to remove stored document", "path", doc.Path, "error", err)
		}
	}
}

// DeleteDocuments removes the stored documents and unpublishes the corpus.
func (s *adminService) DeleteDocuments(ctx context.Context, sess *session.Session) error {
	logger := contextutil.LoggerFromContext(ctx)

	if err := requireAdmin(sess); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.docs.List(ctx)
	if err != nil {
		return WrapError(err, "failed to list documents")
	}
	if err := s.docs.DeleteAll(ctx); err != nil {
		return WrapError(err, "failed to delete documents")
	}
	s.removeFiles(ctx, docs)

	s.index.Invalidate(ctx)
	if err := s.corpora.Deactivate(ctx); err != nil {
		return WrapError(err, "failed to deactivate corpus")
	}

	admin := sess.Admin()
	admin.CorpusID = ""
	sess.SetAdmin(admin)

	logger.InfoContext(ctx, "documents deleted", "documents", len(docs))
	return nil
}

// SetRetrieval applies new retrieval settings.
func (s *adminService) SetRetrieval(ctx context.Context, sess *session.Session, settings rag.Settings) (rag.Settings, error) {
	if err := requireAdmin(sess); err != nil {
		return rag.Settings{}, err
	}
	if err := s.tuner.SetSettings(settings); err != nil {
		return rag.Settings{}, &ValidationError{Field: "retrieval", Message: err.Error()}
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "retrieval settings changed", "k", settings.K, "threshold", settings.Threshold)
	return s.tuner.Settings(), nil
}

// Restore re-attaches the stored corpus when it still matches the stored
// documents, and rebuilds it from the stored files otherwise. Stored documents
// that can no longer be read are dropped from the registry.
func (s *adminService) Restore(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.docs.List(ctx)
	if err != nil {
		return WrapError(err, "failed to list documents")
	}

	active, err := s.corpora.GetActive(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return WrapError(err, "failed to load active corpus")
	}

	if len(docs) == 0 {
		if err := s.deactivate(ctx, active); err != nil {
			return err
		}
		logger.InfoContext(ctx, "no stored documents, index stays empty")
		return nil
	}

	if active != nil && active.DocsetHash == storage.DocsetHash(docs) {
		err := s.index.Attach(ctx, corpusFromRecord(active))
		if err == nil {
			return nil
		}
		logger.WarnContext(ctx, "stored corpus unavailable, rebuilding", "corpus_id", active.ID, "error", err)
	}

	kept, dropped, chunks := s.reingest(ctx, docs)
	if err := ctx.Err(); err != nil {
		return WrapError(err, "restore canceled")
	}
	if len(dropped) > 0 {
		if err := s.docs.ReplaceAll(ctx, kept); err != nil {
			return WrapError(err, "failed to drop unreadable documents")
		}
		s.removeFiles(ctx, dropped)
		logger.WarnContext(ctx, "unreadable stored documents dropped", "dropped", len(dropped), "kept", len(kept))
	}

	corpus, err := s.index.Stage(ctx, chunks)
	if err != nil {
		if errors.Is(err, domain.ErrNoChunks) {
			logger.WarnContext(ctx, "stored documents contain no text, index stays empty")
			return s.deactivate(ctx, active)
		}
		return WrapError(err, "failed to rebuild index")
	}

	if err := s.corpora.SaveActive(ctx, &storage.CorpusRecord{
		ID:         corpus.ID,
		Collection: corpus.Collection,
		DocsetHash: storage.DocsetHash(kept),
		ChunkCount: corpus.ChunkCount,
		CreatedAt:  corpus.BuiltAt,
	}); err != nil {
		s.discard(ctx, *corpus)
		return WrapError(err, "failed to record corpus")
	}
	s.index.Publish(ctx, *corpus)
	if active != nil {
		s.discard(ctx, corpusFromRecord(active))
	}

	logger.InfoContext(ctx, "index rebuilt from stored documents", "documents", len(kept), "corpus_id", corpus.ID)
	return nil
}

// deactivate drops the active corpus record and its collection, if any.
func (s *adminService) deactivate(ctx context.Context, active *storage.CorpusRecord) error {
	if active == nil {
		return nil
	}
	s.discard(ctx, corpusFromRecord(active))
	if err := s.corpora.Deactivate(ctx); err != nil {
		return WrapError(err, "failed to deactivate corpus")
	}
	return nil
}

// discard drops a corpus that is not, or no longer, published.
func (s *adminService) discard(ctx context.Context, corpus index.Corpus) {
	if err := s.index.Discard(context.WithoutCancel(ctx), corpus); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to discard corpus", "corpus_id", corpus.ID, "error", err)
	}
}

func corpusFromRecord(r *storage.CorpusRecord) index.Corpus {
	return index.Corpus{
		ID:         r.ID,
		Collection: r.Collection,
		ChunkCount: r.ChunkCount,
		BuiltAt:    r.CreatedAt,
	}
}
