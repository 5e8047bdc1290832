package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_stores.go -package=mocks examenbot/internal/storage DocumentStore,CorpusStore

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// DocumentStore defines the interface for document registry operations.
type DocumentStore interface {
	// List returns all documents ordered by upload time and filename.
	List(ctx context.Context) ([]DocumentRecord, error)
	// Get returns one document, or ErrNotFound.
	Get(ctx context.Context, id string) (*DocumentRecord, error)
	// Insert adds documents to the registry.
	Insert(ctx context.Context, docs []DocumentRecord) error
	// ReplaceAll atomically replaces the registry with docs.
	ReplaceAll(ctx context.Context, docs []DocumentRecord) error
	// DeleteAll empties the registry.
	DeleteAll(ctx context.Context) error
}

// DocumentRepo provides methods for document operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// List returns all documents ordered by upload time and filename.
func (r *DocumentRepo) List(ctx context.Context) ([]DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, filename, path, hash, size_bytes, pages, chunks, uploaded_at FROM documents ORDER BY uploaded_at, filename",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var docs []DocumentRecord
	for rows.Next() {
		var doc DocumentRecord
		var uploadedAt string
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.Path, &doc.Hash, &doc.SizeBytes, &doc.Pages, &doc.Chunks, &uploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if doc.UploadedAt, err = parseTimestamp(uploadedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// Get returns the document with the given ID, or ErrNotFound.
func (r *DocumentRepo) Get(ctx context.Context, id string) (*DocumentRecord, error) {
	var doc DocumentRecord
	var uploadedAt string
	err := r.db.QueryRowContext(ctx,
		"SELECT id, filename, path, hash, size_bytes, pages, chunks, uploaded_at FROM documents WHERE id = ?",
		id,
	).Scan(&doc.ID, &doc.Filename, &doc.Path, &doc.Hash, &doc.SizeBytes, &doc.Pages, &doc.Chunks, &uploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	if doc.UploadedAt, err = parseTimestamp(uploadedAt); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Insert adds documents to the registry. Missing IDs are generated.
func (r *DocumentRepo) Insert(ctx context.Context, docs []DocumentRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := insertDocuments(ctx, tx, docs); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceAll atomically replaces the registry with docs.
func (r *DocumentRepo) ReplaceAll(ctx context.Context, docs []DocumentRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}
	if err := insertDocuments(ctx, tx, docs); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteAll empties the registry.
func (r *DocumentRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return nil
}

func insertDocuments(ctx context.Context, tx *sql.Tx, docs []DocumentRecord) error {
	for i := range docs {
		doc := &docs[i]
		if doc.ID == "" {
			doc.ID = uuid.New().String()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO documents (id, filename, path, hash, size_bytes, pages, chunks, uploaded_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			doc.ID, doc.Filename, doc.Path, doc.Hash, doc.SizeBytes, doc.Pages, doc.Chunks, formatTimestamp(doc.UploadedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert document %s: %w", doc.Filename, err)
		}
	}
	return nil
}

// DocsetHash identifies a set of documents by content, independent of order.
func DocsetHash(docs []DocumentRecord) string {
	hashes := make([]string, len(docs))
	for i, doc := range docs {
		hashes[i] = doc.Hash
	}
	slices.Sort(hashes)
	sum := sha256.Sum256([]byte(strings.Join(hashes, "\n")))
	return fmt.Sprintf("%x", sum)
}
