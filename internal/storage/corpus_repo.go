package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CorpusStore defines the interface for corpus registry operations.
type CorpusStore interface {
	// SaveActive stores the corpus and marks it as the only active one.
	SaveActive(ctx context.Context, corpus *CorpusRecord) error
	// GetActive returns the active corpus, or ErrNotFound.
	GetActive(ctx context.Context) (*CorpusRecord, error)
	// Deactivate clears the active corpus.
	Deactivate(ctx context.Context) error
}

// CorpusRepo provides methods for corpus operations.
// It implements the CorpusStore interface.
type CorpusRepo struct {
	db *sql.DB
}

// NewCorpusRepo creates a new CorpusRepo.
func NewCorpusRepo(db *sql.DB) *CorpusRepo {
	return &CorpusRepo{db: db}
}

// SaveActive stores the corpus and marks it as the only active one.
// Earlier records are removed; their collections are already gone.
func (r *CorpusRepo) SaveActive(ctx context.Context, corpus *CorpusRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM corpora"); err != nil {
		return fmt.Errorf("failed to clear corpora: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO corpora (id, collection, docset_hash, chunk_count, created_at, active)
		 VALUES (?, ?, ?, ?, ?, 1)`,
		corpus.ID, corpus.Collection, corpus.DocsetHash, corpus.ChunkCount, formatTimestamp(corpus.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert corpus: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit corpus: %w", err)
	}
	corpus.Active = true
	return nil
}

// GetActive returns the active corpus, or ErrNotFound.
func (r *CorpusRepo) GetActive(ctx context.Context) (*CorpusRecord, error) {
	var corpus CorpusRecord
	var createdAt string
	var active int

	err := r.db.QueryRowContext(ctx,
		"SELECT id, collection, docset_hash, chunk_count, created_at, active FROM corpora WHERE active = 1 LIMIT 1",
	).Scan(&corpus.ID, &corpus.Collection, &corpus.DocsetHash, &corpus.ChunkCount, &createdAt, &active)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query corpus: %w", err)
	}

	if corpus.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	corpus.Active = active == 1
	return &corpus, nil
}

// Deactivate clears the active corpus.
func (r *CorpusRepo) Deactivate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE corpora SET active = 0 WHERE active = 1"); err != nil {
		return fmt.Errorf("failed to deactivate corpus: %w", err)
	}
	return nil
}
