package vectorstore

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"

	"examenbot/internal/contextutil"
)

// ChromemStore implements VectorStore on an embedded chromem-go database.
// Collections are persisted to disk when the store is opened with a path.
type ChromemStore struct {
	db *chromem.DB
}

// NewChromemStore opens a persistent database under path, or an in-memory
// database when path is empty.
func NewChromemStore(path string) (*ChromemStore, error) {
	if path == "" {
		return &ChromemStore{db: chromem.NewDB()}, nil
	}

	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open chromem database: %w", err)
	}
	return &ChromemStore{db: db}, nil
}

// noEmbedding is passed to chromem where it asks for an embedding function.
// Vectors are always computed by the caller, so it is never invoked.
func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("chromem store expects precomputed embeddings")
}

// Ping always succeeds for the embedded database.
func (s *ChromemStore) Ping(context.Context) error {
	return nil
}

// CreateCollection creates an empty collection.
func (s *ChromemStore) CreateCollection(ctx context.Context, collection string, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	if vectorSize <= 0 {
		return fmt.Errorf("vector size must be greater than 0")
	}
	if s.db.GetCollection(collection, noEmbedding) != nil {
		return fmt.Errorf("collection %q already exists", collection)
	}

	meta := map[string]string{"vector_size": strconv.Itoa(vectorSize)}
	if _, err := s.db.CreateCollection(collection, meta, noEmbedding); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	logger.InfoContext(ctx, "collection created", "collection", collection, "vector_size", vectorSize)
	return nil
}

// DeleteCollection drops the collection if it exists.
func (s *ChromemStore) DeleteCollection(ctx context.Context, collection string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if s.db.GetCollection(collection, noEmbedding) == nil {
		return nil
	}
	if err := s.db.DeleteCollection(collection); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	logger.InfoContext(ctx, "collection deleted", "collection", collection)
	return nil
}

// CollectionExists checks if a collection exists.
func (s *ChromemStore) CollectionExists(_ context.Context, collection string) (bool, error) {
	return s.db.GetCollection(collection, noEmbedding) != nil, nil
}

// Count returns the number of documents in the collection.
func (s *ChromemStore) Count(_ context.Context, collection string) (int, error) {
	c, err := s.collection(collection)
	if err != nil {
		return 0, err
	}
	return c.Count(), nil
}

// Upsert adds points as documents. Metadata values are stored as strings.
func (s *ChromemStore) Upsert(ctx context.Context, collection string, points []Point) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(points) == 0 {
		return nil
	}

	c, err := s.collection(collection)
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, 0, len(points))
	for _, point := range points {
		meta := make(map[string]string, len(point.Meta))
		for k, v := range point.Meta {
			meta[k] = fmt.Sprint(v)
		}
		docs = append(docs, chromem.Document{
			ID:        point.ID,
			Metadata:  meta,
			Embedding: point.Vec,
			Content:   meta["content"],
		})
	}

	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", collection, "count", len(points), "error", err)
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	logger.DebugContext(ctx, "upserted points", "collection", collection, "count", len(points))
	return nil
}

// Search returns up to k documents most similar to query, best first.
func (s *ChromemStore) Search(ctx context.Context, collection string, query []float32, k int) ([]SearchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	c, err := s.collection(collection)
	if err != nil {
		return nil, err
	}

	// chromem rejects nResults larger than the collection.
	n := min(k, c.Count())
	if n == 0 {
		return []SearchResult{}, nil
	}

	docs, err := c.QueryEmbedding(ctx, query, n, nil, nil)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search points", "collection", collection, "k", k, "error", err)
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]SearchResult, 0, len(docs))
	for _, doc := range docs {
		meta := make(map[string]any, len(doc.Metadata)+1)
		for key, v := range doc.Metadata {
			meta[key] = v
		}
		if _, ok := meta["content"]; !ok {
			meta["content"] = doc.Content
		}
		results = append(results, SearchResult{
			PointID: doc.ID,
			Score:   doc.Similarity,
			Meta:    meta,
		})
	}

	logger.DebugContext(ctx, "search completed", "collection", collection, "k", k, "results", len(results))
	return results, nil
}

func (s *ChromemStore) collection(name string) (*chromem.Collection, error) {
	c := s.db.GetCollection(name, noEmbedding)
	if c == nil {
		return nil, fmt.Errorf("collection %q does not exist", name)
	}
	return c, nil
}
