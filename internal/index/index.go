// Package index maintains the embedding index over the uploaded documents.
//
// A corpus lives in its own vector store collection. Rebuilding creates a new
// collection, fills it, and swaps it in only when it is complete, so searches
// never see a partially built corpus.
package index

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks examenbot/internal/index Embedder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"examenbot/internal/contextutil"
	"examenbot/internal/domain"
	"examenbot/internal/llm"
	"examenbot/internal/vectorstore"
)

const (
	defaultBatchSize = 16

	defaultRetryAttempts = 3
	defaultRetryDelay    = 200 * time.Millisecond
	defaultRetryMaxDelay = 2 * time.Second
)

// Payload keys stored with every point.
const (
	metaContent = "content"
	metaSource  = "source"
	metaPage    = "page"
	metaSeq     = "seq"
)

// Embedder turns texts into vectors, one per text, in input order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Options configures an Index.
type Options struct {
	// Collection is the base name; each corpus gets "<Collection>_<corpus id>".
	Collection string
	VectorSize int
	BatchSize  int

	RetryAttempts uint
	RetryDelay    time.Duration
	RetryMaxDelay time.Duration
}

// Corpus describes a published set of embedded chunks.
type Corpus struct {
	ID         string
	Collection string
	ChunkCount int
	BuiltAt    time.Time
}

// Hit is a search result. Lower distance is closer.
type Hit struct {
	Chunk    domain.TextChunk
	Distance float64
}

// Index builds and searches embedded corpora.
type Index struct {
	embedder Embedder
	store    vectorstore.VectorStore
	opts     Options

	buildMu sync.Mutex // serializes Stage, Publish, Attach, Discard and Invalidate

	mu      sync.RWMutex // guards current; held for reading during store searches
	current *Corpus
}

// New creates an empty Index. Zero option values fall back to defaults.
func New(embedder Embedder, store vectorstore.VectorStore, opts Options) *Index {
	if opts.Collection == "" {
		opts.Collection = "corpus"
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.RetryAttempts == 0 {
		opts.RetryAttempts = defaultRetryAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.RetryMaxDelay <= 0 {
		opts.RetryMaxDelay = defaultRetryMaxDelay
	}
	return &Index{
		embedder: embedder,
		store:    store,
		opts:     opts,
	}
}

// Ready reports whether a corpus is published.
func (idx *Index) Ready() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.current != nil
}

// Current returns a copy of the published corpus, or nil.
func (idx *Index) Current() *Corpus {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.current == nil {
		return nil
	}
	c := *idx.current
	return &c
}

// Stage embeds chunks into a fresh collection without publishing it. The
// caller either publishes the corpus with Publish or drops it with Discard.
func (idx *Index) Stage(ctx context.Context, chunks []domain.TextChunk) (*Corpus, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(chunks) == 0 {
		return nil, domain.ErrNoChunks
	}

	idx.buildMu.Lock()
	defer idx.buildMu.Unlock()

	start := time.Now()
	id := uuid.NewString()
	corpus := &Corpus{
		ID:         id,
		Collection: fmt.Sprintf("%s_%s", idx.opts.Collection, id),
		ChunkCount: len(chunks),
	}

	logger.InfoContext(ctx, "building index", "collection", corpus.Collection, "chunks", len(chunks))

	if err := idx.store.CreateCollection(ctx, corpus.Collection, idx.opts.VectorSize); err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	if err := idx.fill(ctx, corpus.Collection, chunks); err != nil {
		if delErr := idx.store.DeleteCollection(context.WithoutCancel(ctx), corpus.Collection); delErr != nil {
			logger.WarnContext(ctx, "failed to drop incomplete collection", "collection", corpus.Collection, "error", delErr)
		}
		return nil, err
	}

	corpus.BuiltAt = time.Now().UTC()
	logger.InfoContext(ctx, "index staged",
		"corpus_id", corpus.ID,
		"collection", corpus.Collection,
		"chunks", corpus.ChunkCount,
		"duration", time.Since(start),
	)
	return corpus, nil
}

// Publish swaps in a staged corpus and drops the one it replaces.
func (idx *Index) Publish(ctx context.Context, corpus Corpus) {
	idx.buildMu.Lock()
	defer idx.buildMu.Unlock()

	previous := idx.publish(&corpus)
	if previous != nil && previous.Collection != corpus.Collection {
		idx.drop(ctx, previous)
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "index published",
		"corpus_id", corpus.ID,
		"collection", corpus.Collection,
		"chunks", corpus.ChunkCount,
	)
}

// fill embeds chunks batch by batch and upserts them.
func (idx *Index) fill(ctx context.Context, collection string, chunks []domain.TextChunk) error {
	for start := 0; start < len(chunks); start += idx.opts.BatchSize {
		end := min(start+idx.opts.BatchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Content
		}

		vectors, err := idx.embed(ctx, texts)
		if err != nil {
			return err
		}

		points := make([]vectorstore.Point, len(batch))
		for i, chunk := range batch {
			points[i] = vectorstore.Point{
				ID:  uuid.NewString(),
				Vec: vectors[i],
				Meta: map[string]any{
					metaContent: chunk.Content,
					metaSource:  chunk.Source,
					metaPage:    chunk.Page,
					metaSeq:     start + i,
				},
			}
		}

		if err := idx.store.Upsert(ctx, collection, points); err != nil {
			return fmt.Errorf("failed to upsert vectors: %w", err)
		}
	}
	return nil
}

// embed calls the embedder with bounded retries on transient failures.
func (idx *Index) embed(ctx context.Context, texts []string) ([][]float32, error) {
	logger := contextutil.LoggerFromContext(ctx)

	vectors, err := retry.DoWithData(
		func() ([][]float32, error) {
			return idx.embedder.EmbedTexts(ctx, texts)
		},
		retry.Context(ctx),
		retry.Attempts(idx.opts.RetryAttempts),
		retry.Delay(idx.opts.RetryDelay),
		retry.MaxDelay(idx.opts.RetryMaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(llm.IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			logger.WarnContext(ctx, "embedding request failed, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, &domain.EmbeddingServiceError{Err: err}
	}
	if len(vectors) != len(texts) {
		return nil, &domain.EmbeddingServiceError{Err: fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vectors))}
	}
	return vectors, nil
}

// publish swaps in corpus and returns the previously published one.
func (idx *Index) publish(corpus *Corpus) *Corpus {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	previous := idx.current
	idx.current = corpus
	return previous
}

// drop deletes an unpublished corpus. Searches holding the read lock have
// finished by the time publish returns, so the collection is no longer in use.
func (idx *Index) drop(ctx context.Context, corpus *Corpus) {
	if corpus == nil {
		return
	}
	logger := contextutil.LoggerFromContext(ctx)
	if err := idx.store.DeleteCollection(context.WithoutCancel(ctx), corpus.Collection); err != nil {
		logger.WarnContext(ctx, "failed to drop old collection", "collection", corpus.Collection, "error", err)
	}
}

// Search returns up to k chunks closest to query, ordered by ascending
// distance and then by insertion order.
func (idx *Index) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0, got %d", k)
	}
	if !idx.Ready() {
		return nil, domain.ErrIndexNotBuilt
	}

	vectors, err := idx.embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}

	idx.mu.RLock()
	corpus := idx.current
	if corpus == nil {
		idx.mu.RUnlock()
		return nil, domain.ErrIndexNotBuilt
	}
	results, err := idx.store.Search(ctx, corpus.Collection, vectors[0], k)
	idx.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	type ranked struct {
		hit Hit
		seq int
	}
	rankedHits := make([]ranked, 0, len(results))
	for _, r := range results {
		content, _ := r.Meta[metaContent].(string)
		source, _ := r.Meta[metaSource].(string)
		rankedHits = append(rankedHits, ranked{
			hit: Hit{
				Chunk: domain.TextChunk{
					Content: content,
					Page:    metaInt(r.Meta[metaPage]),
					Source:  source,
				},
				Distance: 1 - float64(r.Score),
			},
			seq: metaInt(r.Meta[metaSeq]),
		})
	}

	sort.SliceStable(rankedHits, func(i, j int) bool {
		if rankedHits[i].hit.Distance != rankedHits[j].hit.Distance {
			return rankedHits[i].hit.Distance < rankedHits[j].hit.Distance
		}
		return rankedHits[i].seq < rankedHits[j].seq
	})

	if len(rankedHits) > k {
		rankedHits = rankedHits[:k]
	}
	hits := make([]Hit, len(rankedHits))
	for i, r := range rankedHits {
		hits[i] = r.hit
	}

	logger.DebugContext(ctx, "index searched", "collection", corpus.Collection, "k", k, "hits", len(hits))
	return hits, nil
}

// Invalidate unpublishes the current corpus and drops its collection.
func (idx *Index) Invalidate(ctx context.Context) {
	idx.buildMu.Lock()
	defer idx.buildMu.Unlock()

	previous := idx.publish(nil)
	idx.drop(ctx, previous)
	if previous != nil {
		contextutil.LoggerFromContext(ctx).InfoContext(ctx, "index invalidated", "corpus_id", previous.ID)
	}
}

// ErrCorpusMissing is returned by Attach when the corpus collection is gone or empty.
var ErrCorpusMissing = errors.New("corpus collection missing or empty")

// Attach publishes a corpus whose collection was built earlier, for example
// by a previous run of the process.
func (idx *Index) Attach(ctx context.Context, corpus Corpus) error {
	idx.buildMu.Lock()
	defer idx.buildMu.Unlock()

	exists, err := idx.store.CollectionExists(ctx, corpus.Collection)
	if err != nil {
		return err
	}
	if !exists {
		return ErrCorpusMissing
	}
	count, err := idx.store.Count(ctx, corpus.Collection)
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrCorpusMissing
	}
	corpus.ChunkCount = count

	previous := idx.publish(&corpus)
	if previous != nil && previous.Collection != corpus.Collection {
		idx.drop(ctx, previous)
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "index attached", "corpus_id", corpus.ID, "collection", corpus.Collection, "chunks", count)
	return nil
}

// Discard drops the collection of a corpus that is not published, such as
// one left behind by an earlier run. Discarding the published corpus is a no-op.
func (idx *Index) Discard(ctx context.Context, corpus Corpus) error {
	idx.buildMu.Lock()
	defer idx.buildMu.Unlock()

	if current := idx.Current(); current != nil && current.Collection == corpus.Collection {
		return nil
	}
	if err := idx.store.DeleteCollection(ctx, corpus.Collection); err != nil {
		return fmt.Errorf("failed to discard collection %s: %w", corpus.Collection, err)
	}
	return nil
}

// metaInt reads an integer payload value. Backends return ints, int64s, floats or strings.
func metaInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	default:
		return 0
	}
}
