package index_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"examenbot/internal/domain"
	"examenbot/internal/index"
	"examenbot/internal/index/mocks"
	"examenbot/internal/llm"
	"examenbot/internal/vectorstore"
	vsmocks "examenbot/internal/vectorstore/mocks"
)

var vocabulary = []string{"herkansing", "fraude", "ziek", "vrijstelling", "tentamen"}

// keywordEmbedder maps text to keyword counts plus a constant bias dimension,
// so similar texts get similar vectors without calling a model.
type keywordEmbedder struct {
	calls atomic.Int32
}

func (e *keywordEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	e.calls.Add(1)
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = embedKeywords(text)
	}
	return out, nil
}

func embedKeywords(text string) []float32 {
	lower := strings.ToLower(text)
	vec := make([]float32, len(vocabulary)+1)
	for i, word := range vocabulary {
		vec[i] = float32(strings.Count(lower, word))
	}
	vec[len(vocabulary)] = 0.05
	return vec
}

func newTestIndex(t *testing.T, embedder index.Embedder) (*index.Index, *vectorstore.ChromemStore) {
	t.Helper()
	store, err := vectorstore.NewChromemStore("")
	if err != nil {
		t.Fatalf("NewChromemStore() error = %v", err)
	}
	idx := index.New(embedder, store, index.Options{
		Collection: "test",
		VectorSize: len(vocabulary) + 1,
		BatchSize:  2,
		RetryDelay: time.Millisecond,
	})
	return idx, store
}

// build stages chunks and publishes the result.
func build(ctx context.Context, idx *index.Index, chunks []domain.TextChunk) (*index.Corpus, error) {
	corpus, err := idx.Stage(ctx, chunks)
	if err != nil {
		return nil, err
	}
	idx.Publish(ctx, *corpus)
	return corpus, nil
}

var regulation = []domain.TextChunk{
	{Content: "Artikel 5: een herkansing is mogelijk", Page: 5, Source: "oer.pdf"},
	{Content: "Artikel 7: fraude wordt bestraft", Page: 7, Source: "oer.pdf"},
	{Content: "Herkansing van een tentamen", Page: 6, Source: "oer.pdf"},
}

func TestIndex_SearchBeforePublish(t *testing.T) {
	embedder := &keywordEmbedder{}
	idx, _ := newTestIndex(t, embedder)

	_, err := idx.Search(context.Background(), "herkansing", 3)
	if !errors.Is(err, domain.ErrIndexNotBuilt) {
		t.Fatalf("Search() error = %v, want ErrIndexNotBuilt", err)
	}
	if embedder.calls.Load() != 0 {
		t.Errorf("embedder called %d times before build, want 0", embedder.calls.Load())
	}
	if idx.Ready() || idx.Current() != nil {
		t.Error("empty index should not be ready")
	}
}

func TestIndex_StageEmpty(t *testing.T) {
	idx, _ := newTestIndex(t, &keywordEmbedder{})

	if _, err := idx.Stage(context.Background(), nil); !errors.Is(err, domain.ErrNoChunks) {
		t.Errorf("Stage(nil) error = %v, want ErrNoChunks", err)
	}
}

func TestIndex_Search(t *testing.T) {
	ctx := context.Background()
	embedder := &keywordEmbedder{}
	idx, _ := newTestIndex(t, embedder)

	corpus, err := build(ctx, idx, regulation)
	if err != nil {
		t.Fatalf("build() error = %v", err)
	}
	if corpus.ChunkCount != 3 || !strings.HasPrefix(corpus.Collection, "test_") {
		t.Errorf("build() corpus = %+v", corpus)
	}
	// Batch size 2 over three chunks.
	if embedder.calls.Load() != 2 {
		t.Errorf("embedder calls during build = %d, want 2", embedder.calls.Load())
	}

	tests := []struct {
		name      string
		k         int
		wantPages []int
		wantErr   bool
	}{
		{name: "k bounds the result", k: 2, wantPages: []int{5, 6}},
		{name: "k above corpus size", k: 10, wantPages: []int{5, 6, 7}},
		{name: "invalid k", k: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := idx.Search(ctx, "herkansing", tt.k)
			if tt.wantErr {
				if err == nil {
					t.Error("Search() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(hits) != len(tt.wantPages) {
				t.Fatalf("Search() returned %d hits, want %d", len(hits), len(tt.wantPages))
			}
			for i, hit := range hits {
				if hit.Chunk.Page != tt.wantPages[i] {
					t.Errorf("hit[%d].Page = %d, want %d", i, hit.Chunk.Page, tt.wantPages[i])
				}
				if hit.Chunk.Source != "oer.pdf" || hit.Chunk.Content == "" {
					t.Errorf("hit[%d].Chunk = %+v, want source and content restored", i, hit.Chunk)
				}
				if i > 0 && hits[i-1].Distance > hit.Distance {
					t.Errorf("hits not ordered by distance: %v > %v", hits[i-1].Distance, hit.Distance)
				}
			}
			if hits[0].Distance > 0.01 {
				t.Errorf("closest hit distance = %v, want ~0", hits[0].Distance)
			}
		})
	}
}

func TestIndex_SearchTiesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	idx, _ := newTestIndex(t, &keywordEmbedder{})

	chunks := []domain.TextChunk{
		{Content: "ziek melden", Page: 1, Source: "a.pdf"},
		{Content: "ziek melden", Page: 2, Source: "a.pdf"},
		{Content: "ziek melden", Page: 3, Source: "a.pdf"},
	}
	if _, err := build(ctx, idx, chunks); err != nil {
		t.Fatalf("build() error = %v", err)
	}

	hits, err := idx.Search(ctx, "ziek", 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for i, hit := range hits {
		if hit.Chunk.Page != i+1 {
			t.Errorf("hit[%d].Page = %d, want %d", i, hit.Chunk.Page, i+1)
		}
	}
}

func TestIndex_RebuildIsIdempotent(t *testing.T) {
	ctx := context.Background()
	idx, store := newTestIndex(t, &keywordEmbedder{})

	first, err := build(ctx, idx, regulation)
	if err != nil {
		t.Fatalf("first build() error = %v", err)
	}
	before, _ := idx.Search(ctx, "fraude", 3)

	second, err := build(ctx, idx, regulation)
	if err != nil {
		t.Fatalf("second build() error = %v", err)
	}
	after, _ := idx.Search(ctx, "fraude", 3)

	if len(before) != len(after) {
		t.Fatalf("result count changed after rebuild: %d vs %d", len(before), len(after))
	}
	for i := range before {
		if before[i].Chunk != after[i].Chunk {
			t.Errorf("hit[%d] changed after rebuild: %+v vs %+v", i, before[i].Chunk, after[i].Chunk)
		}
	}

	if first.ID == second.ID {
		t.Error("rebuild should create a new corpus")
	}
	if exists, _ := store.CollectionExists(ctx, first.Collection); exists {
		t.Error("previous collection should be dropped after rebuild")
	}
	if idx.Current().ID != second.ID {
		t.Errorf("Current().ID = %s, want %s", idx.Current().ID, second.ID)
	}
}

func TestIndex_RebuildReplacesDocumentSet(t *testing.T) {
	ctx := context.Background()
	idx, _ := newTestIndex(t, &keywordEmbedder{})

	if _, err := build(ctx, idx, []domain.TextChunk{{Content: "herkansing oud", Page: 1, Source: "oud.pdf"}}); err != nil {
		t.Fatalf("build() error = %v", err)
	}
	if _, err := build(ctx, idx, []domain.TextChunk{{Content: "herkansing nieuw", Page: 1, Source: "nieuw.pdf"}}); err != nil {
		t.Fatalf("build() error = %v", err)
	}

	hits, err := idx.Search(ctx, "herkansing", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for _, hit := range hits {
		if hit.Chunk.Source != "nieuw.pdf" {
			t.Errorf("hit from replaced document %s", hit.Chunk.Source)
		}
	}
}

func TestIndex_Invalidate(t *testing.T) {
	ctx := context.Background()
	idx, store := newTestIndex(t, &keywordEmbedder{})

	corpus, _ := build(ctx, idx, regulation)
	idx.Invalidate(ctx)

	if idx.Ready() {
		t.Error("Ready() after Invalidate = true")
	}
	if _, err := idx.Search(ctx, "herkansing", 3); !errors.Is(err, domain.ErrIndexNotBuilt) {
		t.Errorf("Search() after Invalidate error = %v, want ErrIndexNotBuilt", err)
	}
	if exists, _ := store.CollectionExists(ctx, corpus.Collection); exists {
		t.Error("collection should be dropped by Invalidate")
	}

	// Invalidating an empty index is a no-op.
	idx.Invalidate(ctx)
}

func TestIndex_Attach(t *testing.T) {
	ctx := context.Background()
	builder, store := newTestIndex(t, &keywordEmbedder{})
	corpus, err := build(ctx, builder, regulation)
	if err != nil {
		t.Fatalf("build() error = %v", err)
	}

	restarted := index.New(&keywordEmbedder{}, store, index.Options{Collection: "test", VectorSize: len(vocabulary) + 1})
	if err := restarted.Attach(ctx, index.Corpus{ID: corpus.ID, Collection: corpus.Collection}); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if got := restarted.Current(); got == nil || got.ChunkCount != 3 {
		t.Errorf("Current() after Attach = %+v, want 3 chunks", got)
	}
	hits, err := restarted.Search(ctx, "fraude", 1)
	if err != nil || len(hits) != 1 || hits[0].Chunk.Page != 7 {
		t.Errorf("Search() after Attach = %+v, %v", hits, err)
	}

	err = restarted.Attach(ctx, index.Corpus{ID: "gone", Collection: "test_gone"})
	if !errors.Is(err, index.ErrCorpusMissing) {
		t.Errorf("Attach() missing collection error = %v, want ErrCorpusMissing", err)
	}
}

func TestIndex_Discard(t *testing.T) {
	ctx := context.Background()
	idx, store := newTestIndex(t, &keywordEmbedder{})

	stale, err := build(ctx, idx, regulation[:1])
	if err != nil {
		t.Fatalf("build() error = %v", err)
	}
	restarted := index.New(&keywordEmbedder{}, store, index.Options{Collection: "test", VectorSize: len(vocabulary) + 1})
	fresh, err := build(ctx, restarted, regulation)
	if err != nil {
		t.Fatalf("build() error = %v", err)
	}

	// The published corpus is left alone.
	if err := restarted.Discard(ctx, *fresh); err != nil {
		t.Fatalf("Discard() published error = %v", err)
	}
	if ok, _ := store.CollectionExists(ctx, fresh.Collection); !ok {
		t.Error("Discard() dropped the published collection")
	}

	if err := restarted.Discard(ctx, *stale); err != nil {
		t.Fatalf("Discard() error = %v", err)
	}
	if ok, _ := store.CollectionExists(ctx, stale.Collection); ok {
		t.Error("Discard() left the stale collection")
	}
}

func TestIndex_StageThenPublish(t *testing.T) {
	ctx := context.Background()
	idx, store := newTestIndex(t, &keywordEmbedder{})

	old, err := build(ctx, idx, regulation[1:2])
	if err != nil {
		t.Fatalf("build() error = %v", err)
	}

	staged, err := idx.Stage(ctx, regulation[:1])
	if err != nil {
		t.Fatalf("Stage() error = %v", err)
	}
	if current := idx.Current(); current == nil || current.ID != old.ID {
		t.Fatalf("Current() = %+v after Stage(), want %s still published", current, old.ID)
	}
	hits, err := idx.Search(ctx, "herkansing", 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 || !strings.Contains(hits[0].Chunk.Content, "fraude") {
		t.Errorf("Search() = %+v, want a hit from the published corpus only", hits)
	}

	idx.Publish(ctx, *staged)
	if current := idx.Current(); current == nil || current.ID != staged.ID {
		t.Errorf("Current() = %+v, want %s", current, staged.ID)
	}
	if ok, _ := store.CollectionExists(ctx, old.Collection); ok {
		t.Error("Publish() should drop the replaced collection")
	}
}

func TestIndex_DiscardStagedCorpus(t *testing.T) {
	ctx := context.Background()
	idx, store := newTestIndex(t, &keywordEmbedder{})

	old, err := build(ctx, idx, regulation[:1])
	if err != nil {
		t.Fatalf("build() error = %v", err)
	}
	staged, err := idx.Stage(ctx, regulation[1:])
	if err != nil {
		t.Fatalf("Stage() error = %v", err)
	}

	if err := idx.Discard(ctx, *staged); err != nil {
		t.Fatalf("Discard() error = %v", err)
	}
	if ok, _ := store.CollectionExists(ctx, staged.Collection); ok {
		t.Error("Discard() left the staged collection")
	}
	if current := idx.Current(); current == nil || current.ID != old.ID {
		t.Errorf("Current() = %+v, want %s", current, old.ID)
	}
}

func TestIndex_EmbeddingFailureKeepsPublishedCorpus(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	embedder := mocks.NewMockEmbedder(ctrl)

	store, _ := vectorstore.NewChromemStore("")
	idx := index.New(embedder, store, index.Options{Collection: "test", VectorSize: len(vocabulary) + 1, RetryDelay: time.Millisecond})

	embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, texts []string) ([][]float32, error) {
			out := make([][]float32, len(texts))
			for i, text := range texts {
				out[i] = embedKeywords(text)
			}
			return out, nil
		},
	).Times(1)
	first, err := build(ctx, idx, regulation)
	if err != nil {
		t.Fatalf("build() error = %v", err)
	}

	// Client errors are not retried.
	embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).
		Return(nil, &llm.StatusError{StatusCode: http.StatusUnauthorized, Body: "bad key"}).
		Times(1)

	_, err = build(ctx, idx, regulation)
	var embErr *domain.EmbeddingServiceError
	if !errors.As(err, &embErr) {
		t.Fatalf("build() error = %v, want *domain.EmbeddingServiceError", err)
	}
	if idx.Current().ID != first.ID {
		t.Error("failed build must leave the previous corpus published")
	}
}

func TestIndex_RetriesTransientEmbeddingErrors(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	embedder := mocks.NewMockEmbedder(ctrl)
	store, _ := vectorstore.NewChromemStore("")
	idx := index.New(embedder, store, index.Options{Collection: "test", VectorSize: len(vocabulary) + 1, RetryDelay: time.Millisecond})

	gomock.InOrder(
		embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).
			Return(nil, &llm.StatusError{StatusCode: http.StatusServiceUnavailable}),
		embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).
			Return(nil, &llm.StatusError{StatusCode: http.StatusTooManyRequests}),
		embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).
			Return([][]float32{embedKeywords("ziek")}, nil),
	)

	if _, err := build(ctx, idx, []domain.TextChunk{{Content: "ziek", Page: 1, Source: "a.pdf"}}); err != nil {
		t.Fatalf("build() error = %v", err)
	}
}

func TestIndex_UpsertFailureDropsIncompleteCollection(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	store := vsmocks.NewMockVectorStore(ctrl)
	idx := index.New(&keywordEmbedder{}, store, index.Options{Collection: "test", VectorSize: len(vocabulary) + 1})

	var created string
	store.EXPECT().CreateCollection(gomock.Any(), gomock.Any(), len(vocabulary)+1).
		DoAndReturn(func(_ context.Context, name string, _ int) error {
			created = name
			return nil
		})
	store.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
	store.EXPECT().DeleteCollection(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, name string) error {
			if name != created {
				t.Errorf("DeleteCollection(%s), want %s", name, created)
			}
			return nil
		})

	if _, err := build(ctx, idx, regulation); err == nil {
		t.Fatal("build() expected error, got nil")
	}
	if idx.Ready() {
		t.Error("failed first build must not publish a corpus")
	}
}

func TestIndex_SearchDuringRebuild(t *testing.T) {
	ctx := context.Background()
	idx, _ := newTestIndex(t, &keywordEmbedder{})

	setA := []domain.TextChunk{
		{Content: "herkansing A1", Page: 1, Source: "a.pdf"},
		{Content: "herkansing A2", Page: 2, Source: "a.pdf"},
	}
	setB := []domain.TextChunk{
		{Content: "herkansing B1", Page: 1, Source: "b.pdf"},
		{Content: "herkansing B2", Page: 2, Source: "b.pdf"},
	}
	if _, err := build(ctx, idx, setA); err != nil {
		t.Fatalf("build() error = %v", err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				hits, err := idx.Search(ctx, "herkansing", 2)
				if err != nil {
					t.Errorf("Search() during rebuild error = %v", err)
					return
				}
				if len(hits) != 2 || hits[0].Chunk.Source != hits[1].Chunk.Source {
					t.Errorf("Search() observed a mixed or partial corpus: %+v", hits)
					return
				}
			}
		}()
	}

	for i := range 6 {
		set := setA
		if i%2 == 0 {
			set = setB
		}
		if _, err := build(ctx, idx, set); err != nil {
			t.Errorf("build() error = %v", err)
		}
	}
	close(stop)
	wg.Wait()
}
