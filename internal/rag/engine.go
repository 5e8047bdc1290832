// Package rag answers questions from the indexed documents: it retrieves
// nearby chunks, keeps those under the distance threshold, composes the
// prompt and asks the model.
package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine.go -package=mocks examenbot/internal/rag Retriever,AnswerGenerator

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"
	"sync/atomic"

	"examenbot/internal/contextutil"
	"examenbot/internal/domain"
	"examenbot/internal/index"
)

// Retriever finds the chunks nearest to a question.
type Retriever interface {
	Ready() bool
	Search(ctx context.Context, query string, k int) ([]index.Hit, error)
}

// AnswerGenerator turns a prompt into an answer.
type AnswerGenerator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
	Stream(ctx context.Context, prompt Prompt) iter.Seq2[string, error]
}

// Observer is notified of every state the engine enters.
type Observer func(ctx context.Context, state State)

// Option configures an Engine.
type Option func(*Engine)

// WithObserver registers a state observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithSourceAnnotations controls the [bron: ...] markers in the prompt context.
func WithSourceAnnotations(annotate bool) Option {
	return func(e *Engine) {
		e.annotate = annotate
	}
}

// Engine runs the question answering pipeline.
type Engine struct {
	retriever Retriever
	generator AnswerGenerator
	annotate  bool
	observer  Observer

	mu       sync.RWMutex
	settings Settings
}

// NewEngine creates an Engine. Source annotations are on by default.
func NewEngine(retriever Retriever, generator AnswerGenerator, settings Settings, opts ...Option) (*Engine, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		retriever: retriever,
		generator: generator,
		annotate:  true,
		settings:  settings,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Validate checks the ranges of k and threshold.
func (s Settings) Validate() error {
	if s.K <= 0 {
		return fmt.Errorf("k must be greater than 0, got %d", s.K)
	}
	if s.Threshold <= 0 || s.Threshold > 2 {
		return fmt.Errorf("threshold must be in (0, 2], got %v", s.Threshold)
	}
	return nil
}

// Settings returns the current retrieval settings.
func (e *Engine) Settings() Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings
}

// SetSettings replaces the retrieval settings for subsequent questions.
func (e *Engine) SetSettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings = s
	return nil
}

func (e *Engine) enter(ctx context.Context, state State) {
	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "rag state", "state", state.String())
	if e.observer != nil {
		e.observer(ctx, state)
	}
}

// retrieval is the part of the pipeline shared by Ask and AskStream.
type retrieval struct {
	outcome Outcome
	sources []index.Hit
	prompt  Prompt
}

func (e *Engine) retrieve(ctx context.Context, question string) (retrieval, error) {
	logger := contextutil.LoggerFromContext(ctx)

	question = strings.TrimSpace(question)
	if question == "" {
		return retrieval{}, domain.ErrEmptyQuestion
	}

	e.enter(ctx, StateIdle)
	if !e.retriever.Ready() {
		logger.InfoContext(ctx, "question asked before any documents were indexed")
		e.enter(ctx, StateRespondFallback)
		return retrieval{outcome: OutcomeNoIndex}, nil
	}

	settings := e.Settings()
	logger.InfoContext(ctx, "RAG query started", "question", question, "k", settings.K, "threshold", settings.Threshold)

	// Search embeds the query and queries the store in one call.
	e.enter(ctx, StateEmbeddingQuery)
	e.enter(ctx, StateSearching)
	hits, err := e.retriever.Search(ctx, question, settings.K)
	if errors.Is(err, domain.ErrIndexNotBuilt) {
		logger.InfoContext(ctx, "index was cleared while the question was asked")
		e.enter(ctx, StateRespondFallback)
		return retrieval{outcome: OutcomeNoIndex}, nil
	}
	if err != nil {
		logger.ErrorContext(ctx, "retrieval failed", "error", err)
		return retrieval{}, err
	}

	selected := SelectContext(hits, settings.Threshold)
	distances := make([]float64, len(hits))
	for i, hit := range hits {
		distances[i] = hit.Distance
	}
	logger.InfoContext(ctx, "context selected", "retrieved", len(hits), "selected", len(selected), "distances", distances)

	if len(selected) == 0 {
		e.enter(ctx, StateInsufficientContext)
		e.enter(ctx, StateRespondFallback)
		return retrieval{outcome: OutcomeOutOfScope}, nil
	}

	e.enter(ctx, StateSufficientContext)
	e.enter(ctx, StateComposingPrompt)
	chunks := make([]domain.TextChunk, len(selected))
	for i, hit := range selected {
		chunks[i] = hit.Chunk
	}
	prompt := ComposePrompt(chunks, question, e.annotate)
	logger.DebugContext(ctx, "prompt composed", "system_prompt_length", len(prompt.System), "chunks", len(chunks))

	return retrieval{outcome: OutcomeAnswered, sources: selected, prompt: prompt}, nil
}

// Ask answers question and returns the complete answer.
func (e *Engine) Ask(ctx context.Context, question string) (Answer, error) {
	logger := contextutil.LoggerFromContext(ctx)

	r, err := e.retrieve(ctx, question)
	if err != nil {
		return Answer{}, err
	}

	switch r.outcome {
	case OutcomeNoIndex:
		e.enter(ctx, StateIdle)
		return Answer{Text: NoIndexText, Outcome: OutcomeNoIndex}, nil
	case OutcomeOutOfScope:
		e.enter(ctx, StateIdle)
		return Answer{Text: OutOfScopeText, Outcome: OutcomeOutOfScope}, nil
	}

	e.enter(ctx, StateGenerating)
	text, err := e.generator.Generate(ctx, r.prompt)
	if err != nil {
		logger.ErrorContext(ctx, "failed to generate answer", "error", err)
		return Answer{}, err
	}
	e.enter(ctx, StateRespondAnswer)
	e.enter(ctx, StateIdle)

	logger.InfoContext(ctx, "received LLM response", "answer_length", len(text))
	return Answer{Text: text, Outcome: OutcomeAnswered, Sources: r.sources}, nil
}

// AskStream answers question as a stream. Retrieval runs before AskStream
// returns; generation starts when Fragments is ranged.
func (e *Engine) AskStream(ctx context.Context, question string) (*Stream, error) {
	r, err := e.retrieve(ctx, question)
	if err != nil {
		return nil, err
	}

	switch r.outcome {
	case OutcomeNoIndex:
		e.enter(ctx, StateIdle)
		return &Stream{Outcome: OutcomeNoIndex, Fragments: single(NoIndexText)}, nil
	case OutcomeOutOfScope:
		e.enter(ctx, StateIdle)
		return &Stream{Outcome: OutcomeOutOfScope, Fragments: single(OutOfScopeText)}, nil
	}

	upstream := e.generator.Stream(ctx, r.prompt)
	fragments := func(yield func(string, error) bool) {
		e.enter(ctx, StateGenerating)
		for fragment, err := range upstream {
			if err != nil {
				yield("", err)
				return
			}
			if !yield(fragment, nil) {
				return
			}
		}
		e.enter(ctx, StateRespondAnswer)
		e.enter(ctx, StateIdle)
	}

	return &Stream{Outcome: OutcomeAnswered, Sources: r.sources, Fragments: fragments}, nil
}

// single yields text once. Like generated streams, it can be ranged only once.
func single(text string) iter.Seq2[string, error] {
	var used atomic.Bool
	return func(yield func(string, error) bool) {
		if !used.CompareAndSwap(false, true) {
			yield("", domain.ErrStreamConsumed)
			return
		}
		yield(text, nil)
	}
}
