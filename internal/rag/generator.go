package rag

import (
	"context"
	"errors"
	"iter"
	"sync/atomic"
	"time"

	"examenbot/internal/domain"
	"examenbot/internal/llm"
)

// ChatClient is the chat completion capability used by Generator.
type ChatClient interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
	StreamChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) iter.Seq2[string, error]
}

// Generator produces answers with a fixed model and temperature.
type Generator struct {
	client  ChatClient
	params  llm.ChatParams
	timeout time.Duration
}

// NewGenerator creates a Generator. A zero timeout disables the per-call deadline.
func NewGenerator(client ChatClient, model string, temperature float32, timeout time.Duration) *Generator {
	return &Generator{
		client: client,
		params: llm.ChatParams{
			Model:       model,
			Temperature: &temperature,
		},
		timeout: timeout,
	}
}

func (g *Generator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

// Generate returns the complete answer.
func (g *Generator) Generate(ctx context.Context, prompt Prompt) (string, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	answer, err := g.client.ChatWithMessages(ctx, prompt.Messages(), g.params)
	if err != nil {
		return "", &domain.GenerationServiceError{Err: err}
	}
	return answer, nil
}

// Stream returns the answer as text fragments. Nothing is requested until the
// sequence is ranged; ranging it again yields domain.ErrStreamConsumed.
func (g *Generator) Stream(ctx context.Context, prompt Prompt) iter.Seq2[string, error] {
	var used atomic.Bool
	messages := prompt.Messages()

	return func(yield func(string, error) bool) {
		if !used.CompareAndSwap(false, true) {
			yield("", domain.ErrStreamConsumed)
			return
		}

		ctx, cancel := g.withTimeout(ctx)
		defer cancel()

		for fragment, err := range g.client.StreamChatWithMessages(ctx, messages, g.params) {
			if err != nil {
				if !errors.Is(err, domain.ErrStreamConsumed) {
					err = &domain.GenerationServiceError{Err: err}
				}
				yield("", err)
				return
			}
			if !yield(fragment, nil) {
				return
			}
		}
	}
}
