package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_deps.go -package=mocks examenbot/internal/service Answerer,CorpusIndex,RetrievalTuner
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_services.go -package=mocks examenbot/internal/service ChatService,AdminService

import (
	"context"
	"strings"

	"examenbot/internal/contextutil"
	"examenbot/internal/domain"
	"examenbot/internal/index"
	"examenbot/internal/rag"
	"examenbot/internal/session"
)

// ApologyText is shown when the embedding or generation service fails.
const ApologyText = "Sorry, er is iets misgegaan bij het beantwoorden van je vraag. Probeer het later opnieuw."

// OutcomeCanned marks a turn answered from the canned replies without retrieval.
const OutcomeCanned rag.Outcome = "canned"

// Answerer is an interface for answering questions from the indexed documents.
// This interface is defined from the service layer's perspective (consumer-first).
type Answerer interface {
	Ask(ctx context.Context, question string) (rag.Answer, error)
	AskStream(ctx context.Context, question string) (*rag.Stream, error)
}

// ChatRequest is a chat turn: free text or the id of a preset question.
// A preset question is answered exactly as if its text had been typed.
type ChatRequest struct {
	Message string
	FAQID   string
}

// Source is a document page an answer was grounded on.
type Source struct {
	Source   string  `json:"source"`
	Page     int     `json:"page"`
	Distance float64 `json:"distance"`
}

// ChatResponse represents a chat response in the domain layer.
type ChatResponse struct {
	Answer  string
	Outcome rag.Outcome
	Sources []Source
}

// ChatService provides chat functionality.
type ChatService interface {
	// ProcessChat answers one turn and records it in the session log.
	ProcessChat(ctx context.Context, sess *session.Session, req ChatRequest) (ChatResponse, error)
	// StreamChat answers one turn, passing answer fragments to callback as they arrive.
	// The returned response holds the full answer once the stream has ended.
	StreamChat(ctx context.Context, sess *session.Session, req ChatRequest, callback func(chunk string) error) (ChatResponse, error)
	// History returns the session's conversation log.
	History(sess *session.Session) []domain.ConversationTurn
	// FAQ returns the preset questions.
	FAQ() []FAQEntry
}

// chatService implements ChatService.
type chatService struct {
	answerer Answerer
}

// NewChatService creates a new ChatService.
func NewChatService(answerer Answerer) ChatService {
	return &chatService{
		answerer: answerer,
	}
}

// turn is a resolved chat request.
type turn struct {
	question string
	// static is set when the answer is known without retrieval.
	static  string
	outcome rag.Outcome
}

func resolve(req ChatRequest) (turn, error) {
	message := req.Message
	if req.FAQID != "" {
		entry, ok := faqByID(req.FAQID)
		if !ok {
			return turn{}, &ValidationError{Field: "faq_id", Message: "unknown question"}
		}
		message = entry.Question
	}

	question := strings.TrimSpace(message)
	if question == "" {
		return turn{}, &ValidationError{Field: "message", Message: "cannot be empty"}
	}
	if answer, ok := cannedAnswer(question); ok {
		return turn{question: question, static: answer, outcome: OutcomeCanned}, nil
	}
	return turn{question: question}, nil
}

// ProcessChat processes a chat request.
func (s *chatService) ProcessChat(ctx context.Context, sess *session.Session, req ChatRequest) (ChatResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	t, err := resolve(req)
	if err != nil {
		logger.WarnContext(ctx, "invalid chat request", "error", err)
		return ChatResponse{}, err
	}

	end := sess.BeginTurn()
	defer end()

	// The question is kept even when answering fails.
	sess.Append(domain.ConversationTurn{Role: domain.RoleUser, Content: t.question})

	if t.static != "" {
		sess.Append(domain.ConversationTurn{Role: domain.RoleAssistant, Content: t.static})
		logger.InfoContext(ctx, "preset answer returned", "outcome", t.outcome)
		return ChatResponse{Answer: t.static, Outcome: t.outcome}, nil
	}

	answer, err := s.answerer.Ask(ctx, t.question)
	if err != nil {
		logger.ErrorContext(ctx, "failed to answer question", "error", err)
		return ChatResponse{}, WrapError(err, "failed to answer question")
	}

	sess.Append(domain.ConversationTurn{Role: domain.RoleAssistant, Content: answer.Text})

	logger.InfoContext(ctx, "chat request processed successfully",
		"question_length", len(t.question),
		"answer_length", len(answer.Text),
		"outcome", answer.Outcome,
		"sources", len(answer.Sources),
	)
	return ChatResponse{
		Answer:  answer.Text,
		Outcome: answer.Outcome,
		Sources: toSources(answer.Sources),
	}, nil
}

// StreamChat processes a chat request and streams the response.
func (s *chatService) StreamChat(ctx context.Context, sess *session.Session, req ChatRequest, callback func(chunk string) error) (ChatResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	t, err := resolve(req)
	if err != nil {
		logger.WarnContext(ctx, "invalid streaming chat request", "error", err)
		return ChatResponse{}, err
	}

	end := sess.BeginTurn()
	defer end()

	sess.Append(domain.ConversationTurn{Role: domain.RoleUser, Content: t.question})

	if t.static != "" {
		if err := callback(t.static); err != nil {
			return ChatResponse{}, WrapError(err, "failed to deliver answer")
		}
		sess.Append(domain.ConversationTurn{Role: domain.RoleAssistant, Content: t.static})
		return ChatResponse{Answer: t.static, Outcome: t.outcome}, nil
	}

	stream, err := s.answerer.AskStream(ctx, t.question)
	if err != nil {
		logger.ErrorContext(ctx, "failed to start answer stream", "error", err)
		return ChatResponse{}, WrapError(err, "failed to stream answer")
	}

	var answer strings.Builder
	for fragment, err := range stream.Fragments {
		if err != nil {
			logger.ErrorContext(ctx, "answer stream failed", "error", err, "received_length", answer.Len())
			return ChatResponse{}, WrapError(err, "failed to stream answer")
		}
		answer.WriteString(fragment)
		if err := callback(fragment); err != nil {
			logger.WarnContext(ctx, "failed to deliver answer fragment", "error", err)
			return ChatResponse{}, WrapError(err, "failed to deliver answer")
		}
	}

	text := answer.String()
	sess.Append(domain.ConversationTurn{Role: domain.RoleAssistant, Content: text})

	logger.InfoContext(ctx, "streaming chat request processed successfully",
		"question_length", len(t.question),
		"answer_length", len(text),
		"outcome", stream.Outcome,
	)
	return ChatResponse{
		Answer:  text,
		Outcome: stream.Outcome,
		Sources: toSources(stream.Sources),
	}, nil
}

// History returns the conversation log.
func (s *chatService) History(sess *session.Session) []domain.ConversationTurn {
	return sess.Turns()
}

// FAQ returns the preset questions.
func (s *chatService) FAQ() []FAQEntry {
	return FAQEntries()
}

func toSources(hits []index.Hit) []Source {
	sources := make([]Source, 0, len(hits))
	for _, hit := range hits {
		sources = append(sources, Source{
			Source:   hit.Chunk.Source,
			Page:     hit.Chunk.Page,
			Distance: hit.Distance,
		})
	}
	return sources
}
