package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"examenbot/internal/contextutil"
	"examenbot/internal/domain"
	"examenbot/internal/service"
	"examenbot/internal/session"
)

// ChatHandler handles HTTP requests for chat.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// ChatRequest represents the HTTP request payload for chat.
// Either Message or FAQID is set.
type ChatRequest struct {
	Message string `json:"message"`
	FAQID   string `json:"faq_id,omitempty"`
}

// ChatResponse represents the HTTP response payload for chat.
type ChatResponse struct {
	Answer     string           `json:"answer"`
	AnswerHTML string           `json:"answer_html"`
	Outcome    string           `json:"outcome"`
	Sources    []service.Source `json:"sources"`
}

// StreamChunk is the payload of one streamed SSE event.
type StreamChunk struct {
	Chunk string `json:"chunk"`
}

// HistoryResponse is the session's conversation log.
type HistoryResponse struct {
	SessionID string                    `json:"session_id"`
	Turns     []domain.ConversationTurn `json:"turns"`
}

// FAQResponse lists the preset questions.
type FAQResponse struct {
	Questions []service.FAQEntry `json:"questions"`
}

// ServeHTTP handles HTTP requests for chat.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Convert HTTP request to service request
	svcReq := service.ChatRequest{
		Message: req.Message,
		FAQID:   req.FAQID,
	}

	if r.URL.Query().Get("stream") == "true" {
		h.handleStreamingChat(w, r, sess, svcReq)
		return
	}

	svcResp, err := h.chatService.ProcessChat(ctx, sess, svcReq)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to process chat request")
		return
	}

	writeJSON(ctx, w, http.StatusOK, h.toResponse(r, svcResp))
}

func (h *ChatHandler) toResponse(r *http.Request, svcResp service.ChatResponse) ChatResponse {
	ctx := r.Context()

	answerHTML, err := renderMarkdown(svcResp.Answer)
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to render answer", "error", err)
	}
	sources := svcResp.Sources
	if sources == nil {
		sources = []service.Source{}
	}
	return ChatResponse{
		Answer:     svcResp.Answer,
		AnswerHTML: answerHTML,
		Outcome:    string(svcResp.Outcome),
		Sources:    sources,
	}
}

// handleStreamingChat streams the answer as Server-Sent Events. Each fragment is
// sent as a JSON StreamChunk; the final "done" event carries the full ChatResponse.
// Errors before the first fragment are answered as plain JSON errors.
func (h *ChatHandler) handleStreamingChat(w http.ResponseWriter, r *http.Request, sess *session.Session, svcReq service.ChatRequest) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	// Create a flusher to send data immediately
	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.ErrorContext(ctx, "streaming not supported by response writer")
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	started := false
	start := func() {
		if started {
			return
		}
		started = true
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
	}

	svcResp, err := h.chatService.StreamChat(ctx, sess, svcReq, func(chunk string) error {
		start()
		if err := writeEvent(w, "", StreamChunk{Chunk: chunk}); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})

	if err != nil {
		if !started {
			handleServiceError(ctx, w, err, "Failed to process chat request")
			return
		}
		logger.ErrorContext(ctx, "error streaming chat", "error", err)
		message := "Failed to process chat request"
		if domain.IsServiceError(err) {
			message = service.ApologyText
		}
		_ = writeEvent(w, "error", ErrorResponse{Error: message})
		flusher.Flush()
		return
	}

	start()
	_ = writeEvent(w, "done", h.toResponse(r, svcResp))
	// Send done signal
	_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func writeEvent(w http.ResponseWriter, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if event != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

// History returns the session's conversation log.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, HistoryResponse{
		SessionID: sess.ID,
		Turns:     h.chatService.History(sess),
	})
}

// FAQ returns the preset questions.
func (h *ChatHandler) FAQ(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, FAQResponse{Questions: h.chatService.FAQ()})
}
