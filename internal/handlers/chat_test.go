package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"examenbot/internal/domain"
	"examenbot/internal/rag"
	"examenbot/internal/service"
	"examenbot/internal/service/mocks"
	"examenbot/internal/session"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// newRequest builds a request carrying a fresh session, as the session middleware would.
func newRequest(t *testing.T, method, target string, body io.Reader) (*http.Request, *session.Session) {
	t.Helper()
	sess, _ := session.NewStore(time.Hour).GetOrCreate("")
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(session.WithSession(req.Context(), sess)), sess
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	if s, ok := v.(string); ok {
		return strings.NewReader(s)
	}
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	return bytes.NewReader(data)
}

func TestNewChatHandler(t *testing.T) {
	ctrl := gomock.NewController(t)

	mockChatService := mocks.NewMockChatService(ctrl)
	handler := NewChatHandler(mockChatService)

	if handler == nil {
		t.Fatal("NewChatHandler() returned nil")
	}
	if handler.chatService != mockChatService {
		t.Error("NewChatHandler() chatService not set correctly")
	}
}

func TestChatHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name          string
		method        string
		body          any
		mockSetup     func(*mocks.MockChatService)
		wantStatus    int
		checkResponse func(t *testing.T, w *httptest.ResponseRecorder)
	}{
		{
			name:   "answered question",
			method: http.MethodPost,
			body:   ChatRequest{Message: "Hoeveel pogingen heb ik?"},
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					ProcessChat(gomock.Any(), gomock.Any(), service.ChatRequest{Message: "Hoeveel pogingen heb ik?"}).
					Return(service.ChatResponse{
						Answer:  "**Zo werkt het:**\n- Je hebt twee pogingen.",
						Outcome: rag.OutcomeAnswered,
						Sources: []service.Source{{Source: "oer.pdf", Page: 5, Distance: 0.2}},
					}, nil)
			},
			wantStatus: http.StatusOK,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp ChatResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("invalid JSON: %v", err)
				}
				if resp.Outcome != "answered" || len(resp.Sources) != 1 || resp.Sources[0].Page != 5 {
					t.Errorf("response = %+v", resp)
				}
				if !strings.Contains(resp.AnswerHTML, "<strong>Zo werkt het:</strong>") || !strings.Contains(resp.AnswerHTML, "<li>") {
					t.Errorf("answer_html = %q, want rendered Markdown", resp.AnswerHTML)
				}
			},
		},
		{
			name:   "preset question",
			method: http.MethodPost,
			body:   ChatRequest{FAQID: "ziek"},
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					ProcessChat(gomock.Any(), gomock.Any(), service.ChatRequest{FAQID: "ziek"}).
					Return(service.ChatResponse{Answer: "Neem contact op.", Outcome: rag.OutcomeOutOfScope}, nil)
			},
			wantStatus: http.StatusOK,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				if !strings.Contains(w.Body.String(), `"sources":[]`) {
					t.Errorf("body = %s, want an empty sources list", w.Body.String())
				}
			},
		},
		{
			name:       "invalid method",
			method:     http.MethodGet,
			mockSetup:  func(m *mocks.MockChatService) {},
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "invalid JSON body",
			method:     http.MethodPost,
			body:       "{not json",
			mockSetup:  func(m *mocks.MockChatService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "validation error",
			method: http.MethodPost,
			body:   ChatRequest{Message: ""},
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					ProcessChat(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(service.ChatResponse{}, &service.ValidationError{Field: "message", Message: "cannot be empty"})
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "generation failure is reported without detail",
			method: http.MethodPost,
			body:   ChatRequest{Message: "Fraude?"},
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					ProcessChat(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(service.ChatResponse{}, service.WrapError(
						&domain.GenerationServiceError{Err: errors.New("invalid api key sk-123")}, "failed to answer question"))
			},
			wantStatus: http.StatusBadGateway,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp ErrorResponse
				_ = json.NewDecoder(w.Body).Decode(&resp)
				if resp.Error != service.ApologyText {
					t.Errorf("error = %q, want the apology text", resp.Error)
				}
			},
		},
		{
			name:   "unexpected error",
			method: http.MethodPost,
			body:   ChatRequest{Message: "Fraude?"},
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					ProcessChat(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(service.ChatResponse{}, errors.New("boom"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockChatService := mocks.NewMockChatService(ctrl)
			tt.mockSetup(mockChatService)
			handler := NewChatHandler(mockChatService)

			var body io.Reader
			if tt.body != nil {
				body = jsonBody(t, tt.body)
			}
			req, _ := newRequest(t, tt.method, "/api/chat", body)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("ServeHTTP() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, w)
			}
		})
	}
}

func TestChatHandler_handleStreamingChat(t *testing.T) {
	tests := []struct {
		name         string
		mockSetup    func(*mocks.MockChatService)
		wantStatus   int
		wantContains []string
	}{
		{
			name: "successful streaming",
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					StreamChat(gomock.Any(), gomock.Any(), service.ChatRequest{Message: "Hoeveel pogingen?"}, gomock.Any()).
					DoAndReturn(func(_ context.Context, _ *session.Session, _ service.ChatRequest, callback func(chunk string) error) (service.ChatResponse, error) {
						for _, chunk := range []string{"Je hebt\n", "twee pogingen."} {
							if err := callback(chunk); err != nil {
								return service.ChatResponse{}, err
							}
						}
						return service.ChatResponse{Answer: "Je hebt\ntwee pogingen.", Outcome: rag.OutcomeAnswered}, nil
					})
			},
			wantStatus: http.StatusOK,
			wantContains: []string{
				`data: {"chunk":"Je hebt\n"}`,
				`data: {"chunk":"twee pogingen."}`,
				"event: done\n",
				`"outcome":"answered"`,
				"data: [DONE]",
			},
		},
		{
			name: "error before the first fragment",
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					StreamChat(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(service.ChatResponse{}, &domain.EmbeddingServiceError{Err: errors.New("timeout")})
			},
			wantStatus:   http.StatusBadGateway,
			wantContains: []string{service.ApologyText},
		},
		{
			name: "error during the stream",
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					StreamChat(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, _ *session.Session, _ service.ChatRequest, callback func(chunk string) error) (service.ChatResponse, error) {
						_ = callback("Bij ")
						return service.ChatResponse{}, &domain.GenerationServiceError{Err: errors.New("reset")}
					})
			},
			wantStatus:   http.StatusOK, // SSE sends error in stream, not HTTP status
			wantContains: []string{"event: error\n", service.ApologyText},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockChatService := mocks.NewMockChatService(ctrl)
			tt.mockSetup(mockChatService)
			handler := NewChatHandler(mockChatService)

			req, _ := newRequest(t, http.MethodPost, "/api/chat?stream=true", jsonBody(t, ChatRequest{Message: "Hoeveel pogingen?"}))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("handleStreamingChat() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && w.Header().Get("Content-Type") != "text/event-stream" {
				t.Error("handleStreamingChat() missing Content-Type header")
			}
			body := w.Body.String()
			for _, want := range tt.wantContains {
				if !strings.Contains(body, want) {
					t.Errorf("body = %q, want it to contain %q", body, want)
				}
			}
		})
	}
}

func TestChatHandler_History(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockChatService := mocks.NewMockChatService(ctrl)
	handler := NewChatHandler(mockChatService)

	req, sess := newRequest(t, http.MethodGet, "/api/chat/history", nil)
	turns := []domain.ConversationTurn{{Role: domain.RoleAssistant, Content: session.WelcomeText}}
	mockChatService.EXPECT().History(sess).Return(turns)

	w := httptest.NewRecorder()
	handler.History(w, req)

	var resp HistoryResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("History() invalid JSON: %v", err)
	}
	if resp.SessionID != sess.ID || len(resp.Turns) != 1 || resp.Turns[0].Content != session.WelcomeText {
		t.Errorf("History() = %+v", resp)
	}
}

func TestChatHandler_History_NoSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	handler := NewChatHandler(mocks.NewMockChatService(ctrl))

	w := httptest.NewRecorder()
	handler.History(w, httptest.NewRequest(http.MethodGet, "/api/chat/history", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("History() status = %v, want 500", w.Code)
	}
}

func TestChatHandler_FAQ(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockChatService := mocks.NewMockChatService(ctrl)
	handler := NewChatHandler(mockChatService)

	mockChatService.EXPECT().FAQ().Return(service.FAQEntries())

	w := httptest.NewRecorder()
	handler.FAQ(w, httptest.NewRequest(http.MethodGet, "/api/faq", nil))

	var resp FAQResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("FAQ() invalid JSON: %v", err)
	}
	if len(resp.Questions) != 4 {
		t.Errorf("FAQ() returned %d questions, want 4", len(resp.Questions))
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()

	writeError(w, http.StatusBadRequest, "test error")

	if w.Code != http.StatusBadRequest {
		t.Errorf("writeError() status = %v, want %v", w.Code, http.StatusBadRequest)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("writeError() invalid JSON: %v", err)
	}

	if resp.Error != "test error" {
		t.Errorf("writeError() error = %v, want test error", resp.Error)
	}
}
