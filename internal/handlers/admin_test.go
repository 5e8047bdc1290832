package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"examenbot/internal/domain"
	"examenbot/internal/index"
	"examenbot/internal/ingest"
	"examenbot/internal/rag"
	"examenbot/internal/service"
	"examenbot/internal/service/mocks"
	"examenbot/internal/session"
	"examenbot/internal/storage"
)

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestAdminHandler_Login(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		mockSetup  func(*mocks.MockAdminService)
		wantStatus int
		wantAuth   bool
	}{
		{
			name: "valid credentials",
			body: LoginRequest{Username: "admin", Password: "geheim"},
			mockSetup: func(m *mocks.MockAdminService) {
				m.EXPECT().Login(gomock.Any(), gomock.Any(), "admin", "geheim").Return(nil)
			},
			wantStatus: http.StatusOK,
			wantAuth:   true,
		},
		{
			name: "wrong password",
			body: LoginRequest{Username: "admin", Password: "fout"},
			mockSetup: func(m *mocks.MockAdminService) {
				m.EXPECT().Login(gomock.Any(), gomock.Any(), "admin", "fout").Return(domain.ErrAuthFailure)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid JSON body",
			body:       "username=admin",
			mockSetup:  func(m *mocks.MockAdminService) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockAdminService := mocks.NewMockAdminService(ctrl)
			tt.mockSetup(mockAdminService)
			handler := NewAdminHandler(mockAdminService, 1<<20)

			req, _ := newRequest(t, http.MethodPost, "/api/admin/login", jsonBody(t, tt.body))
			w := httptest.NewRecorder()

			handler.Login(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("Login() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				var resp LoginResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("Login() invalid JSON: %v", err)
				}
				if resp.Authenticated != tt.wantAuth {
					t.Errorf("Login() authenticated = %v, want %v", resp.Authenticated, tt.wantAuth)
				}
			}
		})
	}
}

func TestAdminHandler_Logout(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockAdminService := mocks.NewMockAdminService(ctrl)
	handler := NewAdminHandler(mockAdminService, 1<<20)

	req, sess := newRequest(t, http.MethodPost, "/api/admin/logout", nil)
	mockAdminService.EXPECT().Logout(gomock.Any(), sess)

	w := httptest.NewRecorder()
	handler.Logout(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Logout() status = %v, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"authenticated":false`) {
		t.Errorf("Logout() body = %s", w.Body.String())
	}
}

func TestAdminHandler_ListDocuments(t *testing.T) {
	uploaded := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		mockSetup  func(*mocks.MockAdminService)
		wantStatus int
		check      func(t *testing.T, resp DocumentsResponse)
	}{
		{
			name: "indexed documents",
			mockSetup: func(m *mocks.MockAdminService) {
				m.EXPECT().Documents(gomock.Any(), gomock.Any()).Return(service.DocumentsOverview{
					Documents: []storage.DocumentRecord{
						{ID: "d1", Filename: "oer.pdf", Path: "/data/uploads/x-oer.pdf", SizeBytes: 2048, Pages: 12, Chunks: 11, UploadedAt: uploaded},
					},
					Corpus:   &index.Corpus{ID: "c1", Collection: "regulation_c1", ChunkCount: 11, BuiltAt: uploaded},
					Settings: rag.Settings{K: 3, Threshold: 0.5},
				}, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, resp DocumentsResponse) {
				if len(resp.Documents) != 1 || resp.Documents[0].Filename != "oer.pdf" || resp.Documents[0].Pages != 12 {
					t.Errorf("documents = %+v", resp.Documents)
				}
				if resp.Corpus == nil || resp.Corpus.Collection != "regulation_c1" {
					t.Errorf("corpus = %+v", resp.Corpus)
				}
				if resp.Retrieval.K != 3 {
					t.Errorf("retrieval = %+v", resp.Retrieval)
				}
			},
		},
		{
			name: "nothing indexed",
			mockSetup: func(m *mocks.MockAdminService) {
				m.EXPECT().Documents(gomock.Any(), gomock.Any()).Return(service.DocumentsOverview{Settings: rag.Settings{K: 3, Threshold: 0.5}}, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, resp DocumentsResponse) {
				if resp.Documents == nil || len(resp.Documents) != 0 {
					t.Errorf("documents = %#v, want an empty list", resp.Documents)
				}
				if resp.Corpus != nil {
					t.Errorf("corpus = %+v, want nil", resp.Corpus)
				}
			},
		},
		{
			name: "not logged in",
			mockSetup: func(m *mocks.MockAdminService) {
				m.EXPECT().Documents(gomock.Any(), gomock.Any()).Return(service.DocumentsOverview{}, domain.ErrNotAuthenticated)
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockAdminService := mocks.NewMockAdminService(ctrl)
			tt.mockSetup(mockAdminService)
			handler := NewAdminHandler(mockAdminService, 1<<20)

			req, _ := newRequest(t, http.MethodGet, "/api/admin/documents", nil)
			w := httptest.NewRecorder()
			handler.ListDocuments(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("ListDocuments() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if tt.check != nil {
				var resp DocumentsResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("ListDocuments() invalid JSON: %v", err)
				}
				tt.check(t, resp)
			}
		})
	}
}

func TestAdminHandler_UploadDocuments(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		files      map[string]string
		loggedIn   bool
		maxSize    int64
		mockSetup  func(*mocks.MockAdminService)
		wantStatus int
		check      func(t *testing.T, resp UploadResponse)
	}{
		{
			name:     "replace document set",
			target:   "/api/admin/documents",
			files:    map[string]string{"oer.pdf": "%PDF-1.4 oer"},
			loggedIn: true,
			maxSize:  1 << 20,
			mockSetup: func(m *mocks.MockAdminService) {
				m.EXPECT().
					Upload(gomock.Any(), gomock.Any(), []ingest.File{{Name: "oer.pdf", Data: []byte("%PDF-1.4 oer")}}, false).
					Return(service.UploadResult{
						Succeeded: 1,
						Files:     []service.FileStatus{{Filename: "oer.pdf", Pages: 1, Chunks: 1}},
						Corpus:    &index.Corpus{ID: "c1", Collection: "regulation_c1", ChunkCount: 1},
					}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:     "append mode",
			target:   "/api/admin/documents?append=true",
			files:    map[string]string{"bijlage.pdf": "%PDF-1.4 bijlage"},
			loggedIn: true,
			maxSize:  1 << 20,
			mockSetup: func(m *mocks.MockAdminService) {
				m.EXPECT().
					Upload(gomock.Any(), gomock.Any(), gomock.Len(1), true).
					Return(service.UploadResult{Succeeded: 1}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:     "append drops unreadable stored documents",
			target:   "/api/admin/documents?append=true",
			files:    map[string]string{"bijlage.pdf": "%PDF-1.4 bijlage"},
			loggedIn: true,
			maxSize:  1 << 20,
			mockSetup: func(m *mocks.MockAdminService) {
				m.EXPECT().
					Upload(gomock.Any(), gomock.Any(), gomock.Len(1), true).
					Return(service.UploadResult{Succeeded: 1, Removed: []string{"oer.pdf"}}, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, resp UploadResponse) {
				if len(resp.Removed) != 1 || resp.Removed[0] != "oer.pdf" {
					t.Errorf("removed = %v, want [oer.pdf]", resp.Removed)
				}
			},
		},
		{
			name:     "no readable files",
			target:   "/api/admin/documents",
			files:    map[string]string{"kapot.pdf": "geen pdf"},
			loggedIn: true,
			maxSize:  1 << 20,
			mockSetup: func(m *mocks.MockAdminService) {
				m.EXPECT().
					Upload(gomock.Any(), gomock.Any(), gomock.Any(), false).
					Return(service.UploadResult{
						Failed: 1,
						Files:  []service.FileStatus{{Filename: "kapot.pdf", Error: "could not read this file as PDF"}},
					}, &service.ValidationError{Field: "files", Message: "none of the files could be read as PDF"})
			},
			wantStatus: http.StatusUnprocessableEntity,
			check: func(t *testing.T, resp UploadResponse) {
				if resp.Succeeded != 0 || resp.Failed != 1 || len(resp.Files) != 1 || resp.Files[0].Error == "" {
					t.Errorf("response = %+v, want the failed file reported", resp)
				}
				if resp.Error != "none of the files could be read as PDF" || resp.Corpus != nil {
					t.Errorf("response = %+v, want the reason and no corpus", resp)
				}
			},
		},
		{
			name:     "validation error without file outcomes",
			target:   "/api/admin/documents",
			loggedIn: true,
			maxSize:  1 << 20,
			mockSetup: func(m *mocks.MockAdminService) {
				m.EXPECT().
					Upload(gomock.Any(), gomock.Any(), gomock.Len(0), false).
					Return(service.UploadResult{}, &service.ValidationError{Field: "files", Message: "at least one PDF is required"})
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "not logged in",
			target:     "/api/admin/documents",
			files:      map[string]string{"oer.pdf": "%PDF-1.4 oer"},
			maxSize:    1 << 20,
			mockSetup:  func(m *mocks.MockAdminService) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "upload too large",
			target:     "/api/admin/documents",
			files:      map[string]string{"oer.pdf": strings.Repeat("x", 4096)},
			loggedIn:   true,
			maxSize:    512,
			mockSetup:  func(m *mocks.MockAdminService) {},
			wantStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockAdminService := mocks.NewMockAdminService(ctrl)
			tt.mockSetup(mockAdminService)
			handler := NewAdminHandler(mockAdminService, tt.maxSize)

			body, contentType := multipartBody(t, tt.files)
			req, sess := newRequest(t, http.MethodPost, tt.target, body)
			req.Header.Set("Content-Type", contentType)
			if tt.loggedIn {
				sess.SetAdmin(session.AdminSession{Authenticated: true})
			}
			w := httptest.NewRecorder()

			handler.UploadDocuments(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("UploadDocuments() status = %v, want %v (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.check != nil {
				var resp UploadResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("UploadDocuments() invalid JSON: %v", err)
				}
				tt.check(t, resp)
			}
		})
	}
}

func TestAdminHandler_DownloadDocument(t *testing.T) {
	tests := []struct {
		name       string
		doc        service.DocumentFile
		err        error
		wantStatus int
	}{
		{
			name:       "stored document",
			doc:        service.DocumentFile{Filename: "oer 2026.pdf", Data: []byte("%PDF-1.4 oer")},
			wantStatus: http.StatusOK,
		},
		{name: "unknown document", err: domain.ErrDocumentNotFound, wantStatus: http.StatusNotFound},
		{name: "not logged in", err: domain.ErrNotAuthenticated, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockAdminService := mocks.NewMockAdminService(ctrl)
			handler := NewAdminHandler(mockAdminService, 1<<20)

			req, sess := newRequest(t, http.MethodGet, "/api/admin/documents/d1", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "d1")
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			mockAdminService.EXPECT().Document(gomock.Any(), sess, "d1").Return(tt.doc, tt.err)

			w := httptest.NewRecorder()
			handler.DownloadDocument(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("DownloadDocument() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if tt.err != nil {
				return
			}
			if got := w.Header().Get("Content-Type"); got != "application/pdf" {
				t.Errorf("Content-Type = %q, want application/pdf", got)
			}
			if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="oer 2026.pdf"` {
				t.Errorf("Content-Disposition = %q", got)
			}
			if w.Body.String() != "%PDF-1.4 oer" {
				t.Errorf("body = %q, want the stored bytes", w.Body.String())
			}
		})
	}
}

func TestAdminHandler_DeleteDocuments(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "deleted", wantStatus: http.StatusNoContent},
		{name: "not logged in", err: domain.ErrNotAuthenticated, wantStatus: http.StatusUnauthorized},
		{name: "storage failure", err: errors.New("disk full"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockAdminService := mocks.NewMockAdminService(ctrl)
			handler := NewAdminHandler(mockAdminService, 1<<20)

			req, sess := newRequest(t, http.MethodDelete, "/api/admin/documents", nil)
			mockAdminService.EXPECT().DeleteDocuments(gomock.Any(), sess).Return(tt.err)

			w := httptest.NewRecorder()
			handler.DeleteDocuments(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("DeleteDocuments() status = %v, want %v", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestAdminHandler_SetRetrieval(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		mockSetup  func(*mocks.MockAdminService)
		wantStatus int
	}{
		{
			name: "valid settings",
			body: rag.Settings{K: 5, Threshold: 0.4},
			mockSetup: func(m *mocks.MockAdminService) {
				m.EXPECT().
					SetRetrieval(gomock.Any(), gomock.Any(), rag.Settings{K: 5, Threshold: 0.4}).
					DoAndReturn(func(_ context.Context, _ *session.Session, s rag.Settings) (rag.Settings, error) {
						return s, nil
					})
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "rejected settings",
			body: rag.Settings{K: 0, Threshold: 0.4},
			mockSetup: func(m *mocks.MockAdminService) {
				m.EXPECT().
					SetRetrieval(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(rag.Settings{}, &service.ValidationError{Field: "retrieval", Message: "k must be positive"})
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid JSON body",
			body:       "k=5",
			mockSetup:  func(m *mocks.MockAdminService) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockAdminService := mocks.NewMockAdminService(ctrl)
			tt.mockSetup(mockAdminService)
			handler := NewAdminHandler(mockAdminService, 1<<20)

			req, _ := newRequest(t, http.MethodPut, "/api/admin/retrieval", jsonBody(t, tt.body))
			w := httptest.NewRecorder()
			handler.SetRetrieval(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("SetRetrieval() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				var resp rag.Settings
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("SetRetrieval() invalid JSON: %v", err)
				}
				if resp.K != 5 {
					t.Errorf("SetRetrieval() = %+v", resp)
				}
			}
		})
	}
}
