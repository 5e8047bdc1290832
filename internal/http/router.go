package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"examenbot/internal/handlers"
	"examenbot/internal/service"
	"examenbot/internal/session"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	ChatService   service.ChatService
	AdminService  service.AdminService
	VectorStore   handlers.Pinger
	Index         handlers.IndexStatus
	Sessions      *session.Store
	MaxUploadSize int64
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	// Add chi middleware
	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	// Add CORS middleware
	r.Use(CORS)

	chatHandler := handlers.NewChatHandler(deps.ChatService)
	adminHandler := handlers.NewAdminHandler(deps.AdminService, deps.MaxUploadSize)
	healthHandler := handlers.NewHealthHandler(deps.VectorStore, deps.Index, deps.Sessions)

	// Register API routes
	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)
		r.Get("/faq", chatHandler.FAQ)

		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware(deps.Sessions))

			r.Method(http.MethodPost, "/chat", chatHandler)
			r.Get("/chat/history", chatHandler.History)

			r.Route("/admin", func(r chi.Router) {
				r.Post("/login", adminHandler.Login)
				r.Post("/logout", adminHandler.Logout)
				r.Get("/documents", adminHandler.ListDocuments)
				r.Get("/documents/{id}", adminHandler.DownloadDocument)
				r.Post("/documents", adminHandler.UploadDocuments)
				r.Delete("/documents", adminHandler.DeleteDocuments)
				r.Put("/retrieval", adminHandler.SetRetrieval)
			})
		})
	})

	return r
}
