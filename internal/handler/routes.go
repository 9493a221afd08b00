package handler

import (
	"io/fs"
	"net/http"

	"github.com/coderunr/editor/internal/middleware"
	"github.com/coderunr/editor/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Router builds the editor server's routes
func (h *Handler) Router(bodyLimit int64) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.CORS())
	r.Use(middleware.BodyLimit(bodyLimit))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/languages", h.GetLanguages)
		r.Get("/languages/{language}", h.GetLanguage)

		r.Group(func(r chi.Router) {
			r.Use(middleware.JSON)
			r.Post("/sessions", h.CreateSession)
			r.Get("/sessions", h.ListSessions)
			r.Get("/sessions/{id}", h.GetSession)
			r.Delete("/sessions/{id}", h.DeleteSession)
			r.Put("/sessions/{id}/buffer", h.UpdateBuffer)
			r.Post("/sessions/{id}/run", h.RunSession)
		})

		// WebSocket route (no JSON middleware)
		r.Get("/sessions/{id}/ws", h.HandleWebSocket)
	})

	r.Get("/version", h.GetVersion)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Handle("/*", staticHandler())

	return r
}

// staticHandler serves the embedded editor page
func staticHandler() http.Handler {
	static, _ := fs.Sub(web.Assets, "static")
	return http.FileServer(http.FS(static))
}
