package router

import (
	"net/http"

	"image-pipeline/internal/http-server/handler/images"
	"image-pipeline/internal/http-server/middleware"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	ImagesHandler *images.ImagesHandler
}

func SetupRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.LoggingMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.CORSMiddleware)

		r.Route("/images", func(r chi.Router) {
			r.Get("/thumbnail", h.ImagesHandler.Thumbnail)
			r.Post("/upload", h.ImagesHandler.Upload)
			r.Get("/resolve", h.ImagesHandler.Resolve)
		})

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})
	})

	return r
}
