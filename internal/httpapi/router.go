// Package httpapi wires the render service routes.
package httpapi

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ivlev/reelforge/internal/httpapi/handlers"
	"github.com/ivlev/reelforge/internal/httpkit"
)

func NewRouter(d handlers.Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	origins := httpkit.SplitCSV(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins: origins,
		ExposedHeaders: []string{"X-Render-ID"},
	}))

	h := handlers.New(d)

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/generate-script", h.GenerateScript)
		r.Post("/optimize-keywords", h.OptimizeKeywords)
		r.Get("/stock-image", h.StockImage)
		r.Post("/render", h.Render)
	})

	return r
}
