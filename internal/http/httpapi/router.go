package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"vidforge/internal/http/handlers"
	"vidforge/internal/infra"
	"vidforge/internal/middleware"
)

// NewRouter assembles the API surface. Provider-facing routes share a
// rate limit so a burst of submissions cannot hammer the upstream APIs.
func NewRouter(app *handlers.App, cfg *infra.Config, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(middleware.CORS(cfg.CORSOrigins))
	}

	r.Get("/v1/healthz", app.Health)

	r.Route("/api", func(r chi.Router) {
		limited := r.With(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))
		limited.Post("/generate", app.Generate)
		limited.Post("/enhance", app.Enhance)

		r.Post("/generate/poll", app.Poll)
		r.Post("/generate/download", app.Download)

		r.Get("/models", app.Models)
		r.Get("/prompts/suggestions", app.PromptSuggestions)
		r.Get("/credits", app.Credits)
		r.Delete("/error", app.DismissError)

		r.Route("/videos", func(r chi.Router) {
			r.Get("/", app.VideosList)
			r.Get("/{id}", app.VideoGet)
			r.Delete("/{id}", app.VideoDelete)
			r.Post("/{id}/favorite", app.VideoFavorite)
		})

		r.Route("/storyboard", func(r chi.Router) {
			r.Get("/", app.StoryboardList)
			r.Post("/", app.StoryboardAdd)
			r.Delete("/{index}", app.StoryboardRemove)
			r.With(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute)).Post("/generate", app.StoryboardGenerate)
		})

		r.Route("/keys", func(r chi.Router) {
			r.Get("/", app.KeysList)
			r.Put("/{provider}", app.KeySet)
			r.Delete("/{provider}", app.KeyDelete)
		})
	})

	return r
}
