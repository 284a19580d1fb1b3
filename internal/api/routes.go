package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rankforge/rankforge/internal/auth"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler, verifier *auth.Verifier) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	// The dashboard is served from arbitrary origins (preview deploys), so
	// the API is CORS-open; auth happens per request via bearer token.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes (no auth required)
		r.Get("/health", h.Health)

		// Protected routes (auth required)
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(verifier))

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", h.ListProjects)
				r.Post("/", h.CreateProject)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.GetProject)
					r.Patch("/", h.UpdateProject)
					r.Delete("/", h.DeleteProject)
					r.Put("/strategy", h.SetStrategy)

					r.Get("/articles", h.ListArticles)
					r.Post("/articles", h.AddArticle)

					r.Get("/shares", h.ListShares)
					r.Post("/shares", h.CreateShare)
					r.Delete("/shares/{shareID}", h.DeleteShare)

					r.Post("/batch", h.StartBatch)
					r.Get("/batch", h.BatchStatus)
					r.Delete("/batch", h.CancelBatch)
				})
			})

			r.Route("/articles/{id}", func(r chi.Router) {
				r.Get("/", h.GetArticle)
				r.Patch("/", h.UpdateArticle)
				r.Delete("/", h.DeleteArticle)
			})

			r.Route("/settings", func(r chi.Router) {
				r.Get("/", h.GetSettings)
				r.Patch("/", h.UpdateSettings)
				r.Get("/keys", h.GetAPIKeys)
			})

			r.Route("/generate", func(r chi.Router) {
				r.Post("/analyze-website", h.AnalyzeWebsite)
				r.Post("/strategy", h.GenerateStrategy)
				r.Post("/persona", h.GeneratePersona)
				r.Post("/titles", h.GenerateTitles)
				r.Post("/keywords", h.GenerateKeywords)
				r.Post("/article", h.GenerateArticle)
				r.Post("/validate-key", h.ValidateKey)
			})

			r.Post("/publish", h.Publish)
			r.Post("/publish/validate", h.ValidateWordPress)
		})
	})

	return r
}
