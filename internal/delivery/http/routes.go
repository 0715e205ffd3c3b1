package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bibee/backend/internal/middleware"
)

// NewRouter mounts the API under /api. metrics may be nil.
func NewRouter(handler *Handler, health *HealthHandler, authMiddleware *middleware.AuthMiddleware, allowedOrigins []string, metrics http.Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metrics != nil {
		r.Handle("/metrics", metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/health", func(r chi.Router) {
			r.Get("/", health.Health)
			r.Get("/detailed", health.Detailed)
			r.Get("/ready", health.Ready)
			r.Get("/live", health.Live)
		})

		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", handler.Register)
			r.Post("/login", handler.Login)
			r.Post("/refresh", handler.RefreshToken)
			r.Post("/logout", handler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.Authenticate)
				r.Post("/revoke-all", handler.RevokeAll)
			})
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Get("/users/me", handler.GetCurrentUser)
			r.Get("/users/me/security-events", handler.ListMySecurityEvents)

			r.Route("/voices", func(r chi.Router) {
				r.Get("/", handler.ListPersonas)
				r.Post("/", handler.CreatePersona)
				r.Get("/{id}", handler.GetPersona)
				r.Patch("/{id}", handler.UpdatePersona)
				r.Delete("/{id}", handler.DeletePersona)
			})

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", handler.ListProjects)
				r.Post("/", handler.CreateProject)
				r.Get("/{id}", handler.GetProject)
				r.Patch("/{id}", handler.UpdateProject)
				r.Delete("/{id}", handler.DeleteProject)
			})

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.AdminOnly)
				r.Get("/admin/security-events", handler.AdminListSecurityEvents)
			})
		})
	})

	return r
}
