package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/dograga/compliance-checks/internal/config"
	"github.com/dograga/compliance-checks/internal/middleware"
)

// NewRouter assembles the HTTP routes and middleware stack. Mutating
// endpoints require a bearer token when JWT_SECRET is configured.
func NewRouter(h *Handler, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))

	requireAuth := func(next http.Handler) http.Handler { return next }
	if cfg.JWTSecret != "" {
		requireAuth = middleware.BearerAuth([]byte(cfg.JWTSecret))
	}

	r.Get("/health", h.Health)
	r.Get("/check/{projectID}", h.RunChecks)

	r.Route("/projects/{projectID}", func(r chi.Router) {
		r.Get("/vm-iam-policies", h.VMPolicies)
		r.Get("/bucket-iam-policies", h.BucketPolicies)
		r.With(requireAuth).Post("/iam-data", h.SaveIAMData)
	})

	r.Route("/compliance-data", func(r chi.Router) {
		r.Get("/", h.ListRecords)
		r.Get("/analysis", h.Analyze)
		r.Get("/{docID}", h.GetRecord)
		r.With(requireAuth).Post("/collect", h.Collect)
		r.With(requireAuth).Delete("/{docID}", h.DeleteRecord)
	})

	return r
}
