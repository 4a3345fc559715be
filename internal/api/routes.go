package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds the cross-cutting HTTP settings.
type RouterConfig struct {
	Tokens             TokenValidator
	CORSAllowedOrigins []string
	RateLimitRequests  int
	RateLimitWindow    time.Duration

	// VideoRoot, when set, is served as static files under VideoURLPrefix.
	VideoRoot      string
	VideoURLPrefix string
}

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	if cfg.VideoRoot != "" {
		prefix := "/" + strings.Trim(cfg.VideoURLPrefix, "/")
		fs := http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.VideoRoot)))
		r.Handle(prefix+"/*", fs)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Public routes
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Get("/categories", h.Categories)

		// Protected routes (bearer token required)
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.Tokens))
			r.Get("/next-video", h.NextVideo)
			r.Post("/interact", h.Interact)
			r.Get("/preferences", h.Preferences)
		})
	})

	return r
}

// rateLimit limits requests per client IP. A non-positive limit disables it.
func rateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	if requests <= 0 || window <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			WriteProblem(w, r, http.StatusTooManyRequests, "Rate limit exceeded")
		}),
	)
}
