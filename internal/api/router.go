package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds router-level settings.
type RouterConfig struct {
	RateLimitPerMinute int
	AllowedOrigins     []string
}

// NewRouter builds and returns the Chi router with all routes configured.
// Health, metrics and place routes are public; logout and me require a bearer
// session token. Rate limiting is applied per IP to every route.
func NewRouter(handlers *Handlers, auth *AuthHandlers, accounts TokenVerifier, db dbPinger, redisClient redisPinger, cfg RouterConfig, log *slog.Logger) *chi.Mux {
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = 60
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(httprate.LimitByIP(cfg.RateLimitPerMinute, time.Minute))

	r.Get("/", Root)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", HealthHandlerFunc(db, redisClient, log))
		r.Get("/geocode", handlers.Geocode)
		r.Get("/weather", handlers.Weather)
		r.Post("/pois", handlers.POIs)
		r.Post("/translate", handlers.Translate)
		r.Post("/chat", handlers.Chat)
		r.Get("/searches/recent", handlers.RecentSearches)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", auth.Signup)
			r.Post("/login", auth.Login)
			r.Post("/reset-password", auth.ResetPassword)
			r.Post("/reset-password/confirm", auth.ConfirmReset)

			r.Group(func(r chi.Router) {
				r.Use(RequireUser(accounts, log))
				r.Post("/logout", auth.Logout)
				r.Get("/me", auth.Me)
			})
		})
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
