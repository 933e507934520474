// Package api is the read-only status server run alongside the serve
// loop. It answers from the latest completed run's published snapshot
// and never touches live engine state.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/bot"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/config"
)

// Source hands out the latest completed run. Satisfied by *bot.Runner.
type Source interface {
	Latest() (*bot.RunStatus, bool)
}

// NewRouter creates the Chi router with all middleware and routes.
func NewRouter(src Source, group *config.GroupConfig, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Routes ---
	h := NewHandler(src, group)

	r.Get("/healthz", h.Healthz)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.Status)
		r.Get("/leaderboard", h.Leaderboard)
	})

	return r
}
