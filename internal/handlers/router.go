package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"codeclash/internal/config"
	"codeclash/internal/middleware"
)

// RouterOptions allows customization of router setup for tests
type RouterOptions struct {
	DisableRateLimiting  bool
	DisableRequestLogger bool
	CustomMiddleware     []func(http.Handler) http.Handler
}

// SetupRouter creates the application router with all routes and middleware
func SetupRouter(h *Handler, cfg *config.ServerConfig, opts *RouterOptions) *chi.Mux {
	if opts == nil {
		opts = &RouterOptions{}
	}

	r := chi.NewRouter()

	if !opts.DisableRequestLogger {
		r.Use(middleware.RequestLogger(h.logger))
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders())

	if !opts.DisableRateLimiting {
		rateLimiter := middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateLimitBurst)
		r.Use(rateLimiter.Middleware())
	}

	for _, mw := range opts.CustomMiddleware {
		r.Use(mw)
	}

	// The websocket upgrade lives outside the timeout group; the stream is
	// long-lived by design.
	r.Get("/api/rooms/{roomID}/ws", h.ServeWS)

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))
		r.Use(middleware.RequestSizeLimiter(cfg.Server.MaxRequestSize))

		// Room lifecycle
		r.Post("/api/rooms", h.CreateRoom)
		r.Post("/api/rooms/{roomID}/join", h.JoinRoom)
		r.Get("/api/rooms/{roomID}/qr", h.RoomQR)

		// Party side channel for external gateways
		r.Post("/parties/{name}/{roomID}/register", h.RegisterPlayer)
		r.Get("/parties/{name}/{roomID}/state", h.RoomState)
	})

	// Health check endpoints (no auth required)
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if h.rooms == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("rooms not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
