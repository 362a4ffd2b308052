package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Strob0t/runhooks/internal/middleware"
)

// RouteConfig carries the settings MountRoutes needs beyond the handlers.
type RouteConfig struct {
	// EventSecret returns the key that signs POST /api/v1/events/run. An
	// empty key disables the route (503).
	EventSecret func() string
	// EventConcurrency caps in-flight event requests; 0 means 64.
	EventConcurrency int
}

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers, cfg RouteConfig) {
	if cfg.EventConcurrency <= 0 {
		cfg.EventConcurrency = 64
	}
	if cfg.EventSecret == nil {
		cfg.EventSecret = func() string { return "" }
	}

	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"version": h.Version})
		})

		// Hook settings form
		r.Get("/hooks/options", h.Options)
		r.Route("/projects/{projectId}/hooks", func(r chi.Router) {
			r.Get("/", h.ListHooks())
			r.Post("/", h.CreateHook())
			r.Get("/{hookId}", h.GetHook())
			r.Put("/{hookId}", h.UpdateHook())
			r.Delete("/{hookId}", h.DeleteHook())
		})

		// Run events from the director (alternative to NATS)
		r.With(
			chimw.Throttle(cfg.EventConcurrency),
			middleware.WebhookHMACFunc(cfg.EventSecret),
		).Post("/events/run", h.HandleRunEvent)
	})
}
