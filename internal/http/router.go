package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RouterConfig wires handlers and cross-cutting concerns into the router.
// Nil handlers leave their routes unmounted.
type RouterConfig struct {
	Auth           *AuthHandler
	Catalog        *CatalogHandler
	Availability   *AvailabilityHandler
	Appointments   *AppointmentHandler
	Tokens         TokenVerifier
	RateLimiter    *RateLimiter
	MetricsHandler http.Handler
	Logger         *slog.Logger
	ServiceName    string
}

// NewRouter builds the chi router wrapped in OpenTelemetry instrumentation.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		newResponder(cfg.Logger).writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	limited := func(h http.HandlerFunc) http.Handler {
		if cfg.RateLimiter == nil {
			return h
		}
		return cfg.RateLimiter.Middleware(cfg.Logger)(h)
	}
	requireSession := func(next http.Handler) http.Handler { return next }
	if cfg.Tokens != nil {
		requireSession = RequireSession(cfg.Tokens, cfg.Logger)
	}

	if cfg.Auth != nil {
		r.Method(http.MethodPost, "/sessions", limited(cfg.Auth.CreateSession))
		r.Method(http.MethodPost, "/users", limited(cfg.Auth.Register))
		r.With(requireSession).Get("/sessions/current", cfg.Auth.CurrentSession)
		r.With(requireSession).Delete("/sessions/current", cfg.Auth.DeleteCurrentSession)
	}

	if cfg.Catalog != nil {
		r.Get("/providers", cfg.Catalog.ListProviders)
		r.Get("/services", cfg.Catalog.ListServices)
		r.Get("/quote", cfg.Catalog.Quote)
	}

	if cfg.Availability != nil {
		r.Route("/providers/{providerID}", func(pr chi.Router) {
			pr.Get("/availability", cfg.Availability.List)
			pr.Get("/dates", cfg.Availability.Dates)
			pr.Get("/availability/{date}/hours", cfg.Availability.Hours)
			pr.Group(func(owner chi.Router) {
				owner.Use(requireSession)
				owner.Put("/availability/{date}", cfg.Availability.Put)
				owner.Delete("/availability/{date}", cfg.Availability.Delete)
			})
		})
	}

	if cfg.Appointments != nil {
		r.Group(func(ar chi.Router) {
			ar.Use(requireSession)
			ar.Get("/appointments", cfg.Appointments.List)
			ar.Post("/appointments", cfg.Appointments.Create)
		})
	}

	name := cfg.ServiceName
	if name == "" {
		name = "barberd"
	}
	return otelhttp.NewHandler(r, name)
}
