package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/openclaw/pairing-relay-go/internal/config"
	"github.com/openclaw/pairing-relay-go/internal/handler"
	"github.com/openclaw/pairing-relay-go/internal/middleware"
	"github.com/openclaw/pairing-relay-go/internal/notify"
	"github.com/openclaw/pairing-relay-go/internal/service"
)

type routerDeps struct {
	cfg      *config.Config
	registry *service.Registry
	hub      *notify.Hub
	status   *service.StatusService
	premium  *service.PremiumService
	limiter  service.Limiter
}

func newRouter(d routerDeps) http.Handler {
	pairingHandler := handler.NewPairingHandler(d.registry, d.status)
	premiumHandler := handler.NewPremiumHandler(d.premium)
	eventsHandler := handler.NewEventsHandler(d.hub, d.status)
	socketHandler := handler.NewSocketHandler(d.hub, d.status, d.cfg.AllowedOrigins())
	healthHandler := handler.NewHealthHandler(d.registry, d.hub)
	staticHandler := handler.NewStaticHandler(d.cfg.StaticDir)

	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(d.cfg.IsProduction())
	limit := func(scope string) func(http.Handler) http.Handler {
		return middleware.NewIPRateLimitMiddleware(d.limiter, d.cfg.RateLimitPerMin, config.RateLimitWindow, scope).Handler
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(securityHeadersMiddleware.Handler)

	r.Method(http.MethodGet, "/health", healthHandler)

	// Push channels stay open well past the request timeout.
	r.Method(http.MethodGet, "/api/pairing-events/{code}", eventsHandler)
	r.Method(http.MethodGet, "/ws", socketHandler)

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
		r.Use(bodyLimitMiddleware.Handler)

		r.With(limit("generate")).Post("/api/generate-pairing-code", pairingHandler.Generate)
		r.With(limit("verify")).Post("/api/verify-pairing-code", pairingHandler.Verify)
		r.Get("/api/pairing-status/{code}", pairingHandler.Status)
		r.With(limit("premium")).Post("/api/validate-premium-code", premiumHandler.Validate)
	})

	r.NotFound(staticHandler.ServeHTTP)

	return r
}
