package web

import (
	"context"
	"net/http"
	"time"

	"github.com/Olprog59/go-freightdesk/internal/app"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewMux creates and configures the HTTP router / Crée et configure le routeur HTTP
//
// ctx bounds the rate limiter cleanup goroutines.
func NewMux(ctx context.Context, h *Handler, container *app.Container) http.Handler {
	conf := container.Config
	mux := http.NewServeMux()
	mw := NewMiddleware(ctx, conf, container.Metrics, container.Tokens)

	// Health check endpoints (no auth, no rate limiting for load balancers)
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /readiness", h.ReadinessCheck)

	// Scraped from inside the cluster; keep it off the public ingress
	mux.Handle("GET /metrics", promhttp.HandlerFor(container.Gatherer, promhttp.HandlerOpts{}))

	mux.Handle("POST /api/clients", chain(h.CreateClient, mw, mw.Auth, mw.RateLimitByUser))
	mux.Handle("GET /api/clients", chain(h.ListClients, mw, mw.Auth, mw.RateLimitByUser))
	mux.Handle("POST /api/clients/validate", chain(h.ValidateClient, mw, mw.Auth, mw.RateLimitByUser))
	mux.Handle("POST /api/clients/search", chain(h.SearchClients, mw, mw.Auth, mw.RateLimitByUser))
	mux.Handle("POST /api/clients/batch", chain(h.ExecuteBatch, mw, mw.Auth, mw.RateLimitBatch))

	mux.Handle("GET /api/clients/{id}", chain(h.GetClient, mw, mw.Auth, mw.RateLimitByUser))
	mux.Handle("PATCH /api/clients/{id}", chain(h.UpdateClient, mw, mw.Auth, mw.RateLimitByUser))
	mux.Handle("DELETE /api/clients/{id}", chain(h.DeleteClient, mw, mw.Auth, mw.RateLimitByUser))

	mux.Handle("POST /api/clients/{id}/contacts", chain(h.AddContact, mw, mw.Auth, mw.RateLimitByUser))
	mux.Handle("PATCH /api/clients/{id}/contacts/{index}", chain(h.UpdateContact, mw, mw.Auth, mw.RateLimitByUser))
	mux.Handle("DELETE /api/clients/{id}/contacts/{index}", chain(h.RemoveContact, mw, mw.Auth, mw.RateLimitByUser))

	// Global middlewares - applied in reverse order / Middlewares globaux appliqués en ordre inverse
	var handler http.Handler = mux
	handler = mw.MetricsMiddleware(handler) // Metrics first to capture everything
	handler = mw.RateLimit(handler)
	handler = mw.SecurityHeaders(handler)
	handler = mw.Cors(handler)
	handler = Timeout(30 * time.Second)(handler) // 30s timeout for all requests / Timeout de 30s pour toutes les requêtes
	handler = Logging(handler)                   // Logging includes request ID
	handler = RequestID(handler)                 // RequestID first - generates ID for all middleware

	return handler
}

// chain applies middleware to HTTP handler / Applique les middlewares au gestionnaire HTTP
func chain(f http.HandlerFunc, mw *Middleware, middlewares ...func(http.Handler) http.Handler) http.Handler {
	var handler http.Handler = f

	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}

	return handler
}
