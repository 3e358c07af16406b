package web

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Olprog59/go-freightdesk/internal/config"
	"github.com/Olprog59/go-freightdesk/internal/metrics"
	"github.com/Olprog59/go-freightdesk/internal/service/auth"
	"github.com/google/uuid"
)

const (
	bearerPrefix    = "Bearer "
	RequestIDHeader = "X-Request-ID"
)

// RequestID generates unique request ID / Génère un ID unique pour la requête
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, requestID)

		// Add request ID to logger context for tracing
		ctx := context.WithValue(r.Context(), requestIDContextKey, requestID)
		ctx = context.WithValue(ctx, loggerContextKey, slog.With("request_id", requestID))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Logger returns the request-scoped logger / Retourne le logger de la requête
func Logger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// Logging logs HTTP requests and prevents token leaks / Enregistre les requêtes et prévient les fuites
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		if strings.Contains(r.URL.RawQuery, "access_token=") ||
			strings.Contains(r.URL.RawQuery, bearerPrefix) {
			slog.Error("🚨 TOKEN LEAK DETECTED", "path", r.URL.Path, "ip", r.RemoteAddr)
			ErrorResponse(w, "tokens must not be sent in the query string", http.StatusForbidden)
			return
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		Logger(r.Context()).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"remote", r.RemoteAddr,
			"duration", time.Since(start),
		)
	})
}

// MetricsMiddleware tracks HTTP request metrics / Suit les métriques des requêtes HTTP
func (m *Middleware) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		m.metrics.IncrementActiveConnections()
		defer m.metrics.DecrementActiveConnections()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		// The route pattern keeps label cardinality bounded
		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		m.metrics.RecordHTTPRequest(r.Method, path, rw.statusCode)
		m.metrics.RecordHTTPDuration(r.Method, path, time.Since(start))
	})
}

// Timeout bounds the request context / Borne le contexte de la requête
func Timeout(duration time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, duration, `{"error":"request timeout"}`)
	}
}

// Middleware holds middleware configuration and dependencies / Contient la configuration middleware
type Middleware struct {
	conf        *config.Config
	globalQuota *Quota
	userQuota   *Quota
	batchQuota  *Quota
	metrics     *metrics.Metrics
	tokens      *auth.Verifier
}

// responseWriter wraps ResponseWriter to capture status / Encapsule ResponseWriter pour capturer le statut
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures status code / Capture le code de statut
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// NewMiddleware creates middleware with rate limiters / Crée le middleware avec limiteurs
func NewMiddleware(ctx context.Context, conf *config.Config, metrics *metrics.Metrics, tokens *auth.Verifier) *Middleware {
	mw := &Middleware{
		conf:    conf,
		metrics: metrics,
		tokens:  tokens,
	}

	if conf.RateLimiter.Enabled {
		mw.globalQuota = NewQuota(ctx, "global", conf.RateLimiter.RPS, conf.RateLimiter.Burst, 60)
		mw.userQuota = NewQuota(ctx, "user", conf.RateLimiter.RPS*2, conf.RateLimiter.Burst*2, 60)

		batchRPS, batchBurst := conf.RateLimiter.BatchRPS, conf.RateLimiter.BatchBurst
		if batchRPS <= 0 {
			batchRPS = conf.RateLimiter.RPS / 10
		}
		if batchBurst <= 0 {
			batchBurst = 1
		}
		if conf.IsProduction() {
			batchRPS = batchRPS / 2
		}
		mw.batchQuota = NewQuota(ctx, "batch", batchRPS, batchBurst, 10)
	}

	return mw
}

// Auth verifies the bearer token and stores the acting user / Vérifie le token et enregistre l'utilisateur agissant
func (m *Middleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization := r.Header.Get("Authorization")
		if !strings.HasPrefix(authorization, bearerPrefix) {
			w.Header().Set("WWW-Authenticate", `Bearer realm="freightdesk"`)
			ErrorResponse(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		tokenStr := strings.TrimPrefix(authorization, bearerPrefix)

		claims, err := m.tokens.ValidateJWT(tokenStr)
		if err != nil {
			m.metrics.RecordInvalidToken()
			Logger(r.Context()).Warn("rejected bearer token", "error", err)
			w.Header().Set("WWW-Authenticate", `Bearer realm="freightdesk", error="invalid_token"`)
			ErrorResponse(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		ctx = WithActor(ctx, claims.Subject)
		ctx = context.WithValue(ctx, loggerContextKey, Logger(ctx).With("actor", claims.Subject))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Cors handles CORS headers / Gère les en-têtes CORS
func (m *Middleware) Cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		for _, allowed := range m.conf.Cors.AllowedOrigins {
			if allowed == "*" || allowed == origin {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
				break
			}
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, If-Match, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// SecurityHeaders adds security headers / Ajoute les en-têtes de sécurité
func (m *Middleware) SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// JSON API only: nothing may be framed, scripted or embedded
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")

		// Strict Transport Security - Enforce HTTPS (only in production)
		if m.conf.IsProd() {
			w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
		}

		next.ServeHTTP(w, r)
	})
}
