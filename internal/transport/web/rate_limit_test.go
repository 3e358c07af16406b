package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Olprog59/go-freightdesk/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestClientAddress tests the caller IP extraction with trusted proxy validation.
func TestClientAddress(t *testing.T) {
	tests := []struct {
		name            string
		remoteAddr      string
		xForwardedFor   string
		xRealIP         string
		trustedProxies  []string
		expectedIP      string
		description     string
	}{
		{
			name:           "Direct connection (no proxy)",
			remoteAddr:     "192.168.1.100:12345",
			trustedProxies: []string{},
			expectedIP:     "192.168.1.100",
			description:    "Should extract IP from RemoteAddr when no proxy headers present",
		},
		{
			name:           "X-Forwarded-For but NO trusted proxies (secure default)",
			remoteAddr:     "10.0.0.1:8080",
			xForwardedFor:  "203.0.113.45",
			trustedProxies: []string{}, // Empty = don't trust any proxies
			expectedIP:     "10.0.0.1",
			description:    "Should ignore X-Forwarded-For when no trusted proxies configured (security)",
		},
		{
			name:           "X-Forwarded-For with trusted proxy",
			remoteAddr:     "10.0.0.1:8080",
			xForwardedFor:  "203.0.113.45",
			trustedProxies: []string{"10.0.0.1"}, // Trust this proxy
			expectedIP:     "203.0.113.45",
			description:    "Should use X-Forwarded-For when request comes from trusted proxy",
		},
		{
			name:           "X-Forwarded-For with multiple IPs and trusted proxy",
			remoteAddr:     "10.0.0.1:8080",
			xForwardedFor:  "203.0.113.45, 198.51.100.20, 192.0.2.30",
			trustedProxies: []string{"10.0.0.1"},
			expectedIP:     "203.0.113.45",
			description:    "Should extract the original client IP (first in chain) from trusted proxy",
		},
		{
			name:           "X-Forwarded-For with spaces and trusted proxy",
			remoteAddr:     "10.0.0.1:8080",
			xForwardedFor:  " 203.0.113.45 , 198.51.100.20 ",
			trustedProxies: []string{"10.0.0.1"},
			expectedIP:     "203.0.113.45",
			description:    "Should handle extra whitespace correctly",
		},
		{
			name:           "X-Real-IP with trusted proxy",
			remoteAddr:     "10.0.0.1:8080",
			xRealIP:        "203.0.113.45",
			trustedProxies: []string{"10.0.0.1"},
			expectedIP:     "203.0.113.45",
			description:    "Should use X-Real-IP when no X-Forwarded-For and proxy is trusted",
		},
		{
			name:           "X-Forwarded-For takes precedence over X-Real-IP (trusted proxy)",
			remoteAddr:     "10.0.0.1:8080",
			xForwardedFor:  "203.0.113.45",
			xRealIP:        "198.51.100.20",
			trustedProxies: []string{"10.0.0.1"},
			expectedIP:     "203.0.113.45",
			description:    "X-Forwarded-For should have priority when from trusted proxy",
		},
		{
			name:           "Untrusted proxy attempting to spoof IP",
			remoteAddr:     "99.99.99.99:8080", // Not in trusted list
			xForwardedFor:  "203.0.113.45",     // Attacker trying to spoof
			trustedProxies: []string{"10.0.0.1"},
			expectedIP:     "99.99.99.99",
			description:    "Should ignore X-Forwarded-For from untrusted source (SECURITY)",
		},
		{
			name:           "Multiple trusted proxies",
			remoteAddr:     "10.0.0.2:8080",
			xForwardedFor:  "203.0.113.45",
			trustedProxies: []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"},
			expectedIP:     "203.0.113.45",
			description:    "Should work with multiple trusted proxy IPs",
		},
		{
			name:           "IPv6 address",
			remoteAddr:     "[2001:db8::1]:12345",
			trustedProxies: []string{},
			expectedIP:     "2001:db8::1",
			description:    "Should handle IPv6 addresses correctly",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create a mock HTTP request
			req := httptest.NewRequest("GET", "http://example.com", nil)
			req.RemoteAddr = tt.remoteAddr

			// Set headers if provided
			if tt.xForwardedFor != "" {
				req.Header.Set("X-Forwarded-For", tt.xForwardedFor)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}

			// Execute the function with trusted proxies
			result := clientAddress(req, tt.trustedProxies)

			assert.Equal(t, tt.expectedIP, result, tt.description)
		})
	}
}

func TestClientAddress_EdgeCases(t *testing.T) {
	t.Run("Empty X-Forwarded-For should fall back", func(t *testing.T) {
		req := httptest.NewRequest("GET", "http://example.com", nil)
		req.RemoteAddr = "192.168.1.1:8080"
		req.Header.Set("X-Forwarded-For", "")
		trustedProxies := []string{"192.168.1.1"}

		assert.Equal(t, "192.168.1.1", clientAddress(req, trustedProxies))
	})

	t.Run("Malformed RemoteAddr (no port)", func(t *testing.T) {
		req := httptest.NewRequest("GET", "http://example.com", nil)
		req.RemoteAddr = "192.168.1.1"

		assert.Equal(t, "192.168.1.1", clientAddress(req, []string{}))
	})

	t.Run("Nil trusted proxies (secure default)", func(t *testing.T) {
		req := httptest.NewRequest("GET", "http://example.com", nil)
		req.RemoteAddr = "10.0.0.1:8080"
		req.Header.Set("X-Forwarded-For", "203.0.113.45")

		assert.Equal(t, "10.0.0.1", clientAddress(req, nil)) // Should ignore X-Forwarded-For
	})

	t.Run("Invalid IP in X-Forwarded-For with trusted proxy", func(t *testing.T) {
		req := httptest.NewRequest("GET", "http://example.com", nil)
		req.RemoteAddr = "10.0.0.1:8080"
		req.Header.Set("X-Forwarded-For", "not-an-ip")
		req.Header.Set("X-Real-IP", "203.0.113.45")
		trustedProxies := []string{"10.0.0.1"}

		result := clientAddress(req, trustedProxies)
		// An unparsable X-Forwarded-For falls back to X-Real-IP
		assert.Equal(t, "203.0.113.45", result)
	})
}

func TestAnonymiseIP(t *testing.T) {
	t.Run("Same IP produces same hash", func(t *testing.T) {
		ip := "192.168.1.1"
		assert.Equal(t, anonymiseIP(ip), anonymiseIP(ip))
	})

	t.Run("Different IPs produce different hashes", func(t *testing.T) {
		ip1 := "192.168.1.1"
		ip2 := "192.168.1.2"

		assert.NotEqual(t, anonymiseIP(ip1), anonymiseIP(ip2))
	})

	t.Run("Hash is deterministic (SHA-256)", func(t *testing.T) {
		ip := "203.0.113.45"
		expectedLength := 64 // SHA-256 hex string is 64 characters

		assert.Len(t, anonymiseIP(ip), expectedLength)
	})
}

func rateLimitedConfig() *config.Config {
	cfg := newTestConfig()
	cfg.RateLimiter = config.RateLimiterConfig{Enabled: true, RPS: 0.001, Burst: 2, BatchRPS: 0.001, BatchBurst: 1}
	return cfg
}

func TestRateLimit_Global(t *testing.T) {
	srv := newTestServer(t, rateLimitedConfig())

	// The global limiter keys on the client IP, shared by every route
	for range 2 {
		rec := srv.do(t, http.MethodGet, "/api/clients", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := srv.do(t, http.MethodGet, "/api/clients", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	body := decode[QuotaExceededResponse](t, rec)
	assert.Equal(t, "rate_limit_exceeded", body.Error)
	assert.Equal(t, http.StatusTooManyRequests, body.Code)
}

func TestRateLimit_Batch(t *testing.T) {
	cfg := rateLimitedConfig()
	cfg.RateLimiter.Burst = 100
	srv := newTestServer(t, cfg)
	srv.clients.Seed(seedBusiness("c-1", "one@acme.fr", person("Lea", true)))

	op := map[string]any{"operation": "add_tags", "client_ids": []string{"c-1"}, "data": map[string]any{"tags": []string{"air"}}}
	rec := srv.do(t, http.MethodPost, "/api/clients/batch", op)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = srv.do(t, http.MethodPost, "/api/clients/batch", op)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "10", rec.Header().Get("Retry-After"))

	// Other routes still answer for the same user
	rec = srv.do(t, http.MethodGet, "/api/clients/c-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_ByUserKeysOnSubject(t *testing.T) {
	cfg := rateLimitedConfig()
	cfg.RateLimiter.Burst = 1 // the user limiter gets twice the global burst
	srv := newTestServer(t, cfg)
	mw := NewMiddleware(t.Context(), cfg, srv.metrics, srv.tokens)
	defer mw.Stop()

	limited := mw.RateLimitByUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	call := func(userID string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
		req.RemoteAddr = "192.0.2.10:5000"
		if userID != "" {
			req = req.WithContext(WithActor(req.Context(), userID))
		}
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, call("agent-7"))
	assert.Equal(t, http.StatusNoContent, call("agent-7"))
	assert.Equal(t, http.StatusTooManyRequests, call("agent-7"))

	// Same address, different subject
	assert.Equal(t, http.StatusNoContent, call("agent-8"))
	// Anonymous callers fall back to the address
	assert.Equal(t, http.StatusNoContent, call(""))
}

func TestQuota_BucketPerCaller(t *testing.T) {
	q := NewQuota(t.Context(), "user", 1, 1, 60)
	defer q.Stop()
	now := time.Now()

	assert.Same(t, q.bucket("user_agent-7", now), q.bucket("user_agent-7", now))
	assert.NotSame(t, q.bucket("user_agent-7", now), q.bucket("user_agent-8", now))

	assert.True(t, q.allow("user_agent-9", now))
	assert.False(t, q.allow("user_agent-9", now), "burst of one is spent")
	assert.True(t, q.allow("user_agent-9", now.Add(time.Second)), "refilled after one second at 1 rps")
}

func TestQuota_SweepForgetsIdleCallers(t *testing.T) {
	q := NewQuota(t.Context(), "global", 1, 1, 60)
	defer q.Stop()
	start := time.Now()

	q.bucket("idle", start)
	q.bucket("busy", start)
	q.bucket("busy", start.Add(2*time.Minute))

	assert.Zero(t, q.sweep(start.Add(quotaIdleAfter)), "exactly idleAfter is kept")
	assert.Equal(t, 1, q.sweep(start.Add(quotaIdleAfter+time.Second)))

	q.mu.Lock()
	defer q.mu.Unlock()
	assert.Contains(t, q.callers, "busy")
	assert.NotContains(t, q.callers, "idle")
}

func TestRateLimit_DisabledPassesThrough(t *testing.T) {
	cfg := newTestConfig()
	cfg.RateLimiter.Enabled = false
	mw := NewMiddleware(t.Context(), cfg, nil, nil)
	defer mw.Stop()

	h := mw.RateLimitBatch(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for range 5 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/clients/batch", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}
