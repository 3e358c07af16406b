package web

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	quotaSweepEvery = 5 * time.Minute
	quotaIdleAfter  = 3 * time.Minute
)

// Quota is a table of token buckets, one per caller. A caller is an acting
// user ("user_<subject>") or a hashed client address. Callers idle for
// longer than idleAfter are swept so the table stays bounded.
//
// Quota est une table de seaux à jetons, un par appelant.
type Quota struct {
	name       string // metrics label: global, user or batch
	rate       rate.Limit
	burst      int
	retryAfter int // seconds advertised on refusal
	idleAfter  time.Duration

	mu      sync.Mutex
	callers map[string]*caller
	cancel  context.CancelFunc
}

type caller struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// NewQuota creates a quota and starts its sweeper until ctx ends or Stop is
// called / Crée un quota et démarre son nettoyage
func NewQuota(ctx context.Context, name string, rps float64, burst, retryAfter int) *Quota {
	sweepCtx, cancel := context.WithCancel(ctx)
	q := &Quota{
		name:       name,
		rate:       rate.Limit(rps),
		burst:      burst,
		retryAfter: retryAfter,
		idleAfter:  quotaIdleAfter,
		callers:    make(map[string]*caller),
		cancel:     cancel,
	}
	go q.sweepLoop(sweepCtx, quotaSweepEvery)
	return q
}

// Stop halts the sweeper / Arrête le nettoyage
func (q *Quota) Stop() {
	q.cancel()
}

// allow takes one token from the caller's bucket
func (q *Quota) allow(key string, now time.Time) bool {
	return q.bucket(key, now).AllowN(now, 1)
}

func (q *Quota) bucket(key string, now time.Time) *rate.Limiter {
	q.mu.Lock()
	defer q.mu.Unlock()

	c, ok := q.callers[key]
	if !ok {
		c = &caller{bucket: rate.NewLimiter(q.rate, q.burst)}
		q.callers[key] = c
	}
	c.lastSeen = now
	return c.bucket
}

// sweep forgets callers idle since before now-idleAfter and returns how many
func (q *Quota) sweep(now time.Time) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	removed := 0
	for key, c := range q.callers {
		if now.Sub(c.lastSeen) > q.idleAfter {
			delete(q.callers, key)
			removed++
		}
	}
	return removed
}

func (q *Quota) sweepLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			if n := q.sweep(now); n > 0 {
				slog.Debug("rate limit callers swept", "quota", q.name, "removed", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

// clientAddress is the caller's IP. Forwarding headers are honoured only
// when the connection comes from a trusted proxy: X-Forwarded-For (first
// hop) wins over X-Real-IP, and unparsable values fall through.
func clientAddress(r *http.Request, trustedProxies []string) string {
	remote, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remote = r.RemoteAddr
	}
	if !slices.Contains(trustedProxies, remote) {
		return remote
	}

	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	for _, candidate := range []string{first, r.Header.Get("X-Real-IP")} {
		if ip := strings.TrimSpace(candidate); net.ParseIP(ip) != nil {
			return ip
		}
	}
	return remote
}

// anonymiseIP keeps raw addresses out of the caller tables
func anonymiseIP(ip string) string {
	h := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(h[:])
}

// callerKey is the acting user when authenticated, the hashed address otherwise
func (mw *Middleware) callerKey(r *http.Request) string {
	if userID, ok := ActingUser(r.Context()); ok {
		return "user_" + userID
	}
	return mw.addressKey(r)
}

func (mw *Middleware) addressKey(r *http.Request) string {
	return anonymiseIP(clientAddress(r, mw.conf.Security.TrustedProxies))
}

// limit guards next with q, keyed by key. A nil quota lets everything through.
func (mw *Middleware) limit(q *Quota, key func(*http.Request) string, message string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if q == nil || !mw.conf.RateLimiter.Enabled {
				next.ServeHTTP(w, r)
				return
			}
			if !q.allow(key(r), time.Now()) {
				mw.metrics.RecordRateLimitHit(q.name)
				Logger(r.Context()).Warn("rate limit exceeded", "quota", q.name, "path", r.URL.Path)
				writeQuotaExceeded(w, message, q.retryAfter)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit applies the global per-address quota to every request /
// Applique le quota global par adresse
func (mw *Middleware) RateLimit(next http.Handler) http.Handler {
	return mw.limit(mw.globalQuota, mw.addressKey, "Too many requests. Please try again later.")(next)
}

// RateLimitByUser applies the per-user quota on record routes /
// Applique le quota par utilisateur sur les routes de fiches
func (mw *Middleware) RateLimitByUser(next http.Handler) http.Handler {
	return mw.limit(mw.userQuota, mw.callerKey, "Too many requests. Please try again later.")(next)
}

// RateLimitBatch applies the stricter bulk-operation quota per acting user /
// Applique le quota strict des opérations groupées
func (mw *Middleware) RateLimitBatch(next http.Handler) http.Handler {
	return mw.limit(mw.batchQuota, mw.callerKey, "Too many batch operations. Please try again later.")(next)
}

// Stop halts the sweepers of every quota / Arrête le nettoyage des quotas
func (mw *Middleware) Stop() {
	for _, q := range []*Quota{mw.globalQuota, mw.userQuota, mw.batchQuota} {
		if q != nil {
			q.Stop()
		}
	}
}

// QuotaExceededResponse is the 429 body / Corps de la réponse 429
type QuotaExceededResponse struct {
	Error      string    `json:"error"`
	Message    string    `json:"message"`
	Code       int       `json:"code"`
	RetryAfter int       `json:"retry_after_seconds"`
	Timestamp  time.Time `json:"timestamp"`
}

func writeQuotaExceeded(w http.ResponseWriter, message string, retryAfter int) {
	retry := strconv.Itoa(retryAfter)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-RateLimit-Retry-After", retry)
	w.Header().Set("Retry-After", retry)
	w.WriteHeader(http.StatusTooManyRequests)

	err := json.NewEncoder(w).Encode(QuotaExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    message,
		Code:       http.StatusTooManyRequests,
		RetryAfter: retryAfter,
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		slog.Warn("failed to encode rate limit response", "error", err)
	}
}
