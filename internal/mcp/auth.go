package mcp

import (
	"crypto/subtle"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

const defaultMCPMaxBodyBytes int64 = 1 << 20 // 1MiB

type HTTPHandlerConfig struct {
	AuthToken       string
	RateLimitPerMin int
	MaxBodyBytes    int64
}

// wrapHTTPHandler layers auth, rate limiting, and a body size cap over
// the MCP transport. Auth runs first so unauthenticated requests never
// consume rate budget for a shared host key.
func wrapHTTPHandler(base http.Handler, cfg HTTPHandlerConfig) http.Handler {
	limit := cfg.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMCPMaxBodyBytes
	}
	limiter := newRequestLimiter(cfg.RateLimitPerMin)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		provided, ok := bearerToken(r)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if cfg.AuthToken == "" ||
			subtle.ConstantTimeCompare([]byte(provided), []byte(cfg.AuthToken)) != 1 {
			writeJSONError(w, http.StatusForbidden, "invalid bearer token")
			return
		}
		if !limiter.allow(clientKey(r)) {
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}
		base.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(authz, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	return token, token != ""
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		host = strings.TrimSpace(r.RemoteAddr)
	}
	if host == "" {
		return "unknown"
	}
	return host
}

// requestLimiter is a fixed-window per-client counter. A window lasts
// one minute; counters reset when a request arrives in a new window.
type requestLimiter struct {
	mu      sync.Mutex
	perMin  int
	windows map[string]*requestWindow
}

type requestWindow struct {
	start time.Time
	count int
}

func newRequestLimiter(perMin int) *requestLimiter {
	if perMin <= 0 {
		perMin = 60
	}
	return &requestLimiter{
		perMin:  perMin,
		windows: make(map[string]*requestWindow),
	}
}

func (l *requestLimiter) allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= time.Minute {
		l.windows[key] = &requestWindow{start: now, count: 1}
		return true
	}
	if w.count >= l.perMin {
		return false
	}
	w.count++
	return true
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
