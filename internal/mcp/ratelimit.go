package mcp

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ipRateLimiter is a per-client token bucket. Loopback clients are exempt so
// a local MCP client is never throttled by its own traffic.
type ipRateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*tokenBucket
	rps     float64
	burst   int
}

type tokenBucket struct {
	tokens  float64
	updated time.Time
}

func newIPRateLimiter(rps float64, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		buckets: make(map[string]*tokenBucket),
		rps:     rps,
		burst:   burst,
	}
}

func (l *ipRateLimiter) allow(ip string) bool {
	if l == nil || l.rps <= 0 || l.burst <= 0 {
		return true
	}

	clientIP := normalizeClientIP(ip)
	if clientIP == "" || isLoopbackClientIP(clientIP) {
		return true
	}

	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, exists := l.buckets[clientIP]
	if !exists {
		l.buckets[clientIP] = &tokenBucket{
			tokens:  float64(l.burst - 1),
			updated: now,
		}
		return true
	}

	if elapsed := now.Sub(bucket.updated).Seconds(); elapsed > 0 {
		bucket.tokens += elapsed * l.rps
		if max := float64(l.burst); bucket.tokens > max {
			bucket.tokens = max
		}
	}
	bucket.updated = now

	if bucket.tokens >= 1 {
		bucket.tokens--
		return true
	}
	return false
}

func (l *ipRateLimiter) cleanup(maxAge time.Duration) {
	if l == nil || maxAge <= 0 {
		return
	}

	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	for ip, bucket := range l.buckets {
		if bucket == nil || now.Sub(bucket.updated) > maxAge {
			delete(l.buckets, ip)
		}
	}
}

func realIP(r *http.Request) string {
	if r == nil {
		return ""
	}

	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}

	remote := strings.TrimSpace(r.RemoteAddr)
	if remote == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		return remote
	}
	return host
}

func normalizeClientIP(ip string) string {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return ""
	}
	if strings.EqualFold(ip, "localhost") {
		return "localhost"
	}

	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	ip = strings.Trim(ip, "[]")
	if zone := strings.Index(ip, "%"); zone >= 0 {
		ip = ip[:zone]
	}

	if parsed := net.ParseIP(ip); parsed != nil {
		return parsed.String()
	}
	return strings.ToLower(ip)
}

func isLoopbackClientIP(ip string) bool {
	if strings.EqualFold(strings.TrimSpace(ip), "localhost") {
		return true
	}
	parsed := net.ParseIP(strings.TrimSpace(ip))
	return parsed != nil && parsed.IsLoopback()
}
