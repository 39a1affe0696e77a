package api

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/stagepass/stagepass-server/internal/ratelimit"
)

// RateLimiter throttles requests per client IP.
type RateLimiter = ratelimit.KeyedRateLimiter

// NewRateLimiter allows perInterval requests per interval per client, with burst.
func NewRateLimiter(perInterval int, interval time.Duration, burst int) *RateLimiter {
	return ratelimit.PerInterval(perInterval, interval, burst)
}

// rateLimit is a huma operation middleware that rejects a client over its
// budget with 429.
func (s *Server) rateLimit(limiter *RateLimiter) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if limiter == nil {
			next(ctx)
			return
		}

		key := clientIP(ctx.Header, ctx.RemoteAddr())
		if !limiter.Allow(key) {
			s.logger.Warn("rate limit exceeded",
				"ip", key,
				"path", ctx.URL().Path,
			)
			ctx.SetHeader("Retry-After", "60")
			_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "Too many requests. Please try again later.")
			return
		}
		next(ctx)
	}
}

// clientIP picks the client address from X-Forwarded-For, then X-Real-IP,
// then the connection's remote address.
func clientIP(header func(string) string, remoteAddr string) string {
	if xff := header("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := header("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
