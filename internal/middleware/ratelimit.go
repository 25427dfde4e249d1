package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Proton-105/reminder-service/internal/ratelimit"
)

// RateLimit caps request rates on the network-fanout endpoints, where a
// single click can trigger broker and dispatcher calls.
type RateLimit struct {
	limiter ratelimit.Limiter
	limit   int
	window  time.Duration
	log     *slog.Logger
}

// NewRateLimit constructs a rate-limit middleware component.
func NewRateLimit(limiter ratelimit.Limiter, limit int, window time.Duration, log *slog.Logger) *RateLimit {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimit{
		limiter: limiter,
		limit:   limit,
		window:  window,
		log:     log,
	}
}

// Handle enforces the limit keyed by request path. Limiter failures fail
// open: a broken Redis must not lock the user out of their own reminders.
func (m *RateLimit) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.limiter == nil || m.limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		result, err := m.limiter.Check(r.Context(), r.URL.Path, m.limit, m.window)
		if err != nil {
			m.log.Warn("rate limiter error", slog.String("path", r.URL.Path), slog.Any("error", err))
			next.ServeHTTP(w, r)
			return
		}

		if !result.Allowed {
			m.log.Warn("rate limit exceeded", slog.String("path", r.URL.Path))
			w.Header().Set("Retry-After", result.ResetAt.UTC().Format(http.TimeFormat))
			http.Error(w, "rate limit exceeded, try again later", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
