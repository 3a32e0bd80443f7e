package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether one more request for key fits in the window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// memoryLimiter is a per-process sliding window limiter.
type memoryLimiter struct {
	mu        sync.Mutex
	visitors  map[string][]time.Time
	rate      int
	window    time.Duration
	now       func() time.Time
	lastPrune time.Time
}

// NewMemoryLimiter allows rate requests per window per key.
func NewMemoryLimiter(rate int, window time.Duration) Limiter {
	return &memoryLimiter{
		visitors: make(map[string][]time.Time),
		rate:     rate,
		window:   window,
		now:      time.Now,
	}
}

func (rl *memoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)
	if now.Sub(rl.lastPrune) > rl.window {
		rl.prune(cutoff)
		rl.lastPrune = now
	}

	valid := rl.visitors[key][:0]
	for _, t := range rl.visitors[key] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) >= rl.rate {
		rl.visitors[key] = valid
		return false, nil
	}
	rl.visitors[key] = append(valid, now)
	return true, nil
}

// prune drops keys with no requests after cutoff. Callers hold mu.
func (rl *memoryLimiter) prune(cutoff time.Time) {
	for key, reqs := range rl.visitors {
		if len(reqs) == 0 || !reqs[len(reqs)-1].After(cutoff) {
			delete(rl.visitors, key)
		}
	}
}

// redisLimiter is a fixed window counter shared by every replica.
type redisLimiter struct {
	client redis.Cmdable
	rate   int
	window time.Duration
	prefix string
}

// NewRedisLimiter counts requests with INCR. The key expires after window;
// a key found without a TTL gets one on the next request.
func NewRedisLimiter(client redis.Cmdable, rate int, window time.Duration) Limiter {
	return &redisLimiter{client: client, rate: rate, window: window, prefix: "sfd:ratelimit:"}
}

func (rl *redisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := rl.prefix + key
	pipe := rl.client.Pipeline()
	incr := pipe.Incr(ctx, k)
	ttl := pipe.TTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("rate limit incr: %w", err)
	}

	allowed := incr.Val() <= int64(rl.rate)
	if ttl.Val() < 0 {
		if err := rl.client.Expire(ctx, k, rl.window).Err(); err != nil {
			return allowed, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	return allowed, nil
}

// rateLimited applies the configured limiter per client IP and route. A
// limiter backend error lets the request through.
func (s *Server) rateLimited(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path + "|" + getClientIP(r)
		ok, err := s.limiter.Allow(r.Context(), key)
		if err != nil {
			s.reqLog(r, "rate_limit").WithError(err).Warn("limiter unavailable")
		}
		if !ok {
			writeErrorMsg(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// getClientIP prefers proxy headers and falls back to RemoteAddr.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i, c := range xff {
			if c == ',' {
				return xff[:i]
			}
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	for i := len(r.RemoteAddr) - 1; i >= 0; i-- {
		if r.RemoteAddr[i] == ':' {
			return r.RemoteAddr[:i]
		}
	}
	return r.RemoteAddr
}
