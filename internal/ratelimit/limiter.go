// Package ratelimit bounds how often a key may perform an action within a window.
package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// BucketStore counts attempts per key.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// Limiter applies one limit/window policy to namespaced keys.
type Limiter struct {
	store  BucketStore
	prefix string
	limit  int
	window time.Duration
	logger *slog.Logger
}

func NewLimiter(store BucketStore, prefix string, limit int, window time.Duration, logger *slog.Logger) *Limiter {
	return &Limiter{store: store, prefix: prefix, limit: limit, window: window, logger: logger}
}

// Allow records an attempt for key. Store failures fail open so an unavailable counter
// never blocks legitimate users.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	result, err := l.store.Allow(ctx, l.prefix+key, l.limit, l.window)
	if err != nil {
		l.logger.WarnContext(ctx, "rate limit check failed, allowing request",
			"key", l.prefix+key,
			"error", err,
		)
		return true, nil
	}
	if !result.Allowed {
		l.logger.InfoContext(ctx, "rate limit exceeded",
			"key", l.prefix+key,
			"limit", result.Limit,
			"reset_at", result.ResetAt,
		)
	}
	return result.Allowed, nil
}
