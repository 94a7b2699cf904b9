package service

import (
	"context"
	"fmt"
	"sync"
)

type inMemoryTxKey struct{}

// InMemoryTx serializes transactional callbacks with a process-wide mutex. The in-memory
// stores apply writes immediately, so callbacks order their writes so that the last one
// is the only one that can fail after a state change.
type InMemoryTx struct {
	mu sync.Mutex
}

func NewInMemoryTx() *InMemoryTx {
	return &InMemoryTx{}
}

func (t *InMemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(inMemoryTxKey{}) != nil {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transaction aborted: %w", err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(context.WithValue(ctx, inMemoryTxKey{}, t))
}
