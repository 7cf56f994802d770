package lock

import (
	"context"
	"sync"

	"github.com/booksync/backend/internal/application/reconcile"
)

// MemoryScopeLocker implements reconcile.ScopeLocker with in-process channel
// semaphores. Suitable for single-instance deployments and testing.
type MemoryScopeLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewMemoryScopeLocker creates a new in-memory scope locker
func NewMemoryScopeLocker() *MemoryScopeLocker {
	return &MemoryScopeLocker{slots: make(map[string]chan struct{})}
}

func (l *MemoryScopeLocker) slotFor(scope string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[scope]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[scope] = slot
	}
	return slot
}

// Acquire blocks until the scope lock is held or ctx is done.
func (l *MemoryScopeLocker) Acquire(ctx context.Context, scope string) (func(), error) {
	slot := l.slotFor(scope)
	select {
	case slot <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() { <-slot })
		}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Ensure MemoryScopeLocker implements ScopeLocker
var _ reconcile.ScopeLocker = (*MemoryScopeLocker)(nil)
