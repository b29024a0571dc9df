package locks

import (
	"context"
	"sort"
	"sync"

	"github.com/opencare/care-scheduler/internal/httperr"
)

// Locker serializes check-then-write sequences per resource key. Acquire
// blocks until every key is held or ctx expires; callers bound the wait
// with a context deadline and receive a retryable busy error on expiry.
type Locker interface {
	Acquire(ctx context.Context, keys []string) (release func(), err error)
}

// sortKeys copies and orders keys so every caller acquires overlapping
// sets in the same deterministic order.
func sortKeys(keys []string) []string {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)
	return sorted
}

// MemoryLocker is the in-process implementation, sufficient for a single
// server instance and for tests.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]chan struct{})}
}

func (l *MemoryLocker) acquireOne(ctx context.Context, key string) error {
	for {
		l.mu.Lock()
		waiter, taken := l.held[key]
		if !taken {
			l.held[key] = make(chan struct{})
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		select {
		case <-waiter:
			// Holder released; race for it again.
		case <-ctx.Done():
			return httperr.Busy()
		}
	}
}

func (l *MemoryLocker) releaseOne(key string) {
	l.mu.Lock()
	waiter := l.held[key]
	delete(l.held, key)
	l.mu.Unlock()
	if waiter != nil {
		close(waiter)
	}
}

func (l *MemoryLocker) Acquire(ctx context.Context, keys []string) (func(), error) {
	sorted := sortKeys(keys)

	acquired := make([]string, 0, len(sorted))
	for _, key := range sorted {
		if err := l.acquireOne(ctx, key); err != nil {
			for i := len(acquired) - 1; i >= 0; i-- {
				l.releaseOne(acquired[i])
			}
			return nil, err
		}
		acquired = append(acquired, key)
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			for i := len(acquired) - 1; i >= 0; i-- {
				l.releaseOne(acquired[i])
			}
		})
	}
	return release, nil
}
