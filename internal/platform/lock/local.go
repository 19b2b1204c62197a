package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shauritanga/twa-system/internal/apperrors"
	portsrepo "github.com/shauritanga/twa-system/internal/core/ports/repositories"
)

// LocalLocker is an in-process Locker for single-instance runs.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

// NewLocalLocker creates an empty locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]chan struct{})}
}

var _ portsrepo.Locker = (*LocalLocker)(nil)

type localLock struct {
	owner *LocalLocker
	key   string
	done  chan struct{}
	once  sync.Once
}

func (l *localLock) Release(context.Context) error {
	l.once.Do(func() {
		l.owner.mu.Lock()
		if l.owner.held[l.key] == l.done {
			delete(l.owner.held, l.key)
		}
		l.owner.mu.Unlock()
		close(l.done)
	})
	return nil
}

// Obtain waits up to ttl for the key to become free.
func (l *LocalLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (portsrepo.Lock, error) {
	timer := time.NewTimer(ttl)
	defer timer.Stop()

	for {
		l.mu.Lock()
		waitOn, busy := l.held[key]
		if !busy {
			done := make(chan struct{})
			l.held[key] = done
			l.mu.Unlock()
			return &localLock{owner: l, key: key, done: done}, nil
		}
		l.mu.Unlock()

		select {
		case <-waitOn:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, fmt.Errorf("%w: lock %s is held", apperrors.ErrConcurrencyConflict, key)
		}
	}
}
