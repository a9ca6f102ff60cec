// Package lock provides keyed mutual exclusion, either in process or
// across instances through Redis.
package lock

import (
	"context"
	"errors"
	"sync"
)

var ErrNotAcquired = errors.New("lock not acquired")

// Release gives the lock back. Calling it more than once is a no-op.
type Release func(ctx context.Context) error

// Locker serializes work per key. Lock blocks until the key is free or
// ctx is done.
type Locker interface {
	Lock(ctx context.Context, key string) (Release, error)
}

type entry struct {
	ch   chan struct{}
	refs int
}

// LocalLocker is a keyed mutex for a single process.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*entry)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (Release, error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, e)
		return nil, errors.Join(ErrNotAcquired, ctx.Err())
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-e.ch
			l.unref(key, e)
		})
		return nil
	}, nil
}

func (l *LocalLocker) unref(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// held reports how many callers hold or wait on key.
func (l *LocalLocker) held(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.locks[key]; ok {
		return e.refs
	}
	return 0
}
