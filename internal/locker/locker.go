// Package locker serializes read-modify-write sequences on a single key,
// such as one user's water log for one day.
package locker

import (
	"context"
	"fmt"
	"sync"
)

// Locker acquires an exclusive lock on key. The returned func releases it
// and is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// Open builds the locker named by driver ("local" or "redis")
func Open(ctx context.Context, driver, redisURL string, opts ...RedisOption) (Locker, error) {
	switch driver {
	case "", "local":
		return NewLocal(), nil
	case "redis":
		return NewRedis(ctx, redisURL, opts...)
	default:
		return nil, fmt.Errorf("unknown locker driver: %s", driver)
	}
}

type entry struct {
	ch   chan struct{}
	refs int
}

// Local is an in-process keyed mutex. Entries are dropped once nobody
// holds or waits on them.
type Local struct {
	mu   sync.Mutex
	keys map[string]*entry
}

// NewLocal creates an empty in-process locker
func NewLocal() *Local {
	return &Local{keys: make(map[string]*entry)}
}

// Lock blocks until key is free or ctx is done
func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.keys[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.keys[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, fmt.Errorf("lock %s: %w", key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}, nil
}

func (l *Local) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.keys, key)
	}
}

// held reports the number of keys currently tracked
func (l *Local) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}
