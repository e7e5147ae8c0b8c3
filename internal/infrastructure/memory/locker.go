package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rigsync/backend/internal/domain"
)

// keyLock is a one-slot semaphore shared by everyone waiting on a key
type keyLock struct {
	slot    chan struct{}
	waiters int
}

// Locker is an in-process domain.Locker. Entries are dropped once nobody
// holds or waits for a key.
type Locker struct {
	locks map[string]*keyLock
	wait  time.Duration
	mutex sync.Mutex
}

// NewLocker creates a locker. A positive wait bounds how long Lock blocks.
func NewLocker(wait time.Duration) *Locker {
	return &Locker{locks: make(map[string]*keyLock), wait: wait}
}

// Lock blocks until key is free, the wait elapses or ctx is done
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	l.mutex.Lock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &keyLock{slot: make(chan struct{}, 1)}
		l.locks[key] = lock
	}
	lock.waiters++
	l.mutex.Unlock()

	select {
	case lock.slot <- struct{}{}:
	case <-ctx.Done():
		l.drop(key, lock)
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrLockTimeout, key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lock.slot
			l.drop(key, lock)
		})
	}, nil
}

func (l *Locker) drop(key string, lock *keyLock) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	lock.waiters--
	if lock.waiters == 0 {
		delete(l.locks, key)
	}
}

// Size returns how many keys are currently held or awaited
func (l *Locker) Size() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.locks)
}
