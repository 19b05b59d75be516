package versions

import (
	"context"
	"sync"
)

// slotLocks serializes the read-max/write section per slot. Entries are
// reference counted and removed once no caller holds or waits on them.
type slotLocks struct {
	mu    sync.Mutex
	locks map[Slot]*slotLock
}

type slotLock struct {
	ch   chan struct{}
	refs int
}

func newSlotLocks() *slotLocks {
	return &slotLocks{locks: make(map[Slot]*slotLock)}
}

func (l *slotLocks) acquire(ctx context.Context, slot Slot) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[slot]
	if !ok {
		lock = &slotLock{ch: make(chan struct{}, 1)}
		l.locks[slot] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.ch <- struct{}{}:
		return func() {
			<-lock.ch
			l.unref(slot, lock)
		}, nil
	case <-ctx.Done():
		l.unref(slot, lock)
		return nil, ctx.Err()
	}
}

func (l *slotLocks) unref(slot Slot, lock *slotLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, slot)
	}
}
