package service

import (
	"context"
	"fmt"
	"sync"
)

type accountLock struct {
	sem  chan struct{}
	refs int
}

// LocalAccountLocker is an in-process keyed mutex. Entries are dropped once no goroutine
// holds or waits on them.
type LocalAccountLocker struct {
	mu    sync.Mutex
	locks map[int64]*accountLock
}

// NewLocalAccountLocker creates an in-process account locker
func NewLocalAccountLocker() *LocalAccountLocker {
	return &LocalAccountLocker{
		locks: make(map[int64]*accountLock),
	}
}

// Lock blocks until the account is free or ctx is done
func (l *LocalAccountLocker) Lock(ctx context.Context, accountID int64) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[accountID]
	if !ok {
		lock = &accountLock{sem: make(chan struct{}, 1)}
		l.locks[accountID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(accountID, lock)
		return nil, NewError(KindConflict, fmt.Sprintf("timed out waiting for lock on account %d", accountID), ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lock.sem
			l.release(accountID, lock)
		})
	}, nil
}

func (l *LocalAccountLocker) release(accountID int64, lock *accountLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, accountID)
	}
}

type chainedLocker []AccountLocker

// ChainLockers acquires each locker in order and releases them in reverse
func ChainLockers(lockers ...AccountLocker) AccountLocker {
	return chainedLocker(lockers)
}

func (c chainedLocker) Lock(ctx context.Context, accountID int64) (func(), error) {
	unlocks := make([]func(), 0, len(c))
	releaseAll := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}

	for _, locker := range c {
		unlock, err := locker.Lock(ctx, accountID)
		if err != nil {
			releaseAll()
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}
	return releaseAll, nil
}
