// Package lock provides per-user locking for balance and entitlement mutations.
// All writes keyed by one user are serialized through the same mutex; operations
// touching two users acquire both locks in ascending user-id order.
package lock

import (
	"sync"
)

// userMutex wraps a mutex with reference counting for cleanup.
type userMutex struct {
	mu       sync.Mutex
	refCount int
}

// UserLock provides per-user locking to prevent lost updates
// during balance and entitlement operations.
type UserLock struct {
	locks sync.Map // map[int64]*userMutex
	pool  sync.Pool
}

// NewUserLock creates a new UserLock instance.
func NewUserLock() *UserLock {
	return &UserLock{
		pool: sync.Pool{
			New: func() any {
				return &userMutex{}
			},
		},
	}
}

// getLock retrieves or creates a mutex for the given user ID.
func (ul *UserLock) getLock(userID int64) *userMutex {
	// Try to load existing lock
	if v, ok := ul.locks.Load(userID); ok {
		return v.(*userMutex)
	}

	// Create new lock from pool
	newLock := ul.pool.Get().(*userMutex)
	newLock.refCount = 0

	// Store or load existing (handles race condition)
	actual, loaded := ul.locks.LoadOrStore(userID, newLock)
	if loaded {
		// Another goroutine created the lock first, return ours to pool
		ul.pool.Put(newLock)
	}
	return actual.(*userMutex)
}

// Lock acquires the lock for a user.
// This should be called before any balance- or entitlement-modifying operation.
func (ul *UserLock) Lock(userID int64) {
	lock := ul.getLock(userID)
	lock.mu.Lock()
	lock.refCount++
}

// Unlock releases the lock for a user.
func (ul *UserLock) Unlock(userID int64) {
	if v, ok := ul.locks.Load(userID); ok {
		lock := v.(*userMutex)
		lock.refCount--
		lock.mu.Unlock()
	}
}

// TryLock attempts to acquire the lock without blocking.
// Returns true if the lock was acquired, false otherwise.
func (ul *UserLock) TryLock(userID int64) bool {
	lock := ul.getLock(userID)
	if lock.mu.TryLock() {
		lock.refCount++
		return true
	}
	return false
}

// WithLock executes a function while holding the user's lock.
func (ul *UserLock) WithLock(userID int64, fn func() error) error {
	ul.Lock(userID)
	defer ul.Unlock(userID)
	return fn()
}

// LockPair acquires the locks for two users in ascending id order,
// so two concurrent opposite-direction transfers cannot deadlock.
func (ul *UserLock) LockPair(a, b int64) {
	if a == b {
		ul.Lock(a)
		return
	}
	if a > b {
		a, b = b, a
	}
	ul.Lock(a)
	ul.Lock(b)
}

// UnlockPair releases the locks acquired by LockPair.
func (ul *UserLock) UnlockPair(a, b int64) {
	if a == b {
		ul.Unlock(a)
		return
	}
	if a > b {
		a, b = b, a
	}
	ul.Unlock(b)
	ul.Unlock(a)
}

// WithPair executes a function while holding both users' locks.
func (ul *UserLock) WithPair(a, b int64, fn func() error) error {
	ul.LockPair(a, b)
	defer ul.UnlockPair(a, b)
	return fn()
}
