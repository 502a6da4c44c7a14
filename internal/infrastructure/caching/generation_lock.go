// Package caching provides application-wide caching and related utilities.
package caching

import "sync"

// GenerationLock collapses concurrent insight regenerations for the same
// (user, source) key into one. Losers of the race serve the last good
// snapshot instead of issuing duplicate LLM calls.
type GenerationLock struct {
	mu    sync.Mutex
	locks map[string]struct{}
}

// NewGenerationLock creates a new instance of a GenerationLock.
func NewGenerationLock() *GenerationLock {
	return &GenerationLock{
		locks: make(map[string]struct{}),
	}
}

// TryLock attempts to acquire a lock for a given key.
// It returns true if the lock was acquired, and false if the lock is already held.
// This operation is non-blocking.
func (l *GenerationLock) TryLock(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.locks[key]; exists {
		return false
	}

	l.locks[key] = struct{}{}
	return true
}

// Unlock releases a lock for a given key.
// This should be called with `defer` by the caller that acquired the lock.
func (l *GenerationLock) Unlock(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.locks, key)
}
