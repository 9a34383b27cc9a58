package service

import "sync"

// WriteLock serializes every mutation of a catalog. All services of one
// catalog share the same instance; reads never take it.
type WriteLock struct {
	mu sync.Mutex
}

// NewWriteLock creates a write lock.
func NewWriteLock() *WriteLock {
	return &WriteLock{}
}

func (l *WriteLock) lock()   { l.mu.Lock() }
func (l *WriteLock) unlock() { l.mu.Unlock() }
