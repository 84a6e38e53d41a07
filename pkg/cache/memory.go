// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package cache

import "sync"

// Locked wraps a FIFO with a mutex so it can be shared between goroutines.
// Each call holds the lock for its whole duration, which keeps the eviction
// order intact under concurrent writers.
type Locked[K comparable, V any] struct {
	mu   sync.Mutex
	fifo *FIFO[K, V]
}

// NewLocked creates a concurrency-safe FIFO cache with the given limit.
func NewLocked[K comparable, V any](limit int) *Locked[K, V] {
	return &Locked[K, V]{fifo: NewFIFO[K, V](limit)}
}

// Put inserts or replaces the value for key.
func (l *Locked[K, V]) Put(key K, value V) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fifo.Put(key, value)
}

// Get retrieves a value from the cache.
func (l *Locked[K, V]) Get(key K) (V, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fifo.Get(key)
}

// Delete removes key and reports whether it was present.
func (l *Locked[K, V]) Delete(key K) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fifo.Delete(key)
}

// Len returns the number of stored entries.
func (l *Locked[K, V]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fifo.Len()
}

// Limit returns the capacity of the underlying cache.
func (l *Locked[K, V]) Limit() int {
	return l.fifo.Limit()
}

// OnEvict sets the eviction callback. fn runs with the lock held and must not
// call back into the cache.
func (l *Locked[K, V]) OnEvict(fn func(K, V)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fifo.OnEvict(fn)
}

// Snapshot returns a copy of all entries, oldest first.
func (l *Locked[K, V]) Snapshot() []Entry[K, V] {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry[K, V], 0, l.fifo.Len())
	l.fifo.Range(func(k K, v V) bool {
		out = append(out, Entry[K, V]{Key: k, Value: v})
		return true
	})
	return out
}

// Entry is a key/value pair copied out of the cache.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}
