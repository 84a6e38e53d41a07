// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package cache provides a bounded, insertion-ordered cache with FIFO eviction.
package cache

import "container/list"

// entry is the value stored in the order list. The key is kept so eviction
// can start from the list head.
type entry[K comparable, V any] struct {
	key   K
	value V
}

// FIFO is a bounded map that remembers insertion order and evicts the oldest
// entry once the limit is reached. Reads never change the order and
// overwriting a key keeps its original position.
//
// FIFO is not safe for concurrent use; see Locked.
type FIFO[K comparable, V any] struct {
	limit   int
	items   map[K]*list.Element
	order   *list.List // Front = oldest, Back = newest
	onEvict func(K, V)
}

// NewFIFO creates a cache holding at most limit entries. A limit of zero
// yields a cache that never retains anything; negative limits are treated as
// zero.
func NewFIFO[K comparable, V any](limit int) *FIFO[K, V] {
	if limit < 0 {
		limit = 0
	}
	return &FIFO[K, V]{
		limit: limit,
		items: make(map[K]*list.Element),
		order: list.New(),
	}
}

// Limit returns the capacity fixed at construction.
func (c *FIFO[K, V]) Limit() int {
	return c.limit
}

// OnEvict registers fn to be called for every entry removed by capacity
// pressure. Explicit Delete calls do not trigger it.
func (c *FIFO[K, V]) OnEvict(fn func(K, V)) {
	c.onEvict = fn
}

// Put inserts or replaces the value for key.
func (c *FIFO[K, V]) Put(key K, value V) {
	if elem, ok := c.items[key]; ok {
		elem.Value.(*entry[K, V]).value = value
		return
	}

	for c.order.Len() >= c.limit && c.order.Len() > 0 {
		c.evictOldest()
	}

	c.items[key] = c.order.PushBack(&entry[K, V]{key: key, value: value})

	// limit == 0: the entry goes straight out again.
	if c.order.Len() > c.limit {
		c.evictOldest()
	}
}

// Get returns the value stored for key and whether it was present.
func (c *FIFO[K, V]) Get(key K) (V, bool) {
	elem, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	return elem.Value.(*entry[K, V]).value, true
}

// Delete removes key and reports whether it was present.
func (c *FIFO[K, V]) Delete(key K) bool {
	elem, ok := c.items[key]
	if !ok {
		return false
	}
	c.order.Remove(elem)
	delete(c.items, key)
	return true
}

// Len returns the number of stored entries.
func (c *FIFO[K, V]) Len() int {
	return c.order.Len()
}

// Keys returns the stored keys, oldest first.
func (c *FIFO[K, V]) Keys() []K {
	keys := make([]K, 0, c.order.Len())
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*entry[K, V]).key)
	}
	return keys
}

// Range calls fn for each entry, oldest first, until fn returns false.
func (c *FIFO[K, V]) Range(fn func(K, V) bool) {
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		e := elem.Value.(*entry[K, V])
		if !fn(e.key, e.value) {
			return
		}
	}
}

func (c *FIFO[K, V]) evictOldest() {
	elem := c.order.Front()
	if elem == nil {
		return
	}
	e := c.order.Remove(elem).(*entry[K, V])
	delete(c.items, e.key)

	if c.onEvict != nil {
		c.onEvict(e.key, e.value)
	}
}
