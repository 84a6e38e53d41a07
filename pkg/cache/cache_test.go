// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package cache

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFIFOPutGet(t *testing.T) {
	c := NewFIFO[string, int](5)

	c.Put("key1", 100)
	val, ok := c.Get("key1")
	require.True(t, ok)
	assert.Equal(t, 100, val)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestFIFOEvictsFirstInserted(t *testing.T) {
	c := NewFIFO[string, int](2)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	_, ok := c.Get("a")
	assert.False(t, ok, "a should have been evicted")
	assert.Equal(t, []string{"b", "c"}, c.Keys())
}

func TestFIFOOverwriteKeepsPosition(t *testing.T) {
	c := NewFIFO[string, int](2)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("a", 10)
	assert.Equal(t, 2, c.Len(), "overwrite must not evict")

	c.Put("c", 3)

	_, ok := c.Get("a")
	assert.False(t, ok, "a is still the oldest entry and must go first")
	v, ok := c.Get("b")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, []string{"b", "c"}, c.Keys())
}

func TestFIFOGetDoesNotPromote(t *testing.T) {
	c := NewFIFO[string, int](2)

	c.Put("a", 1)
	c.Put("b", 2)
	_, _ = c.Get("a")
	c.Put("c", 3)

	_, ok := c.Get("a")
	assert.False(t, ok, "reads must not refresh insertion order")
}

func TestFIFOZeroLimit(t *testing.T) {
	c := NewFIFO[string, int](0)

	var evicted []string
	c.OnEvict(func(k string, _ int) { evicted = append(evicted, k) })

	c.Put("a", 1)
	c.Put("b", 2)

	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b"}, evicted)
}

func TestFIFONegativeLimit(t *testing.T) {
	c := NewFIFO[int, int](-3)
	c.Put(1, 1)

	assert.Equal(t, 0, c.Limit())
	assert.Equal(t, 0, c.Len())
}

func TestFIFONeverExceedsLimit(t *testing.T) {
	for _, limit := range []int{0, 1, 3, 7} {
		t.Run(strconv.Itoa(limit), func(t *testing.T) {
			c := NewFIFO[int, int](limit)
			for i := 0; i < 50; i++ {
				c.Put(i%11, i)
				assert.LessOrEqual(t, c.Len(), limit)
			}
		})
	}
}

func TestFIFOOnEvict(t *testing.T) {
	c := NewFIFO[string, int](1)

	var gotKey string
	var gotVal int
	c.OnEvict(func(k string, v int) {
		gotKey, gotVal = k, v
	})

	c.Put("a", 1)
	c.Put("b", 2)

	assert.Equal(t, "a", gotKey)
	assert.Equal(t, 1, gotVal)
}

func TestFIFODelete(t *testing.T) {
	c := NewFIFO[string, int](3)

	c.Put("a", 1)
	c.Put("b", 2)

	assert.True(t, c.Delete("a"))
	assert.False(t, c.Delete("a"))
	assert.Equal(t, []string{"b"}, c.Keys())
}

func TestFIFORange(t *testing.T) {
	c := NewFIFO[string, int](3)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	var seen []string
	c.Range(func(k string, _ int) bool {
		seen = append(seen, k)
		return k != "b"
	})

	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestLockedConcurrentPut(t *testing.T) {
	c := NewLocked[int, int](16)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				c.Put(w*1000+i, i)
				_, _ = c.Get(w * 1000)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 16, c.Len())
	assert.Len(t, c.Snapshot(), 16)
}

func TestLockedSnapshotOrder(t *testing.T) {
	c := NewLocked[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	assert.Equal(t, []Entry[string, int]{{Key: "b", Value: 2}, {Key: "c", Value: 3}}, c.Snapshot())
	assert.True(t, c.Delete("b"))
	assert.Equal(t, 2, c.Limit())
}
