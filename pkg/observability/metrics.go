// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package observability

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Metrics counts handshake outcomes and peer cache evictions.
// The zero value is ready to use.
type Metrics struct {
	accepted  atomic.Uint64
	rejected  atomic.Uint64
	evictions atomic.Uint64
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordHandshake records a handshake outcome.
func (m *Metrics) RecordHandshake(ok bool) {
	if ok {
		m.accepted.Add(1)
		return
	}
	m.rejected.Add(1)
}

// RecordEviction records a peer dropped from the cache.
func (m *Metrics) RecordEviction() {
	m.evictions.Add(1)
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Accepted  uint64 `json:"accepted"`
	Rejected  uint64 `json:"rejected"`
	Evictions uint64 `json:"evictions"`
}

// Snapshot returns the current counters.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Accepted:  m.accepted.Load(),
		Rejected:  m.rejected.Load(),
		Evictions: m.evictions.Load(),
	}
}

// MarshalZerologObject lets a snapshot be logged with Object.
func (s Snapshot) MarshalZerologObject(e *zerolog.Event) {
	e.Uint64("accepted", s.Accepted).
		Uint64("rejected", s.Rejected).
		Uint64("evictions", s.Evictions)
}
