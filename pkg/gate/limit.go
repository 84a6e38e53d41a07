// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package gate

import (
	"context"
	"sync"

	"github.com/s54http/s54http/pkg/errors"
)

// DefaultMaxHandshakes bounds concurrent handshakes per endpoint.
const DefaultMaxHandshakes = 64

// limiter caps the number of handshakes in flight and tracks them so the
// endpoint can wait for stragglers on shutdown.
type limiter struct {
	sem chan struct{}
	wg  sync.WaitGroup
}

func newLimiter(n int) *limiter {
	if n < 1 {
		n = 1
	}
	return &limiter{sem: make(chan struct{}, n)}
}

// Go runs fn in a new goroutine once a slot is free. It blocks while all
// slots are taken and gives up when ctx is done.
func (l *limiter) Go(ctx context.Context, fn func()) error {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return errors.TransportError("handshake slot", ctx.Err())
	}

	l.wg.Add(1)
	go func() {
		defer func() {
			<-l.sem
			l.wg.Done()
		}()
		fn()
	}()
	return nil
}

// Wait blocks until every started fn has returned.
func (l *limiter) Wait() {
	l.wg.Wait()
}
