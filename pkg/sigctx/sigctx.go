// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package sigctx provides contexts that end on OS signals.
package sigctx

import (
	"context"
	"os"
	"os/signal"
	"sync"
)

// signalContext is canceled by the first matching signal. Received records
// which one it was so callers can log the shutdown reason.
type signalContext struct {
	context.Context

	cancel   context.CancelFunc
	ch       chan os.Signal
	stopOnce sync.Once

	mu  sync.Mutex
	sig os.Signal
}

// stop cancels the context and stops signal delivery. Safe to call twice.
func (sc *signalContext) stop() {
	sc.stopOnce.Do(func() {
		signal.Stop(sc.ch)
		sc.cancel()
	})
}

// WithSignal returns a context canceled when one of sigs arrives or parent
// ends. The returned cancel function must be called to release the signal
// handler.
//
//	ctx, cancel := sigctx.WithSignal(ctx, os.Interrupt, syscall.SIGTERM)
//	defer cancel()
func WithSignal(parent context.Context, sigs ...os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sc := &signalContext{
		Context: ctx,
		cancel:  cancel,
		ch:      make(chan os.Signal, 1),
	}
	signal.Notify(sc.ch, sigs...)

	go func() {
		select {
		case s := <-sc.ch:
			sc.mu.Lock()
			sc.sig = s
			sc.mu.Unlock()
			cancel()
		case <-ctx.Done():
		}
	}()

	return sc, sc.stop
}

// Received returns the signal that canceled ctx, or nil if ctx was not made
// by WithSignal or ended for another reason.
func Received(ctx context.Context) os.Signal {
	sc, ok := ctx.(*signalContext)
	if !ok {
		return nil
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sig
}
