// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

//go:build unix

package sigctx

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithSignalCancelsOnSignal(t *testing.T) {
	ctx, cancel := WithSignal(context.Background(), syscall.SIGUSR1)
	defer cancel()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context not canceled by signal")
	}
	assert.Eventually(t, func() bool { return Received(ctx) == syscall.SIGUSR1 }, time.Second, 10*time.Millisecond)
}

func TestWithSignalParentCancel(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := WithSignal(parent, syscall.SIGUSR2)
	defer cancel()

	cancelParent()
	<-ctx.Done()
	assert.Nil(t, Received(ctx))
}

func TestStopIsIdempotent(t *testing.T) {
	ctx, cancel := WithSignal(context.Background(), syscall.SIGUSR2)
	cancel()
	cancel()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.Nil(t, Received(context.Background()))
}
