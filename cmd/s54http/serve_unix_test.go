// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

//go:build unix

package main

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/s54http/s54http/internal/testutil"
	"github.com/s54http/s54http/pkg/config"
	"github.com/s54http/s54http/pkg/daemon"
	"github.com/s54http/s54http/pkg/tlsctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeReleasesPIDFileOnStartupSignal(t *testing.T) {
	dir := t.TempDir()
	ca := testutil.NewCA(t, "cli test ca")
	id := ca.Issue(t, dir, "server")

	cfg := config.DefaultServerConfig()
	cfg.Daemon = true
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.CA = ca.WriteCA(t, dir)
	cfg.Key = id.KeyPath
	cfg.Cert = id.CertPath
	cfg.PIDFile = filepath.Join(dir, "s54http.pid")
	cfg.LogLevel = "ERROR"

	orig := daemonize
	t.Cleanup(func() { daemonize = orig })
	daemonize = func(cfg *config.Config, _ zerolog.Logger) (*daemon.PIDFile, error) {
		pid, err := daemon.Acquire(cfg.PIDFile, os.Getpid())
		if err != nil {
			return nil, err
		}
		// SIGTERM arrives as soon as the PID file is on disk.
		if err := syscall.Kill(os.Getpid(), syscall.SIGTERM); err != nil {
			return nil, err
		}
		return pid, nil
	}

	done := make(chan error, 1)
	go func() { done <- serve(context.Background(), cfg, tlsctx.RoleServer) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
	assert.NoFileExists(t, cfg.PIDFile)
}
