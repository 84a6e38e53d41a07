// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package main

import (
	"context"
	"os"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/s54http/s54http/pkg/config"
	"github.com/s54http/s54http/pkg/daemon"
	"github.com/s54http/s54http/pkg/errors"
	"github.com/s54http/s54http/pkg/gate"
	"github.com/s54http/s54http/pkg/observability"
	"github.com/s54http/s54http/pkg/sigctx"
	"github.com/s54http/s54http/pkg/tlsctx"
	"github.com/s54http/s54http/pkg/version"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions, role tlsctx.Role) *cobra.Command {
	cmd := &cobra.Command{
		Use:  string(role),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts, role)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, role)
		},
	}

	if role == tlsctx.RoleServer {
		cmd.Short = "Run the tunnel server"
		cmd.Long = `Run the tunnel server.

The server listens on host:port and accepts clients presenting a certificate
signed by the configured CA. The most recent peers are kept in memory.`
	} else {
		cmd.Short = "Run the tunnel client"
		cmd.Long = `Run the tunnel client.

Every local connection accepted on host:port authenticates against the
tunnel server at saddr:sport.`
	}

	config.BindFlags(cmd.Flags(), role)
	return cmd
}

// loadConfig merges defaults, --config, the environment and explicit flags.
// Relative paths resolve against the directory the command was started from,
// which survives daemonization.
func loadConfig(cmd *cobra.Command, opts *rootOptions, role tlsctx.Role) (*config.Config, error) {
	base, err := daemon.OriginalDir()
	if err != nil {
		return nil, errors.ConfigError("determine working directory", err)
	}
	return config.NewLoader().
		WithRole(role).
		WithFile(opts.config).
		WithBaseDir(base).
		WithFlags(cmd.Flags()).
		Load()
}

// daemonize detaches the process and returns the PID file the daemon holds,
// or nil in the parent stages, which exit.
var daemonize = func(cfg *config.Config, logger zerolog.Logger) (*daemon.PIDFile, error) {
	return daemon.New(cfg.PIDFile,
		daemon.WithStdout(cfg.LogFile),
		daemon.WithStderr(cfg.LogFile),
		daemon.WithLogger(logger),
	).Daemonize()
}

func serve(ctx context.Context, cfg *config.Config, role tlsctx.Role) error {
	logger, err := observability.NewLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		return errors.ConfigError("init logger", err)
	}

	// Catch signals before the PID file exists, so a SIGTERM during startup
	// still unwinds through Release.
	ctx, stop := sigctx.WithSignal(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Daemon {
		pid, err := daemonize(cfg, logger)
		if err != nil {
			return err
		}
		if pid == nil {
			return nil
		}
		defer func() {
			if err := pid.Release(); err != nil {
				logger.Error().Err(err).Msg("remove pid file")
			}
		}()
		logger.Info().Int("pid", pid.PID()).Str("pidfile", pid.Path()).Msg("daemon started")
	}

	defer func() {
		if sig := sigctx.Received(ctx); sig != nil {
			logger.Info().Str("signal", sig.String()).Msg("shutting down")
		}
	}()
	logger.Info().Str("version", version.String()).Str("role", string(role)).Msg("starting")

	factory, err := newFactory(cfg, role, logger)
	if err != nil {
		return err
	}

	if role == tlsctx.RoleServer {
		dns, err := cfg.DNSAddr()
		if err != nil {
			return errors.ConfigError("dns", err)
		}
		logger.Debug().Str("dns", dns).Msg("resolver configured")

		srv := gate.NewServer(cfg.ListenAddr(), factory,
			gate.WithLogger(logger),
			gate.WithCacheSize(cfg.CacheSize),
			gate.WithMaxHandshakes(cfg.MaxHandshakes),
		)
		return srv.ListenAndServe(ctx)
	}

	client := gate.NewClient(cfg.ListenAddr(), cfg.ServerAddr(), factory, logger,
		gate.WithClientMaxHandshakes(cfg.MaxHandshakes),
	)
	return client.ListenAndServe(ctx)
}

func newFactory(cfg *config.Config, role tlsctx.Role, logger zerolog.Logger) (*tlsctx.Factory, error) {
	// Name the side being verified in rejection logs.
	peer := "client"
	if role == tlsctx.RoleClient {
		peer = "server"
	}
	return tlsctx.New(cfg.TLSSpec(role),
		tlsctx.WithVerify(tlsctx.LoggingVerify(logger, peer)),
		tlsctx.WithLogger(logger),
	)
}
