// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package main

import (
	"fmt"
	"path/filepath"

	"github.com/s54http/s54http/pkg/config"
	"github.com/s54http/s54http/pkg/daemon"
	"github.com/s54http/s54http/pkg/errors"
	"github.com/s54http/s54http/pkg/tlsctx"
	"github.com/spf13/cobra"
)

func newStopCmd(opts *rootOptions) *cobra.Command {
	var pidfile string

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop a running daemon",
		Long:  `Send SIGTERM to the process recorded in the pid file.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := pidfile
			if !cmd.Flags().Changed("pidfile") && opts.config != "" {
				cfg, err := config.NewLoader().WithRole(tlsctx.RoleServer).LoadFromPath(opts.config)
				if err != nil {
					return err
				}
				path = cfg.PIDFile
			}

			abs, err := filepath.Abs(path)
			if err != nil {
				return errors.ConfigError("resolve pid file", err)
			}
			pid, err := daemon.Stop(abs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent SIGTERM to %d\n", pid)
			return nil
		},
	}

	cmd.Flags().StringVar(&pidfile, "pidfile", config.DefaultServerConfig().PIDFile, "pid file")
	return cmd
}
