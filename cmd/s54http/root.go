// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package main

import (
	"github.com/s54http/s54http/pkg/tlsctx"
	"github.com/s54http/s54http/pkg/version"
	"github.com/spf13/cobra"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	config string
}

// newRootCmd builds the command tree. A fresh tree per call keeps flag state
// out of package globals.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "s54http",
		Short: "Mutual-TLS tunnel client and server",
		Long: `s54http - the client and server halves of an authenticated tunnel.

Both sides authenticate each other with certificates issued by a shared CA.
Either side can detach from the terminal and run as a daemon with -d.`,
		Version:       version.FullString(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.config, "config", "c", "", "YAML config file")

	rootCmd.AddCommand(
		newServeCmd(opts, tlsctx.RoleServer),
		newServeCmd(opts, tlsctx.RoleClient),
		newCheckCmd(opts),
		newStopCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}
