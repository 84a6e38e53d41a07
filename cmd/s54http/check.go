// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package main

import (
	"fmt"
	"sort"

	"github.com/s54http/s54http/pkg/config"
	"github.com/s54http/s54http/pkg/observability"
	"github.com/s54http/s54http/pkg/tlsctx"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and certificates",
		Long: `Load the configuration the way client or server would, build the TLS
context, and print the result. Nothing is started and no daemon is forked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := tlsctx.ParseRole(role)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, opts, r)
			if err != nil {
				return err
			}

			factory, err := newFactory(cfg, r, observability.Nop())
			if err != nil {
				return err
			}
			if _, err := factory.Context(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			summary, err := yaml.Marshal(struct {
				Config *config.Config   `yaml:"config"`
				TLS    *tlsctx.Factory `yaml:"tls"`
			}{cfg, factory})
			if err != nil {
				return err
			}
			fmt.Fprint(out, string(summary))

			if dh := factory.DHParams(); dh != nil {
				fmt.Fprintf(out, "dhparam: %d bits\n", dh.BitLen())
			}

			env := config.GetEnvConfig()
			keys := make([]string, 0, len(env))
			for k := range env {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "env override: %s=%s\n", k, env[k])
			}

			fmt.Fprintf(out, "%s configuration OK\n", r)
			return nil
		},
	}

	cmd.Flags().StringVarP(&role, "role", "r", string(tlsctx.RoleServer), "client or server")
	config.BindFlags(cmd.Flags(), tlsctx.RoleServer)
	return cmd
}
