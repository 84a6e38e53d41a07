// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package tlsctx builds the mutual-TLS configuration shared by the tunnel
// client and server.
//
// The policy is fixed: TLS 1.2 only, a single ECDHE-RSA-AES128-GCM-SHA256
// cipher suite, and a mandatory peer certificate checked against a private CA
// once per connection.
package tlsctx

import (
	"fmt"
	"strings"

	"github.com/s54http/s54http/pkg/errors"
)

// Role selects client or server handshake behavior.
type Role string

const (
	RoleClient Role = "client"
	RoleServer Role = "server"
)

// ParseRole converts a role name into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleClient:
		return RoleClient, nil
	case RoleServer:
		return RoleServer, nil
	default:
		return "", errors.ValidationError(fmt.Sprintf("unknown tls role %q", s), nil)
	}
}

// Spec is the transferable description of a TLS context. It holds paths and
// the role only; the live *tls.Config is produced by a Factory.
type Spec struct {
	Role    Role   `yaml:"role" json:"role"`
	CA      string `yaml:"ca" json:"ca"`
	Key     string `yaml:"key" json:"key"`
	Cert    string `yaml:"cert" json:"cert"`
	DHParam string `yaml:"dhparam,omitempty" json:"dhparam,omitempty"`
}

// Validate checks that the role is known and the mandatory paths are set.
func (s Spec) Validate() error {
	if _, err := ParseRole(string(s.Role)); err != nil {
		return err
	}
	for _, p := range []struct{ name, value string }{
		{"ca", s.CA},
		{"key", s.Key},
		{"cert", s.Cert},
	} {
		if strings.TrimSpace(p.value) == "" {
			return errors.ConfigError(p.name+" path not configured", nil)
		}
	}
	return nil
}

// IsClient reports whether the spec describes the client side.
func (s Spec) IsClient() bool {
	return s.Role == RoleClient
}
