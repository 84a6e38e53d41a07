// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package config provides the configuration record shared by the tunnel
// client and server.
//
// Configuration Loading Order (later overrides earlier):
// 1. Defaults for the role (hardcoded)
// 2. Config file given with --config (YAML)
// 3. Environment Variables: S54HTTP_*
// 4. Command-line flags that were explicitly set
//
// Path settings are then made absolute against the directory the command was
// started from, and the mandatory certificate files must exist.
package config

import (
	"net"
	"strconv"

	"github.com/s54http/s54http/pkg/tlsctx"
)

// Config represents the complete application configuration.
type Config struct {
	Daemon bool `yaml:"daemon"`

	// Listen address
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Tunnel server address (client role only)
	SAddr string `yaml:"saddr"`
	SPort int    `yaml:"sport"`

	CA      string `yaml:"ca"`
	Key     string `yaml:"key"`
	Cert    string `yaml:"cert"`
	DHParam string `yaml:"dhparam"`

	PIDFile  string `yaml:"pidfile"`
	LogFile  string `yaml:"logfile"`
	LogLevel string `yaml:"loglevel"`

	// DNS server, addr[:port] (server role only)
	DNS string `yaml:"dns"`

	// Capacity of the authenticated peer cache
	CacheSize int `yaml:"cache_size"`

	// Handshakes in flight per endpoint
	MaxHandshakes int `yaml:"max_handshakes"`
}

// ListenAddr returns host:port for the local listener.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ServerAddr returns saddr:sport of the tunnel server.
func (c *Config) ServerAddr() string {
	return net.JoinHostPort(c.SAddr, strconv.Itoa(c.SPort))
}

// DNSAddr returns the DNS server as host:port, adding port 53 when omitted.
func (c *Config) DNSAddr() (string, error) {
	return parseDNS(c.DNS)
}

// TLSSpec returns the TLS context description for role.
func (c *Config) TLSSpec(role tlsctx.Role) tlsctx.Spec {
	return tlsctx.Spec{
		Role:    role,
		CA:      c.CA,
		Key:     c.Key,
		Cert:    c.Cert,
		DHParam: c.DHParam,
	}
}
