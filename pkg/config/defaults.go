// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import "github.com/s54http/s54http/pkg/tlsctx"

const (
	// DefaultPort is the listen port for both roles.
	DefaultPort = 8080
	// DefaultCacheSize is the number of peers remembered by the server.
	DefaultCacheSize = 1024
	// DefaultDNS is the resolver the server role uses.
	DefaultDNS = "8.8.8.8:53"
	// DefaultMaxHandshakes bounds concurrent handshakes for both roles.
	DefaultMaxHandshakes = 64
)

// Defaults returns the default configuration for role.
// These values are used when no config file is present.
func Defaults(role tlsctx.Role) *Config {
	if role == tlsctx.RoleServer {
		return DefaultServerConfig()
	}
	return DefaultClientConfig()
}

// DefaultClientConfig returns defaults for the tunnel client.
func DefaultClientConfig() *Config {
	return &Config{
		Port:          DefaultPort,
		SPort:         DefaultPort,
		CA:            "keys/ca.crt",
		Key:           "keys/client.key",
		Cert:          "keys/client.crt",
		PIDFile:       "socks.pid",
		LogFile:       "socks.log",
		LogLevel:      "INFO",
		CacheSize:     DefaultCacheSize,
		MaxHandshakes: DefaultMaxHandshakes,
	}
}

// DefaultServerConfig returns defaults for the tunnel server.
func DefaultServerConfig() *Config {
	return &Config{
		Port:          DefaultPort,
		CA:            "keys/ca.crt",
		Key:           "keys/server.key",
		Cert:          "keys/server.crt",
		PIDFile:       "socks.pid",
		LogFile:       "socks.log",
		LogLevel:      "INFO",
		DNS:           DefaultDNS,
		CacheSize:     DefaultCacheSize,
		MaxHandshakes: DefaultMaxHandshakes,
	}
}
