// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"fmt"

	"github.com/s54http/s54http/pkg/observability"
	"github.com/s54http/s54http/pkg/tlsctx"
)

// Validator validates configuration.
type Validator struct{}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates a configuration for role.
func (v *Validator) Validate(cfg *Config, role tlsctx.Role) error {
	if err := v.ValidateListen(cfg); err != nil {
		return err
	}
	if role == tlsctx.RoleClient {
		if err := v.ValidateUpstream(cfg); err != nil {
			return err
		}
	}
	if role == tlsctx.RoleServer {
		if _, err := parseDNS(cfg.DNS); err != nil {
			return err
		}
	}
	return v.ValidateGlobal(cfg)
}

// ValidateListen validates the local listener.
func (v *Validator) ValidateListen(cfg *Config) error {
	return validPort("port", cfg.Port)
}

// ValidateUpstream validates the tunnel server address of the client role.
func (v *Validator) ValidateUpstream(cfg *Config) error {
	if cfg.SAddr == "" {
		return &ValidationError{
			Field:   "saddr",
			Message: "must be set for the client",
		}
	}
	return validPort("sport", cfg.SPort)
}

// ValidateGlobal validates logging, cache and concurrency settings.
func (v *Validator) ValidateGlobal(cfg *Config) error {
	if _, err := observability.ParseLevel(cfg.LogLevel); err != nil {
		return &ValidationError{
			Field:   "loglevel",
			Value:   cfg.LogLevel,
			Message: "must be one of: DEBUG, INFO, WARN, ERROR",
		}
	}

	if cfg.CacheSize < 0 {
		return &ValidationError{
			Field:   "cache_size",
			Value:   cfg.CacheSize,
			Message: "must be non-negative",
		}
	}

	if cfg.MaxHandshakes < 1 {
		return &ValidationError{
			Field:   "max_handshakes",
			Value:   cfg.MaxHandshakes,
			Message: "must be positive",
		}
	}

	return nil
}

func validPort(field string, port int) error {
	if port < 1 || port > 65535 {
		return &ValidationError{
			Field:   field,
			Value:   port,
			Message: "must be between 1 and 65535",
		}
	}
	return nil
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation error for %s: %s (got: %v)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}
