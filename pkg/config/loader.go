// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/s54http/s54http/pkg/errors"
	"github.com/s54http/s54http/pkg/tlsctx"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix is the prefix for all environment variables.
	EnvPrefix = "S54HTTP"
)

// setting maps one configuration key to its flag and environment names.
// Exactly one of str, num or flag is set.
type setting struct {
	name  string // flag name
	short string
	usage string
	str   func(*Config) *string
	num   func(*Config) *int
	flag  func(*Config) *bool
}

func (s setting) env() string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(s.name, "-", "_"))
}

func (s setting) set(c *Config, v string) error {
	switch {
	case s.flag != nil:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return &ValidationError{Field: s.name, Value: v, Message: "must be a boolean"}
		}
		*s.flag(c) = b
	case s.num != nil:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &ValidationError{Field: s.name, Value: v, Message: "must be an integer"}
		}
		*s.num(c) = n
	default:
		*s.str(c) = v
	}
	return nil
}

var settings = []setting{
	{name: "daemon", short: "d", usage: "run as daemon", flag: func(c *Config) *bool { return &c.Daemon }},
	{name: "host", short: "l", usage: "listen address", str: func(c *Config) *string { return &c.Host }},
	{name: "port", short: "p", usage: "listen port", num: func(c *Config) *int { return &c.Port }},
	{name: "saddr", short: "S", usage: "server address", str: func(c *Config) *string { return &c.SAddr }},
	{name: "sport", short: "P", usage: "server port", num: func(c *Config) *int { return &c.SPort }},
	{name: "ca", usage: "ca file path", str: func(c *Config) *string { return &c.CA }},
	{name: "key", usage: "key file path", str: func(c *Config) *string { return &c.Key }},
	{name: "cert", usage: "cert file path", str: func(c *Config) *string { return &c.Cert }},
	{name: "dhparam", usage: "dhparam file path", str: func(c *Config) *string { return &c.DHParam }},
	{name: "pidfile", usage: "pid file", str: func(c *Config) *string { return &c.PIDFile }},
	{name: "logfile", usage: "log file", str: func(c *Config) *string { return &c.LogFile }},
	{name: "loglevel", usage: "DEBUG, INFO, WARN, ERROR", str: func(c *Config) *string { return &c.LogLevel }},
	{name: "dns", usage: "dns server[addr:port|addr]", str: func(c *Config) *string { return &c.DNS }},
	{name: "cache-size", usage: "number of authenticated peers to remember", num: func(c *Config) *int { return &c.CacheSize }},
	{name: "max-handshakes", usage: "number of handshakes in flight", num: func(c *Config) *int { return &c.MaxHandshakes }},
}

// BindFlags registers one flag per setting on fs, showing the defaults of
// role. Flags already defined on fs are left alone.
func BindFlags(fs *pflag.FlagSet, role tlsctx.Role) {
	def := Defaults(role)
	for _, s := range settings {
		if fs.Lookup(s.name) != nil {
			continue
		}
		switch {
		case s.flag != nil:
			fs.BoolP(s.name, s.short, *s.flag(def), s.usage)
		case s.num != nil:
			fs.IntP(s.name, s.short, *s.num(def), s.usage)
		default:
			fs.StringP(s.name, s.short, *s.str(def), s.usage)
		}
	}
}

// Loader loads configuration from files, environment and flags.
type Loader struct {
	role    tlsctx.Role
	file    string
	baseDir string
	flags   *pflag.FlagSet
	environ func(string) (string, bool)
}

// NewLoader creates a new config loader for the client role.
func NewLoader() *Loader {
	return &Loader{
		role:    tlsctx.RoleClient,
		environ: os.LookupEnv,
	}
}

// WithRole selects the defaults and validation rules of role.
func (l *Loader) WithRole(role tlsctx.Role) *Loader {
	l.role = role
	return l
}

// WithFile sets the YAML config file. An explicitly named file must exist.
func (l *Loader) WithFile(path string) *Loader {
	l.file = path
	return l
}

// WithBaseDir sets the directory relative paths are resolved against.
// It defaults to the current working directory.
func (l *Loader) WithBaseDir(dir string) *Loader {
	l.baseDir = dir
	return l
}

// WithFlags merges the explicitly changed flags of fs.
func (l *Loader) WithFlags(fs *pflag.FlagSet) *Loader {
	l.flags = fs
	return l
}

// WithEnv replaces the environment lookup, for tests.
func (l *Loader) WithEnv(lookup func(string) (string, bool)) *Loader {
	l.environ = lookup
	return l
}

// Load loads configuration with full precedence order, validates it and
// resolves its paths.
func (l *Loader) Load() (*Config, error) {
	cfg := Defaults(l.role)

	base, err := l.base()
	if err != nil {
		return nil, err
	}

	if l.file != "" {
		if err := l.decodeFile(absolute(base, l.file), cfg); err != nil {
			return nil, err
		}
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := l.applyFlags(cfg); err != nil {
		return nil, err
	}

	if err := NewValidator().Validate(cfg, l.role); err != nil {
		return nil, errors.ValidationError("config validation failed", err)
	}

	if err := cfg.Resolve(base); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific path on top of the role
// defaults, without environment, flags or path resolution.
func (l *Loader) LoadFromPath(path string) (*Config, error) {
	cfg := Defaults(l.role)
	if err := l.decodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) base() (string, error) {
	if l.baseDir != "" {
		return l.baseDir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", errors.ConfigError("get working directory", err)
	}
	return wd, nil
}

func (l *Loader) decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.ConfigError(fmt.Sprintf("failed to read config file: %s", path), err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return errors.ConfigError(fmt.Sprintf("failed to parse config file: %s", path), err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
// Format: S54HTTP_<SETTING>=value, e.g. S54HTTP_CACHE_SIZE=64
func (l *Loader) applyEnvOverrides(cfg *Config) error {
	for _, s := range settings {
		v, ok := l.environ(s.env())
		if !ok || v == "" {
			continue
		}
		if err := s.set(cfg, v); err != nil {
			return errors.ConfigError("invalid environment override "+s.env(), err)
		}
	}
	return nil
}

func (l *Loader) applyFlags(cfg *Config) error {
	if l.flags == nil {
		return nil
	}
	for _, s := range settings {
		f := l.flags.Lookup(s.name)
		if f == nil || !f.Changed {
			continue
		}
		if err := s.set(cfg, f.Value.String()); err != nil {
			return errors.ConfigError("invalid flag --"+s.name, err)
		}
	}
	return nil
}

// GetEnvConfig returns all environment variables that start with S54HTTP_.
func GetEnvConfig() map[string]string {
	result := make(map[string]string)

	for _, env := range os.Environ() {
		if strings.HasPrefix(env, EnvPrefix+"_") {
			kv := strings.SplitN(env, "=", 2)
			if len(kv) == 2 {
				result[kv[0]] = kv[1]
			}
		}
	}

	return result
}

func absolute(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
