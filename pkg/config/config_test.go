// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/s54http/s54http/pkg/config"
	"github.com/s54http/s54http/pkg/errors"
	"github.com/s54http/s54http/pkg/tlsctx"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func envOf(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

// writeKeys creates empty stand-ins for the certificate files named by the
// role defaults under dir.
func writeKeys(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "keys"), 0o755))
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "keys", n), []byte("x"), 0o600))
	}
}

func TestDefaults(t *testing.T) {
	client := config.Defaults(tlsctx.RoleClient)
	assert.Equal(t, 8080, client.Port)
	assert.Equal(t, 8080, client.SPort)
	assert.Equal(t, "keys/client.key", client.Key)
	assert.Equal(t, "INFO", client.LogLevel)
	assert.Empty(t, client.DNS)

	server := config.Defaults(tlsctx.RoleServer)
	assert.Equal(t, "keys/server.crt", server.Cert)
	assert.Equal(t, config.DefaultDNS, server.DNS)
	assert.Equal(t, config.DefaultCacheSize, server.CacheSize)
	assert.Equal(t, config.DefaultMaxHandshakes, server.MaxHandshakes)
	assert.Equal(t, config.DefaultMaxHandshakes, client.MaxHandshakes)
}

func TestLoadServerDefaults(t *testing.T) {
	dir := t.TempDir()
	writeKeys(t, dir, "ca.crt", "server.key", "server.crt")

	cfg, err := config.NewLoader().
		WithRole(tlsctx.RoleServer).
		WithBaseDir(dir).
		WithEnv(noEnv).
		Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "keys", "ca.crt"), cfg.CA)
	assert.Equal(t, filepath.Join(dir, "socks.pid"), cfg.PIDFile)
	assert.Equal(t, filepath.Join(dir, "socks.log"), cfg.LogFile)
	assert.Equal(t, ":8080", cfg.ListenAddr())
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeKeys(t, dir, "ca.crt", "client.key", "client.crt")

	cfgFile := filepath.Join(dir, "s54http.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
saddr: tunnel.example.com
sport: 9000
port: 1080
loglevel: DEBUG
cache_size: 16
`), 0o644))

	fs := pflag.NewFlagSet("client", pflag.ContinueOnError)
	config.BindFlags(fs, tlsctx.RoleClient)
	require.NoError(t, fs.Parse([]string{"--sport", "9443"}))

	cfg, err := config.NewLoader().
		WithRole(tlsctx.RoleClient).
		WithBaseDir(dir).
		WithFile("s54http.yaml").
		WithEnv(envOf(map[string]string{
			"S54HTTP_SPORT":      "9100",
			"S54HTTP_CACHE_SIZE": "32",
		})).
		WithFlags(fs).
		Load()
	require.NoError(t, err)

	assert.Equal(t, "tunnel.example.com", cfg.SAddr, "file overrides defaults")
	assert.Equal(t, 1080, cfg.Port, "unchanged flags do not override the file")
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, 32, cfg.CacheSize, "env overrides the file")
	assert.Equal(t, 9443, cfg.SPort, "changed flags override env")
	assert.Equal(t, "tunnel.example.com:9443", cfg.ServerAddr())
}

func TestLoadUnknownFileKey(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("prot: 1\n"), 0o644))

	_, err := config.NewLoader().WithBaseDir(dir).WithFile(cfgFile).WithEnv(noEnv).Load()
	require.Error(t, err)
	assert.Equal(t, errors.ExitConfig, errors.ExitCode(err))
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := config.NewLoader().WithBaseDir(t.TempDir()).WithFile("nope.yaml").WithEnv(noEnv).Load()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrConfig))
}

func TestLoadClientRequiresServerAddress(t *testing.T) {
	dir := t.TempDir()
	writeKeys(t, dir, "ca.crt", "client.key", "client.crt")

	_, err := config.NewLoader().WithBaseDir(dir).WithEnv(noEnv).Load()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrValidation))
	assert.Contains(t, err.Error(), "saddr")
}

func TestLoadInvalidEnv(t *testing.T) {
	dir := t.TempDir()
	writeKeys(t, dir, "ca.crt", "server.key", "server.crt")

	_, err := config.NewLoader().
		WithRole(tlsctx.RoleServer).
		WithBaseDir(dir).
		WithEnv(envOf(map[string]string{"S54HTTP_PORT": "http"})).
		Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S54HTTP_PORT")
}

func TestResolveMissingCertificate(t *testing.T) {
	dir := t.TempDir()
	writeKeys(t, dir, "ca.crt", "server.key")

	_, err := config.NewLoader().WithRole(tlsctx.RoleServer).WithBaseDir(dir).WithEnv(noEnv).Load()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrConfig))
	assert.Contains(t, err.Error(), "cert file not found")
}

func TestResolveDropsMissingDHParam(t *testing.T) {
	dir := t.TempDir()
	writeKeys(t, dir, "ca.crt", "server.key", "server.crt")

	cfg := config.DefaultServerConfig()
	cfg.DHParam = "keys/dhparam.pem"
	require.NoError(t, cfg.Resolve(dir))
	assert.Empty(t, cfg.DHParam)

	writeKeys(t, dir, "dhparam.pem")
	cfg = config.DefaultServerConfig()
	cfg.DHParam = "keys/dhparam.pem"
	require.NoError(t, cfg.Resolve(dir))
	assert.Equal(t, filepath.Join(dir, "keys", "dhparam.pem"), cfg.DHParam)
}

func TestResolveKeepsAbsolutePaths(t *testing.T) {
	dir := t.TempDir()
	writeKeys(t, dir, "ca.crt", "server.key", "server.crt")

	cfg := config.DefaultServerConfig()
	cfg.CA = filepath.Join(dir, "keys", "ca.crt")
	cfg.PIDFile = "/run/s54http.pid"
	require.NoError(t, cfg.Resolve(dir))
	assert.Equal(t, filepath.Join(dir, "keys", "ca.crt"), cfg.CA)
	assert.Equal(t, "/run/s54http.pid", cfg.PIDFile)
}

func TestDNSAddr(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "8.8.8.8", want: "8.8.8.8:53"},
		{in: "1.1.1.1:5353", want: "1.1.1.1:5353"},
		{in: "::1", want: "[::1]:53"},
		{in: "[::1]:54", want: "[::1]:54"},
		{in: "", wantErr: true},
		{in: "8.8.8.8:dns", wantErr: true},
		{in: "8.8.8.8:0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cfg := &config.Config{DNS: tt.in}
			got, err := cfg.DNSAddr()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidator(t *testing.T) {
	v := config.NewValidator()

	cfg := config.DefaultServerConfig()
	assert.NoError(t, v.Validate(cfg, tlsctx.RoleServer))

	cfg.Port = 70000
	var verr *config.ValidationError
	require.ErrorAs(t, v.Validate(cfg, tlsctx.RoleServer), &verr)
	assert.Equal(t, "port", verr.Field)

	cfg = config.DefaultServerConfig()
	cfg.LogLevel = "TRACE"
	require.ErrorAs(t, v.Validate(cfg, tlsctx.RoleServer), &verr)
	assert.Equal(t, "loglevel", verr.Field)

	cfg = config.DefaultServerConfig()
	cfg.CacheSize = -1
	require.ErrorAs(t, v.Validate(cfg, tlsctx.RoleServer), &verr)
	assert.Equal(t, "cache_size", verr.Field)

	cfg = config.DefaultServerConfig()
	cfg.MaxHandshakes = 0
	require.ErrorAs(t, v.Validate(cfg, tlsctx.RoleServer), &verr)
	assert.Equal(t, "max_handshakes", verr.Field)

	cfg = config.DefaultClientConfig()
	cfg.SAddr = "127.0.0.1"
	cfg.SPort = 0
	require.ErrorAs(t, v.Validate(cfg, tlsctx.RoleClient), &verr)
	assert.Equal(t, "sport", verr.Field)
}

func TestTLSSpec(t *testing.T) {
	cfg := config.DefaultClientConfig()
	spec := cfg.TLSSpec(tlsctx.RoleClient)
	assert.Equal(t, tlsctx.RoleClient, spec.Role)
	assert.Equal(t, cfg.CA, spec.CA)
	assert.Equal(t, cfg.Key, spec.Key)
	assert.Equal(t, cfg.Cert, spec.Cert)
}

func TestGetEnvConfig(t *testing.T) {
	t.Setenv("S54HTTP_LOGLEVEL", "DEBUG")
	env := config.GetEnvConfig()
	assert.Equal(t, "DEBUG", env["S54HTTP_LOGLEVEL"])
}
