// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package tlsctx

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/s54http/s54http/pkg/errors"
	"gopkg.in/yaml.v3"
)

// CipherSuite is the only suite the factory allows (ECDHE-RSA-AES128-GCM-SHA256).
const CipherSuite = tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256

// Factory realizes a Spec into a *tls.Config and keeps it for its lifetime.
// The built config is immutable and may be shared by concurrent handshakes.
type Factory struct {
	spec   Spec
	verify VerifyFunc
	logger zerolog.Logger

	mu       sync.Mutex
	config   *tls.Config
	roots    *x509.CertPool
	dhParams *DHParams
}

// Option configures a Factory.
type Option func(*Factory)

// WithVerify installs a custom peer verification callback.
func WithVerify(fn VerifyFunc) Option {
	return func(f *Factory) {
		if fn != nil {
			f.verify = fn
		}
	}
}

// WithLogger sets the logger used while building the context.
func WithLogger(logger zerolog.Logger) Option {
	return func(f *Factory) {
		f.logger = logger
	}
}

// New validates spec and eagerly builds the TLS context. Any failure is a
// configuration error and no Factory is returned.
func New(spec Spec, opts ...Option) (*Factory, error) {
	f := &Factory{
		spec:   spec,
		verify: DefaultVerify,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.cacheContext(); err != nil {
		return nil, err
	}
	return f, nil
}

// Spec returns the transferable description of this factory.
func (f *Factory) Spec() Spec {
	return f.spec
}

// Role returns the handshake role.
func (f *Factory) Role() Role {
	return f.spec.Role
}

// DHParams returns the loaded Diffie-Hellman parameters, or nil when none
// were configured.
func (f *Factory) DHParams() *DHParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dhParams
}

// Context returns the realized TLS configuration. Every call returns the same
// pointer; a Factory restored from YAML builds it on first use.
func (f *Factory) Context() (*tls.Config, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.cacheContext(); err != nil {
		return nil, err
	}
	return f.config, nil
}

// cacheContext builds the TLS config unless one already exists. Must be
// called with f.mu held. Nothing is stored unless every step succeeds.
func (f *Factory) cacheContext() error {
	if f.config != nil {
		return nil
	}
	if err := f.spec.Validate(); err != nil {
		return err
	}

	pair, err := loadKeyPair(f.spec.Cert, f.spec.Key)
	if err != nil {
		return err
	}

	roots, err := loadCAPool(f.spec.CA)
	if err != nil {
		return err
	}

	var dh *DHParams
	if f.spec.DHParam != "" {
		dh, err = LoadDHParams(f.spec.DHParam)
		if err != nil {
			return err
		}
	}

	cfg := &tls.Config{
		MinVersion:   tls.VersionTLS12,
		MaxVersion:   tls.VersionTLS12,
		CipherSuites: []uint16{CipherSuite},
		Certificates: []tls.Certificate{pair},
		// Chain validation runs in verifyPeer so the callback sees the
		// verdict instead of the handshake aborting first.
		VerifyPeerCertificate: f.verifyPeer,
		Renegotiation:         tls.RenegotiateNever,
	}
	if f.spec.IsClient() {
		cfg.RootCAs = roots
		cfg.InsecureSkipVerify = true //nolint:gosec // verified against the private CA in verifyPeer
	} else {
		cfg.ClientAuth = tls.RequireAnyClientCert
	}

	f.roots = roots
	f.dhParams = dh
	f.config = cfg

	f.logger.Debug().
		Str("role", string(f.spec.Role)).
		Str("cert", f.spec.Cert).
		Str("ca", f.spec.CA).
		Bool("dhparam", dh != nil).
		Msg("tls context ready")
	return nil
}

func loadKeyPair(certPath, keyPath string) (tls.Certificate, error) {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return tls.Certificate{}, errors.ConfigError("read certificate file", err).WithContext("path", certPath)
	}
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return tls.Certificate{}, errors.ConfigError("read private key file", err).WithContext("path", keyPath)
	}

	pair, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, errors.ConfigError("private key does not match certificate", err).
			WithContext("cert", certPath).
			WithContext("key", keyPath)
	}
	return pair, nil
}

func loadCAPool(path string) (*x509.CertPool, error) {
	caPEM, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ConfigError("read ca file", err).WithContext("path", path)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, errors.ConfigError("no certificates found in ca file", nil).WithContext("path", path)
	}
	return pool, nil
}

// MarshalYAML encodes the Spec only; the live config is not transferable.
func (f *Factory) MarshalYAML() (interface{}, error) {
	return f.spec, nil
}

// UnmarshalYAML restores the Spec and drops any realized context. A
// verification callback or logger already installed on f is kept; a zero
// Factory falls back to DefaultVerify until Configure installs another.
func (f *Factory) UnmarshalYAML(value *yaml.Node) error {
	var spec Spec
	if err := value.Decode(&spec); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.spec = spec
	if f.verify == nil {
		f.verify = DefaultVerify
		f.logger.Debug().Str("role", string(spec.Role)).Msg("restored tls factory uses default verification")
	}
	f.config = nil
	f.roots = nil
	f.dhParams = nil
	return nil
}

// Configure applies opts and drops the realized context so the next call to
// Context rebuilds it with them. It is how a Factory restored from YAML gets
// its callback and logger back.
func (f *Factory) Configure(opts ...Option) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, opt := range opts {
		opt(f)
	}
	f.config = nil
	f.roots = nil
	f.dhParams = nil
}
