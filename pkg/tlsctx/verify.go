// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package tlsctx

import (
	"crypto/x509"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// VerifyFunc decides whether a peer certificate is accepted.
// It is called once per certificate of the verified chain, trust anchor
// included, deepest first and the leaf last at depth 0. When no chain can be
// built it is called for the presented certificates instead: the leaf gets
// the chain error, the others only their own validity error. ok is
// chainErr == nil. Returning false fails the handshake.
type VerifyFunc func(cert *x509.Certificate, depth int, chainErr error, ok bool) bool

// DefaultVerify accepts exactly what chain validation accepted.
func DefaultVerify(_ *x509.Certificate, _ int, _ error, ok bool) bool {
	return ok
}

// LoggingVerify behaves like DefaultVerify and logs every rejected
// certificate with its common name.
func LoggingVerify(logger zerolog.Logger, side string) VerifyFunc {
	return func(cert *x509.Certificate, depth int, chainErr error, ok bool) bool {
		if !ok {
			logger.Error().
				Err(chainErr).
				Int("depth", depth).
				Str("cn", cert.Subject.CommonName).
				Msgf("%s verify failed", side)
		}
		return ok
	}
}

// verifyPeer runs chain validation for the raw certificates sent by the peer
// and hands the verdict to the configured VerifyFunc.
func (f *Factory) verifyPeer(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	if len(rawCerts) == 0 {
		return fmt.Errorf("tlsctx: peer did not present a certificate")
	}

	certs := make([]*x509.Certificate, 0, len(rawCerts))
	for _, raw := range rawCerts {
		cert, err := x509.ParseCertificate(raw)
		if err != nil {
			return fmt.Errorf("tlsctx: parse peer certificate: %w", err)
		}
		certs = append(certs, cert)
	}

	intermediates := x509.NewCertPool()
	for _, cert := range certs[1:] {
		intermediates.AddCert(cert)
	}

	usage := x509.ExtKeyUsageClientAuth
	if f.spec.IsClient() {
		usage = x509.ExtKeyUsageServerAuth
	}

	chains, chainErr := certs[0].Verify(x509.VerifyOptions{
		Roots:         f.roots,
		Intermediates: intermediates,
		KeyUsages:     []x509.ExtKeyUsage{usage},
	})

	steps := make([]verifyStep, 0, len(certs)+1)
	if chainErr == nil && len(chains) > 0 {
		for _, cert := range chains[0] {
			steps = append(steps, verifyStep{cert: cert})
		}
	} else {
		now := time.Now()
		for depth, cert := range certs {
			step := verifyStep{cert: cert, err: validityErr(cert, now)}
			if depth == 0 {
				step.err = chainErr
			}
			steps = append(steps, step)
		}
	}

	for depth := len(steps) - 1; depth >= 0; depth-- {
		step := steps[depth]
		if !f.verify(step.cert, depth, step.err, step.err == nil) {
			if step.err != nil {
				return fmt.Errorf("tlsctx: peer certificate rejected at depth %d: %w", depth, step.err)
			}
			return fmt.Errorf("tlsctx: peer certificate %q rejected at depth %d", step.cert.Subject.CommonName, depth)
		}
	}
	return nil
}

// verifyStep is one certificate handed to the VerifyFunc with its own result.
type verifyStep struct {
	cert *x509.Certificate
	err  error
}

func validityErr(cert *x509.Certificate, now time.Time) error {
	if now.Before(cert.NotBefore) || now.After(cert.NotAfter) {
		return x509.CertificateInvalidError{Cert: cert, Reason: x509.Expired}
	}
	return nil
}
