// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package tlsctx

import (
	"encoding/pem"
	"fmt"
	"math/big"
	"os"

	"github.com/s54http/s54http/pkg/errors"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

const (
	dhPEMType    = "DH PARAMETERS"
	minDHBitSize = 1024
)

// DHParams holds finite-field Diffie-Hellman group parameters (PKCS #3).
//
// crypto/tls only negotiates elliptic-curve key exchange, so the parameters
// are validated and kept for inspection but never reach the handshake.
type DHParams struct {
	P *big.Int
	G *big.Int
	// PrivateValueLength is zero when the file omits it.
	PrivateValueLength int64
}

// BitLen returns the size of the prime in bits.
func (d *DHParams) BitLen() int {
	return d.P.BitLen()
}

// LoadDHParams reads a PEM encoded "DH PARAMETERS" file.
func LoadDHParams(path string) (*DHParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ConfigError("read dhparam file", err).WithContext("path", path)
	}
	params, err := ParseDHParams(data)
	if err != nil {
		return nil, errors.ConfigError("parse dhparam file", err).WithContext("path", path)
	}
	return params, nil
}

// ParseDHParams decodes the first PEM block of data as DHParameter:
//
//	DHParameter ::= SEQUENCE {
//	    prime              INTEGER,
//	    base               INTEGER,
//	    privateValueLength INTEGER OPTIONAL }
func ParseDHParams(data []byte) (*DHParams, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	if block.Type != dhPEMType {
		return nil, fmt.Errorf("unexpected PEM block %q, want %q", block.Type, dhPEMType)
	}

	input := cryptobyte.String(block.Bytes)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) || !input.Empty() {
		return nil, fmt.Errorf("malformed DHParameter sequence")
	}

	params := &DHParams{P: new(big.Int), G: new(big.Int)}
	if !seq.ReadASN1Integer(params.P) || !seq.ReadASN1Integer(params.G) {
		return nil, fmt.Errorf("malformed prime or generator")
	}
	if !seq.Empty() {
		if !seq.ReadASN1Integer(&params.PrivateValueLength) || !seq.Empty() {
			return nil, fmt.Errorf("malformed privateValueLength")
		}
	}

	if err := params.validate(); err != nil {
		return nil, err
	}
	return params, nil
}

func (d *DHParams) validate() error {
	if d.P.Sign() <= 0 || d.P.Bit(0) == 0 {
		return fmt.Errorf("prime must be a positive odd integer")
	}
	if d.P.BitLen() < minDHBitSize {
		return fmt.Errorf("prime is %d bits, need at least %d", d.P.BitLen(), minDHBitSize)
	}
	if d.G.Cmp(big.NewInt(1)) <= 0 || d.G.Cmp(d.P) >= 0 {
		return fmt.Errorf("generator out of range")
	}
	if d.PrivateValueLength < 0 {
		return fmt.Errorf("negative privateValueLength")
	}
	return nil
}
