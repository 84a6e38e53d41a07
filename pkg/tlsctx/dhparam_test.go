// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package tlsctx

import (
	"encoding/pem"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

func encodeDH(p, g *big.Int, privLen int64) []byte {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(p)
		b.AddASN1BigInt(g)
		if privLen != 0 {
			b.AddASN1Int64(privLen)
		}
	})
	return pem.EncodeToMemory(&pem.Block{Type: dhPEMType, Bytes: b.BytesOrPanic()})
}

func TestParseDHParamsPrivateValueLength(t *testing.T) {
	p := new(big.Int).Lsh(big.NewInt(1), 1023)
	p.Add(p, big.NewInt(1))

	params, err := ParseDHParams(encodeDH(p, big.NewInt(5), 256))
	require.NoError(t, err)
	assert.Equal(t, 1024, params.BitLen())
	assert.Equal(t, int64(256), params.PrivateValueLength)
}

func TestParseDHParamsRejectsEvenPrime(t *testing.T) {
	p := new(big.Int).Lsh(big.NewInt(1), 2047)

	_, err := ParseDHParams(encodeDH(p, big.NewInt(2), 0))
	assert.Error(t, err)
}

func TestParseDHParamsRejectsTrailingData(t *testing.T) {
	p := new(big.Int).Lsh(big.NewInt(1), 2047)
	p.Add(p, big.NewInt(1))

	block, _ := pem.Decode(encodeDH(p, big.NewInt(2), 0))
	block.Bytes = append(block.Bytes, 0x00)

	_, err := ParseDHParams(pem.EncodeToMemory(block))
	assert.Error(t, err)
}
