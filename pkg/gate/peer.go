// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package gate runs the mutual-TLS handshake between tunnel client and server.
//
// The server side accepts connections, authenticates the peer with the
// context built by a tlsctx.Factory, and remembers the most recent peers in a
// bounded FIFO cache. The client side dials the server and reports the
// identity the server presented. No payload bytes are exchanged.
package gate

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/s54http/s54http/pkg/errors"
)

// PeerInfo describes an authenticated peer.
type PeerInfo struct {
	Addr        string    `json:"addr"`
	CommonName  string    `json:"common_name"`
	Serial      string    `json:"serial"`
	HandshakeAt time.Time `json:"handshake_at"`
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (p PeerInfo) MarshalZerologObject(e *zerolog.Event) {
	e.Str("addr", p.Addr).
		Str("cn", p.CommonName).
		Str("serial", p.Serial)
}

func peerFromState(addr string, state tls.ConnectionState, at time.Time) (PeerInfo, error) {
	if len(state.PeerCertificates) == 0 {
		return PeerInfo{}, errors.TransportError(fmt.Sprintf("%s presented no certificate", addr), nil)
	}
	leaf := state.PeerCertificates[0]
	return PeerInfo{
		Addr:        addr,
		CommonName:  leaf.Subject.CommonName,
		Serial:      leaf.SerialNumber.Text(16),
		HandshakeAt: at,
	}, nil
}
