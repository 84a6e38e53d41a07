// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package gate

import (
	"context"
	"crypto/tls"
	stderrors "errors"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/s54http/s54http/pkg/errors"
	"github.com/s54http/s54http/pkg/observability"
	"github.com/s54http/s54http/pkg/tlsctx"
)

// Dial connects to the tunnel server at addr, completes the handshake with
// the client context of factory and returns the server's identity.
func Dial(ctx context.Context, addr string, factory *tlsctx.Factory) (PeerInfo, error) {
	cfg, err := factory.Context()
	if err != nil {
		return PeerInfo{}, err
	}

	d := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: DefaultHandshakeTimeout},
		Config:    cfg,
	}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return PeerInfo{}, errors.TransportError("handshake with "+addr, err)
	}
	defer conn.Close()

	return peerFromState(addr, conn.(*tls.Conn).ConnectionState(), time.Now())
}

// Client accepts local connections and, for each one, authenticates against
// the tunnel server. The local connection is closed once the handshake
// completes.
type Client struct {
	listen  string
	server  string
	factory *tlsctx.Factory
	logger  zerolog.Logger
	metrics *observability.Metrics
	slots   *limiter

	mu sync.Mutex
	ln net.Listener
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientMaxHandshakes bounds the number of server handshakes in flight.
// Further local connections wait in the accept backlog.
func WithClientMaxHandshakes(n int) ClientOption {
	return func(c *Client) { c.slots = newLimiter(n) }
}

// NewClient creates a client listening on listen that authenticates against
// server.
func NewClient(listen, server string, factory *tlsctx.Factory, logger zerolog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		listen:  listen,
		server:  server,
		factory: factory,
		logger:  logger,
		metrics: observability.NewMetrics(),
		slots:   newLimiter(DefaultMaxHandshakes),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Listen binds the local socket.
func (c *Client) Listen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ln != nil {
		return nil
	}
	ln, err := net.Listen("tcp", c.listen)
	if err != nil {
		return errors.TransportError("listen on "+c.listen, err)
	}
	c.ln = ln
	return nil
}

// Addr returns the bound local address, or nil before Listen.
func (c *Client) Addr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ln == nil {
		return nil
	}
	return c.ln.Addr()
}

// Metrics returns the client's handshake counters.
func (c *Client) Metrics() *observability.Metrics {
	return c.metrics
}

// ListenAndServe accepts local connections until ctx is canceled.
func (c *Client) ListenAndServe(ctx context.Context) error {
	if _, err := c.factory.Context(); err != nil {
		return err
	}
	if err := c.Listen(); err != nil {
		return err
	}

	c.mu.Lock()
	ln := c.ln
	c.mu.Unlock()

	c.logger.Info().Str("addr", ln.Addr().String()).Str("server", c.server).Msg("client listening")

	done := make(chan struct{})
	defer close(done)
	defer ln.Close()
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-done:
		}
	}()

	var err error
	for {
		conn, aerr := ln.Accept()
		if aerr != nil {
			if ctx.Err() == nil && !stderrors.Is(aerr, net.ErrClosed) {
				err = errors.TransportError("accept", aerr)
			}
			break
		}

		serr := c.slots.Go(ctx, func() {
			defer conn.Close()

			peer, err := Dial(ctx, c.server, c.factory)
			c.metrics.RecordHandshake(err == nil)
			if err != nil {
				c.logger.Error().Err(err).Str("local", conn.RemoteAddr().String()).Msg("server handshake failed")
				return
			}
			c.logger.Info().Object("server", peer).Str("local", conn.RemoteAddr().String()).Msg("server authenticated")
		})
		if serr != nil {
			_ = conn.Close()
			break
		}
	}
	c.slots.Wait()

	c.logger.Info().Object("stats", c.metrics.Snapshot()).Msg("client stopped")
	return err
}
