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
	"github.com/s54http/s54http/pkg/cache"
	"github.com/s54http/s54http/pkg/errors"
	"github.com/s54http/s54http/pkg/observability"
	"github.com/s54http/s54http/pkg/tlsctx"
)

// DefaultHandshakeTimeout bounds a single handshake.
const DefaultHandshakeTimeout = 10 * time.Second

// DefaultCacheSize is used when no cache size option is given.
const DefaultCacheSize = 1024

// Server accepts mutual-TLS connections and records authenticated peers.
type Server struct {
	addr    string
	factory *tlsctx.Factory
	logger  zerolog.Logger
	metrics *observability.Metrics
	timeout time.Duration
	peers   *cache.Locked[string, PeerInfo]
	slots   *limiter
	now     func() time.Time

	mu sync.Mutex
	ln net.Listener
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger zerolog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// WithCacheSize sets how many peers are remembered.
func WithCacheSize(n int) ServerOption {
	return func(s *Server) { s.peers = cache.NewLocked[string, PeerInfo](n) }
}

// WithHandshakeTimeout sets the handshake deadline.
func WithHandshakeTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.timeout = d }
}

// WithMaxHandshakes bounds the number of handshakes in flight. Further
// connections wait in the accept backlog.
func WithMaxHandshakes(n int) ServerOption {
	return func(s *Server) { s.slots = newLimiter(n) }
}

// NewServer creates a server listening on addr with the context of factory.
func NewServer(addr string, factory *tlsctx.Factory, opts ...ServerOption) *Server {
	s := &Server{
		addr:    addr,
		factory: factory,
		logger:  observability.Nop(),
		metrics: observability.NewMetrics(),
		timeout: DefaultHandshakeTimeout,
		peers:   cache.NewLocked[string, PeerInfo](DefaultCacheSize),
		slots:   newLimiter(DefaultMaxHandshakes),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.peers.OnEvict(func(addr string, p PeerInfo) {
		s.metrics.RecordEviction()
		s.logger.Debug().Object("peer", p).Msg("peer evicted")
	})
	return s
}

// Listen binds the listening socket. ListenAndServe calls it when needed.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.TransportError("listen on "+s.addr, err)
	}
	s.ln = ln
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// ListenAndServe accepts connections until ctx is canceled. In-flight
// handshakes are waited for before it returns.
func (s *Server) ListenAndServe(ctx context.Context) error {
	cfg, err := s.factory.Context()
	if err != nil {
		return err
	}
	if err := s.Listen(); err != nil {
		return err
	}

	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("server listening")

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.serve(ctx, ln, cfg)
	}()

	select {
	case err = <-errChan:
		_ = ln.Close()
	case <-ctx.Done():
		_ = ln.Close()
		err = <-errChan
	}
	s.slots.Wait()

	s.logger.Info().Object("stats", s.metrics.Snapshot()).Msg("server stopped")
	return err
}

func (s *Server) serve(ctx context.Context, ln net.Listener, cfg *tls.Config) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || stderrors.Is(err, net.ErrClosed) {
				return nil
			}
			return errors.TransportError("accept", err)
		}

		if err := s.slots.Go(ctx, func() { s.handle(ctx, conn, cfg) }); err != nil {
			_ = conn.Close()
			return nil
		}
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn, cfg *tls.Config) {
	addr := conn.RemoteAddr().String()
	tlsConn := tls.Server(conn, cfg)
	defer tlsConn.Close()

	hctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := tlsConn.HandshakeContext(hctx); err != nil {
		s.metrics.RecordHandshake(false)
		s.logger.Warn().Err(err).Str("addr", addr).Msg("handshake failed")
		return
	}

	peer, err := peerFromState(addr, tlsConn.ConnectionState(), s.now())
	if err != nil {
		s.metrics.RecordHandshake(false)
		s.logger.Warn().Err(err).Msg("peer rejected")
		return
	}

	s.metrics.RecordHandshake(true)
	s.peers.Put(addr, peer)
	s.logger.Info().Object("peer", peer).Msg("peer authenticated")
}

// Peers returns the remembered peers, oldest first.
func (s *Server) Peers() []PeerInfo {
	entries := s.peers.Snapshot()
	out := make([]PeerInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Value)
	}
	return out
}

// Lookup returns the peer recorded for addr.
func (s *Server) Lookup(addr string) (PeerInfo, bool) {
	return s.peers.Get(addr)
}

// Metrics returns the server's handshake counters.
func (s *Server) Metrics() *observability.Metrics {
	return s.metrics
}
