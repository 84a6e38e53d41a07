// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/s54http/s54http/pkg/errors"
)

const defaultDNSPort = "53"

// Resolve makes every path setting absolute against base. The CA, key and
// certificate must exist; a missing DH parameter file is dropped so the
// context is built without one.
func (c *Config) Resolve(base string) error {
	for _, p := range []*string{&c.PIDFile, &c.LogFile} {
		*p = absolute(base, *p)
	}

	required := []struct {
		name string
		path *string
	}{
		{"ca", &c.CA},
		{"key", &c.Key},
		{"cert", &c.Cert},
	}
	for _, r := range required {
		*r.path = absolute(base, *r.path)
		if *r.path == "" {
			return errors.ConfigError(fmt.Sprintf("%s file is not set", r.name), nil)
		}
		if _, err := os.Stat(*r.path); err != nil {
			return errors.ConfigError(fmt.Sprintf("%s file not found", r.name), err).
				WithContext("path", *r.path)
		}
	}

	if c.DHParam != "" {
		c.DHParam = absolute(base, c.DHParam)
		if _, err := os.Stat(c.DHParam); err != nil {
			c.DHParam = ""
		}
	}
	return nil
}

// parseDNS accepts "addr" or "addr:port" and returns host:port.
func parseDNS(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", &ValidationError{Field: "dns", Message: "must be set"}
	}

	host, port, err := net.SplitHostPort(s)
	if err != nil {
		// No port, or a bare IPv6 address.
		host, port = strings.Trim(s, "[]"), defaultDNSPort
	}
	if host == "" {
		return "", &ValidationError{Field: "dns", Value: s, Message: "missing address"}
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return "", &ValidationError{Field: "dns", Value: s, Message: "invalid port"}
	}
	if err := validPort("dns", n); err != nil {
		return "", err
	}
	return net.JoinHostPort(host, port), nil
}
