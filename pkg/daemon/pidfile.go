// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package daemon

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/s54http/s54http/pkg/errors"
)

// PIDFile is a held PID file. Release removes it; holders defer Release so
// the file disappears on every normal exit path.
type PIDFile struct {
	path string
	pid  int

	once sync.Once
	err  error
}

// Acquire creates path exclusively and writes pid followed by a newline. An
// existing file means another instance owns it.
func Acquire(path string, pid int) (*PIDFile, error) {
	if path == "" {
		return nil, errors.ConfigError("pid file path is empty", nil)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.ProcessError("create pid directory", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if stderrors.Is(err, fs.ErrExist) {
			return nil, errors.AlreadyRunningError(path)
		}
		return nil, errors.ProcessError("create pid file", err)
	}

	if _, err := fmt.Fprintf(f, "%d\n", pid); err != nil {
		f.Close()
		_ = os.Remove(path)
		return nil, errors.ProcessError("write pid file", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, errors.ProcessError("write pid file", err)
	}

	return &PIDFile{path: path, pid: pid}, nil
}

// Path returns the location of the PID file.
func (p *PIDFile) Path() string {
	return p.path
}

// PID returns the process id written to the file.
func (p *PIDFile) PID() int {
	return p.pid
}

// Release removes the PID file. It is safe to call more than once and on a
// nil receiver.
func (p *PIDFile) Release() error {
	if p == nil {
		return nil
	}
	p.once.Do(func() {
		if err := os.Remove(p.path); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			p.err = err
		}
	})
	return p.err
}

// ReadPID parses the process id stored in path.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid pid file %s: %w", path, err)
	}
	return pid, nil
}
