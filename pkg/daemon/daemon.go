// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package daemon detaches the running binary from its terminal.
//
// A Go program cannot fork once the runtime has started threads, so each of
// the two classic forks is a re-exec of the current executable. The stage a
// process is in travels through the environment:
//
//	stage 0  foreground: PID file guard, spawn stage 1 in a new session, exit
//	stage 1  session leader: umask 0, chdir /, open stream targets,
//	         spawn stage 2 with them as stdin/stdout/stderr, exit
//	stage 2  daemon: write the PID file and return it to the caller
//
// Every stage runs the same command line, so the caller must invoke
// Daemonize before doing any other work.
package daemon

import (
	"fmt"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/s54http/s54http/pkg/errors"
)

const (
	// StageEnv carries the daemonization stage into re-executed children.
	StageEnv = "S54HTTP_DAEMON_STAGE"
	// DirEnv carries the original working directory into the children,
	// which run from /.
	DirEnv = "S54HTTP_DAEMON_DIR"
)

const (
	stageForeground = 0
	stageSession    = 1
	stageDaemon     = 2
)

// spawnSpec describes how to start the next stage.
type spawnSpec struct {
	stage  int
	setsid bool
	dir    string
	env    map[string]string
	stdin  *os.File
	stdout *os.File
	stderr *os.File
}

// procOps is the set of process-global operations the supervisor performs.
type procOps interface {
	stage() int
	spawn(spec spawnSpec) error
	exit(code int)
	umask(mask int) int
	chdir(dir string) error
	getpid() int
	getwd() (string, error)
}

// Supervisor performs the detach sequence for one PID file.
type Supervisor struct {
	pidfile string
	stdin   string
	stdout  string
	stderr  string
	logger  zerolog.Logger
	proc    procOps
	used    atomic.Bool
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithStdin sets the file the daemon reads standard input from.
func WithStdin(path string) Option {
	return func(s *Supervisor) { s.stdin = path }
}

// WithStdout sets the file standard output is appended to.
func WithStdout(path string) Option {
	return func(s *Supervisor) { s.stdout = path }
}

// WithStderr sets the file standard error is appended to.
func WithStderr(path string) Option {
	return func(s *Supervisor) { s.stderr = path }
}

// WithLogger sets the logger used for the already-running notice.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Supervisor) { s.logger = logger }
}

// New creates a Supervisor bound to pidfile. Stream targets default to the
// null device.
func New(pidfile string, opts ...Option) *Supervisor {
	s := &Supervisor{
		pidfile: pidfile,
		stdin:   os.DevNull,
		stdout:  os.DevNull,
		stderr:  os.DevNull,
		logger:  zerolog.Nop(),
		proc:    osProc{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Daemonize runs the stage of the sequence this process is in. In the
// foreground and session stages it does not return on success: the process
// exits with status 0 once the next stage has been started. In the daemon
// stage it returns the acquired PID file, which the caller must Release on
// its way out.
func (s *Supervisor) Daemonize() (*PIDFile, error) {
	if !s.used.CompareAndSwap(false, true) {
		return nil, errors.ProcessError("daemonize called more than once", nil)
	}

	switch stage := s.proc.stage(); stage {
	case stageForeground:
		return nil, s.foreground()
	case stageSession:
		return nil, s.session()
	case stageDaemon:
		return s.daemon()
	default:
		return nil, errors.ProcessError(fmt.Sprintf("unknown daemon stage %d", stage), nil)
	}
}

func (s *Supervisor) foreground() error {
	if _, err := os.Stat(s.pidfile); err == nil {
		s.logger.Info().Str("pidfile", s.pidfile).Msg("already running")
		s.proc.exit(errors.ExitAlreadyRunning)
		return errors.AlreadyRunningError(s.pidfile)
	}

	wd, err := s.proc.getwd()
	if err != nil {
		return errors.ProcessError("get working directory", err)
	}

	err = s.proc.spawn(spawnSpec{
		stage:  stageSession,
		setsid: true,
		env:    map[string]string{DirEnv: wd},
		stdout: os.Stdout,
		stderr: os.Stderr,
	})
	if err != nil {
		return errors.ProcessError("fork #1 failed", err)
	}

	s.proc.exit(errors.ExitSuccess)
	return nil
}

func (s *Supervisor) session() error {
	if err := s.proc.chdir("/"); err != nil {
		return errors.ProcessError("chdir /", err)
	}
	s.proc.umask(0)

	stdin, err := os.OpenFile(s.stdin, os.O_RDONLY, 0)
	if err != nil {
		return errors.ProcessError("open stdin target", err).WithContext("path", s.stdin)
	}
	defer stdin.Close()

	stdout, err := openAppend(s.stdout)
	if err != nil {
		return errors.ProcessError("open stdout target", err).WithContext("path", s.stdout)
	}
	defer stdout.Close()

	stderr, err := openAppend(s.stderr)
	if err != nil {
		return errors.ProcessError("open stderr target", err).WithContext("path", s.stderr)
	}
	defer stderr.Close()

	err = s.proc.spawn(spawnSpec{
		stage:  stageDaemon,
		dir:    "/",
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	})
	if err != nil {
		return errors.ProcessError("fork #2 failed", err)
	}

	s.proc.exit(errors.ExitSuccess)
	return nil
}

func (s *Supervisor) daemon() (*PIDFile, error) {
	return Acquire(s.pidfile, s.proc.getpid())
}

func openAppend(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
}

// OriginalDir returns the working directory the foreground process was
// started from. Relative paths on the command line are relative to it, even
// though the daemon itself runs from /.
func OriginalDir() (string, error) {
	if dir := os.Getenv(DirEnv); dir != "" {
		return dir, nil
	}
	return os.Getwd()
}

func currentStage() int {
	stage, err := strconv.Atoi(os.Getenv(StageEnv))
	if err != nil {
		return stageForeground
	}
	return stage
}
