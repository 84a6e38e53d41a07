// Copyright 2026 The s54http Authors. All rights reserved.
//
// Use of this source code is governed by the Apache-2.0 license
// that can be found in the LICENSE file.

//go:build unix

package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/s54http/s54http/pkg/errors"
	"golang.org/x/sys/unix"
)

// osProc re-executes the current binary for each stage.
type osProc struct{}

func (osProc) stage() int {
	return currentStage()
}

func (osProc) spawn(spec spawnSpec) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}

	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Dir = spec.dir
	cmd.Env = stageEnv(os.Environ(), spec)
	cmd.Stdin = spec.stdin
	cmd.Stdout = spec.stdout
	cmd.Stderr = spec.stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: spec.setsid}

	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

func (osProc) exit(code int) {
	os.Exit(code)
}

func (osProc) umask(mask int) int {
	return unix.Umask(mask)
}

func (osProc) chdir(dir string) error {
	return unix.Chdir(dir)
}

func (osProc) getpid() int {
	return unix.Getpid()
}

func (osProc) getwd() (string, error) {
	return os.Getwd()
}

// stageEnv returns environ with the stage marker and the spawn request's extra
// variables replacing any inherited values.
func stageEnv(environ []string, spec spawnSpec) []string {
	set := map[string]string{StageEnv: fmt.Sprint(spec.stage)}
	for k, v := range spec.env {
		set[k] = v
	}

	out := make([]string, 0, len(environ)+len(set))
	for _, kv := range environ {
		name, _, _ := strings.Cut(kv, "=")
		if _, replaced := set[name]; replaced {
			continue
		}
		out = append(out, kv)
	}
	for k, v := range set {
		out = append(out, k+"="+v)
	}
	return out
}

// Stop sends SIGTERM to the process recorded in pidfile and returns its id.
// A pidfile naming a process that no longer exists is reported as stale and
// nothing is signaled.
func Stop(pidfile string) (int, error) {
	pid, err := ReadPID(pidfile)
	if err != nil {
		return 0, errors.ProcessError("read pid file", err).WithContext("pidfile", pidfile)
	}
	if !Alive(pid) {
		return pid, errors.ProcessError(fmt.Sprintf("stale pid file: process %d is not running", pid), nil).
			WithContext("pidfile", pidfile)
	}
	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		return pid, errors.ProcessError(fmt.Sprintf("signal process %d", pid), err)
	}
	return pid, nil
}

// Alive reports whether a process with the given id exists.
func Alive(pid int) bool {
	return unix.Kill(pid, 0) == nil
}
