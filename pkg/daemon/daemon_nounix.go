// Copyright 2026 The s54http Authors. All rights reserved.
//
// Use of this source code is governed by the Apache-2.0 license
// that can be found in the LICENSE file.

//go:build !unix

package daemon

import (
	stderrors "errors"
	"os"

	"github.com/s54http/s54http/pkg/errors"
)

var errUnsupported = stderrors.New("daemonization is not supported on this platform")

// osProc refuses to spawn; sessions and umask do not exist on this platform.
type osProc struct{}

func (osProc) stage() int { return currentStage() }
func (osProc) spawn(spawnSpec) error { return errUnsupported }
func (osProc) exit(code int) { os.Exit(code) }
func (osProc) umask(int) int { return 0 }
func (osProc) chdir(dir string) error { return os.Chdir(dir) }
func (osProc) getpid() int { return os.Getpid() }
func (osProc) getwd() (string, error) { return os.Getwd() }

// Stop is not supported on this platform.
func Stop(string) (int, error) {
	return 0, errors.ProcessError("stop", errUnsupported)
}

// Alive is not supported on this platform and always reports false.
func Alive(int) bool {
	return false
}
