// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package errors provides typed errors and process exit codes for s54http.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType int

const (
	// ErrConfig indicates a configuration error: missing or unreadable
	// files, a key that does not match its certificate, malformed DH
	// parameters.
	ErrConfig ErrorType = iota
	// ErrValidation indicates an invalid setting value
	ErrValidation
	// ErrProcess indicates a process-control failure (spawn, stream redirection)
	ErrProcess
	// ErrAlreadyRunning indicates the PID file guard refused to start
	ErrAlreadyRunning
	// ErrTransport indicates a listen, dial or handshake failure
	ErrTransport
)

// Exit codes returned by the s54http binary.
const (
	ExitSuccess        = 0
	ExitFailure        = 1
	ExitConfig         = 2
	ExitProcess        = 3
	ExitAlreadyRunning = 4
)

// S54Error is the base error type for all s54http errors
type S54Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error returns the error message
func (e *S54Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", errorTypeString(e.Type), e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", errorTypeString(e.Type), e.Message)
}

// Unwrap returns the underlying cause
func (e *S54Error) Unwrap() error {
	return e.Cause
}

// New creates a new S54Error
func New(errType ErrorType, message string, cause error) *S54Error {
	return &S54Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context to the error
func (e *S54Error) WithContext(key string, value interface{}) *S54Error {
	e.Context[key] = value
	return e
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	var s54Err *S54Error
	if err == nil {
		return false
	}
	if errors.As(err, &s54Err) {
		return s54Err.Type == errType
	}
	return false
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var s54Err *S54Error
	if !errors.As(err, &s54Err) {
		return ExitFailure
	}

	switch s54Err.Type {
	case ErrAlreadyRunning:
		return ExitAlreadyRunning
	case ErrConfig, ErrValidation:
		return ExitConfig
	case ErrProcess:
		return ExitProcess
	default:
		return ExitFailure
	}
}

func errorTypeString(et ErrorType) string {
	switch et {
	case ErrConfig:
		return "CONFIG"
	case ErrValidation:
		return "VALIDATION"
	case ErrProcess:
		return "PROCESS"
	case ErrAlreadyRunning:
		return "ALREADY_RUNNING"
	case ErrTransport:
		return "TRANSPORT"
	default:
		return "UNKNOWN"
	}
}

// Convenience functions for common errors

// ConfigError creates a configuration error
func ConfigError(message string, cause error) *S54Error {
	return New(ErrConfig, message, cause)
}

// ValidationError creates a validation error
func ValidationError(message string, cause error) *S54Error {
	return New(ErrValidation, message, cause)
}

// ProcessError creates a process-control error
func ProcessError(message string, cause error) *S54Error {
	return New(ErrProcess, message, cause)
}

// AlreadyRunningError reports that a PID file already exists
func AlreadyRunningError(pidfile string) *S54Error {
	return New(ErrAlreadyRunning, "already running", nil).WithContext("pidfile", pidfile)
}

// TransportError creates a transport error
func TransportError(message string, cause error) *S54Error {
	return New(ErrTransport, message, cause)
}
