// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package observability provides logging and metrics.
package observability

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// TimeFormat is the timestamp layout of every log line.
const TimeFormat = "2006-01-02 15:04:05"

// ParseLevel converts a level name into a zerolog level.
// WARNING is accepted as an alias of WARN.
func ParseLevel(name string) (zerolog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return zerolog.DebugLevel, nil
	case "INFO":
		return zerolog.InfoLevel, nil
	case "WARN", "WARNING":
		return zerolog.WarnLevel, nil
	case "ERROR":
		return zerolog.ErrorLevel, nil
	}
	return zerolog.NoLevel, fmt.Errorf("unknown log level %q", name)
}

// NewLogger creates a logger writing "time-LEVEL : message" lines to w.
// A nil w means stderr.
func NewLogger(level string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	if w == nil {
		w = os.Stderr
	}

	// ConsoleWriter puts a space between parts, so time and level are
	// joined into the timestamp part before writing.
	out := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		PartsOrder: []string{zerolog.TimestampFieldName, zerolog.MessageFieldName},
		FormatPrepare: func(evt map[string]interface{}) error {
			evt[zerolog.TimestampFieldName] = stamp(evt[zerolog.TimestampFieldName], evt[zerolog.LevelFieldName])
			return nil
		},
		FormatTimestamp: func(i interface{}) string {
			return fmt.Sprintf("%s", i)
		},
		FormatMessage: func(i interface{}) string {
			if i == nil {
				return ":"
			}
			return fmt.Sprintf(": %s", i)
		},
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// stamp renders "2006-01-02 15:04:05-LEVEL" from the raw event fields.
func stamp(ts, level interface{}) string {
	raw := fmt.Sprintf("%v", ts)
	if t, err := time.Parse(zerolog.TimeFieldFormat, raw); err == nil {
		raw = t.Format(TimeFormat)
	}
	return raw + "-" + strings.ToUpper(fmt.Sprintf("%v", level))
}

// Nop returns a logger that discards everything.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
