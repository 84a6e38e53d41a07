// Copyright 2026 The s54http Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package observability

import (
	"bytes"
	"regexp"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"Warn", zerolog.WarnLevel},
		{"WARNING", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("TRACE")
	assert.Error(t, err)
}

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger("INFO", &buf)
	require.NoError(t, err)

	log.Debug().Msg("hidden")
	log.Info().Msg("server listening")

	line := buf.String()
	assert.NotContains(t, line, "hidden")
	assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}-INFO : server listening\n$`), line)
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	_, err := NewLogger("LOUD", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.RecordHandshake(i%2 == 0)
			m.RecordEviction()
		}(i)
	}
	wg.Wait()

	s := m.Snapshot()
	assert.Equal(t, Snapshot{Accepted: 5, Rejected: 5, Evictions: 10}, s)
}
