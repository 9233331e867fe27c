// SPDX-License-Identifier: MIT
package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{"Warning", LevelWarn, true},
		{"warn", LevelWarn, true},
		{" error ", LevelError, true},
		{"fatal", LevelFatal, true},
		{"loud", LevelInfo, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestSetupWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "visualizer.log")

	closeLog, err := Setup(Options{Level: LevelDebug, File: path})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = Setup(Options{Level: LevelInfo, Console: true})
	})

	engineLog := Component("engine")
	engineLog.Info().Int("bars", 50).Msg("stream started")
	Debugf("tick %d", 7)
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"engine"`)
	assert.Contains(t, string(data), `"bars":50`)
	assert.Contains(t, string(data), "tick 7")
	assert.Equal(t, LevelDebug, GetLevel())
}
