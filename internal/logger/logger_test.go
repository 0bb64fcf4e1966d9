package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreLogger(t *testing.T) {
	t.Helper()
	orig := Logger
	t.Cleanup(func() {
		if logFile != nil {
			_ = logFile.Close()
			logFile = nil
		}
		Logger = orig
	})
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{" WARN ", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"fatal", log.FatalLevel},
		{"", log.InfoLevel},
		{"verbose", log.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.in), tt.in)
	}
}

func TestConfigure_File(t *testing.T) {
	restoreLogger(t)

	path := filepath.Join(t.TempDir(), "folio.log")
	require.NoError(t, Configure("debug", path, true))
	assert.Equal(t, log.DebugLevel, Logger.GetLevel())

	With("assistant").Info("session created", "session_id", "abc")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"session_id":"abc"`)
	assert.Contains(t, string(data), "assistant")
}

func TestConfigure_EnvFallback(t *testing.T) {
	restoreLogger(t)
	t.Setenv("LOG_LEVEL", "error")

	require.NoError(t, Configure("", "", false))
	assert.Equal(t, log.ErrorLevel, Logger.GetLevel())
}

func TestConfigure_BadFile(t *testing.T) {
	restoreLogger(t)

	err := Configure("info", filepath.Join(t.TempDir(), "missing", "folio.log"), false)
	assert.Error(t, err)
}

func TestConfigure_ClosesPreviousFile(t *testing.T) {
	restoreLogger(t)
	dir := t.TempDir()

	require.NoError(t, Configure("info", filepath.Join(dir, "first.log"), false))
	first := logFile
	require.NotNil(t, first)

	require.NoError(t, Configure("info", filepath.Join(dir, "second.log"), false))
	_, err := first.WriteString("late line\n")
	assert.ErrorIs(t, err, os.ErrClosed)
	assert.NotSame(t, first, logFile)

	second := logFile
	require.NoError(t, Configure("info", "", false))
	_, err = second.WriteString("late line\n")
	assert.ErrorIs(t, err, os.ErrClosed)
	assert.Nil(t, logFile)
}
