package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLevels(t *testing.T) {
	l, err := New(false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))

	l, err = New(true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestLeveledForwardsKeyValues(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	lv := NewLeveled(zap.New(core), "google")

	lv.Warn("retrying request", "attempt", 2)
	lv.Error("request failed", "status", 503)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "retrying request", entries[0].Message)
	assert.Equal(t, "google", entries[0].ContextMap()["component"])
	assert.Equal(t, int64(2), entries[0].ContextMap()["attempt"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}
