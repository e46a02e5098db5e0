package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithRequestAddsField(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := CoreLogger
	SetCoreLogger(zap.New(core).Sugar())
	defer SetCoreLogger(prev)

	WithRequest("req-1").Infof("classified %s", "leaf.jpg")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "classified leaf.jpg", entry.Message)
	assert.Equal(t, "req-1", entry.ContextMap()["requestID"])
}

func TestInitFileMode(t *testing.T) {
	prev := CoreLogger
	defer SetCoreLogger(prev)

	dir := t.TempDir()
	require.NoError(t, Init(Options{Dir: dir, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1}))
	Infof("hello %d", 1)
	Sync()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello 1")
}

func TestInitVerbose(t *testing.T) {
	prev := CoreLogger
	defer func() {
		SetCoreLogger(prev)
		SetLevel(zapcore.InfoLevel)
	}()

	require.NoError(t, Init(Options{Console: true, Verbose: true}))
	assert.True(t, CoreLogger.Desugar().Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, Init(Options{Console: true}))
	assert.False(t, CoreLogger.Desugar().Core().Enabled(zapcore.DebugLevel))
}
