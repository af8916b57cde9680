package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewCoreWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := zap.New(newCore(zapcore.AddSync(&buf), zapcore.InfoLevel))

	l.Debug("dropped")
	l.Info("note created", zap.String("note_id", "n-1"))
	require.NoError(t, l.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "note created", entry["msg"])
	assert.Equal(t, "n-1", entry["note_id"])
	assert.Contains(t, entry, "timestamp")
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	assert.Error(t, Init(Options{Level: "loud"}))
}

func TestInitWithFile(t *testing.T) {
	prev, prevSugar := Log, Sugar
	t.Cleanup(func() { Log, Sugar = prev, prevSugar })

	require.NoError(t, Init(Options{Level: "debug", File: filepath.Join(t.TempDir(), "app.log")}))
	assert.True(t, Log.Core().Enabled(zapcore.DebugLevel))
}
