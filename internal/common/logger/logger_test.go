package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOutput_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "application.log")

	zl := NewWithOutput("info", "json", path)
	log := NewZapAdapter(zl)
	log.WithFields(map[string]interface{}{"jobId": "3901"}).Info("submitted application", map[string]interface{}{
		"error": errors.New("none"),
	})
	log.Debug("dropped below level", nil)
	_ = zl.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"jobId":"3901"`)
	assert.Contains(t, string(data), "submitted application")
	assert.NotContains(t, string(data), "dropped below level")
}

func TestNewWithOutput_FallsBackOnBadPath(t *testing.T) {
	zl := NewWithOutput("debug", "console", filepath.Join(t.TempDir(), "missing", "dir", "x.log"))
	require.NotNil(t, zl)
}

func TestTestLogger(t *testing.T) {
	log := NewTestLogger(t)
	log.WithError(errors.New("boom")).With(map[string]interface{}{"phase": "login"}).Warn("retrying", nil)
	NewNoOpLogger().Error("ignored", map[string]interface{}{"k": 1})
}
