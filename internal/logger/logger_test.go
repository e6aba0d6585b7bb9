package logger_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/media-toolkit/internal/logger"
)

func TestNew_WritesJSONWithFields(t *testing.T) {
	out := filepath.Join(t.TempDir(), "app.log")

	l, err := logger.New(logger.Config{Level: "debug", OutputPaths: []string{out}})
	require.NoError(t, err)

	l.With(logger.String("job_id", "job-1")).Info("job started", logger.Int("attempt", 1))
	l.Debug("visible at debug")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `"msg":"job started"`)
	assert.Contains(t, text, `"job_id":"job-1"`)
	assert.Contains(t, text, `"attempt":1`)
	assert.Contains(t, text, "visible at debug")
}

func TestNew_LevelFilters(t *testing.T) {
	out := filepath.Join(t.TempDir(), "app.log")

	l, err := logger.New(logger.Config{Level: "warn", OutputPaths: []string{out}})
	require.NoError(t, err)

	l.Info("hidden")
	l.Error("shown", logger.Error(errors.New("boom")))
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(data), "hidden"))
	assert.Contains(t, string(data), "boom")
}

func TestNewNop(t *testing.T) {
	l := logger.NewNop()
	l.Info("nothing", logger.Bool("ok", true))
	assert.Same(t, l, l.With(logger.String("k", "v")))
	assert.NoError(t, l.Sync())
}
