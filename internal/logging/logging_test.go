package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewCreatesTimestampedLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	logger, err := New(Options{LogDir: dir, FileOnly: true})
	require.NoError(t, err)

	logger.Info("player started", zap.String("file", "test.mp3"))
	require.NoError(t, logger.Sync())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	name := entries[0].Name()
	assert.True(t, strings.HasPrefix(name, "mp3player_"))
	assert.True(t, strings.HasSuffix(name, ".log"))

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Contains(t, string(data), "player started")
	assert.Contains(t, string(data), "test.mp3")
}

func TestNewWithoutSinksReturnsNop(t *testing.T) {
	logger, err := New(Options{FileOnly: true})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	// Must not panic on use.
	logger.Info("ignored")
}

func TestNewVerboseEnablesDebug(t *testing.T) {
	dir := t.TempDir()

	logger, err := New(Options{LogDir: dir, FileOnly: true, Verbose: true})
	require.NoError(t, err)

	logger.Debug("debug line")
	require.NoError(t, logger.Sync())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "debug line")
}
