package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/mingwup/internal/events"
)

func TestNewWritesFileAndMirrorsConsole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mingwup.log")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("previous run\n"), 0o644))

	q := events.NewQueue()
	logger, closer, err := New(Options{Path: path, Queue: q})
	require.NoError(t, err)
	t.Cleanup(func() { hclog.SetDefault(hclog.New(nil)) })

	logger.Debug("checking archive", "file", "gcc.7z")
	logger.Info("extraction complete")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "previous run\n"), "log must be appended to")
	assert.Contains(t, text, "[DEBUG] mingwup: checking archive: file=gcc.7z")
	assert.Contains(t, text, "[INFO]  mingwup: extraction complete")

	got := q.Take()
	require.Len(t, got, 1)
	assert.Equal(t, "extraction complete", got[0].Message)
}

func TestNewWithoutFile(t *testing.T) {
	q := events.NewQueue()
	logger, closer, err := New(Options{Queue: q, ConsoleLevel: hclog.Warn})
	require.NoError(t, err)
	t.Cleanup(func() { hclog.SetDefault(hclog.New(nil)) })

	logger.Info("quiet")
	logger.Warn("loud")
	assert.NoError(t, closer.Close())

	got := q.Take()
	require.Len(t, got, 1)
	assert.Equal(t, "loud", got[0].Message)
}
