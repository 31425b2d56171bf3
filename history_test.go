package lecture_archiver

import (
	"path/filepath"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHistory(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	h := &History{
		Path: filepath.Join(t.TempDir(), "history.txt"),
		Log:  zap.NewNop().Sugar(),
	}
	assert.True(h.Enabled())

	// Missing file is an empty history, not an error.
	seen, err := h.Contains("https://content.example/a.mp4")
	require.NoError(err)
	assert.False(seen)

	require.NoError(h.Append("https://content.example/a.mp4"))
	require.NoError(h.Append("https://content.example/b.mp4"))

	seen, err = h.Contains("https://content.example/a.mp4")
	require.NoError(err)
	assert.True(seen)

	// Exact line match only - URL prefixes don't count.
	seen, err = h.Contains("https://content.example/a")
	require.NoError(err)
	assert.False(seen)
}

func TestHistoryDisabled(t *testing.T) {
	assert := assert_.New(t)
	assert.False((&History{}).Enabled())
	var nilHistory *History
	assert.False(nilHistory.Enabled())
}
