package lecture_archiver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDownloader(t *testing.T, handler http.HandlerFunc) (*Downloader, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &Downloader{
		Client:       server.Client(),
		Log:          zap.NewNop().Sugar(),
		HideProgress: true,
	}, server
}

func TestDownload(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	fetches := 0
	downloader, server := newTestDownloader(t, func(w http.ResponseWriter, r *http.Request) {
		fetches++
		fmt.Fprint(w, "video bytes")
	})

	dir := t.TempDir()
	target := DownloadTarget{
		FilePath:     filepath.Join("COURSE", "2024-10-02-abcd.mp4"),
		SourceURL:    server.URL + "/video.mp4",
		EpisodeLabel: "2024-10-02 Lecture",
	}

	require.NoError(downloader.Download(context.Background(), dir, target))

	finalPath := filepath.Join(dir, target.FilePath)
	data, err := os.ReadFile(finalPath)
	require.NoError(err)
	assert.Equal("video bytes", string(data))
	// No .part file left around after a successful download.
	_, err = os.Stat(finalPath + partSuffix)
	assert.True(os.IsNotExist(err))

	// The second call is a no-op skip: one network fetch in total.
	require.NoError(downloader.Download(context.Background(), dir, target))
	assert.Equal(1, fetches)
}

func TestDownloadOverwritesStalePart(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	downloader, server := newTestDownloader(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "fresh")
	})

	dir := t.TempDir()
	target := DownloadTarget{FilePath: "a.mp4", SourceURL: server.URL}

	// Simulate an interrupted earlier run.
	stale := filepath.Join(dir, "a.mp4"+partSuffix)
	require.NoError(os.WriteFile(stale, []byte("half of a much longer stale download"), 0644))

	require.NoError(downloader.Download(context.Background(), dir, target))
	data, err := os.ReadFile(filepath.Join(dir, "a.mp4"))
	require.NoError(err)
	assert.Equal("fresh", string(data))
}

func TestDownloadUpstreamError(t *testing.T) {
	assert := assert_.New(t)

	downloader, server := newTestDownloader(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusForbidden)
	})

	dir := t.TempDir()
	err := downloader.Download(context.Background(), dir, DownloadTarget{FilePath: "a.mp4", SourceURL: server.URL})
	assert.ErrorIs(err, ErrUpstreamUnavailable)

	// Nothing published on failure.
	_, statErr := os.Stat(filepath.Join(dir, "a.mp4"))
	assert.True(os.IsNotExist(statErr))
}

func TestDownloadCancelledLeavesOnlyPartFile(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	downloader, server := newTestDownloader(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "some bytes")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	err := downloader.Download(ctx, dir, DownloadTarget{FilePath: "a.mp4", SourceURL: server.URL})
	require.Error(err)

	// The final path never appears; at worst a .part file does.
	_, statErr := os.Stat(filepath.Join(dir, "a.mp4"))
	assert.True(os.IsNotExist(statErr))
}
