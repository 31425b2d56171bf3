package lecture_archiver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// partSuffix marks an in-progress transfer. A crash mid-download leaves only
// the .part file; the final path only ever holds a complete file.
const partSuffix = ".part"

// A Downloader streams resolved targets to disk, one at a time, reusing the
// shared HTTP session for its auth cookies.
type Downloader struct {
	Client *http.Client
	Log    *zap.SugaredLogger
	// HideProgress disables the byte progress bar (for dumb terminals or logs).
	HideProgress bool
}

// Download fetches one target into destination/<target.FilePath>. If the
// final file already exists the download is skipped; this is the primary
// de-duplication across runs. The body is written to a .part file that is
// renamed into place only once fully written. Stale .part files from
// interrupted runs are truncated and restarted, not resumed.
func (d *Downloader) Download(ctx context.Context, destination string, target DownloadTarget) error {
	finalPath := filepath.Join(destination, target.FilePath)
	if err := os.MkdirAll(filepath.Dir(finalPath), 0755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	if _, err := os.Stat(finalPath); err == nil {
		d.Log.Infof("Download skipped - file already exists: %s", target.EpisodeLabel)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.SourceURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %s for %s", ErrUpstreamUnavailable, resp.Status, target.SourceURL)
	}

	d.Log.Infof("Downloading %s (%.2f MiB)", target.EpisodeLabel, float64(max(resp.ContentLength, 0))/1024/1024)

	partPath := finalPath + partSuffix
	f, err := os.Create(partPath)
	if err != nil {
		return fmt.Errorf("failed to create part file: %w", err)
	}

	body := &readerContext{ctx: ctx, r: resp.Body}
	var out io.Writer = f
	if resp.ContentLength > 0 && !d.HideProgress {
		bar := progressbar.DefaultBytes(resp.ContentLength, "downloading")
		out = io.MultiWriter(f, bar)
	}
	if _, err := io.Copy(out, body); err != nil {
		f.Close()
		return fmt.Errorf("failed to save stream: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to finish part file: %w", err)
	}

	if err := os.Rename(partPath, finalPath); err != nil {
		return fmt.Errorf("failed to publish downloaded file: %w", err)
	}
	d.Log.Infof("Downloaded file: %s", target.EpisodeLabel)
	return nil
}
