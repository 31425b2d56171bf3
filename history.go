package lecture_archiver

import (
	"bufio"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// A History is a line-oriented text file of already-downloaded source URLs,
// consulted before each download so deleted files aren't re-fetched. A zero
// Path disables it.
type History struct {
	Path string
	Log  *zap.SugaredLogger
}

func (h *History) Enabled() bool {
	return h != nil && h.Path != ""
}

// Contains reports whether the URL was recorded by an earlier download.
// A missing history file just means an empty history.
func (h *History) Contains(sourceURL string) (bool, error) {
	f, err := os.Open(h.Path)
	if err != nil {
		if os.IsNotExist(err) {
			h.Log.Warnf("No history file found at %s, creating a new one", h.Path)
			return false, nil
		}
		return false, fmt.Errorf("failed to read history file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if scanner.Text() == sourceURL {
			return true, nil
		}
	}
	return false, scanner.Err()
}

// Append records a URL as downloaded.
func (h *History) Append(sourceURL string) error {
	f, err := os.OpenFile(h.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintln(f, sourceURL); err != nil {
		return fmt.Errorf("failed to append to history file: %w", err)
	}
	return nil
}
