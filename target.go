package lecture_archiver

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/alanbriolat/lecture-archiver/util"
)

// A DownloadTarget is one resolvable video stream: a direct (time-limited)
// media URL plus everything needed to name and describe the file it will
// become. Targets are created by the Resolver, consumed by selection and the
// Downloader, and never mutated.
type DownloadTarget struct {
	// FilePath is the relative path the video will be saved to:
	// <sanitized section label>/<date>-<short media id>[-<track>].mp4.
	// Unique per lecture+track within a resolving session.
	FilePath string
	// SourceURL is the direct media URL. These expire, so targets should be
	// downloaded soon after resolving.
	SourceURL string
	// DisplayTitle is the human-readable title, disambiguated with a track
	// suffix when a lecture has both camera tracks.
	DisplayTitle string
	// EpisodeLabel is the date-prefixed title used for logs and history.
	EpisodeLabel string
	// RecordedAt is when the lecture was captured (UTC).
	RecordedAt time.Time
}

// A MediaFile is one physical file option within a camera track.
type MediaFile struct {
	URL    string `json:"s3Url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Size   int64  `json:"size"`
}

// Track labels used by the platform for the two camera streams.
const (
	TrackPrimary   = "primary"
	TrackSecondary = "secondary"
)

// BestFile picks the preferred file from a track: largest height, ties broken
// by largest size. Returns false if the track is empty.
func BestFile(files []MediaFile) (MediaFile, bool) {
	if len(files) == 0 {
		return MediaFile{}, false
	}
	sorted := make([]MediaFile, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Height != sorted[j].Height {
			return sorted[i].Height > sorted[j].Height
		}
		return sorted[i].Size > sorted[j].Size
	})
	return sorted[0], true
}

// TargetsFromMedia emits one DownloadTarget per non-empty camera track of a
// resolved lecture. When both tracks exist, title, episode label and filename
// all gain a track suffix so the two files can't collide.
func TargetsFromMedia(desc *MediaDescriptor) []DownloadTarget {
	both := len(desc.PrimaryFiles) > 0 && len(desc.SecondaryFiles) > 0
	date := desc.RecordedAt.UTC().Format("2006-01-02")
	shortID, _, _ := strings.Cut(desc.MediaID, "-")

	tracks := []struct {
		label string
		files []MediaFile
	}{
		{TrackPrimary, desc.PrimaryFiles},
		{TrackSecondary, desc.SecondaryFiles},
	}

	var targets []DownloadTarget
	for _, track := range tracks {
		best, ok := BestFile(track.files)
		if !ok {
			continue
		}
		var fileSuffix, titleSuffix string
		if both {
			fileSuffix = "-" + track.label
			titleSuffix = " [" + track.label + "]"
		}
		filename := date + "-" + shortID + fileSuffix + ".mp4"
		targets = append(targets, DownloadTarget{
			// Sanitize each component individually so a slash inside the
			// section label can't merge it with the file name.
			FilePath: filepath.Join(
				util.RemoveIllegalChars(desc.SectionNumber),
				util.RemoveIllegalChars(filename),
			),
			SourceURL:    best.URL,
			DisplayTitle: desc.Title + titleSuffix,
			EpisodeLabel: date + " " + desc.Title + titleSuffix,
			RecordedAt:   desc.RecordedAt,
		})
	}
	return targets
}
