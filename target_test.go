package lecture_archiver

import (
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"
)

func TestBestFile(t *testing.T) {
	assert := assert_.New(t)

	_, ok := BestFile(nil)
	assert.False(ok)

	// Largest height wins regardless of list order.
	files := []MediaFile{
		{URL: "small", Height: 480, Size: 100},
		{URL: "large", Height: 720, Size: 50},
	}
	best, ok := BestFile(files)
	assert.True(ok)
	assert.Equal("large", best.URL)

	best, ok = BestFile([]MediaFile{files[1], files[0]})
	assert.True(ok)
	assert.Equal("large", best.URL)

	// Equal heights: the larger size wins.
	best, ok = BestFile([]MediaFile{
		{URL: "smaller", Height: 720, Size: 10},
		{URL: "bigger", Height: 720, Size: 20},
	})
	assert.True(ok)
	assert.Equal("bigger", best.URL)

	// The input slice is left untouched.
	assert.Equal("small", files[0].URL)
}

func TestTargetsFromMediaSingleTrack(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	desc := &MediaDescriptor{
		Title:         "Lecture 3",
		SectionNumber: "MATH08057",
		MediaID:       "feedbeef-0001",
		RecordedAt:    time.Date(2024, 10, 9, 9, 0, 0, 0, time.UTC),
		PrimaryFiles:  []MediaFile{{URL: "https://content.example/only.mp4", Height: 720, Size: 1}},
	}
	targets := TargetsFromMedia(desc)
	require.Len(targets, 1)
	// Only one track, so no suffix anywhere.
	assert.Equal("Lecture 3", targets[0].DisplayTitle)
	assert.Equal("2024-10-09 Lecture 3", targets[0].EpisodeLabel)
	assert.Equal("MATH08057/2024-10-09-feedbeef.mp4", targets[0].FilePath)
	assert.Equal("https://content.example/only.mp4", targets[0].SourceURL)
}

func TestTargetsFromMediaSanitizesComponents(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)

	desc := &MediaDescriptor{
		Title:          "Lecture",
		SectionNumber:  `A/B:C*D`,
		MediaID:        "0000",
		RecordedAt:     time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		SecondaryFiles: []MediaFile{{URL: "u", Height: 1, Size: 1}},
	}
	targets := TargetsFromMedia(desc)
	require.Len(targets, 1)
	assert.Equal("ABCD/2024-01-02-0000.mp4", targets[0].FilePath)
}
