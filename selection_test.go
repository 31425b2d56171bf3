package lecture_archiver

import (
	"strings"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseSelection(t *testing.T) {
	assert := assert_.New(t)

	tests := []struct {
		input    string
		count    int
		expected []int
		ok       bool
	}{
		{"0 2-4 2", 10, []int{0, 2, 3, 4}, true},
		{"", 10, []int{}, true},
		{"5", 10, []int{5}, true},
		{"3 1 1 3", 10, []int{1, 3}, true},
		{"0-0", 10, []int{0}, true},
		{"x", 10, nil, false},
		{"1-x", 10, nil, false},
		{"x-1", 10, nil, false},
		{"0 99", 10, nil, false},
		{"-1", 10, nil, false},
	}
	for _, tt := range tests {
		actual, err := ParseSelection(tt.input, tt.count)
		if tt.ok {
			assert.NoError(err, tt.input)
			assert.Equal(tt.expected, actual, tt.input)
		} else {
			assert.Error(err, tt.input)
		}
	}
}

func TestSelectAll(t *testing.T) {
	assert := assert_.New(t)
	assert.Equal([]int{0, 1, 2}, SelectAll(3))
	assert.Empty(SelectAll(0))
}

func TestAskSelectionRepromptsOnBadInput(t *testing.T) {
	assert := assert_.New(t)

	core, logs := observer.New(zapcore.WarnLevel)
	p := &scriptedPrompter{answers: []string{"nope", "0 2"}}
	selection, err := AskSelection(p, zap.New(core).Sugar(), 5)
	assert.NoError(err)
	assert.Equal([]int{0, 2}, selection)
	assert.Equal(2, p.asked)
	// The rejected attempt goes through the logger, not straight to stdout.
	assert.Equal(1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestPrintTargets(t *testing.T) {
	assert := assert_.New(t)

	targets := []DownloadTarget{
		{DisplayTitle: "Lecture 1", RecordedAt: time.Date(2024, 10, 2, 9, 0, 0, 0, time.UTC)},
		{DisplayTitle: "Lecture 2 [primary]", RecordedAt: time.Date(2024, 10, 9, 9, 0, 0, 0, time.UTC)},
	}

	var all strings.Builder
	PrintTargets(&all, targets, nil)
	assert.Contains(all.String(), "Nr.")
	assert.Contains(all.String(), "2024-10-02")
	assert.Contains(all.String(), "Lecture 2 [primary]")

	var filtered strings.Builder
	PrintTargets(&filtered, targets, []int{1})
	assert.NotContains(filtered.String(), "Lecture 1 ")
	assert.Contains(filtered.String(), "  * ")
	assert.Contains(filtered.String(), "Lecture 2 [primary]")

	var empty strings.Builder
	PrintTargets(&empty, nil, nil)
	assert.Empty(empty.String())
}
