package lecture_archiver

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/alanbriolat/lecture-archiver/generic"
)

// PrintTargets renders an index/date/title table for a resolved course. When
// selected is non-nil, only those indices are shown, marked with a star
// instead of their number (used to echo a confirmed selection back).
func PrintTargets(w io.Writer, targets []DownloadTarget, selected []int) {
	if len(targets) == 0 {
		return
	}
	dateLen := len("Date")
	titleLen := len("Title")
	for _, t := range targets {
		if l := len(t.RecordedAt.UTC().Format("2006-01-02")); l > dateLen {
			dateLen = l
		}
		if l := len(t.DisplayTitle); l > titleLen {
			titleLen = l
		}
	}

	var filter generic.Set[int]
	if selected != nil {
		filter = generic.NewSet(selected...)
	}

	fmt.Fprintf(w, " Nr. | %-*s | %-*s\n", dateLen, "Date", titleLen, "Title")
	for i, t := range targets {
		if filter != nil && !filter.Contains(i) {
			continue
		}
		nr := fmt.Sprintf("%3d ", i)
		if filter != nil {
			nr = "  * "
		}
		fmt.Fprintf(w, "%s | %-*s | %-*s\n", nr, dateLen, t.RecordedAt.UTC().Format("2006-01-02"), titleLen, t.DisplayTitle)
	}
}

// ParseSelection parses an interactive selection: whitespace-separated
// tokens, each a single index or an inclusive A-B range. The result is
// deduplicated and sorted ascending; empty input is an empty (valid)
// selection. A token that doesn't parse makes the whole attempt fail so the
// caller can re-prompt.
func ParseSelection(input string, count int) ([]int, error) {
	selected := generic.NewSet[int]()
	for _, token := range strings.Fields(input) {
		first, second, isRange := strings.Cut(token, "-")
		if isRange {
			start, err := strconv.Atoi(first)
			if err != nil {
				return nil, fmt.Errorf("invalid range: %s", token)
			}
			end, err := strconv.Atoi(second)
			if err != nil {
				return nil, fmt.Errorf("invalid range: %s", token)
			}
			for i := start; i <= end; i++ {
				selected.Add(i)
			}
		} else {
			n, err := strconv.Atoi(token)
			if err != nil {
				return nil, fmt.Errorf("invalid number: %s", token)
			}
			selected.Add(n)
		}
	}
	result := selected.ToSlice()
	sort.Ints(result)
	for _, i := range result {
		if i < 0 || i >= count {
			return nil, fmt.Errorf("selection %d is out of range", i)
		}
	}
	return result, nil
}

// SelectAll returns every index of an n-element list, for --all mode.
func SelectAll(n int) []int {
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	return all
}

// AskSelection prompts until the user enters a parseable selection.
func AskSelection(p Prompter, log *zap.SugaredLogger, count int) ([]int, error) {
	const prompt = "Enter numbers of the above lectures you want to download separated by space (e.g. 0 5 12 14).\n" +
		"You can also write ranges as X-Y (e.g. 0-5 8).\n" +
		"Just press enter if you don't want to download anything.\n"
	for {
		input, err := p.Ask(prompt)
		if err != nil {
			return nil, err
		}
		selection, err := ParseSelection(input, count)
		if err == nil {
			return selection, nil
		}
		log.Warnf("Invalid selection: %v", err)
	}
}
