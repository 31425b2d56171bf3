package util

import "strings"

const illegalPathChars = `?<>:*|"^/\`

// RemoveIllegalChars strips characters that common filesystems reject,
// including both slash variants. It must be applied to individual path
// components, never to a whole path, otherwise it would collapse the
// separators between components.
func RemoveIllegalChars(component string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(illegalPathChars, r) {
			return -1
		}
		return r
	}, component)
}
