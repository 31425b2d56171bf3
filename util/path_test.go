package util

import (
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestRemoveIllegalChars(t *testing.T) {
	assert := assert_.New(t)

	assert.Equal("INFR10091", RemoveIllegalChars("INFR10091"))
	assert.Equal("ADS 20252026", RemoveIllegalChars(`ADS 2025/2026`))
	assert.Equal("name", RemoveIllegalChars(`?<>:*|"^/\name`))
	assert.Equal("", RemoveIllegalChars(`\/`))
	// Unicode passes through untouched.
	assert.Equal("Maths für Informatik", RemoveIllegalChars("Maths für Informatik"))
}
