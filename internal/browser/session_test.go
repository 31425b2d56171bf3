package browser

import (
	"testing"

	"github.com/chromedp/cdproto/network"
	assert_ "github.com/stretchr/testify/assert"

	"github.com/alanbriolat/lecture-archiver"
)

func TestSessionCookies(t *testing.T) {
	assert := assert_.New(t)

	raw := []*network.Cookie{
		{Name: "PLAY_SESSION", Value: "abc", Domain: "echo360.org.uk"},
		{Name: "ECHO_JWT", Value: "def", Domain: "echo360.org.uk"},
	}
	assert.Equal(lecture_archiver.SessionCookies{
		"PLAY_SESSION": "abc",
		"ECHO_JWT":     "def",
	}, sessionCookies(raw))

	assert.Empty(sessionCookies(nil))
}

func TestCookieParamsScopedToURLs(t *testing.T) {
	assert := assert_.New(t)

	params := network.GetCookies().WithUrls([]string{lecture_archiver.PlatformBaseURL})
	assert.Equal([]string{lecture_archiver.PlatformBaseURL}, params.Urls)
}
