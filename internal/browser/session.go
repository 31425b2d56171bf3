// Package browser drives the SSO login flow through a real browser and
// bridges the resulting session cookies back into the plain HTTP client.
package browser

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/alanbriolat/lecture-archiver"
)

// The whole login flow has to finish within this; individual steps have
// their own shorter timeouts.
const sessionTimeout = 180 * time.Second

// A Session owns a live browser automation context. It exists only for the
// duration of one login attempt: navigate, fill forms, extract cookies,
// close.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func newSession(ctx context.Context, headless bool) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("window-size", "1280,960"),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, sessionTimeout)
	cancel := func() {
		cancelTimeout()
		cancelBrowser()
		cancelAlloc()
	}

	// Empty Run starts the browser process, surfacing launch failures early.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		return nil, err
	}
	return &Session{ctx: browserCtx, cancel: cancel}, nil
}

func (s *Session) Context() context.Context {
	return s.ctx
}

// Close tears down the browser. The session must not be used afterwards.
func (s *Session) Close() {
	s.cancel()
}

// Navigate loads a URL and returns the URL the browser actually settled on.
func (s *Session) Navigate(url string) (string, error) {
	var current string
	err := chromedp.Run(s.ctx,
		chromedp.Navigate(url),
		chromedp.Sleep(time.Second),
		chromedp.Location(&current),
	)
	return current, err
}

// Location returns the browser's current URL.
func (s *Session) Location() (string, error) {
	var current string
	err := chromedp.Run(s.ctx, chromedp.Location(&current))
	return current, err
}

// Cookies extracts the browser's cookies for the given URLs as a plain
// name->value mapping. This is the only place an automation-engine cookie
// type appears; everything downstream sees lecture_archiver.SessionCookies.
func (s *Session) Cookies(urls ...string) (lecture_archiver.SessionCookies, error) {
	var raw []*network.Cookie
	err := chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = network.GetCookies().WithUrls(urls).Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}
	return sessionCookies(raw), nil
}

func sessionCookies(raw []*network.Cookie) lecture_archiver.SessionCookies {
	cookies := make(lecture_archiver.SessionCookies, len(raw))
	for _, c := range raw {
		cookies[c.Name] = c.Value
	}
	return cookies
}
