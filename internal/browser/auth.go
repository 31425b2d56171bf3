package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/alanbriolat/lecture-archiver"
)

const (
	platformHost = "echo360.org.uk"
	// Where the platform sends unauthenticated browsers to start SSO.
	loginRedirectPrefix = "https://login.echo360.org.uk/login"
	// Appended to an entered identity that has no "@".
	institutionDomain = "ed.ac.uk"

	ssoTimeout  = 30 * time.Second
	elementWait = 5 * time.Second
)

// An Authenticator establishes an authenticated platform session on the
// shared HTTP client: cached cookies first, full browser SSO flow otherwise.
type Authenticator struct {
	Client   *http.Client
	Vault    *lecture_archiver.Vault
	Prompter lecture_archiver.Prompter
	Log      *zap.SugaredLogger
	Headless bool
}

// Authenticate makes the HTTP client's cookie jar good for targetURL.
// Returns false when this attempt failed; the caller skips the current
// course rather than aborting the batch.
func (a *Authenticator) Authenticate(ctx context.Context, targetURL string) bool {
	if cached := a.Vault.Load(); cached.IsSome() {
		a.Log.Debug("Loaded session cookies from file")
		lecture_archiver.InjectCookies(a.Client.Jar, platformHost, cached.Value)
		if a.probe(ctx, targetURL) {
			a.Log.Debug("Session cookies are still valid")
			return true
		}
		a.Log.Info("Session cookies are stale, need to log in again")
	}

	driver := &LoginDriver{Prompter: a.Prompter, Log: a.Log, Headless: a.Headless}
	result, err := driver.Login(ctx)
	if err != nil {
		a.Log.Errorf("Single sign-on failed: %v", err)
		return false
	}
	defer result.Close()

	a.Log.Info("Authenticating with the lecture platform...")
	if err := a.completePlatformLogin(result, targetURL); err != nil {
		a.Log.Errorf("Platform login failed: %v", err)
		return false
	}

	cookies, err := result.Session.Cookies(lecture_archiver.PlatformBaseURL)
	if err != nil {
		a.Log.Errorf("Could not retrieve platform cookies after login: %v", err)
		return false
	}
	lecture_archiver.InjectCookies(a.Client.Jar, platformHost, cookies)

	if err := a.Vault.Save(cookies); err != nil {
		a.Log.Warnf("Could not save session: %v", err)
	}
	return true
}

// probe checks whether the current jar already grants access: a GET whose
// final URL is still on the platform's own domain means no login redirect
// happened.
func (a *Authenticator) probe(ctx context.Context, targetURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return false
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return isPlatformURL(resp.Request.URL)
}

func isPlatformURL(u *url.URL) bool {
	return u.Host == platformHost && !strings.HasPrefix(u.Path, "/login")
}

// completePlatformLogin navigates the authenticated browser to the platform,
// submits the SSO identity into its login form, and waits for the SAML dance
// to settle back on the platform.
func (a *Authenticator) completePlatformLogin(result *AuthResult, targetURL string) error {
	session := result.Session

	current, err := session.Navigate(targetURL)
	if err != nil {
		return fmt.Errorf("%w: %v", lecture_archiver.ErrUnexpectedLoginState, err)
	}
	a.Log.Debugf("Redirected to %s for login", current)
	if !strings.HasPrefix(current, loginRedirectPrefix) {
		return fmt.Errorf("%w: landed on %s", lecture_archiver.ErrUnexpectedRedirect, current)
	}

	identity := result.Identity
	if !strings.Contains(identity, "@") {
		identity += "@" + institutionDomain
	}

	// The login form has been seen with both id- and class-addressed fields,
	// so tolerate either; first match wins.
	if err := sendKeysFirst(session, identity, `#email`, `.email`); err != nil {
		return err
	}
	if err := clickFirst(session, `#submitBtn`, `.submit-btn`); err != nil {
		return err
	}

	return a.waitForPlatform(session)
}

// waitForPlatform polls the browser URL until the SSO flow settles on the
// platform outside its login path. Bouncing back to the SSO page after
// having left it is logged but tolerated - some tenants round-trip once
// more before finishing.
func (a *Authenticator) waitForPlatform(session *Session) error {
	a.Log.Debugf("Waiting up to %v for SSO flow to complete...", ssoTimeout)
	deadline := time.Now().Add(ssoTimeout)
	var lastURL string
	var leftLogin bool
	for time.Now().Before(deadline) {
		current, err := session.Location()
		if err != nil {
			return fmt.Errorf("%w: %v", lecture_archiver.ErrUnexpectedLoginState, err)
		}
		if current != lastURL {
			a.Log.Debugf("URL changed: %s", current)
			lastURL = current
		}

		parsed, err := url.Parse(current)
		if err == nil && isPlatformURL(parsed) {
			a.Log.Debug("Reached the platform, SSO flow complete")
			return nil
		}

		onLoginPage := strings.HasPrefix(current, loginRedirectPrefix)
		if leftLogin && onLoginPage {
			a.Log.Warnf("SSO flow bounced back to the login page, still waiting...")
		}
		if !onLoginPage {
			leftLogin = true
		}
		time.Sleep(200 * time.Millisecond)
	}
	return lecture_archiver.ErrSSOTimeout
}

func sendKeysFirst(session *Session, value string, selectors ...string) error {
	return runFirst(session, func(sel string) chromedp.Action {
		return chromedp.SendKeys(sel, value, chromedp.ByQuery)
	}, selectors...)
}

func clickFirst(session *Session, selectors ...string) error {
	return runFirst(session, func(sel string) chromedp.Action {
		return chromedp.Click(sel, chromedp.ByQuery)
	}, selectors...)
}

// runFirst tries an action against each selector in turn with a bounded wait
// per attempt, settling for the first one that works.
func runFirst(session *Session, action func(sel string) chromedp.Action, selectors ...string) error {
	var lastErr error
	for _, sel := range selectors {
		ctx, cancel := context.WithTimeout(session.Context(), elementWait)
		err := chromedp.Run(ctx,
			chromedp.WaitVisible(sel, chromedp.ByQuery),
			action(sel),
		)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("%w: no selector matched (%v)", lecture_archiver.ErrUnexpectedLoginState, lastErr)
}
