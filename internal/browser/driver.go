package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/alanbriolat/lecture-archiver"
	"github.com/alanbriolat/lecture-archiver/async"
	"github.com/alanbriolat/lecture-archiver/generic"
	sync_ "github.com/alanbriolat/lecture-archiver/internal/sync"
)

const (
	identityProviderURL = "https://login.microsoftonline.com/"

	credentialsWait         = 10 * time.Second
	twoFactorPromptTimeout  = 20 * time.Second
	twoFactorResolveTimeout = 30 * time.Second
	pollInterval            = 500 * time.Millisecond
)

// TwoFactorKind is the variety of second-factor challenge the identity
// provider presented.
type TwoFactorKind int

const (
	// TwoFactorApproveNumber displays a number the user confirms out-of-band
	// in their authenticator app.
	TwoFactorApproveNumber TwoFactorKind = iota + 1
	// TwoFactorSixDigitCode asks for a 6-digit one-time code.
	TwoFactorSixDigitCode
)

// An AuthResult is a completed identity-provider login: who authenticated,
// and the live browser session carrying their identity-provider cookies. The
// session is used only to complete the platform-side login and extract its
// cookies, then closed.
type AuthResult struct {
	Identity string
	Session  *Session
}

func (r *AuthResult) Close() {
	r.Session.Close()
}

// A LoginDriver walks a browser through the identity provider's
// username/password and two-factor pages.
type LoginDriver struct {
	Prompter lecture_archiver.Prompter
	Log      *zap.SugaredLogger
	Headless bool
}

// Login runs the whole interactive SSO flow. The browser launches in the
// background while the user types their credentials; a one-shot event
// signals readiness so the two never race. Errors are fatal to this attempt
// only - the caller decides whether to retry.
func (d *LoginDriver) Login(ctx context.Context) (*AuthResult, error) {
	d.Log.Info("Starting browser for single sign-on...")
	ready := sync_.NewEvent()
	launch := async.RunResult(func() (*Session, error) {
		defer ready.Set()
		return newSession(ctx, d.Headless)
	})

	d.Log.Info("This tool requires authentication. Please provide your institutional credentials.")
	identity, err := d.Prompter.Ask("SSO Username: ")
	if err != nil {
		discardLaunch(launch)
		return nil, err
	}
	password, err := d.Prompter.AskSecret("     Password: ")
	if err != nil {
		discardLaunch(launch)
		return nil, err
	}

	<-ready.Wait()
	launched := <-launch
	if launched.IsErr() {
		return nil, fmt.Errorf("failed to start browser: %w", launched.Error)
	}
	session := launched.Value

	result, err := d.login(session, identity, password)
	if err != nil {
		session.Close()
		return nil, err
	}
	return result, nil
}

// discardLaunch unblocks an abandoned browser launch. The launch channel is
// unbuffered, so the result must be received for the goroutine to finish, and
// a browser that did start must still be closed.
func discardLaunch(launch <-chan generic.Result[*Session]) {
	go func() {
		launched := <-launch
		if launched.IsOk() {
			launched.Value.Close()
		}
	}()
}

func (d *LoginDriver) login(session *Session, identity, password string) (*AuthResult, error) {
	d.Log.Debug("Sending credentials to identity provider...")
	if err := d.submitCredentials(session, identity, password); err != nil {
		return nil, err
	}

	d.Log.Debug("Waiting for two-factor prompt...")
	kind, displayNumber, err := d.waitForTwoFactorPrompt(session)
	if err != nil {
		return nil, err
	}

	switch kind {
	case TwoFactorApproveNumber:
		d.Log.Infof("Please use your authenticator app to approve this sign-in request: %s", displayNumber)
	case TwoFactorSixDigitCode:
		code, err := d.Prompter.Ask("Please input your 2FA 6-digit code: ")
		if err != nil {
			return nil, err
		}
		if err := d.submitOneTimeCode(session, strings.TrimSpace(code)); err != nil {
			return nil, err
		}
	}

	if err := d.waitForTwoFactorCompletion(session); err != nil {
		return nil, err
	}

	if name := d.loggedInName(session); name != "" {
		d.Log.Infof("Logged in as %s!", name)
	}
	return &AuthResult{Identity: identity, Session: session}, nil
}

func (d *LoginDriver) submitCredentials(session *Session, identity, password string) error {
	ctx, cancel := context.WithTimeout(session.Context(), credentialsWait)
	defer cancel()
	err := chromedp.Run(ctx,
		chromedp.Navigate(identityProviderURL),
		chromedp.WaitVisible(`input[name="loginfmt"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="loginfmt"]`, identity, chromedp.ByQuery),
		chromedp.Click(`#idSIButton9`, chromedp.ByQuery),
		chromedp.WaitVisible(`input[name="passwd"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="passwd"]`, password, chromedp.ByQuery),
		chromedp.Click(`#idSIButton9`, chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", lecture_archiver.ErrUnexpectedLoginState, err)
	}

	// The provider reports bad credentials inline rather than by failing the
	// form submission, so check explicitly.
	var rejected bool
	err = chromedp.Run(session.Context(), chromedp.Evaluate(
		`document.getElementById("passwordError") !== null || document.getElementById("usernameError") !== null`,
		&rejected,
	))
	if err != nil {
		return fmt.Errorf("%w: %v", lecture_archiver.ErrUnexpectedLoginState, err)
	}
	if rejected {
		return lecture_archiver.ErrInvalidCredentials
	}
	return nil
}

// twoFactorProbe is evaluated in the page to classify the current challenge.
const twoFactorProbe = `(() => {
	const sign = document.getElementById("idRichContext_DisplaySign");
	if (sign !== null) {
		return {kind: "approve", number: sign.textContent.trim()};
	}
	if (document.getElementsByName("otc").length > 0) {
		return {kind: "code", number: ""};
	}
	return {kind: "", number: ""};
})()`

func (d *LoginDriver) waitForTwoFactorPrompt(session *Session) (TwoFactorKind, string, error) {
	deadline := time.Now().Add(twoFactorPromptTimeout)
	for time.Now().Before(deadline) {
		var probe struct {
			Kind   string `json:"kind"`
			Number string `json:"number"`
		}
		if err := chromedp.Run(session.Context(), chromedp.Evaluate(twoFactorProbe, &probe)); err != nil {
			return 0, "", fmt.Errorf("%w: %v", lecture_archiver.ErrUnexpectedLoginState, err)
		}
		switch probe.Kind {
		case "approve":
			return TwoFactorApproveNumber, probe.Number, nil
		case "code":
			return TwoFactorSixDigitCode, "", nil
		}
		time.Sleep(pollInterval)
	}
	return 0, "", lecture_archiver.ErrUnexpectedLoginState
}

func (d *LoginDriver) submitOneTimeCode(session *Session, code string) error {
	ctx, cancel := context.WithTimeout(session.Context(), credentialsWait)
	defer cancel()
	err := chromedp.Run(ctx,
		chromedp.SendKeys(`input[name="otc"]`, code, chromedp.ByQuery),
		chromedp.Click(`#idSubmit_SAOTCC_Continue`, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", lecture_archiver.ErrUnexpectedLoginState, err)
	}
	return nil
}

// waitForTwoFactorCompletion waits for the provider to accept the challenge:
// either the browser leaves the identity provider entirely, or it lands on
// the "stay signed in?" interstitial, which is accepted so the session
// cookies stick.
func (d *LoginDriver) waitForTwoFactorCompletion(session *Session) error {
	deadline := time.Now().Add(twoFactorResolveTimeout)
	for time.Now().Before(deadline) {
		var kmsi bool
		if err := chromedp.Run(session.Context(), chromedp.Evaluate(
			`document.getElementById("KmsiCheckboxField") !== null`, &kmsi,
		)); err == nil && kmsi {
			return chromedp.Run(session.Context(), chromedp.Click(`#idSIButton9`, chromedp.ByQuery))
		}

		current, err := session.Location()
		if err == nil && !strings.Contains(current, "login.microsoftonline.com") {
			return nil
		}
		time.Sleep(pollInterval)
	}
	return lecture_archiver.ErrTwoFactorTimeout
}

func (d *LoginDriver) loggedInName(session *Session) string {
	var name string
	err := chromedp.Run(session.Context(), chromedp.Evaluate(
		`(() => {
			const el = document.getElementById("displayName");
			return el !== null ? el.textContent.trim() : "";
		})()`, &name,
	))
	if err != nil {
		return ""
	}
	return name
}
