package lecture_archiver

import "errors"

var (
	// ErrMalformedURL means the input didn't look like a course section URL at all.
	ErrMalformedURL = errors.New("not a valid course section URL")
	// ErrUpstreamUnavailable means the platform returned a non-success response or was unreachable.
	ErrUpstreamUnavailable = errors.New("upstream request failed")
	// ErrUnexpectedAPIShape means a JSON response was missing fields the API contract requires.
	ErrUnexpectedAPIShape = errors.New("unexpected API response shape")
	// ErrInvalidCredentials means the identity provider rejected the username/password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnexpectedLoginState means the login flow reached a page we don't know how to drive.
	ErrUnexpectedLoginState = errors.New("unexpected login page state")
	// ErrUnexpectedRedirect means the platform didn't redirect to the expected login host.
	ErrUnexpectedRedirect = errors.New("unexpected login redirect")
	// ErrSSOTimeout means the SSO flow didn't settle on the platform within the allowed time.
	ErrSSOTimeout = errors.New("timed out waiting for SSO flow to complete")
	// ErrTwoFactorTimeout means the two-factor challenge wasn't resolved within the allowed time.
	ErrTwoFactorTimeout = errors.New("timed out waiting for two-factor approval")
	// ErrDecryption means a session file couldn't be decrypted (wrong password or corrupt data).
	ErrDecryption = errors.New("failed to decrypt session data")
)
