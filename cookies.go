package lecture_archiver

import (
	"net/http"
	"net/url"
)

// SessionCookies is an authenticated browser session reduced to a plain
// name->value cookie mapping, scoped to the platform's domain. It is the
// value that crosses the boundary between the browser automation engine and
// the HTTP client: the browser package converts its own cookie type into
// this, and InjectCookies converts it into the client's jar. Nothing outside
// the browser package ever sees an automation-engine cookie object.
type SessionCookies map[string]string

// InjectCookies copies the session cookies into an HTTP cookie jar, scoped
// to the given domain.
func InjectCookies(jar http.CookieJar, domain string, cookies SessionCookies) {
	u := &url.URL{Scheme: "https", Host: domain}
	set := make([]*http.Cookie, 0, len(cookies))
	for name, value := range cookies {
		set = append(set, &http.Cookie{
			Name:   name,
			Value:  value,
			Domain: domain,
			Path:   "/",
		})
	}
	jar.SetCookies(u, set)
}
