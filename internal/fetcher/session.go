package fetcher

import (
	"net/http"
	"net/http/cookiejar"

	"golang.org/x/net/publicsuffix"
)

// newSessionJar returns the cookie jar shared by every request of a run.
// Consent walls commonly set a cookie and redirect back to the article, so
// cookies must survive redirects and retries. Scoping follows the public
// suffix list so one outlet's cookies never reach another.
func newSessionJar() http.CookieJar {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		// cookiejar.New only fails on invalid options
		return nil
	}
	return jar
}
