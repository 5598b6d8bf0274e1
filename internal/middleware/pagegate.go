package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"taskautomator/internal/auth"
)

// protectedAPIPrefixes are the API path prefixes the edge gate blocks for
// unauthenticated callers before routing.
var protectedAPIPrefixes = []string{
	"/api/tasks",
	"/api/calendar",
	"/api/automate",
	"/api/notifications",
	"/api/reports",
}

// PageGate enforces the authentication boundary at the edge: browser
// navigations to dashboard pages are redirected to the login page with a
// callbackUrl, and unauthenticated calls to protected API prefixes get a
// JSON 401 without ever reaching a handler. Handlers still run their own
// session check; this gate is pure boundary enforcement.
func PageGate(sessions *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			hasSession := false
			if token := auth.TokenFromRequest(r); token != "" {
				if _, err := sessions.Verify(token); err == nil {
					hasSession = true
				}
			}

			if strings.HasPrefix(path, "/dashboard") && !hasSession {
				loginURL := "/login?callbackUrl=" + url.QueryEscape(path)
				http.Redirect(w, r, loginURL, http.StatusFound)
				return
			}

			if !hasSession {
				for _, prefix := range protectedAPIPrefixes {
					if strings.HasPrefix(path, prefix) {
						respondError(w, http.StatusUnauthorized, "Unauthorized")
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
