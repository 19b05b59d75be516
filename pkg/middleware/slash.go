package middleware

import (
	"net/http"
	"strings"
)

// TrimSlash redirects paths with a trailing slash to their canonical form.
// Reads get 301; writes get 308 so uploads keep their method and body.
// The root path is left alone.
func TrimSlash() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if path == "/" || !strings.HasSuffix(path, "/") {
				next.ServeHTTP(w, r)
				return
			}

			u := *r.URL
			u.Path = strings.TrimRight(path, "/")
			if u.Path == "" {
				u.Path = "/"
			}
			u.RawPath = ""

			code := http.StatusPermanentRedirect
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				code = http.StatusMovedPermanently
			}
			http.Redirect(w, r, u.RequestURI(), code)
		})
	}
}
