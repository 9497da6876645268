// internal/middleware/security.go
//
// Response hardening for the status endpoints.
//
// /healthz can carry field names and issue text, so every response is
// marked uncacheable and non-sniffable:
//
//   • Cache-Control           –  no-store
//   • X-Content-Type-Options  –  nosniff
//   • X-Frame-Options         –  DENY
//   • Referrer-Policy         –  no-referrer
//
// Headers are set before next runs so a handler can still override one.

package middleware

import "net/http"

// Security sets the headers above on every response.
func Security(next http.Handler) http.Handler {
	const (
		cache = "no-store"
		nosn  = "nosniff"
		xfo   = "DENY"
		refer = "no-referrer"
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Cache-Control", cache)
		h.Set("X-Content-Type-Options", nosn)
		h.Set("X-Frame-Options", xfo)
		h.Set("Referrer-Policy", refer)
		next.ServeHTTP(w, r)
	})
}
