// internal/middleware/security.go
//
// Response-header middleware for request dumps.
//
// A dump echoes cookies, session data, and forwarded addresses back to the
// caller, so the response must never be cached or sniffed into something
// executable:
//
//   • Cache-Control            –  no-store, private
//   • X-Content-Type-Options   –  MIME-sniffing defence
//   • X-Frame-Options          –  click-jacking defence
//   • Referrer-Policy          –  no Referer at all
//   • Content-Security-Policy  –  nothing may load from the dump
//
// Notes
// -----
// • Headers are set *before* next.ServeHTTP, since anything added after the
//   first write is dropped.  A value the handler sets itself still wins.
// • Oxford commas, two spaces after periods.

// Package middleware holds small, composable HTTP wrappers.
package middleware

import "net/http"

// securityHeaders are applied in order; names are canonical.
var securityHeaders = [][2]string{
	{"Cache-Control", "no-store, private"},
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "no-referrer"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
}

// Security sets the dump security headers for every response.
func Security(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range securityHeaders {
			h.Set(kv[0], kv[1])
		}
		next.ServeHTTP(w, r)
	})
}
