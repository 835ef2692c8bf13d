// internal/request/middleware.go
//
// HTTP middleware that attaches a *Context to every request.
//
/*
Context
--------
Handlers that only hold an *http.Request can still reach the value object:
Middleware builds it through FromHTTP and stores it in request.Context
under an unexported key.  FromContext retrieves it.

If the body cannot be read (client gone, MaxBodyBytes exceeded) the chain
stops with 400 Bad Request.  That is the only failure mode.

Notes
-----
  • The buffered body is put back on r.Body, so later handlers may read it.
  • Multipart temp files are removed once next returns.
  • Oxford commas, two spaces after periods.
*/
package request

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// MiddlewareConfig bundles the source and build options.
type MiddlewareConfig struct {
	HTTP  HTTPOptions
	Build Options
}

type ctxKey struct{} // unexported, collision-proof

// Middleware returns a wrapper that builds a *Context per request.
func Middleware(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			src := FromHTTP(r, cfg.HTTP)
			defer Release(src)

			rc, err := Build(src, cfg.Build)
			if err != nil {
				zap.S().Errorw("request context unavailable",
					"path", r.URL.Path,
					"err", err,
				)
				http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
				return
			}
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), rc)))
		})
	}
}

// NewContext returns ctx carrying rc.
func NewContext(ctx context.Context, rc *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// FromContext returns the *Context stored by Middleware, or nil.
func FromContext(ctx context.Context) *Context {
	rc, _ := ctx.Value(ctxKey{}).(*Context)
	return rc
}
