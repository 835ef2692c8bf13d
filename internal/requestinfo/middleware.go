// internal/requestinfo/middleware.go
//
// HTTP middleware that enriches each request with *Info.
//
/*
Context
--------
Enrich sits directly after request.Middleware.  It reads the *request.Context
that middleware stored, derives client IP, UA, and geo hints from it, and
stores an *Info under its own key.  Handlers retrieve it with FromContext.

When no request context is present (Enrich mounted on its own) the handler
passes the request through unchanged.

Instrumentation
---------------
When the zap level is debug, each invocation logs one span with client
IP, country ISO, city, browser, device, bot flag, and the request path.

Notes
-----
  • All look-ups are read-only, so the middleware is safe under heavy
    concurrency.
  • Oxford commas, two spaces after periods.
*/
package requestinfo

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/routing/internal/request"
)

/*──────────────────────────── middleware ───────────────────────────────────*/

// Enrich wraps an http.Handler, attaches *Info, and forwards.
func Enrich(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := request.FromContext(r.Context())
		if rc == nil {
			next.ServeHTTP(w, r)
			return
		}

		info := Build(rc, time.Now())

		zap.S().Debugw("request info",
			"ip", info.IP,
			"country", info.Geo.CountryISO,
			"city", info.Geo.City,
			"browser", info.UA.Browser,
			"device", info.UA.Device,
			"bot", info.UA.IsBot,
			"path", rc.URI(),
		)

		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), info)))
	})
}
