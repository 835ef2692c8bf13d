// cmd/reqdump/router.go
//
// chi router shared by the cgi and serve commands.
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanizio/routing/internal/middleware"
	"github.com/yanizio/routing/internal/request"
	"github.com/yanizio/routing/internal/requestinfo"
)

// newRouter wires the request pipeline: panic recovery, security headers,
// request context, client info, then the dump.  withMetrics mounts
// /metrics ahead of the pipeline.
func newRouter(mc request.MiddlewareConfig, withMetrics bool) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.Security)

	if withMetrics {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(request.Middleware(mc))
		r.Use(requestinfo.Enrich)
		r.HandleFunc("/*", dumpHandler)
	})
	return r
}
