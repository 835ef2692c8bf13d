// Package metrics holds Prometheus instruments shared by the request and
// session packages.  All collectors are registered with the global
// registry, so exposing promhttp.Handler() anywhere is enough to scrape
// them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ContextsBuiltTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "request_contexts_built_total",
			Help: "Request contexts successfully built, by method (unknown methods as other).",
		}, []string{"method"})

	InputReadErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "request_input_read_errors_total",
			Help: "Request contexts abandoned because the body could not be read.",
		})

	BodyDecodeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "request_body_decode_errors_total",
			Help: "Structured body decode failures, by kind (json, xml, media).",
		}, []string{"kind"})

	SessionLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_loads_total",
			Help: "Session lookups, by result (hit, miss, error).",
		}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		ContextsBuiltTotal,
		InputReadErrorsTotal,
		BodyDecodeErrorsTotal,
		SessionLoadsTotal,
	)
}
