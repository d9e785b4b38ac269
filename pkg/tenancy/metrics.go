package tenancy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scopedQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventflow",
		Subsystem: "tenancy",
		Name:      "scoped_queries_total",
		Help:      "Tenant-owned queries built, by scope mode.",
	}, []string{"mode"})

	bypassTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventflow",
		Subsystem: "tenancy",
		Name:      "bypass_total",
		Help:      "Cross-tenant scopes handed out, by reason.",
	}, []string{"reason"})

	stampFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eventflow",
		Subsystem: "tenancy",
		Name:      "stamp_failures_total",
		Help:      "Tenant-owned inserts rejected for lack of a tenant context.",
	})
)
