package authz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var decisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "eventflow",
	Subsystem: "authz",
	Name:      "decisions_total",
	Help:      "Authorization decisions broken down by object, mode and result.",
}, []string{"object", "mode", "result"})

func recordDecision(req Request, mode Mode, allowed bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	decisions.WithLabelValues(req.Object, string(mode), result).Inc()
}
