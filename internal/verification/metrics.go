package verification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var transitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "casefile_version_transitions_total",
		Help: "Reviewer transitions applied to document versions",
	},
	[]string{"transition"},
)
