package agent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var analysesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "keecal",
		Name:      "analyses_total",
		Help:      "Meal photo analyses by outcome.",
	},
	[]string{"outcome"},
)
