package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var appendsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "keecal",
		Name:      "ledger_appends_total",
		Help:      "Ledger append attempts by outcome.",
	},
	[]string{"outcome"},
)
