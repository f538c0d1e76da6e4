package session

import "github.com/prometheus/client_golang/prometheus"

var (
	pollsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arena_polls_total",
		Help: "Total arena state reads",
	})
	pollFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arena_poll_failures_total",
		Help: "Total ticks that ended with a transient error",
	})
	actionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_actions_total",
		Help: "Evaluated turn actions by kind",
	}, []string{"kind"})
	txTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_tx_submissions_total",
		Help: "Transactions submitted to the signing gateway",
	}, []string{"kind", "result"})
)

func init() {
	prometheus.MustRegister(pollsTotal, pollFailures, actionsTotal, txTotal)
}
