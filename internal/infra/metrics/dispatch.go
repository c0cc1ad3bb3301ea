package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(jobDispatchTotal, pushDeliveriesTotal)
}

var jobDispatchTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "job_dispatch_total",
		Help: "Dispatcher submissions by result.",
	},
	[]string{"result"}, // 'created', 'duplicate', 'error', 'noop'
)

var pushDeliveriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "push_deliveries_total",
		Help: "Inbound push task deliveries by handler outcome.",
	},
	[]string{"outcome"}, // 'skipped', 'succeeded', 'retrying', 'requeued', 'unauthorized', 'error'
)

func IncDispatch(result string) {
	jobDispatchTotal.WithLabelValues(norm(result)).Inc()
}

func IncPushDelivery(outcome string) {
	pushDeliveriesTotal.WithLabelValues(norm(outcome)).Inc()
}
