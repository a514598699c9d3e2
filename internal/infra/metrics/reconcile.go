package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		reconcileEventsTotal,
		transactionsCreatedTotal,
		gatewayPollsTotal,
	)
}

var (
	reconcileEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_events_total",
			Help: "Confirmation events by source (push/poll/manual) and outcome (settled/failed/already_terminal/noop/error).",
		},
		[]string{"source", "outcome"},
	)

	transactionsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transactions_created_total",
			Help: "Checkout transactions created, by purchase kind.",
		},
		[]string{"kind"},
	)

	gatewayPollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_polls_total",
			Help: "Gateway status polls by result (settled/pending/failed/error).",
		},
		[]string{"result"},
	)
)

func IncReconcileEvent(source, outcome string) {
	reconcileEventsTotal.WithLabelValues(norm(source), norm(outcome)).Inc()
}

func IncTransactionCreated(kind string) {
	transactionsCreatedTotal.WithLabelValues(norm(kind)).Inc()
}

func IncGatewayPoll(result string) {
	gatewayPollsTotal.WithLabelValues(norm(result)).Inc()
}
