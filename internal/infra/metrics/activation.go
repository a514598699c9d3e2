package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		activationRunsTotal,
		revenueSharesTotal,
		challengeCompletionsTotal,
		couponsConsumedTotal,
	)
}

var (
	activationRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activation_runs_total",
			Help: "Activation runs by result (ok/partial/error).",
		},
		[]string{"result"},
	)

	revenueSharesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revenue_shares_total",
			Help: "Distributed revenue by share (platform/mentor/affiliate).",
		},
		[]string{"share"},
	)

	challengeCompletionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "challenge_completions_total",
			Help: "Challenges newly completed by affiliates.",
		},
	)

	couponsConsumedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coupons_consumed_total",
			Help: "Coupon usage slots consumed at settlement.",
		},
	)
)

func IncActivationRun(result string) {
	activationRunsTotal.WithLabelValues(norm(result)).Inc()
}

func AddRevenueShare(share string, amount int64) {
	revenueSharesTotal.WithLabelValues(norm(share)).Add(float64(amount))
}

func IncChallengeCompletion() { challengeCompletionsTotal.Inc() }

func IncCouponConsumed() { couponsConsumedTotal.Inc() }
