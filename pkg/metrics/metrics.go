package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SignIns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "cognibank", Name: "sign_ins_total", Help: "Number of sign-in attempts by outcome."},
		[]string{"outcome"},
	)
	TokenRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "cognibank", Name: "token_refreshes_total", Help: "Number of token refresh calls by outcome."},
		[]string{"outcome"},
	)
	Transfers = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "cognibank", Name: "transfers_total", Help: "Number of transfer requests by outcome."},
		[]string{"outcome"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "cognibank", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "cognibank", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(SignIns)
	reg.MustRegister(TokenRefreshes)
	reg.MustRegister(Transfers)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
