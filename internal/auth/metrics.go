package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeAllow        = "allow"
	outcomeUnauthorized = "unauthorized"
	outcomeForbidden    = "forbidden"
)

// decisions counts guard outcomes. reason is the 401 code or the failed requirement mode.
var decisions = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Name: "access_guard_decisions_total",
		Help: "Number of access guard decisions by outcome and reason.",
	},
	[]string{"outcome", "reason"},
)
