package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	appends = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "audit_appends_total",
			Help: "Append-only log writes by stream and outcome.",
		},
		[]string{"stream", "outcome"},
	)

	retries = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "audit_append_retries_total",
			Help: "Append attempts repeated after a storage error.",
		},
		[]string{"stream"},
	)
)
