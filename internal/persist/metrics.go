package persist

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	targetAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "puc",
		Subsystem: "persist",
		Name:      "target_attempts_total",
		Help:      "Write attempts per storage target, labelled by outcome.",
	}, []string{"target", "outcome"})

	fallbackSaves = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "puc",
		Subsystem: "persist",
		Name:      "fallback_saves_total",
		Help:      "Records retained in the local fallback store after cascade exhaustion.",
	})
)

const (
	outcomeOK        = "ok"
	outcomeDenied    = "denied"
	outcomeTransient = "transient"
)
