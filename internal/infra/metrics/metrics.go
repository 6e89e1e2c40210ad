package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	pendingRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "engine_pending_requests",
			Help: "Number of dispatched engine jobs still awaiting a callback.",
		},
	)

	dispatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_dispatches_total",
			Help: "Outbound engine dispatches by kind and outcome (accepted/rejected/error).",
		},
		[]string{"kind", "outcome"},
	)

	callbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_callbacks_total",
			Help: "Inbound engine callbacks by kind and outcome (resolved/unknown).",
		},
		[]string{"kind", "outcome"},
	)

	callbackWaitSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engine_callback_wait_seconds",
			Help:    "Time spent waiting for an engine callback.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 180},
		},
		[]string{"outcome"},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			pendingRequests, dispatchesTotal, callbacksTotal, callbackWaitSeconds,
		)
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func SetPendingRequests(n int) { pendingRequests.Set(float64(n)) }

func IncDispatch(kind, outcome string) {
	dispatchesTotal.WithLabelValues(norm(kind), norm(outcome)).Inc()
}

func IncCallback(kind, outcome string) {
	callbacksTotal.WithLabelValues(norm(kind), norm(outcome)).Inc()
}

func ObserveWait(d time.Duration, outcome string) {
	callbackWaitSeconds.WithLabelValues(norm(outcome)).Observe(d.Seconds())
}
