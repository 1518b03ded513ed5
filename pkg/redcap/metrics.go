package redcap

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	callStatusOK             = "ok"
	callStatusServiceError   = "service_error"
	callStatusTransportError = "transport_error"
)

var (
	// Labels: operation, status (ok, service_error, transport_error)
	callsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "survey",
		Subsystem: "records_service",
		Name:      "calls_total",
		Help:      "Calls made to the records service",
	}, []string{"operation", "status"})

	callLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "survey",
		Subsystem: "records_service",
		Name:      "call_duration_seconds",
		Help:      "Records service call latency in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"operation"})
)

func observeCall(operation string, status string, start time.Time) {
	callsTotal.WithLabelValues(operation, status).Inc()
	callLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
