// Package metrics holds the Prometheus collectors for map operations.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starford/sensemap/internal/apperr"
)

var (
	// opTotal counts service operations by name and result.
	// Results: "ok", "not_found", "invalid", "conflict", "error".
	opTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sensemap_operations_total",
		Help: "Total map operations by operation and result",
	}, []string{"op", "result"})

	opDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sensemap_operation_duration_seconds",
		Help:    "Map operation duration",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"op"})

	scopeSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sensemap_scope_objects",
		Help:    "Objects returned per scope resolution",
		Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000},
	})

	sseClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sensemap_sse_clients",
		Help: "Connected event stream clients",
	})
)

// Result classifies err into the label used by opTotal.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperr.ErrValidation):
		return "invalid"
	case errors.Is(err, apperr.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}

// Observe records one finished operation started at start.
func Observe(op string, start time.Time, err error) {
	opTotal.WithLabelValues(op, Result(err)).Inc()
	opDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// ObserveScope records the size of a resolved scope.
func ObserveScope(n int) { scopeSize.Observe(float64(n)) }

// SSEClients adjusts the connected client gauge by delta.
func SSEClients(delta int) { sseClients.Add(float64(delta)) }

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler { return promhttp.Handler() }
