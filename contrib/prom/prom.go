// Package prom exports golem operation metrics to Prometheus.
package prom

import (
	"context"
	"time"

	"github.com/leandroluk/golemspec/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors the middleware feeds.
type Metrics struct {
	// OperationsTotal counts operations by kind and outcome (ok, error).
	OperationsTotal *prometheus.CounterVec
	// OperationDuration is the latency of operations by kind.
	OperationDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg; a nil reg means
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "golem_operations_total",
				Help: "Total number of golem operations",
			},
			[]string{"operation", "status"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "golem_operation_duration_seconds",
				Help:    "golem operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// Middleware records every operation passing through the model pipeline.
//
//	core.Use(prom.New(nil).Middleware())
func (m *Metrics) Middleware() core.Middleware {
	return func(next core.Handler) core.Handler {
		return func(ctx context.Context, op core.Operation, payload any) error {
			start := time.Now()
			err := next(ctx, op, payload)
			status := "ok"
			if err != nil {
				status = "error"
			}
			m.OperationsTotal.WithLabelValues(string(op), status).Inc()
			m.OperationDuration.WithLabelValues(string(op)).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
