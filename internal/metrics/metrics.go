// Package metrics exposes prometheus instrumentation for lifecycle phases.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	phaseTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kitchen",
			Subsystem: "driver",
			Name:      "phase_total",
			Help:      "Total number of phase runs by phase and result",
		},
		[]string{"instance", "phase", "result"},
	)

	phaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kitchen",
			Subsystem: "driver",
			Name:      "phase_duration_seconds",
			Help:      "Duration of lifecycle phases in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~7m
		},
		[]string{"instance", "phase"},
	)
)

func init() {
	prometheus.MustRegister(phaseTotal, phaseDuration)
}

// ObservePhase records the outcome and duration of one phase run.
func ObservePhase(instance, phase string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	phaseTotal.WithLabelValues(instance, phase, result).Inc()
	phaseDuration.WithLabelValues(instance, phase).Observe(time.Since(start).Seconds())
}
