package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	serviceStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "appsup",
			Subsystem: "supervisor",
			Name:      "service_starts_total",
			Help:      "Number of successful service spawns.",
		}, []string{"service"},
	)
	serviceStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "appsup",
			Subsystem: "supervisor",
			Name:      "service_stops_total",
			Help:      "Number of successful service terminations.",
		}, []string{"service"},
	)
	spawnFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "appsup",
			Subsystem: "supervisor",
			Name:      "spawn_failures_total",
			Help:      "Number of launch commands that could not be executed.",
		}, []string{"service"},
	)
	readinessTimeouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "appsup",
			Subsystem: "supervisor",
			Name:      "readiness_timeouts_total",
			Help:      "Number of spawns that never became healthy within the readiness timeout.",
		}, []string{"service"},
	)
	servicePhase = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "appsup",
			Subsystem: "supervisor",
			Name:      "service_phase",
			Help:      "Last observed phase per service (1 = active phase, 0 = inactive).",
		}, []string{"service", "phase"},
	)
)

// Register registers all metrics with the provided registerer. A nil
// registerer means the default one. Safe to call multiple times; subsequent
// calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	if r == nil {
		r = prometheus.DefaultRegisterer
	}
	cs := []prometheus.Collector{serviceStarts, serviceStops, spawnFailures, readinessTimeouts, servicePhase}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler serves Prometheus metrics for the DefaultGatherer.
func Handler() http.Handler { return promhttp.Handler() }

// Helpers below no-op until Register has been called.

func IncStart(service string) {
	if regOK.Load() {
		serviceStarts.WithLabelValues(service).Inc()
	}
}

func IncStop(service string) {
	if regOK.Load() {
		serviceStops.WithLabelValues(service).Inc()
	}
}

func IncSpawnFailure(service string) {
	if regOK.Load() {
		spawnFailures.WithLabelValues(service).Inc()
	}
}

func IncReadinessTimeout(service string) {
	if regOK.Load() {
		readinessTimeouts.WithLabelValues(service).Inc()
	}
}

// SetPhase marks phase active for service and clears the rest of all.
func SetPhase(service, phase string, all []string) {
	if !regOK.Load() {
		return
	}
	for _, p := range all {
		v := 0.0
		if p == phase {
			v = 1
		}
		servicePhase.WithLabelValues(service, p).Set(v)
	}
}
