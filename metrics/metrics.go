// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package metrics implements solver statistics collected with a private prometheus registry
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metrics of simulations. Registry implements hyd.Observer and may be
// shared by concurrent simulations. A nil *Registry ignores all observations
type Registry struct {

	// solver
	NewtonIterations prometheus.Histogram // iterations of each Newton solve
	NewtonResidual   prometheus.Histogram // largest residual after each Newton solve
	StatusIterations prometheus.Histogram // Newton solves until statuses are stable

	// time stepping
	StepsTotal  *prometheus.CounterVec // solved times by result
	EventsTotal *prometheus.CounterVec // events by kind

	// runs
	RunsTotal   *prometheus.CounterVec // calls to Run by result
	RunDuration prometheus.Histogram   // wall time of runs

	registry *prometheus.Registry
}

// NewRegistry creates a new registry with all metrics initialised
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	f := promauto.With(r.registry)

	r.NewtonIterations = f.NewHistogram(prometheus.HistogramOpts{
		Name:    "gowater_newton_iterations",
		Help:    "Number of Newton iterations per solve",
		Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34, 55, 100},
	})
	r.NewtonResidual = f.NewHistogram(prometheus.HistogramOpts{
		Name:    "gowater_newton_residual",
		Help:    "Largest residual at the end of each Newton solve",
		Buckets: prometheus.ExponentialBuckets(1e-12, 10, 14),
	})
	r.StatusIterations = f.NewHistogram(prometheus.HistogramOpts{
		Name:    "gowater_status_iterations",
		Help:    "Number of Newton solves until link statuses are stable",
		Buckets: []float64{1, 2, 3, 4, 6, 10},
	})
	r.StepsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "gowater_steps_total",
		Help: "Total number of solved hydraulic times",
	}, []string{"result"})
	r.EventsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "gowater_events_total",
		Help: "Total number of simulation events",
	}, []string{"kind"})
	r.RunsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "gowater_runs_total",
		Help: "Total number of runs",
	}, []string{"result"})
	r.RunDuration = f.NewHistogram(prometheus.HistogramOpts{
		Name:    "gowater_run_duration_seconds",
		Help:    "Wall time of runs in seconds",
		Buckets: prometheus.ExponentialBuckets(1e-3, 4, 10),
	})
	return r
}

// GetPrometheusRegistry returns the underlying prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes all metrics to a file in the prometheus text format
func (r *Registry) WriteTextfile(fnpath string) error {
	return prometheus.WriteToTextfile(fnpath, r.registry)
}

// result returns the label of a result
func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}

// ObserveNewton records one Newton solve
func (r *Registry) ObserveNewton(iterations int, residual float64) {
	if r == nil {
		return
	}
	r.NewtonIterations.Observe(float64(iterations))
	r.NewtonResidual.Observe(residual)
}

// ObserveStatus records the number of Newton solves until statuses were stable
func (r *Registry) ObserveStatus(iterations int) {
	if r == nil {
		return
	}
	r.StatusIterations.Observe(float64(iterations))
}

// ObserveStep records one solved hydraulic time
func (r *Registry) ObserveStep(ok bool) {
	if r == nil {
		return
	}
	r.StepsTotal.WithLabelValues(result(ok)).Inc()
}

// ObserveEvent records one event
func (r *Registry) ObserveEvent(kind string) {
	if r == nil {
		return
	}
	r.EventsTotal.WithLabelValues(kind).Inc()
}

// ObserveRun records one run
func (r *Registry) ObserveRun(ok bool, seconds float64) {
	if r == nil {
		return
	}
	r.RunsTotal.WithLabelValues(result(ok)).Inc()
	r.RunDuration.Observe(seconds)
}
