// Copyright 2026 The Rolevisor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rolevisor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsCollector implements MetricsCollector with Prometheus
// metrics, registered on a private registry.
type PrometheusMetricsCollector struct {
	spawns    *prometheus.CounterVec
	exits     *prometheus.CounterVec
	restarts  *prometheus.CounterVec
	failures  *prometheus.CounterVec
	overflows *prometheus.CounterVec
	kills     *prometheus.CounterVec
	stopTime  *prometheus.HistogramVec
	resident  *prometheus.GaugeVec
	depth     prometheus.Gauge
	waitErrs  prometheus.Counter

	registry *prometheus.Registry
}

// NewPrometheusMetricsCollector creates the collector.  An empty
// namespace defaults to "rolevisor".
func NewPrometheusMetricsCollector(namespace string) *PrometheusMetricsCollector {
	if namespace == "" {
		namespace = "rolevisor"
	}
	labels := []string{"role"}

	pmc := &PrometheusMetricsCollector{
		registry: prometheus.NewRegistry(),
	}
	pmc.spawns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "process_spawns_total",
			Help:      "Total number of processes spawned",
		}, labels)
	pmc.exits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "process_exits_total",
			Help:      "Total number of supervised processes reaped",
		}, labels)
	pmc.restarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "process_restarts_total",
			Help:      "Total number of processes respawned after an exit",
		}, labels)
	pmc.failures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "process_restart_failures_total",
			Help:      "Total number of respawns that failed to spawn",
		}, labels)
	pmc.overflows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_overflows_total",
			Help:      "Total number of processes stopped for exceeding a memory limit",
		}, labels)
	pmc.kills = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "process_kills_total",
			Help:      "Total number of graceful stops that escalated to SIGKILL",
		}, labels)
	pmc.stopTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "process_stop_duration_seconds",
			Help:      "Duration of graceful stops",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		}, labels)
	pmc.resident = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_resident_memory_bytes",
			Help:      "Last sampled resident memory of a supervised process",
		}, labels)
	pmc.depth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "restart_queue_depth",
			Help:      "Current number of pending restarts",
		})
	pmc.waitErrs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wait_errors_total",
			Help:      "Total number of unexpected wait4 failures",
		})

	pmc.registry.MustRegister(
		pmc.spawns,
		pmc.exits,
		pmc.restarts,
		pmc.failures,
		pmc.overflows,
		pmc.kills,
		pmc.stopTime,
		pmc.resident,
		pmc.depth,
		pmc.waitErrs,
	)
	return pmc
}

func (pmc *PrometheusMetricsCollector) ProcessSpawned(role Role) {
	pmc.spawns.WithLabelValues(role.String()).Inc()
}

func (pmc *PrometheusMetricsCollector) ProcessExited(role Role) {
	pmc.exits.WithLabelValues(role.String()).Inc()
	pmc.resident.DeleteLabelValues(role.String())
}

func (pmc *PrometheusMetricsCollector) ProcessRestarted(role Role) {
	pmc.restarts.WithLabelValues(role.String()).Inc()
}

func (pmc *PrometheusMetricsCollector) RestartFailed(role Role) {
	pmc.failures.WithLabelValues(role.String()).Inc()
}

func (pmc *PrometheusMetricsCollector) RestartQueueDepth(depth int) {
	pmc.depth.Set(float64(depth))
}

func (pmc *PrometheusMetricsCollector) MemoryOverflow(role Role) {
	pmc.overflows.WithLabelValues(role.String()).Inc()
}

func (pmc *PrometheusMetricsCollector) ResidentMemory(role Role, bytes uint64) {
	pmc.resident.WithLabelValues(role.String()).Set(float64(bytes))
}

func (pmc *PrometheusMetricsCollector) ProcessStopped(role Role, d time.Duration, killed bool) {
	pmc.stopTime.WithLabelValues(role.String()).Observe(d.Seconds())
	if killed {
		pmc.kills.WithLabelValues(role.String()).Inc()
	}
}

func (pmc *PrometheusMetricsCollector) WaitError() {
	pmc.waitErrs.Inc()
}

// Registry returns the Prometheus registry for HTTP handler setup.
func (pmc *PrometheusMetricsCollector) Registry() *prometheus.Registry {
	return pmc.registry
}

var _ MetricsCollector = (*PrometheusMetricsCollector)(nil)
