// Package metrics exports Prometheus counters/gauges for the router's
// cooperating loops: intake, container runs, scheduler fires, IPC dispatch.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry bundles the router's metric families behind a single
// constructor so every subsystem registers against one prometheus.Registry.
type Registry struct {
	reg *prometheus.Registry

	IntakeMessagesProcessed *prometheus.CounterVec // label: outcome={handled,ignored,error}
	ContainerRuns           *prometheus.CounterVec // labels: group, outcome={ok,error,timeout,oversize}
	ContainerRunDuration    *prometheus.HistogramVec
	SchedulerFires          *prometheus.CounterVec // labels: group, outcome
	IPCDispatched           *prometheus.CounterVec // labels: type, outcome={ok,error,unauthorized}
	KBChunksEmbedded        prometheus.Counter
}

// New builds and registers the router's metric families.
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		IntakeMessagesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "router_intake_messages_total",
			Help: "Messages processed by the intake loop, by outcome.",
		}, []string{"outcome"}),
		ContainerRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "router_container_runs_total",
			Help: "Sandbox agent runs, by group and outcome.",
		}, []string{"group", "outcome"}),
		ContainerRunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "router_container_run_duration_seconds",
			Help:    "Sandbox agent run wall time.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"group"}),
		SchedulerFires: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "router_scheduler_fires_total",
			Help: "Scheduled task fires, by group and outcome.",
		}, []string{"group", "outcome"}),
		IPCDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "router_ipc_dispatched_total",
			Help: "IPC payloads dispatched, by type and outcome.",
		}, []string{"type", "outcome"}),
		KBChunksEmbedded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "router_kb_chunks_embedded_total",
			Help: "KB chunks that received a non-null embedding.",
		}),
	}

	reg.MustRegister(
		r.IntakeMessagesProcessed, r.ContainerRuns, r.ContainerRunDuration,
		r.SchedulerFires, r.IPCDispatched, r.KBChunksEmbedded,
	)
	return r
}

// Registry returns the underlying prometheus.Registry, e.g. for a
// promhttp.HandlerFor in a debug endpoint.
func (r *Registry) Registry() *prometheus.Registry {
	return r.reg
}
