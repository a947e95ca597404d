// Package metrics holds the prometheus collectors exported by the coordinator.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	RegisterCreated   = "created"
	RegisterUpdated   = "updated"
	RegisterUnchanged = "unchanged"
	RegisterUnknown   = "unknown_app"
	RegisterFailed    = "failed"

	SweepWake  = "wake"
	SweepIdle  = "idle"
	SweepError = "error"

	CallbackSent    = "sent"
	CallbackFailed  = "failed"
	CallbackSkipped = "skipped"
	CallbackQueued  = "queued"
)

var (
	TasksRegistered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foreman_tasks_registered_total",
			Help: "Task registrations by outcome",
		},
		[]string{"type", "result"},
	)
	TasksClaimed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foreman_tasks_claimed_total",
			Help: "Tasks leased to an agent",
		},
		[]string{"type"},
	)
	TasksFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foreman_tasks_finished_total",
			Help: "Tasks finalized by status",
		},
		[]string{"type", "status"},
	)
	LeaseRenewals = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foreman_lease_renewals_total",
			Help: "Lease renewals received from agents",
		},
	)
	DeadSweeps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foreman_dead_sweeps_total",
			Help: "Dead task sweeps by outcome",
		},
		[]string{"outcome"},
	)
	ExpiredLeases = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "foreman_expired_leases",
			Help: "Unclaimed or expired tasks seen by the last sweep",
		},
	)
	FinalizeCallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foreman_finalize_callbacks_total",
			Help: "Finalize callbacks by outcome",
		},
		[]string{"outcome"},
	)
	ConnectedAgents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "foreman_connected_agents",
			Help: "Agents with an open push stream",
		},
	)
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foreman_http_requests_total",
			Help: "HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foreman_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func RecordTaskRegistered(taskType, result string) {
	TasksRegistered.WithLabelValues(taskType, result).Inc()
}

func RecordTaskClaimed(taskType string) {
	TasksClaimed.WithLabelValues(taskType).Inc()
}

func RecordTaskFinished(taskType, status string) {
	TasksFinished.WithLabelValues(taskType, status).Inc()
}

func RecordLeaseRenewal() {
	LeaseRenewals.Inc()
}

// RecordSweep records the outcome of a dead task sweep, count is ignored on error.
func RecordSweep(outcome string, count int64) {
	DeadSweeps.WithLabelValues(outcome).Inc()
	if outcome != SweepError {
		ExpiredLeases.Set(float64(count))
	}
}

func RecordFinalizeCallback(outcome string) {
	FinalizeCallbacks.WithLabelValues(outcome).Inc()
}

func SetConnectedAgents(n int) {
	ConnectedAgents.Set(float64(n))
}

func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
