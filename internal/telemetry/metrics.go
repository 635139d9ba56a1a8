// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

// Package telemetry provides Prometheus metrics for the recorder service.
package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	WebhookEventsReceived *prometheus.CounterVec
	WebhookEventsRejected prometheus.Counter
	CascadeAttempts       *prometheus.CounterVec
	SessionsCompleted     prometheus.Counter
	SessionsFailed        prometheus.Counter
	SessionsSweptStale    prometheus.Counter

	// Histograms (seconds)
	ProcessingDuration prometheus.Observer

	// Gauges
	ActiveSessionsGauge prometheus.Gauge
	ActiveBotsGauge     prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		WebhookEventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "recorder_webhook_events_received_total",
			Help: "Number of verified webhook events received, by event type",
		}, []string{"event"})
		WebhookEventsRejected = promauto.NewCounter(prometheus.CounterOpts{
			Name: "recorder_webhook_events_rejected_total",
			Help: "Number of webhook requests rejected for failed signature verification",
		})
		CascadeAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "recorder_cascade_attempts_total",
			Help: "Number of recording strategy attempts, by method and outcome",
		}, []string{"method", "outcome"})
		SessionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
			Name: "recorder_sessions_completed_total",
			Help: "Number of sessions that reached the completed state",
		})
		SessionsFailed = promauto.NewCounter(prometheus.CounterOpts{
			Name: "recorder_sessions_failed_total",
			Help: "Number of sessions that reached the failed state",
		})
		SessionsSweptStale = promauto.NewCounter(prometheus.CounterOpts{
			Name: "recorder_sessions_swept_stale_total",
			Help: "Number of sessions force-completed by the staleness sweep",
		})
		ProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "recorder_processing_duration_seconds",
			Help:    "Post-processing pipeline duration in seconds",
			Buckets: prometheus.DefBuckets,
		})
		ActiveSessionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "recorder_active_sessions",
			Help: "Current number of non-terminal sessions",
		})
		ActiveBotsGauge = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "recorder_active_bots",
			Help: "Current number of launched bot participants",
		})
	})
}

// StartTimer returns a function that records the elapsed time in obs when
// invoked. A nil observer makes the returned function a no-op.
func StartTimer(obs prometheus.Observer) func() {
	start := time.Now()
	return func() {
		if obs != nil {
			obs.Observe(time.Since(start).Seconds())
		}
	}
}

// CountSessionCompleted records one session reaching the completed state.
func CountSessionCompleted() {
	if SessionsCompleted != nil {
		SessionsCompleted.Inc()
	}
}

// CountSessionFailed records one session reaching the failed state.
func CountSessionFailed() {
	if SessionsFailed != nil {
		SessionsFailed.Inc()
	}
}

// CountSessionSweptStale records one session force-completed by the sweep.
func CountSessionSweptStale() {
	if SessionsSweptStale != nil {
		SessionsSweptStale.Inc()
	}
}

// SetActiveSessions updates the active session gauge.
func SetActiveSessions(n int) {
	if ActiveSessionsGauge != nil {
		ActiveSessionsGauge.Set(float64(n))
	}
}

// CountCascadeAttempt records one strategy attempt outcome.
func CountCascadeAttempt(method string, ok bool) {
	if CascadeAttempts == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	CascadeAttempts.WithLabelValues(method, outcome).Inc()
}
