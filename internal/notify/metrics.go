package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the notification system.
type Metrics struct {
	// SentTotal counts delivered notifications by status, kind and channel.
	SentTotal *prometheus.CounterVec

	// ScheduledTotal counts tasks handed to the dispatcher.
	ScheduledTotal prometheus.Counter

	// SkippedPastDue counts tasks dropped because their fire time had
	// already passed when the event was armed.
	SkippedPastDue prometheus.Counter

	// SendDuration is the time to deliver one notification.
	SendDuration prometheus.Histogram

	// RateLimitWaits counts pushes that had to wait on the limiter.
	RateLimitWaits prometheus.Counter
}

// NewMetrics creates and registers Prometheus metrics for notifications.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		SentTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_sent_total",
				Help:      "Total number of notifications sent",
			},
			[]string{"status", "kind", "channel"},
		),

		ScheduledTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_scheduled_total",
				Help:      "Total number of notification tasks scheduled",
			},
		),

		SkippedPastDue: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_skipped_past_due_total",
				Help:      "Total number of tasks skipped because they were already due",
			},
		),

		SendDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "notification_send_duration_seconds",
				Help:      "Time to deliver a notification",
				Buckets:   []float64{.01, .05, .1, .5, 1, 2, 5},
			},
		),

		RateLimitWaits: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notification_rate_limit_waits_total",
				Help:      "Total number of rate limit waits before a push",
			},
		),
	}
}

// IncSent increments the sent counter for a given status, kind and channel.
func (m *Metrics) IncSent(status string, kind, channel string) {
	if m == nil {
		return
	}
	m.SentTotal.WithLabelValues(status, kind, channel).Inc()
}

// IncScheduled increments the scheduled counter.
func (m *Metrics) IncScheduled() {
	if m == nil {
		return
	}
	m.ScheduledTotal.Inc()
}

// IncSkippedPastDue increments the past-due skip counter.
func (m *Metrics) IncSkippedPastDue() {
	if m == nil {
		return
	}
	m.SkippedPastDue.Inc()
}

// ObserveSendDuration records the time taken to deliver a notification.
func (m *Metrics) ObserveSendDuration(seconds float64) {
	if m == nil {
		return
	}
	m.SendDuration.Observe(seconds)
}

// IncRateLimitWaits increments the rate limit wait counter.
func (m *Metrics) IncRateLimitWaits() {
	if m == nil {
		return
	}
	m.RateLimitWaits.Inc()
}
