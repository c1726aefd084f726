package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PublisherMetrics records outcomes for the outbox publisher loop.
type PublisherMetrics struct {
	duration  *prometheus.HistogramVec
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
	backlog   prometheus.Gauge
}

// NewPublisherMetrics registers the publisher metrics on the provided registerer.
func NewPublisherMetrics(reg prometheus.Registerer) *PublisherMetrics {
	if reg == nil {
		return &PublisherMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_publish_duration_seconds",
		Help:    "Duration of individual outbox publish calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"event_type"})
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_published_total",
		Help: "Outbox events published successfully.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_failed_total",
		Help: "Outbox publish attempts that failed.",
	}, []string{"event_type"})
	backlog := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_backlog_rows",
		Help: "Unpublished outbox rows observed on the last poll.",
	})

	reg.MustRegister(duration, published, failed, backlog)

	return &PublisherMetrics{
		duration:  duration,
		published: published,
		failed:    failed,
		backlog:   backlog,
	}
}

// ObservePublish records one publish attempt.
func (m *PublisherMetrics) ObservePublish(eventType string, took time.Duration, err error) {
	if m == nil {
		return
	}
	if m.duration != nil {
		m.duration.WithLabelValues(eventType).Observe(took.Seconds())
	}
	if err != nil {
		if m.failed != nil {
			m.failed.WithLabelValues(eventType).Inc()
		}
		return
	}
	if m.published != nil {
		m.published.WithLabelValues(eventType).Inc()
	}
}

// SetBacklog records the pending row count from the last poll.
func (m *PublisherMetrics) SetBacklog(rows int) {
	if m == nil || m.backlog == nil {
		return
	}
	m.backlog.Set(float64(rows))
}
