package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
)

// OutboxMetrics — метрики публикации transactional outbox.
type OutboxMetrics struct {
	published *prometheus.CounterVec
	backlog   prometheus.Gauge
	oldestAge prometheus.Gauge
}

// NewOutboxMetrics регистрирует метрики в DefaultRegisterer.
func NewOutboxMetrics() *OutboxMetrics {
	return NewOutboxMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func NewOutboxMetricsWithRegisterer(registerer prometheus.Registerer) *OutboxMetrics {
	return &OutboxMetrics{
		published: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "quadrental_outbox_published_total",
			Help: "Total number of outbox publish attempts grouped by result",
		}, []string{"result"}),
		backlog: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "quadrental_outbox_backlog",
			Help: "Current number of pending records in transactional outbox",
		}),
		oldestAge: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "quadrental_outbox_oldest_age_seconds",
			Help: "Age in seconds of the oldest pending outbox record",
		}),
	}
}

// RecordPublish учитывает попытку публикации (sent, retry_error, failed, dlq_failed).
func (m *OutboxMetrics) RecordPublish(result string) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(result).Inc()
}

// SetBacklog обновляет gauges backlog по статистике outbox.
func (m *OutboxMetrics) SetBacklog(stats domain.OutboxStats, now time.Time) {
	if m == nil {
		return
	}
	m.backlog.Set(float64(stats.PendingCount))
	if stats.PendingCount == 0 || stats.OldestPendingAt.IsZero() {
		m.oldestAge.Set(0)
		return
	}
	age := now.Sub(stats.OldestPendingAt).Seconds()
	if age < 0 {
		age = 0
	}
	m.oldestAge.Set(age)
}
