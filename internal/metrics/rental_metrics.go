package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Результаты операций для label `result`.
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultTimeout = "timeout"
)

// RentalMetrics содержит метрики операций сервиса аренды.
type RentalMetrics struct {
	operations          *prometheus.CounterVec
	operationDuration   *prometheus.HistogramVec
	reservationsCreated prometheus.Counter
	reservationValue    prometheus.Counter
	validationFailures  *prometheus.CounterVec
	poolInFlight        prometheus.Gauge
}

// NewRentalMetrics регистрирует метрики в DefaultRegisterer.
func NewRentalMetrics() *RentalMetrics {
	return NewRentalMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewRentalMetricsWithRegisterer регистрирует метрики в переданном реестре.
func NewRentalMetricsWithRegisterer(registerer prometheus.Registerer) *RentalMetrics {
	return &RentalMetrics{
		operations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "quadrental_operations_total",
			Help: "Total number of rental service operations grouped by operation and result",
		}, []string{"operation", "result"}),
		operationDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "quadrental_operation_duration_seconds",
			Help:    "Duration of rental service operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 15.0},
		}, []string{"operation"}),
		reservationsCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "quadrental_reservations_created_total",
			Help: "Total number of reservations persisted",
		}),
		reservationValue: registerCounter(registerer, prometheus.CounterOpts{
			Name: "quadrental_reservation_value_total",
			Help: "Sum of total prices of persisted reservations",
		}),
		validationFailures: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "quadrental_validation_failures_total",
			Help: "Rejected requests grouped by validation reason",
		}, []string{"reason"}),
		poolInFlight: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "quadrental_pool_in_flight",
			Help: "Number of storage operations currently executing on the worker pool",
		}),
	}
}

// RecordOperation фиксирует результат и длительность операции.
func (m *RentalMetrics) RecordOperation(operation, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, result).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordReservationCreated учитывает новую бронь и её стоимость.
func (m *RentalMetrics) RecordReservationCreated(totalPrice float64) {
	if m == nil {
		return
	}
	m.reservationsCreated.Inc()
	if totalPrice > 0 {
		m.reservationValue.Add(totalPrice)
	}
}

// RecordValidationFailure учитывает отклонённый запрос.
func (m *RentalMetrics) RecordValidationFailure(reason string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(reason).Inc()
}

// PoolInFlight возвращает gauge для workerpool.WithInFlightGauge.
func (m *RentalMetrics) PoolInFlight() prometheus.Gauge {
	if m == nil {
		return nil
	}
	return m.poolInFlight
}
