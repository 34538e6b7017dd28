package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Исходы сценария создания заказа.
const (
	OrderOutcomeCreated           = "created"
	OrderOutcomeValidationFailed  = "validation_failed"
	OrderOutcomeReferentialFailed = "referential_failed"
	OrderOutcomePersistenceFailed = "persistence_failed"
)

// OrderMetrics содержит метрики сценария заказа.
type OrderMetrics struct {
	ordersCreated  *prometheus.CounterVec
	ordersDeleted  *prometheus.CounterVec
	createDuration *prometheus.HistogramVec
	ordersInFlight prometheus.Gauge
}

// NewOrderMetrics регистрирует метрики в prometheus.DefaultRegisterer.
func NewOrderMetrics() *OrderMetrics {
	return NewOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewOrderMetricsWithRegisterer регистрирует метрики в переданном registerer.
func NewOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersCreated: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_order_create_total",
			Help: "Total number of order creation requests grouped by outcome.",
		}, []string{"outcome"}),
		ordersDeleted: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_order_delete_total",
			Help: "Total number of order deletions grouped by result.",
		}, []string{"result"}),
		createDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "storefront_order_create_duration_seconds",
			Help:    "Duration of order creation grouped by outcome.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, []string{"outcome"}),
		ordersInFlight: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "storefront_order_create_in_flight",
			Help: "Number of order creation requests currently being processed.",
		}),
	}
}

// CreateStarted отмечает начало обработки запроса и возвращает функцию завершения.
func (m *OrderMetrics) CreateStarted() func(outcome string) {
	if m == nil {
		return func(string) {}
	}
	started := time.Now()
	m.ordersInFlight.Inc()
	return func(outcome string) {
		m.ordersInFlight.Dec()
		m.ordersCreated.WithLabelValues(outcome).Inc()
		m.createDuration.WithLabelValues(outcome).Observe(time.Since(started).Seconds())
	}
}

// RecordDelete учитывает удаление заказа.
func (m *OrderMetrics) RecordDelete(result string) {
	if m == nil {
		return
	}
	m.ordersDeleted.WithLabelValues(result).Inc()
}
