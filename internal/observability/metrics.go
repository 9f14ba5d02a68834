// Package observability регистрирует метрики Prometheus для денежных операций и HTTP.
package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const namespace = "creator_escrow"

var (
	escrowOnce     sync.Once
	escrowRegistry *EscrowMetrics

	gatewayOnce     sync.Once
	gatewayRegistry *GatewayMetrics

	httpOnce     sync.Once
	httpRegistry *HTTPMetrics
)

// EscrowMetrics - счётчики эскроу, этапов и выводов.
type EscrowMetrics struct {
	captures    *prometheus.CounterVec
	milestones  *prometheus.CounterVec
	funds       *prometheus.CounterVec
	withdrawals *prometheus.CounterVec
	resolutions *prometheus.CounterVec
}

// Escrow возвращает лениво зарегистрированные метрики эскроу.
func Escrow() *EscrowMetrics {
	escrowOnce.Do(func() {
		escrowRegistry = &EscrowMetrics{
			captures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "escrow",
				Name:      "captures_total",
				Help:      "Попытки подтверждения оплаты по исходу.",
			}, []string{"outcome"}),
			milestones: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "escrow",
				Name:      "milestone_transitions_total",
				Help:      "Переходы этапов по целевому статусу.",
			}, []string{"status"}),
			funds: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "escrow",
				Name:      "funds_moved_total",
				Help:      "Сумма, списанная из эскроу, по направлению.",
			}, []string{"bucket"}),
			withdrawals: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "withdrawal",
				Name:      "requests_total",
				Help:      "Заявки на вывод по исходу.",
			}, []string{"outcome"}),
			resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "resolution",
				Name:      "submitted_total",
				Help:      "Отзывы, жалобы и запросы на возврат.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(
			escrowRegistry.captures,
			escrowRegistry.milestones,
			escrowRegistry.funds,
			escrowRegistry.withdrawals,
			escrowRegistry.resolutions,
		)
	})
	return escrowRegistry
}

func (m *EscrowMetrics) Capture(outcome string) {
	if m == nil {
		return
	}
	m.captures.WithLabelValues(outcome).Inc()
}

func (m *EscrowMetrics) MilestoneTransition(status string) {
	if m == nil {
		return
	}
	m.milestones.WithLabelValues(status).Inc()
}

func (m *EscrowMetrics) FundsMoved(bucket string, amount decimal.Decimal) {
	if m == nil {
		return
	}
	m.funds.WithLabelValues(bucket).Add(amount.InexactFloat64())
}

func (m *EscrowMetrics) Withdrawal(outcome string) {
	if m == nil {
		return
	}
	m.withdrawals.WithLabelValues(outcome).Inc()
}

func (m *EscrowMetrics) Resolution(kind string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(kind).Inc()
}

// GatewayMetrics - задержки и ошибки вызовов платёжного шлюза.
type GatewayMetrics struct {
	latency *prometheus.HistogramVec
	errors  *prometheus.CounterVec
}

func Gateway() *GatewayMetrics {
	gatewayOnce.Do(func() {
		gatewayRegistry = &GatewayMetrics{
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "request_duration_seconds",
				Help:      "Длительность запросов к платёжному шлюзу.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "errors_total",
				Help:      "Ошибки запросов к платёжному шлюзу.",
			}, []string{"operation"}),
		}
		prometheus.MustRegister(gatewayRegistry.latency, gatewayRegistry.errors)
	})
	return gatewayRegistry
}

func (m *GatewayMetrics) Observe(op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(op).Observe(d.Seconds())
	if err != nil {
		m.errors.WithLabelValues(op).Inc()
	}
}

// HTTPMetrics - запросы HTTP API по маршруту и статусу.
type HTTPMetrics struct {
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

func HTTP() *HTTPMetrics {
	httpOnce.Do(func() {
		httpRegistry = &HTTPMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP запросы по маршруту, методу и статусу.",
			}, []string{"route", "method", "status"}),
			durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Длительность HTTP запросов.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"route", "method"}),
		}
		prometheus.MustRegister(httpRegistry.requests, httpRegistry.durations)
	})
	return httpRegistry
}

func (m *HTTPMetrics) Observe(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.durations.WithLabelValues(route, method).Observe(d.Seconds())
}
