package metrics

import (
	"sync"

	"github.com/andreolf/clawloan/internal/domain/pool"
	"github.com/andreolf/clawloan/pkg/fixed"

	"github.com/prometheus/client_golang/prometheus"
)

// Engine holds the process-wide collectors. A nil *Engine is a no-op so
// usecases can run without metrics in tests.
type Engine struct {
	operations  *prometheus.CounterVec
	tvl         prometheus.Gauge
	borrows     prometheus.Gauge
	utilization prometheus.Gauge
	httpLatency *prometheus.HistogramVec
}

var (
	engineOnce     sync.Once
	engineRegistry *Engine
)

func Default() *Engine {
	engineOnce.Do(func() {
		engineRegistry = &Engine{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "clawloan_operations_total",
				Help: "Pool operations by name and outcome.",
			}, []string{"op", "result"}),
			tvl: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "clawloan_pool_tvl",
				Help: "Total deposits in whole asset units.",
			}),
			borrows: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "clawloan_pool_borrows",
				Help: "Outstanding principal in whole asset units.",
			}),
			utilization: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "clawloan_pool_utilization_bps",
				Help: "Borrows over deposits in basis points.",
			}),
			httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "clawloan_http_request_seconds",
				Help:    "HTTP request latency.",
				Buckets: prometheus.DefBuckets,
			}, []string{"method", "route", "status"}),
		}
		prometheus.MustRegister(
			engineRegistry.operations,
			engineRegistry.tvl,
			engineRegistry.borrows,
			engineRegistry.utilization,
			engineRegistry.httpLatency,
		)
	})
	return engineRegistry
}

func (m *Engine) ObserveOperation(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(op, result).Inc()
}

// ObservePool publishes a committed pool snapshot in whole asset units.
func (m *Engine) ObservePool(p *pool.Pool, utilization fixed.Int) {
	if m == nil || p == nil {
		return
	}
	m.tvl.Set(p.TotalDeposits.Decimal(p.Decimals).InexactFloat64())
	m.borrows.Set(p.TotalBorrows.Decimal(p.Decimals).InexactFloat64())
	m.utilization.Set(float64(utilization.MulDiv(fixed.BPS, fixed.RAY).Uint64()))
}

func (m *Engine) ObserveHTTP(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpLatency.WithLabelValues(method, route, status).Observe(seconds)
}
