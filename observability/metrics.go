package observability

import (
	"math"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type rpcMetrics struct {
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

type registryMetrics struct {
	unitsSold      *prometheus.CounterVec
	unitsClaimed   prometheus.Counter
	seasonsClosed  prometheus.Counter
	feesWithdrawn  prometheus.Counter
	protocolOwed   prometheus.Gauge
	blacklistTotal prometheus.Counter
}

var (
	rpcMetricsOnce sync.Once
	rpcRegistry    *rpcMetrics

	registryMetricsOnce sync.Once
	registryRegistry    *registryMetrics
)

// RPCMetrics returns the lazily-initialised collectors used to record
// JSON-RPC activity.
func RPCMetrics() *rpcMetrics {
	rpcMetricsOnce.Do(func() {
		rpcRegistry = &rpcMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "artifactledger",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total JSON-RPC requests segmented by method and outcome.",
			}, []string{"method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "artifactledger",
				Subsystem: "rpc",
				Name:      "errors_total",
				Help:      "Total JSON-RPC errors segmented by method and error code.",
			}, []string{"method", "code"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "artifactledger",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
		}
		prometheus.MustRegister(
			rpcRegistry.requests,
			rpcRegistry.errors,
			rpcRegistry.latency,
		)
	})
	return rpcRegistry
}

// Observe records the outcome of an RPC request. code is the JSON-RPC error
// code, or the empty string on success.
func (m *rpcMetrics) Observe(method, code string, duration time.Duration) {
	if m == nil {
		return
	}
	if method = strings.TrimSpace(method); method == "" {
		method = "unknown"
	}
	outcome := "success"
	if code != "" {
		outcome = "error"
		m.errors.WithLabelValues(method, code).Inc()
	}
	m.requests.WithLabelValues(method, outcome).Inc()
	m.latency.WithLabelValues(method).Observe(duration.Seconds())
}

// RegistryMetrics returns the collectors tracking ledger activity: sales,
// claims, season closes and fee movements.
func RegistryMetrics() *registryMetrics {
	registryMetricsOnce.Do(func() {
		registryRegistry = &registryMetrics{
			unitsSold: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "artifactledger",
				Subsystem: "registry",
				Name:      "units_sold_total",
				Help:      "Count of artifact units sold segmented by season.",
			}, []string{"season"}),
			unitsClaimed: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "artifactledger",
				Subsystem: "registry",
				Name:      "units_claimed_total",
				Help:      "Count of artifact units claimed by artists.",
			}),
			seasonsClosed: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "artifactledger",
				Subsystem: "registry",
				Name:      "seasons_closed_total",
				Help:      "Count of seasons that have been closed.",
			}),
			feesWithdrawn: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "artifactledger",
				Subsystem: "registry",
				Name:      "fee_withdrawals_total",
				Help:      "Count of protocol fee withdrawals.",
			}),
			protocolOwed: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "artifactledger",
				Subsystem: "registry",
				Name:      "protocol_accrued",
				Help:      "Protocol fees accrued and not yet withdrawn, in base units.",
			}),
			blacklistTotal: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "artifactledger",
				Subsystem: "registry",
				Name:      "blacklists_total",
				Help:      "Count of submissions blacklisted by moderation.",
			}),
		}
		prometheus.MustRegister(
			registryRegistry.unitsSold,
			registryRegistry.unitsClaimed,
			registryRegistry.seasonsClosed,
			registryRegistry.feesWithdrawn,
			registryRegistry.protocolOwed,
			registryRegistry.blacklistTotal,
		)
	})
	return registryRegistry
}

// RecordSale adds sold units to the per-season counter.
func (m *registryMetrics) RecordSale(season string, units uint64) {
	if m == nil {
		return
	}
	if season = strings.TrimSpace(season); season == "" {
		season = "unknown"
	}
	m.unitsSold.WithLabelValues(season).Add(float64(units))
}

// RecordClaim adds claimed units to the claim counter.
func (m *registryMetrics) RecordClaim(units uint64) {
	if m == nil {
		return
	}
	m.unitsClaimed.Add(float64(units))
}

// RecordSeasonClosed increments the closed season counter.
func (m *registryMetrics) RecordSeasonClosed() {
	if m == nil {
		return
	}
	m.seasonsClosed.Inc()
}

// RecordFeeWithdrawal counts a withdrawal and resets the accrual gauge.
func (m *registryMetrics) RecordFeeWithdrawal() {
	if m == nil {
		return
	}
	m.feesWithdrawn.Inc()
	m.protocolOwed.Set(0)
}

// RecordBlacklist increments the moderation counter.
func (m *registryMetrics) RecordBlacklist() {
	if m == nil {
		return
	}
	m.blacklistTotal.Inc()
}

// SetProtocolAccrued updates the accrual gauge.
func (m *registryMetrics) SetProtocolAccrued(value *big.Int) {
	if m == nil {
		return
	}
	m.protocolOwed.Set(bigToFloat(value))
}

func bigToFloat(value *big.Int) float64 {
	if value == nil {
		return 0
	}
	floatVal, _ := new(big.Float).SetInt(value).Float64()
	if math.IsNaN(floatVal) || math.IsInf(floatVal, 0) {
		return 0
	}
	return floatVal
}
