// internal/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "candy_minter"

// Collector собирает метрики попыток и батчей минта.
type Collector struct {
	attempts        *prometheus.CounterVec
	attemptDuration prometheus.Histogram
	batches         *prometheus.CounterVec
	itemsRemaining  prometheus.Gauge
	walletBalance   prometheus.Gauge
}

// NewCollector регистрирует метрики в reg. Nil reg означает
// prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mint_attempts_total",
			Help:      "Total number of mint attempts by outcome",
		}, []string{"status"}),
		attemptDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mint_attempt_duration_seconds",
			Help:      "Duration of a mint attempt from balance check to confirmation",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mint_batches_total",
			Help:      "Total number of mint batches by outcome",
		}, []string{"status"}),
		itemsRemaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "candy_machine_items_remaining",
			Help:      "Items remaining in the candy machine at last fetch",
		}),
		walletBalance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "wallet_balance_lamports",
			Help:      "Last observed wallet balance in lamports",
		}),
	}

	reg.MustRegister(c.attempts, c.attemptDuration, c.batches, c.itemsRemaining, c.walletBalance)
	return c
}

// ObserveAttempt учитывает одну попытку минта.
func (c *Collector) ObserveAttempt(success bool, d time.Duration) {
	c.attempts.WithLabelValues(status(success)).Inc()
	c.attemptDuration.Observe(d.Seconds())
}

// ObserveBatch учитывает завершённый батч; aborted означает досрочную остановку.
func (c *Collector) ObserveBatch(minted int, aborted bool) {
	switch {
	case aborted:
		c.batches.WithLabelValues("aborted").Inc()
	case minted > 0:
		c.batches.WithLabelValues("success").Inc()
	default:
		c.batches.WithLabelValues("failed").Inc()
	}
}

// SetItemsRemaining обновляет остаток кэнди-машины.
func (c *Collector) SetItemsRemaining(n uint64) {
	c.itemsRemaining.Set(float64(n))
}

// SetWalletBalance обновляет последний известный баланс.
func (c *Collector) SetWalletBalance(lamports uint64) {
	c.walletBalance.Set(float64(lamports))
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}
