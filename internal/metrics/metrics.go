// Package metrics registers the Prometheus instruments exported on the
// back-office /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BetsPlaced counts admitted bets by type.
	BetsPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "betwise",
		Name:      "bets_placed_total",
		Help:      "Number of bets admitted, by bet type.",
	}, []string{"type"})

	// BetsRejected counts admission rejections by reason.
	BetsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "betwise",
		Name:      "bets_rejected_total",
		Help:      "Number of bets rejected at admission, by reason.",
	}, []string{"reason"})

	// BetsSettled counts settled bets by terminal status.
	BetsSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "betwise",
		Name:      "bets_settled_total",
		Help:      "Number of bets settled, by terminal status.",
	}, []string{"status"})

	// LedgerEntries counts ledger writes by kind.
	LedgerEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "betwise",
		Name:      "ledger_entries_total",
		Help:      "Number of wallet ledger entries written, by kind.",
	}, []string{"kind"})

	// TxRetries counts transactions retried after a serialization conflict.
	TxRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "betwise",
		Name:      "tx_retries_total",
		Help:      "Number of database transactions retried after a conflict.",
	})

	// ExposureWorstCase tracks the latest platform-wide worst-case liability.
	ExposureWorstCase = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "betwise",
		Name:      "exposure_worst_case",
		Help:      "Sum of per-game worst-case liabilities from the latest snapshot.",
	})

	// ExposurePendingStake tracks total stake tied up in pending bets.
	ExposurePendingStake = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "betwise",
		Name:      "exposure_pending_stake",
		Help:      "Total stake held in pending bets from the latest snapshot.",
	})

	// SettlementDuration observes how long one game's settlement run takes.
	SettlementDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "betwise",
		Name:      "settlement_duration_seconds",
		Help:      "Duration of a single game settlement run.",
		Buckets:   prometheus.DefBuckets,
	})
)
