package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ListingsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoapply_listings_processed_total",
			Help: "Listings processed, by terminal application state",
		},
		[]string{"state"},
	)

	ApplicationSteps = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "autoapply_application_step_advances",
			Help:    "Form step advances taken per application flow",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)

	PhaseRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoapply_phase_retries_total",
			Help: "Retries of browser phases after transient UI failures",
		},
		[]string{"phase"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoapply_notifications_total",
			Help: "Notification deliveries by channel and status",
		},
		[]string{"channel", "status"},
	)

	LedgerWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoapply_ledger_writes_total",
			Help: "Ledger writes by sink and status",
		},
		[]string{"sink", "status"},
	)

	CycleActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "autoapply_cycle_active",
			Help: "1 while a job search cycle is running",
		},
	)
)
