package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "admission",
		Name:      "submissions_total",
		Help:      "Application submissions by outcome (created, switched, unchanged, rejected).",
	}, []string{"outcome"})

	withdrawalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "admission",
		Name:      "withdrawals_total",
		Help:      "Applications withdrawn by students.",
	})

	importRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "admission",
		Name:      "import_rows_total",
		Help:      "Bulk import rows by result (added, existing, skipped).",
	}, []string{"result"})

	counterRepairsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "admission",
		Name:      "counter_repairs_total",
		Help:      "Department application counters corrected by reconciliation.",
	})
)
