package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CreditsGranted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "credits_granted_total",
		Help:      "Credits granted, labelled by batch source.",
	}, []string{"source"})

	CreditsConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "credits_consumed_total",
		Help:      "Credits debited by committed reservations.",
	})

	CreditsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "credits_expired_total",
		Help:      "Credits written off by batch expiry.",
	})

	ReservationsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "reservations_opened_total",
		Help:      "Reservations successfully placed.",
	})

	ReservationsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "reservations_resolved_total",
		Help:      "Reservations resolved, labelled by outcome.",
	}, []string{"outcome"})

	ReservationsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "reservations_rejected_total",
		Help:      "Reservation attempts rejected, labelled by reason.",
	}, []string{"reason"})

	InvariantViolations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "invariant_violations_total",
		Help:      "Batch invariant violations that froze an account.",
	})

	SweepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ledger",
		Name:      "sweep_duration_seconds",
		Help:      "Duration of background sweep passes.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"sweep"})

	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ledger",
		Name:      "operation_duration_seconds",
		Help:      "Duration of ledger mutating operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
)
