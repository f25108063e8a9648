package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticketsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "earnings_tickets_recorded_total",
			Help: "Tickets applied to event earnings, by payment method",
		},
		[]string{"payment_method"},
	)

	withdrawals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "earnings_withdrawals_total",
			Help: "Withdrawal attempts against event earnings",
		},
		[]string{"status"},
	)

	refunds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "earnings_refunds_total",
			Help: "Refunds applied to event earnings",
		},
	)

	derivations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "earnings_derivations_total",
			Help: "Ticket-derivation fallbacks run for events with missing or untrusted ledger entries",
		},
		[]string{"result"},
	)

	settlementsPromoted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "earnings_settlements_promoted_total",
			Help: "Ledger records promoted from pending to ready by the settlement sweep",
		},
	)
)

func TrackTicketRecorded(method string) {
	ticketsRecorded.WithLabelValues(method).Inc()
}

func TrackWithdrawal(status string) {
	withdrawals.WithLabelValues(status).Inc()
}

func TrackRefund() {
	refunds.Inc()
}

func TrackDerivation(result string) {
	derivations.WithLabelValues(result).Inc()
}

func TrackSettlementPromoted() {
	settlementsPromoted.Inc()
}
