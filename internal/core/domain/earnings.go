package domain

import (
	"time"

	"github.com/google/uuid"
)

type SettlementStatus string

const (
	SettlementPending SettlementStatus = "pending"
	SettlementReady   SettlementStatus = "ready"
	SettlementLocked  SettlementStatus = "locked"
)

// EventEarnings is the per-event ledger of record. All amounts are cents in
// the event's listed currency, never the processor's charge currency.
//
// Invariants: NetAmount == GrossSales - PlatformFee - ProcessingFees;
// AvailableToWithdraw + WithdrawnAmount <= NetAmount; AvailableToWithdraw is
// non-negative and stays zero until SettlementStatus is ready.
type EventEarnings struct {
	EventID             uuid.UUID        `json:"event_id"`
	OrganizerID         uuid.UUID        `json:"organizer_id"`
	GrossSales          int64            `json:"gross_sales"`
	TicketsSold         int              `json:"tickets_sold"`
	PlatformFee         int64            `json:"platform_fee"`
	ProcessingFees      int64            `json:"processing_fees"`
	NetAmount           int64            `json:"net_amount"`
	AvailableToWithdraw int64            `json:"available_to_withdraw"`
	WithdrawnAmount     int64            `json:"withdrawn_amount"`
	SettlementStatus    SettlementStatus `json:"settlement_status"`
	SettlementReadyDate time.Time        `json:"settlement_ready_date"`
	Currency            Currency         `json:"currency"`
	LastPayoutID        string           `json:"last_payout_id,omitempty"`

	// Derived marks a view reconstructed from tickets rather than read from
	// the stored ledger entry.
	Derived bool `json:"derived,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TierSalesRow is one row of the per-tier sales breakdown report, keyed by
// tier, unit price and listed currency. Read-model only.
type TierSalesRow struct {
	TierKey        string   `json:"tier_key"`
	TierName       string   `json:"tier_name"`
	UnitPriceCents int64    `json:"unit_price_cents"`
	Currency       Currency `json:"currency"`
	TicketsSold    int      `json:"tickets_sold"`
	GrossCents     int64    `json:"gross_cents"`
}

// OrganizerEarningsSummary rolls up the earnings of every event an organizer
// owns, for the dashboard.
type OrganizerEarningsSummary struct {
	OrganizerID         uuid.UUID       `json:"organizer_id"`
	Events              []EventEarnings `json:"events"`
	GrossSales          int64           `json:"gross_sales"`
	NetAmount           int64           `json:"net_amount"`
	AvailableToWithdraw int64           `json:"available_to_withdraw"`
	WithdrawnAmount     int64           `json:"withdrawn_amount"`
	Currency            Currency        `json:"currency"`
}
