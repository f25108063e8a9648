package domain

import (
	"time"

	"github.com/google/uuid"
)

type PayoutStatus string

const (
	PayoutPending    PayoutStatus = "pending"
	PayoutProcessing PayoutStatus = "processing"
	PayoutCompleted  PayoutStatus = "completed"
	PayoutFailed     PayoutStatus = "failed"
)

// Payout records a disbursement to an organizer. TicketIDs lists every ticket
// whose proceeds the payout covers; a ticket may appear in at most one payout
// whose status is completed or processing.
type Payout struct {
	ID          uuid.UUID    `json:"id"`
	OrganizerID uuid.UUID    `json:"organizer_id"`
	Amount      int64        `json:"amount"` // cents
	Currency    Currency     `json:"currency"`
	Status      PayoutStatus `json:"status"`
	TicketIDs   []uuid.UUID  `json:"ticket_ids"`
	PeriodStart time.Time    `json:"period_start"`
	PeriodEnd   time.Time    `json:"period_end"`
	CreatedAt   time.Time    `json:"created_at"`
}

// OrganizerBalance is the organizer-level rollup of payable ticket proceeds.
// Available covers tickets past their settlement hold; Pending covers the
// rest. Amounts are cents in the organizer's primary currency.
type OrganizerBalance struct {
	OrganizerID          uuid.UUID  `json:"organizer_id"`
	Available            int64      `json:"available"`
	Pending              int64      `json:"pending"`
	TotalEarnings        int64      `json:"total_earnings"`
	Currency             Currency   `json:"currency"`
	NextPayoutDate       *time.Time `json:"next_payout_date,omitempty"`
	AvailableTicketCount int        `json:"available_ticket_count"`
	PendingTicketCount   int        `json:"pending_ticket_count"`
}

// PayableTicket annotates a ticket with its parent event and the net amount
// it contributes to a payout.
type PayableTicket struct {
	Ticket      Ticket    `json:"ticket"`
	Event       Event     `json:"event"`
	NetCents    int64     `json:"net_cents"`
	AvailableAt time.Time `json:"available_at"`
}

// PayoutPreview is the material for constructing a new payout: the eligible
// tickets, the total payable amount, and the purchase-date range they span.
type PayoutPreview struct {
	OrganizerID uuid.UUID       `json:"organizer_id"`
	Tickets     []PayableTicket `json:"tickets"`
	TotalCents  int64           `json:"total_cents"`
	Currency    Currency        `json:"currency"`
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
}
