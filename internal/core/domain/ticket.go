package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type TicketStatus string

const (
	TicketValid     TicketStatus = "valid"
	TicketConfirmed TicketStatus = "confirmed"
	TicketCancelled TicketStatus = "cancelled"
	TicketRefunded  TicketStatus = "refunded"
)

// Ticket is one purchased admission unit. The ledger consumes tickets but
// does not own them; raw string fields (payment method, currencies) are
// normalized at the point of use.
type Ticket struct {
	ID               uuid.UUID
	EventID          uuid.UUID
	Status           TicketStatus
	PricePaid        float64 // major units, event currency
	Quantity         int
	PaymentID        string // groups tickets from one checkout transaction
	PaymentMethod    string
	Currency         string
	OriginalCurrency string
	ExchangeRate     *float64 // settlement units per one event-currency unit
	ChargedAmount    *float64 // major units, settlement currency, when stored
	TierID           string
	TierName         string
	PurchasedAt      time.Time
}

// CountsTowardEarnings reports whether the ticket's status qualifies it for
// earnings. Legacy records with an empty status are treated as valid.
func (t *Ticket) CountsTowardEarnings() bool {
	return t.Status == "" || t.Status == TicketValid || t.Status == TicketConfirmed
}

// GrossCents converts the ticket's major-unit price into event-currency cents.
func (t *Ticket) GrossCents() int64 {
	return int64(math.Round(t.PricePaid * 100))
}

// Event carries the fields the ledger reads from the event collaborator.
// StartsAt and EventDate are nullable because older records only carry a
// creation timestamp.
type Event struct {
	ID          uuid.UUID
	OrganizerID uuid.UUID
	Title       string
	Currency    string // raw, normalized at use
	StartsAt    *time.Time
	EndsAt      *time.Time
	EventDate   *time.Time // legacy scheduling field
	CreatedAt   time.Time
}

// ScheduleDate resolves the event's scheduling date from the first present of
// its date fields. Returns false when no usable date exists.
func (e *Event) ScheduleDate() (time.Time, bool) {
	if e.StartsAt != nil && !e.StartsAt.IsZero() {
		return *e.StartsAt, true
	}
	if e.EventDate != nil && !e.EventDate.IsZero() {
		return *e.EventDate, true
	}
	if !e.CreatedAt.IsZero() {
		return e.CreatedAt, true
	}
	return time.Time{}, false
}

// EndDate resolves the event's end, falling back to the schedule date when no
// explicit end is stored.
func (e *Event) EndDate() (time.Time, bool) {
	if e.EndsAt != nil && !e.EndsAt.IsZero() {
		return *e.EndsAt, true
	}
	return e.ScheduleDate()
}

// PaymentGroup aggregates the tickets of a single checkout transaction.
// Processor fees carry a fixed per-transaction component that must be applied
// once per group, not once per ticket. Derivation-only; never persisted.
type PaymentGroup struct {
	PaymentID    string
	Method       PaymentMethod
	GrossCents   int64 // event currency
	ChargedCents int64 // settlement currency
	TicketCount  int
	FxRate       float64 // 0 when no rate was observed in the group
}
