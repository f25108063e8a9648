package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/billetkay/earnings-ledger/internal/core/domain"
)

type EventRepository interface {
	GetByID(ctx context.Context, eventID uuid.UUID) (*domain.Event, error)
	ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]domain.Event, error)
}

type TicketRepository interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Ticket, error)
	// ListValidByEvents returns all valid-status tickets across the given
	// events. Implementations must chunk the event IDs to the store's
	// IN-query cardinality limit.
	ListValidByEvents(ctx context.Context, eventIDs []uuid.UUID) ([]domain.Ticket, error)
}

// EarningsRepository persists the per-event ledger. Every mutating method
// must be atomic against concurrent callers: a single conditional statement
// (or equivalent), never a read-modify-write in application code.
type EarningsRepository interface {
	GetByEventID(ctx context.Context, eventID uuid.UUID) (*domain.EventEarnings, error)
	Create(ctx context.Context, earnings *domain.EventEarnings) error

	// ApplyTicket increments the running totals for a completed purchase.
	// AvailableToWithdraw grows only while the record is in ready status.
	ApplyTicket(ctx context.Context, eventID uuid.UUID, delta domain.EarningsDelta) error

	// ApplyRefund decrements the running totals, flooring every field at
	// zero so out-of-order or duplicate refunds can never drive a balance
	// negative.
	ApplyRefund(ctx context.Context, eventID uuid.UUID, delta domain.EarningsDelta) error

	// Withdraw moves amountCents from available to withdrawn, recording the
	// payout that consumed it. Fails with domain.ErrNotSettled or
	// domain.ErrInsufficientFunds without modifying the record. When the
	// remaining available balance is exactly zero the record is locked.
	Withdraw(ctx context.Context, eventID uuid.UUID, amountCents int64, payoutID string) error

	// MarkReady promotes a pending record whose settlement-ready date has
	// passed, releasing the accrued net (minus anything already withdrawn)
	// into the available balance. Returns false when the record was not in a
	// promotable state.
	MarkReady(ctx context.Context, eventID uuid.UUID, asOf time.Time) (bool, error)

	// ListDueForSettlement returns IDs of events whose ledger is still
	// pending past its settlement-ready date.
	ListDueForSettlement(ctx context.Context, asOf time.Time, limit int) ([]uuid.UUID, error)
}

type PayoutRepository interface {
	Create(ctx context.Context, payout *domain.Payout) error
	ListByOrganizer(ctx context.Context, organizerID uuid.UUID, statuses []domain.PayoutStatus) ([]domain.Payout, error)
}
