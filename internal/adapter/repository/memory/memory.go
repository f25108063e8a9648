// Package memory provides in-memory implementations of the repository ports,
// used by the service tests and for running the API without a database. The
// mutating earnings operations mirror the postgres adapter's atomicity by
// holding a single store-wide lock per call.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/billetkay/earnings-ledger/internal/core/domain"
)

// Store holds all collections behind one lock. The per-port repositories
// returned by Events, Tickets, Earnings and Payouts are views over it.
type Store struct {
	mu       sync.Mutex
	events   map[uuid.UUID]domain.Event
	tickets  map[uuid.UUID][]domain.Ticket // keyed by event ID
	earnings map[uuid.UUID]domain.EventEarnings
	payouts  map[uuid.UUID][]domain.Payout // keyed by organizer ID
}

func NewStore() *Store {
	return &Store{
		events:   make(map[uuid.UUID]domain.Event),
		tickets:  make(map[uuid.UUID][]domain.Ticket),
		earnings: make(map[uuid.UUID]domain.EventEarnings),
		payouts:  make(map[uuid.UUID][]domain.Payout),
	}
}

func (s *Store) Events() *EventRepository      { return &EventRepository{store: s} }
func (s *Store) Tickets() *TicketRepository    { return &TicketRepository{store: s} }
func (s *Store) Earnings() *EarningsRepository { return &EarningsRepository{store: s} }
func (s *Store) Payouts() *PayoutRepository    { return &PayoutRepository{store: s} }

// SeedEvent, SeedTicket and SeedPayout populate the store for tests.

func (s *Store) SeedEvent(event domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ID] = event
}

func (s *Store) SeedTicket(ticket domain.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[ticket.EventID] = append(s.tickets[ticket.EventID], ticket)
}

func (s *Store) SeedPayout(payout domain.Payout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payouts[payout.OrganizerID] = append(s.payouts[payout.OrganizerID], payout)
}

type EventRepository struct {
	store *Store
}

func (r *EventRepository) GetByID(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	event, exists := r.store.events[eventID]
	if !exists {
		return nil, domain.ErrEventNotFound
	}
	return &event, nil
}

func (r *EventRepository) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]domain.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var events []domain.Event
	for _, event := range r.store.events {
		if event.OrganizerID == organizerID {
			events = append(events, event)
		}
	}
	return events, nil
}

type TicketRepository struct {
	store *Store
}

func (r *TicketRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Ticket, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return append([]domain.Ticket(nil), r.store.tickets[eventID]...), nil
}

func (r *TicketRepository) ListValidByEvents(ctx context.Context, eventIDs []uuid.UUID) ([]domain.Ticket, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []domain.Ticket
	for _, eventID := range eventIDs {
		for _, t := range r.store.tickets[eventID] {
			if t.Status == domain.TicketValid {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

type EarningsRepository struct {
	store *Store
}

func (r *EarningsRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*domain.EventEarnings, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	e, exists := r.store.earnings[eventID]
	if !exists {
		return nil, domain.ErrEarningsNotFound
	}
	return &e, nil
}

func (r *EarningsRepository) Create(ctx context.Context, e *domain.EventEarnings) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	// First writer wins, matching the postgres ON CONFLICT DO NOTHING.
	if _, exists := r.store.earnings[e.EventID]; exists {
		return nil
	}
	r.store.earnings[e.EventID] = *e
	return nil
}

func (r *EarningsRepository) ApplyTicket(ctx context.Context, eventID uuid.UUID, d domain.EarningsDelta) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	e, exists := r.store.earnings[eventID]
	if !exists {
		return domain.ErrEarningsNotFound
	}

	e.GrossSales += d.GrossCents
	e.PlatformFee += d.PlatformFeeCents
	e.ProcessingFees += d.ProcessingFeeCents
	e.NetAmount += d.NetCents
	e.TicketsSold += d.Tickets
	if e.SettlementStatus == domain.SettlementReady {
		e.AvailableToWithdraw += d.NetCents
	}
	e.UpdatedAt = time.Now()

	r.store.earnings[eventID] = e
	return nil
}

func (r *EarningsRepository) ApplyRefund(ctx context.Context, eventID uuid.UUID, d domain.EarningsDelta) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	e, exists := r.store.earnings[eventID]
	if !exists {
		return domain.ErrEarningsNotFound
	}

	e.GrossSales = floor0(e.GrossSales - d.GrossCents)
	e.PlatformFee = floor0(e.PlatformFee - d.PlatformFeeCents)
	e.ProcessingFees = floor0(e.ProcessingFees - d.ProcessingFeeCents)
	e.NetAmount = floor0(e.NetAmount - d.NetCents)
	e.AvailableToWithdraw = floor0(e.AvailableToWithdraw - d.NetCents)
	if e.TicketsSold -= d.Tickets; e.TicketsSold < 0 {
		e.TicketsSold = 0
	}
	e.UpdatedAt = time.Now()

	r.store.earnings[eventID] = e
	return nil
}

func (r *EarningsRepository) Withdraw(ctx context.Context, eventID uuid.UUID, amountCents int64, payoutID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	e, exists := r.store.earnings[eventID]
	if !exists {
		return domain.ErrEarningsNotFound
	}
	if e.SettlementStatus != domain.SettlementReady {
		return domain.ErrNotSettled
	}
	if e.AvailableToWithdraw < amountCents {
		return domain.ErrInsufficientFunds
	}

	e.AvailableToWithdraw -= amountCents
	e.WithdrawnAmount += amountCents
	e.LastPayoutID = payoutID
	if e.AvailableToWithdraw == 0 {
		e.SettlementStatus = domain.SettlementLocked
	}
	e.UpdatedAt = time.Now()

	r.store.earnings[eventID] = e
	return nil
}

func (r *EarningsRepository) MarkReady(ctx context.Context, eventID uuid.UUID, asOf time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	e, exists := r.store.earnings[eventID]
	if !exists {
		return false, nil
	}
	if e.SettlementStatus != domain.SettlementPending ||
		e.SettlementReadyDate.IsZero() ||
		e.SettlementReadyDate.After(asOf) {
		return false, nil
	}

	e.SettlementStatus = domain.SettlementReady
	e.AvailableToWithdraw = floor0(e.NetAmount - e.WithdrawnAmount)
	e.UpdatedAt = time.Now()

	r.store.earnings[eventID] = e
	return true, nil
}

func (r *EarningsRepository) ListDueForSettlement(ctx context.Context, asOf time.Time, limit int) ([]uuid.UUID, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var ids []uuid.UUID
	for id, e := range r.store.earnings {
		if len(ids) >= limit {
			break
		}
		if e.SettlementStatus == domain.SettlementPending &&
			!e.SettlementReadyDate.IsZero() &&
			!e.SettlementReadyDate.After(asOf) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type PayoutRepository struct {
	store *Store
}

func (r *PayoutRepository) Create(ctx context.Context, payout *domain.Payout) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.payouts[payout.OrganizerID] = append(r.store.payouts[payout.OrganizerID], *payout)
	return nil
}

func (r *PayoutRepository) ListByOrganizer(ctx context.Context, organizerID uuid.UUID, statuses []domain.PayoutStatus) ([]domain.Payout, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	wanted := make(map[domain.PayoutStatus]struct{}, len(statuses))
	for _, status := range statuses {
		wanted[status] = struct{}{}
	}

	var out []domain.Payout
	for _, p := range r.store.payouts[organizerID] {
		if _, ok := wanted[p.Status]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func floor0(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
