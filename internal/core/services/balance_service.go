package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/billetkay/earnings-ledger/internal/core/domain"
	"github.com/billetkay/earnings-ledger/internal/core/ports"
)

// BalanceService rolls per-event ticket proceeds up into organizer-level
// balances and builds the material for new payouts. Tickets already covered
// by a completed or processing payout are excluded by construction, which is
// the payout idempotency guarantee: any code path that creates payouts must
// go through this service rather than re-querying tickets on its own.
type BalanceService struct {
	events   ports.EventRepository
	tickets  ports.TicketRepository
	payouts  ports.PayoutRepository
	fees     *FeeCalculator
	cache    *redis.Client // optional
	cacheTTL time.Duration
}

func NewBalanceService(
	events ports.EventRepository,
	tickets ports.TicketRepository,
	payouts ports.PayoutRepository,
	fees *FeeCalculator,
	cache *redis.Client,
	cacheTTL time.Duration,
) *BalanceService {
	return &BalanceService{
		events:   events,
		tickets:  tickets,
		payouts:  payouts,
		fees:     fees,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

func balanceCacheKey(organizerID uuid.UUID) string {
	return fmt.Sprintf("balance:%s", organizerID)
}

// GetOrganizerBalance computes the organizer's available and pending balances
// across all their events, using the flat platform percentage. Results are
// cached briefly; ledger mutations drop the cache key.
func (s *BalanceService) GetOrganizerBalance(ctx context.Context, organizerID uuid.UUID) (*domain.OrganizerBalance, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, balanceCacheKey(organizerID)).Result(); err == nil {
			var balance domain.OrganizerBalance
			if uerr := json.Unmarshal([]byte(cached), &balance); uerr == nil {
				return &balance, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("Balance cache read failed for organizer %s: %v", organizerID, err)
		}
	}

	balance, err := s.computeBalance(ctx, organizerID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, merr := json.Marshal(balance); merr == nil {
			if serr := s.cache.Set(ctx, balanceCacheKey(organizerID), payload, s.cacheTTL).Err(); serr != nil {
				log.Printf("Balance cache write failed for organizer %s: %v", organizerID, serr)
			}
		}
	}
	return balance, nil
}

func (s *BalanceService) computeBalance(ctx context.Context, organizerID uuid.UUID) (*domain.OrganizerBalance, error) {
	payable, err := s.collectPayableTickets(ctx, organizerID)
	if err != nil {
		return nil, err
	}

	balance := &domain.OrganizerBalance{
		OrganizerID: organizerID,
		Currency:    payable.currency,
	}

	now := time.Now()
	var nextPayout *time.Time
	for _, pt := range payable.tickets {
		if !pt.AvailableAt.After(now) {
			balance.Available += pt.NetCents
			balance.AvailableTicketCount++
			continue
		}
		balance.Pending += pt.NetCents
		balance.PendingTicketCount++
		if nextPayout == nil || pt.AvailableAt.Before(*nextPayout) {
			at := pt.AvailableAt
			nextPayout = &at
		}
	}

	balance.TotalEarnings = balance.Available + balance.Pending
	balance.NextPayoutDate = nextPayout
	return balance, nil
}

// GetAvailableTicketsForPayout returns every ticket eligible for a new payout
// right now, annotated with its parent event, plus the total payable amount
// and the purchase-date range spanned.
func (s *BalanceService) GetAvailableTicketsForPayout(ctx context.Context, organizerID uuid.UUID) (*domain.PayoutPreview, error) {
	payable, err := s.collectPayableTickets(ctx, organizerID)
	if err != nil {
		return nil, err
	}

	preview := &domain.PayoutPreview{
		OrganizerID: organizerID,
		Currency:    payable.currency,
	}

	now := time.Now()
	for _, pt := range payable.tickets {
		if pt.AvailableAt.After(now) {
			continue
		}
		preview.Tickets = append(preview.Tickets, pt)
		preview.TotalCents += pt.NetCents

		purchased := pt.Ticket.PurchasedAt
		if preview.PeriodStart.IsZero() || purchased.Before(preview.PeriodStart) {
			preview.PeriodStart = purchased
		}
		if purchased.After(preview.PeriodEnd) {
			preview.PeriodEnd = purchased
		}
	}
	return preview, nil
}

// PreparePayout builds and persists a new payout covering every currently
// eligible ticket. The payout starts in processing status so its tickets are
// immediately excluded from any subsequent eligibility query.
func (s *BalanceService) PreparePayout(ctx context.Context, organizerID uuid.UUID) (*domain.Payout, error) {
	preview, err := s.GetAvailableTicketsForPayout(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	if len(preview.Tickets) == 0 {
		return nil, nil
	}

	ticketIDs := make([]uuid.UUID, 0, len(preview.Tickets))
	for _, pt := range preview.Tickets {
		ticketIDs = append(ticketIDs, pt.Ticket.ID)
	}

	payout := &domain.Payout{
		ID:          uuid.New(),
		OrganizerID: organizerID,
		Amount:      preview.TotalCents,
		Currency:    preview.Currency,
		Status:      domain.PayoutProcessing,
		TicketIDs:   ticketIDs,
		PeriodStart: preview.PeriodStart,
		PeriodEnd:   preview.PeriodEnd,
		CreatedAt:   time.Now(),
	}
	if err := s.payouts.Create(ctx, payout); err != nil {
		return nil, fmt.Errorf("create payout for organizer %s: %w", organizerID, err)
	}

	if s.cache != nil {
		if derr := s.cache.Del(ctx, balanceCacheKey(organizerID)).Err(); derr != nil {
			log.Printf("Failed to invalidate balance cache for organizer %s: %v", organizerID, derr)
		}
	}
	return payout, nil
}

type payableSet struct {
	tickets  []domain.PayableTicket
	currency domain.Currency
}

// collectPayableTickets loads the organizer's events, builds the exclusion
// set from completed and processing payouts, and classifies every remaining
// valid ticket with its net amount and settlement availability date.
func (s *BalanceService) collectPayableTickets(ctx context.Context, organizerID uuid.UUID) (*payableSet, error) {
	events, err := s.events.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, err
	}

	set := &payableSet{currency: domain.CurrencyHTG}
	if len(events) == 0 {
		return set, nil
	}
	// An organizer is assumed single-currency; the first event decides.
	set.currency = domain.NormalizeCurrency(events[0].Currency)

	payouts, err := s.payouts.ListByOrganizer(ctx, organizerID,
		[]domain.PayoutStatus{domain.PayoutCompleted, domain.PayoutProcessing})
	if err != nil {
		return nil, err
	}

	excluded := make(map[uuid.UUID]struct{})
	for _, p := range payouts {
		for _, id := range p.TicketIDs {
			excluded[id] = struct{}{}
		}
	}

	eventsByID := make(map[uuid.UUID]*domain.Event, len(events))
	eventIDs := make([]uuid.UUID, 0, len(events))
	for i := range events {
		eventsByID[events[i].ID] = &events[i]
		eventIDs = append(eventIDs, events[i].ID)
	}

	tickets, err := s.tickets.ListValidByEvents(ctx, eventIDs)
	if err != nil {
		return nil, err
	}

	holdDays := s.fees.Schedule().SettlementHoldDays
	for i := range tickets {
		t := tickets[i]
		if _, skip := excluded[t.ID]; skip {
			continue
		}
		event, known := eventsByID[t.EventID]
		if !known {
			continue
		}
		end, ok := event.EndDate()
		if !ok {
			continue
		}

		set.tickets = append(set.tickets, domain.PayableTicket{
			Ticket:      t,
			Event:       *event,
			NetCents:    s.fees.FlatNetCents(t.GrossCents()),
			AvailableAt: end.AddDate(0, 0, holdDays),
		})
	}
	return set, nil
}
