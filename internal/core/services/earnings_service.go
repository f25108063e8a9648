package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/billetkay/earnings-ledger/internal/core/domain"
	"github.com/billetkay/earnings-ledger/internal/core/ports"
	"github.com/billetkay/earnings-ledger/internal/platform/monitoring"
)

// TicketPaymentMeta carries the payment-rail metadata of a completed
// checkout, as reported by the purchase-confirmation webhook.
type TicketPaymentMeta struct {
	Currency           string  `json:"currency,omitempty"`
	PaymentMethod      string  `json:"payment_method,omitempty"`
	ChargedAmountCents int64   `json:"charged_amount_cents,omitempty"`
	ChargedCurrency    string  `json:"charged_currency,omitempty"`
	FxRate             float64 `json:"fx_rate,omitempty"`
}

// EarningsService is the ledger accessor: get-or-create semantics for the
// per-event earnings record plus the purchase, refund, withdrawal and
// settlement operations, and the ticket-derivation fallback for events whose
// stored entry is missing or untrustworthy.
type EarningsService struct {
	events   ports.EventRepository
	tickets  ports.TicketRepository
	earnings ports.EarningsRepository
	fees     *FeeCalculator
	cache    *redis.Client // optional, used to drop cached organizer balances
}

func NewEarningsService(
	events ports.EventRepository,
	tickets ports.TicketRepository,
	earnings ports.EarningsRepository,
	fees *FeeCalculator,
	cache *redis.Client,
) *EarningsService {
	return &EarningsService{
		events:   events,
		tickets:  tickets,
		earnings: earnings,
		fees:     fees,
		cache:    cache,
	}
}

// GetEventEarnings returns the ledger entry for an event. A stored entry
// whose currency conflicts with the event's authoritative currency is a sign
// it was computed against the processor's charge currency, so it is replaced
// by a view derived from the tickets themselves. When no entry exists at all,
// the derived view is returned directly, or nil when the event has no
// qualifying sales.
func (s *EarningsService) GetEventEarnings(ctx context.Context, eventID uuid.UUID) (*domain.EventEarnings, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	stored, err := s.earnings.GetByEventID(ctx, eventID)
	if errors.Is(err, domain.ErrEarningsNotFound) {
		derived, derr := s.deriveFromTickets(ctx, event)
		if derr != nil {
			monitoring.TrackDerivation("error")
			return nil, derr
		}
		if derived == nil {
			monitoring.TrackDerivation("empty")
			return nil, nil
		}
		monitoring.TrackDerivation("ok")
		return derived, nil
	}
	if err != nil {
		return nil, err
	}

	if stored.Currency != domain.NormalizeCurrency(event.Currency) {
		return s.reconcile(ctx, event, stored)
	}

	// Lazy settlement refresh so dashboard reads never show a stale
	// pending status.
	if stored.SettlementStatus == domain.SettlementPending &&
		!stored.SettlementReadyDate.IsZero() &&
		time.Now().After(stored.SettlementReadyDate) {
		if promoted, merr := s.earnings.MarkReady(ctx, eventID, time.Now()); merr == nil && promoted {
			return s.earnings.GetByEventID(ctx, eventID)
		}
	}

	return stored, nil
}

// reconcile replaces a stored entry recorded in the wrong currency with a
// ticket-derived view, carrying over the already-withdrawn amount and
// recomputing the available balance against the derived net. When derivation
// is impossible the stored figures are kept with only the currency corrected.
func (s *EarningsService) reconcile(ctx context.Context, event *domain.Event, stored *domain.EventEarnings) (*domain.EventEarnings, error) {
	authoritative := domain.NormalizeCurrency(event.Currency)

	derived, err := s.deriveFromTickets(ctx, event)
	if err != nil {
		monitoring.TrackDerivation("error")
		return nil, err
	}
	if derived == nil {
		monitoring.TrackDerivation("empty")
		corrected := *stored
		corrected.Currency = authoritative
		return &corrected, nil
	}
	monitoring.TrackDerivation("ok")

	derived.WithdrawnAmount = stored.WithdrawnAmount
	derived.LastPayoutID = stored.LastPayoutID
	if derived.SettlementStatus == domain.SettlementReady {
		derived.AvailableToWithdraw = maxInt64(0, derived.NetAmount-stored.WithdrawnAmount)
	} else {
		derived.AvailableToWithdraw = 0
	}
	return derived, nil
}

// deriveFromTickets reconstructs an earnings view purely from the ticket
// collection. Side-effect free; returns nil when the event has no parseable
// date or no qualifying sales.
func (s *EarningsService) deriveFromTickets(ctx context.Context, event *domain.Event) (*domain.EventEarnings, error) {
	scheduleDate, ok := event.ScheduleDate()
	if !ok {
		return nil, nil
	}

	tickets, err := s.tickets.ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("list tickets for event %s: %w", event.ID, err)
	}

	groups := make(map[string]*domain.PaymentGroup)
	ticketsSold := 0

	for i := range tickets {
		t := &tickets[i]
		if !t.CountsTowardEarnings() {
			continue
		}
		gross := t.GrossCents()
		if gross <= 0 {
			continue
		}

		method := domain.NormalizePaymentMethod(t.PaymentMethod)
		fx := 0.0
		if t.ExchangeRate != nil && *t.ExchangeRate > 0 {
			fx = *t.ExchangeRate
		}

		// Charged amount in settlement currency: prefer the explicit stored
		// value, else infer through the FX rate, else assume no conversion.
		var chargedCents int64
		switch {
		case t.ChargedAmount != nil && *t.ChargedAmount > 0:
			chargedCents = int64(math.Round(*t.ChargedAmount * 100))
		case fx > 0 && (method.IsStripeRail() || method.IsMobileMoneyRail()):
			chargedCents = int64(math.Round(t.PricePaid * fx * 100))
		default:
			chargedCents = gross
		}

		key := t.PaymentID
		if key == "" {
			key = "unknown"
		}
		g, exists := groups[key]
		if !exists {
			g = &domain.PaymentGroup{PaymentID: key, Method: method}
			groups[key] = g
		}
		if g.Method == domain.PaymentUnknown && method != domain.PaymentUnknown {
			g.Method = method
		}
		if g.FxRate == 0 && fx > 0 {
			g.FxRate = fx
		}
		g.GrossCents += gross
		g.ChargedCents += chargedCents

		units := t.Quantity
		if units < 1 {
			units = 1
		}
		g.TicketCount += units
		ticketsSold += units
	}

	if ticketsSold == 0 || len(groups) == 0 {
		return nil, nil
	}

	var grossSales, platformFee, processingFees, netAmount int64
	for _, g := range groups {
		fees := s.fees.ResolveFees(ResolveFeesInput{
			GrossEventCents:    g.GrossCents,
			Method:             g.Method,
			ChargedAmountCents: g.ChargedCents,
			FxRate:             g.FxRate,
		})
		grossSales += fees.GrossAmount
		platformFee += fees.PlatformFee
		processingFees += fees.ProcessingFee
		netAmount += fees.NetAmount
	}

	readyDate := scheduleDate.AddDate(0, 0, s.fees.Schedule().SettlementHoldDays)
	status := domain.SettlementPending
	var available int64
	if time.Now().After(readyDate) {
		status = domain.SettlementReady
		available = maxInt64(0, netAmount)
	}

	return &domain.EventEarnings{
		EventID:             event.ID,
		OrganizerID:         event.OrganizerID,
		GrossSales:          grossSales,
		TicketsSold:         ticketsSold,
		PlatformFee:         platformFee,
		ProcessingFees:      processingFees,
		NetAmount:           netAmount,
		AvailableToWithdraw: available,
		SettlementStatus:    status,
		SettlementReadyDate: readyDate,
		Currency:            domain.NormalizeCurrency(event.Currency),
		Derived:             true,
	}, nil
}

// GetOrCreateEventEarnings returns the stored entry for an event, creating a
// zeroed record on first sale. Fails with domain.ErrEventNotFound when the
// referenced event does not exist.
func (s *EarningsService) GetOrCreateEventEarnings(ctx context.Context, eventID uuid.UUID) (*domain.EventEarnings, error) {
	stored, err := s.earnings.GetByEventID(ctx, eventID)
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, domain.ErrEarningsNotFound) {
		return nil, err
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	var readyDate time.Time
	if scheduleDate, ok := event.ScheduleDate(); ok {
		readyDate = scheduleDate.AddDate(0, 0, s.fees.Schedule().SettlementHoldDays)
	}

	now := time.Now()
	record := &domain.EventEarnings{
		EventID:             event.ID,
		OrganizerID:         event.OrganizerID,
		SettlementStatus:    domain.SettlementPending,
		SettlementReadyDate: readyDate,
		Currency:            domain.NormalizeCurrency(event.Currency),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.earnings.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("create earnings for event %s: %w", eventID, err)
	}

	// Another purchase may have created the record concurrently; the stored
	// row wins either way.
	return s.earnings.GetByEventID(ctx, eventID)
}

// AddTicketToEarnings applies one completed payment confirmation to the
// ledger: fees are resolved per the payment rail and the running totals are
// incremented atomically in the store.
func (s *EarningsService) AddTicketToEarnings(ctx context.Context, eventID uuid.UUID, amountCents int64, quantity int, meta TicketPaymentMeta) (*domain.EventEarnings, error) {
	record, err := s.GetOrCreateEventEarnings(ctx, eventID)
	if err != nil {
		return nil, err
	}

	method := domain.NormalizePaymentMethod(meta.PaymentMethod)
	fees := s.fees.ResolveFees(ResolveFeesInput{
		GrossEventCents:    amountCents,
		Method:             method,
		ChargedAmountCents: meta.ChargedAmountCents,
		FxRate:             meta.FxRate,
	})

	delta := domain.EarningsDelta{
		GrossCents:         fees.GrossAmount,
		PlatformFeeCents:   fees.PlatformFee,
		ProcessingFeeCents: fees.ProcessingFee,
		NetCents:           fees.NetAmount,
		Tickets:            quantity,
	}
	if err := s.earnings.ApplyTicket(ctx, eventID, delta); err != nil {
		return nil, fmt.Errorf("apply ticket to event %s: %w", eventID, err)
	}

	monitoring.TrackTicketRecorded(string(method))
	s.invalidateBalance(ctx, record.OrganizerID)

	return s.earnings.GetByEventID(ctx, eventID)
}

// WithdrawFromEarnings consumes available balance for a payout. Business
// violations come back as domain.ErrInsufficientFunds or domain.ErrNotSettled
// so callers can surface a specific message; anything else is a fault.
func (s *EarningsService) WithdrawFromEarnings(ctx context.Context, eventID uuid.UUID, amountCents int64, payoutID string) error {
	if amountCents <= 0 {
		return fmt.Errorf("withdrawal amount must be positive, got %d", amountCents)
	}

	record, err := s.earnings.GetByEventID(ctx, eventID)
	if err != nil {
		return err
	}

	if err := s.earnings.Withdraw(ctx, eventID, amountCents, payoutID); err != nil {
		switch {
		case errors.Is(err, domain.ErrInsufficientFunds):
			monitoring.TrackWithdrawal("insufficient_funds")
		case errors.Is(err, domain.ErrNotSettled):
			monitoring.TrackWithdrawal("not_settled")
		default:
			monitoring.TrackWithdrawal("error")
		}
		return err
	}

	monitoring.TrackWithdrawal("ok")
	s.invalidateBalance(ctx, record.OrganizerID)
	return nil
}

// RefundTicketFromEarnings reverses a sale using the original fee split from
// the plain calculator. Every running total is floored at zero in the store,
// so a duplicate or out-of-order refund can never drive the ledger negative.
func (s *EarningsService) RefundTicketFromEarnings(ctx context.Context, eventID uuid.UUID, amountCents int64, quantity int) error {
	record, err := s.earnings.GetByEventID(ctx, eventID)
	if err != nil {
		return err
	}

	fees := s.fees.CalculateFees(amountCents)
	delta := domain.EarningsDelta{
		GrossCents:         fees.GrossAmount,
		PlatformFeeCents:   fees.PlatformFee,
		ProcessingFeeCents: fees.ProcessingFee,
		NetCents:           fees.NetAmount,
		Tickets:            quantity,
	}
	if err := s.earnings.ApplyRefund(ctx, eventID, delta); err != nil {
		return fmt.Errorf("apply refund to event %s: %w", eventID, err)
	}

	monitoring.TrackRefund()
	s.invalidateBalance(ctx, record.OrganizerID)
	return nil
}

// UpdateSettlementStatus promotes a pending ledger whose ready date has
// passed. No-op (false) otherwise.
func (s *EarningsService) UpdateSettlementStatus(ctx context.Context, eventID uuid.UUID) (bool, error) {
	promoted, err := s.earnings.MarkReady(ctx, eventID, time.Now())
	if err != nil {
		return false, err
	}
	if promoted {
		monitoring.TrackSettlementPromoted()
	}
	return promoted, nil
}

// GetEventTierSalesBreakdown aggregates qualifying tickets per tier and unit
// price, in the event's listed currency.
func (s *EarningsService) GetEventTierSalesBreakdown(ctx context.Context, eventID uuid.UUID) ([]domain.TierSalesRow, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	tickets, err := s.tickets.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	currency := domain.NormalizeCurrency(event.Currency)
	rows := make(map[string]*domain.TierSalesRow)

	for i := range tickets {
		t := &tickets[i]
		if !t.CountsTowardEarnings() {
			continue
		}
		gross := t.GrossCents()
		if gross <= 0 {
			continue
		}

		tierKey := t.TierID
		if tierKey == "" {
			tierKey = t.TierName
		}
		if tierKey == "" {
			tierKey = "general"
		}

		key := fmt.Sprintf("%s|%d|%s", tierKey, gross, currency)
		row, exists := rows[key]
		if !exists {
			row = &domain.TierSalesRow{
				TierKey:        tierKey,
				TierName:       t.TierName,
				UnitPriceCents: gross,
				Currency:       currency,
			}
			rows[key] = row
		}

		units := t.Quantity
		if units < 1 {
			units = 1
		}
		row.TicketsSold += units
		row.GrossCents += gross
	}

	out := make([]domain.TierSalesRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GrossCents != out[j].GrossCents {
			return out[i].GrossCents > out[j].GrossCents
		}
		return out[i].TierKey < out[j].TierKey
	})
	return out, nil
}

// GetOrganizerEarningsSummary rolls up every event's earnings for the
// organizer dashboard. Events with no sales are skipped.
func (s *EarningsService) GetOrganizerEarningsSummary(ctx context.Context, organizerID uuid.UUID) (*domain.OrganizerEarningsSummary, error) {
	events, err := s.events.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, err
	}

	summary := &domain.OrganizerEarningsSummary{
		OrganizerID: organizerID,
		Currency:    domain.CurrencyHTG,
	}
	if len(events) > 0 {
		summary.Currency = domain.NormalizeCurrency(events[0].Currency)
	}

	for i := range events {
		earnings, err := s.GetEventEarnings(ctx, events[i].ID)
		if err != nil {
			return nil, err
		}
		if earnings == nil {
			continue
		}
		summary.Events = append(summary.Events, *earnings)
		summary.GrossSales += earnings.GrossSales
		summary.NetAmount += earnings.NetAmount
		summary.AvailableToWithdraw += earnings.AvailableToWithdraw
		summary.WithdrawnAmount += earnings.WithdrawnAmount
	}
	return summary, nil
}

// RunSettlementSweep periodically promotes pending ledgers whose settlement
// date has passed. Blocks until ctx is cancelled.
func (s *EarningsService) RunSettlementSweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("Settlement sweep started: checking pending ledgers every %s...", interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("Settlement sweep stopped.")
			return
		case <-ticker.C:
			s.sweepDueSettlements(ctx)
		}
	}
}

func (s *EarningsService) sweepDueSettlements(ctx context.Context) {
	ids, err := s.earnings.ListDueForSettlement(ctx, time.Now(), 100)
	if err != nil {
		log.Printf("Error listing ledgers due for settlement: %v", err)
		return
	}

	for _, id := range ids {
		promoted, err := s.earnings.MarkReady(ctx, id, time.Now())
		if err != nil {
			log.Printf("Failed to promote settlement for event %s: %v", id, err)
			continue
		}
		if promoted {
			monitoring.TrackSettlementPromoted()
			log.Printf("Event %s settlement promoted to ready.", id)
		}
	}
}

func (s *EarningsService) invalidateBalance(ctx context.Context, organizerID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, balanceCacheKey(organizerID)).Err(); err != nil {
		log.Printf("Failed to invalidate balance cache for organizer %s: %v", organizerID, err)
	}
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
