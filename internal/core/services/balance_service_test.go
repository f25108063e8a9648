package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billetkay/earnings-ledger/internal/adapter/repository/memory"
	"github.com/billetkay/earnings-ledger/internal/core/domain"
	"github.com/billetkay/earnings-ledger/internal/core/services"
)

func newBalanceFixture() (*memory.Store, *services.BalanceService) {
	store := memory.NewStore()
	svc := services.NewBalanceService(store.Events(), store.Tickets(), store.Payouts(), defaultCalc(), nil, 0)
	return store, svc
}

func seedEndedEvent(store *memory.Store, organizerID uuid.UUID, endsAt time.Time) domain.Event {
	event := domain.Event{
		ID:          uuid.New(),
		OrganizerID: organizerID,
		Currency:    "HTG",
		EndsAt:      &endsAt,
		CreatedAt:   time.Now().Add(-90 * 24 * time.Hour),
	}
	store.SeedEvent(event)
	return event
}

func seedValidTicket(store *memory.Store, eventID uuid.UUID, price float64, purchasedAt time.Time) domain.Ticket {
	ticket := domain.Ticket{
		ID:          uuid.New(),
		EventID:     eventID,
		Status:      domain.TicketValid,
		PricePaid:   price,
		Quantity:    1,
		PurchasedAt: purchasedAt,
	}
	store.SeedTicket(ticket)
	return ticket
}

func TestGetOrganizerBalance_SplitsAvailableAndPending(t *testing.T) {
	store, svc := newBalanceFixture()
	organizerID := uuid.New()

	// One event past its settlement hold, one still inside it.
	past := seedEndedEvent(store, organizerID, time.Now().Add(-30*24*time.Hour))
	upcoming := seedEndedEvent(store, organizerID, time.Now().Add(10*24*time.Hour))

	seedValidTicket(store, past.ID, 1000, time.Now().Add(-40*24*time.Hour))
	seedValidTicket(store, upcoming.ID, 1000, time.Now().Add(-time.Hour))

	balance, err := svc.GetOrganizerBalance(context.Background(), organizerID)
	require.NoError(t, err)

	assert.Equal(t, int64(95000), balance.Available) // 100000 minus flat 5%
	assert.Equal(t, 1, balance.AvailableTicketCount)
	assert.Equal(t, int64(95000), balance.Pending)
	assert.Equal(t, 1, balance.PendingTicketCount)
	assert.Equal(t, int64(190000), balance.TotalEarnings)
	assert.Equal(t, domain.CurrencyHTG, balance.Currency)

	require.NotNil(t, balance.NextPayoutDate)
	wantNext := time.Now().Add(10 * 24 * time.Hour).AddDate(0, 0, 7)
	assert.WithinDuration(t, wantNext, *balance.NextPayoutDate, time.Minute)
}

func TestGetOrganizerBalance_NoEvents(t *testing.T) {
	_, svc := newBalanceFixture()

	balance, err := svc.GetOrganizerBalance(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, int64(0), balance.Available)
	assert.Equal(t, int64(0), balance.Pending)
	assert.Equal(t, int64(0), balance.TotalEarnings)
	assert.Equal(t, domain.CurrencyHTG, balance.Currency)
	assert.Nil(t, balance.NextPayoutDate)
}

func TestGetAvailableTicketsForPayout_ExcludesPaidOutTickets(t *testing.T) {
	store, svc := newBalanceFixture()
	organizerID := uuid.New()

	event := seedEndedEvent(store, organizerID, time.Now().Add(-30*24*time.Hour))
	t1 := seedValidTicket(store, event.ID, 1000, time.Now().Add(-35*24*time.Hour))
	t2 := seedValidTicket(store, event.ID, 1000, time.Now().Add(-34*24*time.Hour))
	t3 := seedValidTicket(store, event.ID, 1000, time.Now().Add(-33*24*time.Hour))

	// t1 already disbursed; t2 only referenced by a payout that never left
	// pending, which must not block it.
	store.SeedPayout(domain.Payout{
		ID: uuid.New(), OrganizerID: organizerID,
		Status: domain.PayoutCompleted, TicketIDs: []uuid.UUID{t1.ID},
	})
	store.SeedPayout(domain.Payout{
		ID: uuid.New(), OrganizerID: organizerID,
		Status: domain.PayoutPending, TicketIDs: []uuid.UUID{t2.ID},
	})

	preview, err := svc.GetAvailableTicketsForPayout(context.Background(), organizerID)
	require.NoError(t, err)

	require.Len(t, preview.Tickets, 2)
	gotIDs := map[uuid.UUID]bool{}
	for _, pt := range preview.Tickets {
		gotIDs[pt.Ticket.ID] = true
	}
	assert.True(t, gotIDs[t2.ID])
	assert.True(t, gotIDs[t3.ID])
	assert.False(t, gotIDs[t1.ID])
	assert.Equal(t, int64(190000), preview.TotalCents)
}

func TestPreparePayout_IsIdempotent(t *testing.T) {
	store, svc := newBalanceFixture()
	ctx := context.Background()
	organizerID := uuid.New()

	event := seedEndedEvent(store, organizerID, time.Now().Add(-30*24*time.Hour))
	first := seedValidTicket(store, event.ID, 1000, time.Now().Add(-40*24*time.Hour))
	second := seedValidTicket(store, event.ID, 1000, time.Now().Add(-32*24*time.Hour))

	payout, err := svc.PreparePayout(ctx, organizerID)
	require.NoError(t, err)
	require.NotNil(t, payout)

	assert.Equal(t, int64(190000), payout.Amount)
	assert.Equal(t, domain.PayoutProcessing, payout.Status)
	assert.Equal(t, domain.CurrencyHTG, payout.Currency)
	assert.Len(t, payout.TicketIDs, 2)
	assert.WithinDuration(t, first.PurchasedAt, payout.PeriodStart, time.Second)
	assert.WithinDuration(t, second.PurchasedAt, payout.PeriodEnd, time.Second)

	// The payout was persisted in processing status, so re-preparing finds
	// nothing left to pay.
	stored, err := store.Payouts().ListByOrganizer(ctx, organizerID,
		[]domain.PayoutStatus{domain.PayoutProcessing})
	require.NoError(t, err)
	require.Len(t, stored, 1)

	again, err := svc.PreparePayout(ctx, organizerID)
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestGetOrganizerBalance_CacheMissComputesAndStores(t *testing.T) {
	store := memory.NewStore()
	cache, cacheMock := redismock.NewClientMock()
	ttl := time.Minute
	svc := services.NewBalanceService(store.Events(), store.Tickets(), store.Payouts(), defaultCalc(), cache, ttl)

	organizerID := uuid.New()
	key := "balance:" + organizerID.String()

	// No events, so the computed balance is fully deterministic.
	want := &domain.OrganizerBalance{OrganizerID: organizerID, Currency: domain.CurrencyHTG}
	payload, err := json.Marshal(want)
	require.NoError(t, err)

	cacheMock.ExpectGet(key).RedisNil()
	cacheMock.ExpectSet(key, payload, ttl).SetVal("OK")

	balance, err := svc.GetOrganizerBalance(context.Background(), organizerID)
	require.NoError(t, err)
	assert.Equal(t, want, balance)
	assert.NoError(t, cacheMock.ExpectationsWereMet())
}

func TestGetOrganizerBalance_CacheHitSkipsCompute(t *testing.T) {
	store := memory.NewStore()
	cache, cacheMock := redismock.NewClientMock()
	svc := services.NewBalanceService(store.Events(), store.Tickets(), store.Payouts(), defaultCalc(), cache, time.Minute)

	organizerID := uuid.New()
	cached := domain.OrganizerBalance{
		OrganizerID:          organizerID,
		Available:            12345,
		TotalEarnings:        12345,
		Currency:             domain.CurrencyHTG,
		AvailableTicketCount: 3,
	}
	payload, err := json.Marshal(cached)
	require.NoError(t, err)

	cacheMock.ExpectGet("balance:" + organizerID.String()).SetVal(string(payload))

	balance, err := svc.GetOrganizerBalance(context.Background(), organizerID)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), balance.Available)
	assert.Equal(t, 3, balance.AvailableTicketCount)
	assert.NoError(t, cacheMock.ExpectationsWereMet())
}

func TestPreparePayout_NoEligibleTickets(t *testing.T) {
	store, svc := newBalanceFixture()
	organizerID := uuid.New()

	// Event still inside the settlement hold.
	event := seedEndedEvent(store, organizerID, time.Now().Add(24*time.Hour))
	seedValidTicket(store, event.ID, 1000, time.Now())

	payout, err := svc.PreparePayout(context.Background(), organizerID)
	require.NoError(t, err)
	assert.Nil(t, payout)
}
