package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billetkay/earnings-ledger/internal/adapter/handler"
	"github.com/billetkay/earnings-ledger/internal/adapter/repository/memory"
	"github.com/billetkay/earnings-ledger/internal/core/domain"
	"github.com/billetkay/earnings-ledger/internal/core/services"
)

func newTestServer() (*memory.Store, http.Handler) {
	store := memory.NewStore()
	calc := services.NewFeeCalculator(services.DefaultFeeSchedule())
	svc := services.NewEarningsService(store.Events(), store.Tickets(), store.Earnings(), calc, nil)
	h := handler.NewEarningsHandler(svc)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /earnings/{eventID}/tickets", h.AddTicket)
	mux.HandleFunc("POST /earnings/{eventID}/withdrawals", h.Withdraw)
	mux.HandleFunc("GET /earnings/{eventID}", h.GetEarnings)
	return store, mux
}

func doJSON(t *testing.T, mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestAddTicket_UnknownEventReturns404(t *testing.T) {
	_, mux := newTestServer()

	rec := doJSON(t, mux, http.MethodPost, "/earnings/"+uuid.NewString()+"/tickets",
		`{"amount_cents": 100000, "quantity": 1, "meta": {"payment_method": "moncash"}}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "event not found", body["error"])
}

func TestWithdraw_ConflictMessagesDistinguishCauses(t *testing.T) {
	store, mux := newTestServer()

	startsAt := time.Now().Add(-30 * 24 * time.Hour)
	event := domain.Event{
		ID:          uuid.New(),
		OrganizerID: uuid.New(),
		Currency:    "HTG",
		StartsAt:    &startsAt,
		CreatedAt:   startsAt,
	}
	store.SeedEvent(event)

	rec := doJSON(t, mux, http.MethodPost, "/earnings/"+event.ID.String()+"/tickets",
		`{"amount_cents": 100000, "quantity": 1, "meta": {"payment_method": "moncash"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// Settled by the lazy refresh on read.
	rec = doJSON(t, mux, http.MethodGet, "/earnings/"+event.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, mux, http.MethodPost, "/earnings/"+event.ID.String()+"/withdrawals",
		`{"amount_cents": 99999999, "payout_id": "p1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient available balance")

	rec = doJSON(t, mux, http.MethodPost, "/earnings/"+event.ID.String()+"/withdrawals",
		`{"amount_cents": 95000, "payout_id": "p1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Fully drained ledgers lock; further withdrawals wait on settlement.
	rec = doJSON(t, mux, http.MethodPost, "/earnings/"+event.ID.String()+"/withdrawals",
		`{"amount_cents": 1, "payout_id": "p2"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "not yet settled")
}

func TestGetEarnings_NoSalesReturnsEmptyMarker(t *testing.T) {
	store, mux := newTestServer()

	startsAt := time.Now().Add(24 * time.Hour)
	event := domain.Event{
		ID:          uuid.New(),
		OrganizerID: uuid.New(),
		Currency:    "HTG",
		StartsAt:    &startsAt,
		CreatedAt:   time.Now(),
	}
	store.SeedEvent(event)

	rec := doJSON(t, mux, http.MethodGet, "/earnings/"+event.ID.String(), "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["sales"])
}

func TestAddTicket_InvalidUUID(t *testing.T) {
	_, mux := newTestServer()

	rec := doJSON(t, mux, http.MethodPost, "/earnings/not-a-uuid/tickets", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
