package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/billetkay/earnings-ledger/internal/core/domain"
	"github.com/billetkay/earnings-ledger/internal/core/services"
)

type EarningsHandler struct {
	svc *services.EarningsService
}

func NewEarningsHandler(svc *services.EarningsService) *EarningsHandler {
	return &EarningsHandler{svc: svc}
}

type addTicketRequest struct {
	AmountCents int64                      `json:"amount_cents"`
	Quantity    int                        `json:"quantity"`
	Meta        services.TicketPaymentMeta `json:"meta"`
}

type refundRequest struct {
	AmountCents int64 `json:"amount_cents"`
	Quantity    int   `json:"quantity"`
}

type withdrawRequest struct {
	AmountCents int64  `json:"amount_cents"`
	PayoutID    string `json:"payout_id"`
}

// AddTicket handles POST /earnings/{eventID}/tickets, the purchase webhook.
func (h *EarningsHandler) AddTicket(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}

	var req addTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	earnings, err := h.svc.AddTicketToEarnings(r.Context(), eventID, req.AmountCents, req.Quantity, req.Meta)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, earnings)
}

// Refund handles POST /earnings/{eventID}/refunds.
func (h *EarningsHandler) Refund(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}

	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	if err := h.svc.RefundTicketFromEarnings(r.Context(), eventID, req.AmountCents, req.Quantity); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refunded"})
}

// Withdraw handles POST /earnings/{eventID}/withdrawals. Insufficient funds
// and unsettled funds come back as distinct 409 messages so the organizer
// knows whether to wait or to sell more tickets.
func (h *EarningsHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}

	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	if err := h.svc.WithdrawFromEarnings(r.Context(), eventID, req.AmountCents, req.PayoutID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "withdrawn"})
}

// GetEarnings handles GET /earnings/{eventID}. An event with no sales yet
// returns an empty object, not an error.
func (h *EarningsHandler) GetEarnings(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}

	earnings, err := h.svc.GetEventEarnings(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if earnings == nil {
		writeJSON(w, http.StatusOK, map[string]any{"event_id": eventID, "sales": false})
		return
	}
	writeJSON(w, http.StatusOK, earnings)
}

// GetTierBreakdown handles GET /earnings/{eventID}/tiers.
func (h *EarningsHandler) GetTierBreakdown(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}

	rows, err := h.svc.GetEventTierSalesBreakdown(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"event_id": eventID, "tiers": rows})
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEventNotFound):
		writeError(w, http.StatusNotFound, "event not found")
	case errors.Is(err, domain.ErrEarningsNotFound):
		writeError(w, http.StatusNotFound, "no earnings recorded for this event")
	case errors.Is(err, domain.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, "insufficient available balance for this withdrawal")
	case errors.Is(err, domain.ErrNotSettled):
		writeError(w, http.StatusConflict, "funds are not yet settled; withdrawals open after the settlement hold")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
