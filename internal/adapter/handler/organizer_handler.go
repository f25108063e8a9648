package handler

import (
	"net/http"

	"github.com/billetkay/earnings-ledger/internal/core/services"
)

type OrganizerHandler struct {
	balance  *services.BalanceService
	earnings *services.EarningsService
}

func NewOrganizerHandler(balance *services.BalanceService, earnings *services.EarningsService) *OrganizerHandler {
	return &OrganizerHandler{balance: balance, earnings: earnings}
}

// GetBalance handles GET /organizers/{organizerID}/balance.
func (h *OrganizerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	organizerID, ok := pathUUID(w, r, "organizerID")
	if !ok {
		return
	}

	balance, err := h.balance.GetOrganizerBalance(r.Context(), organizerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

// GetPayableTickets handles GET /organizers/{organizerID}/payable-tickets,
// used by the payout-issuance workflow to construct a new payout.
func (h *OrganizerHandler) GetPayableTickets(w http.ResponseWriter, r *http.Request) {
	organizerID, ok := pathUUID(w, r, "organizerID")
	if !ok {
		return
	}

	preview, err := h.balance.GetAvailableTicketsForPayout(r.Context(), organizerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// PreparePayout handles POST /organizers/{organizerID}/payouts.
func (h *OrganizerHandler) PreparePayout(w http.ResponseWriter, r *http.Request) {
	organizerID, ok := pathUUID(w, r, "organizerID")
	if !ok {
		return
	}

	payout, err := h.balance.PreparePayout(r.Context(), organizerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if payout == nil {
		writeError(w, http.StatusConflict, "no tickets are currently eligible for payout")
		return
	}
	writeJSON(w, http.StatusCreated, payout)
}

// GetSummary handles GET /organizers/{organizerID}/summary.
func (h *OrganizerHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	organizerID, ok := pathUUID(w, r, "organizerID")
	if !ok {
		return
	}

	summary, err := h.earnings.GetOrganizerEarningsSummary(r.Context(), organizerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
