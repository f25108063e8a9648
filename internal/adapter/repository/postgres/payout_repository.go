package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/billetkay/earnings-ledger/internal/core/domain"
)

type PayoutRepository struct {
	db *sql.DB
}

func NewPayoutRepository(db *sql.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

func (r *PayoutRepository) Create(ctx context.Context, payout *domain.Payout) error {
	query := `
	INSERT INTO payouts (id, organizer_id, amount, currency, status, ticket_ids,
	        period_start, period_end, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	ticketIDs := make([]string, len(payout.TicketIDs))
	for i, id := range payout.TicketIDs {
		ticketIDs[i] = id.String()
	}

	_, err := r.db.ExecContext(ctx, query,
		payout.ID, payout.OrganizerID, payout.Amount, payout.Currency, payout.Status,
		pq.Array(ticketIDs), payout.PeriodStart, payout.PeriodEnd, payout.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert payout: %w", err)
	}
	return nil
}

func (r *PayoutRepository) ListByOrganizer(ctx context.Context, organizerID uuid.UUID, statuses []domain.PayoutStatus) ([]domain.Payout, error) {
	query := `
	SELECT id, organizer_id, amount, currency, status, ticket_ids, period_start, period_end, created_at
	FROM payouts
	WHERE organizer_id = $1 AND status = ANY($2)
	ORDER BY created_at
	`

	statusStrings := make([]string, len(statuses))
	for i, s := range statuses {
		statusStrings[i] = string(s)
	}

	rows, err := r.db.QueryContext(ctx, query, organizerID, pq.Array(statusStrings))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payouts []domain.Payout
	for rows.Next() {
		var p domain.Payout
		var ticketIDs pq.StringArray
		var periodStart, periodEnd sql.NullTime

		err := rows.Scan(
			&p.ID,
			&p.OrganizerID,
			&p.Amount,
			&p.Currency,
			&p.Status,
			&ticketIDs,
			&periodStart,
			&periodEnd,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		for _, raw := range ticketIDs {
			id, perr := uuid.Parse(raw)
			if perr != nil {
				continue
			}
			p.TicketIDs = append(p.TicketIDs, id)
		}
		if periodStart.Valid {
			p.PeriodStart = periodStart.Time
		}
		if periodEnd.Valid {
			p.PeriodEnd = periodEnd.Time
		}

		payouts = append(payouts, p)
	}
	return payouts, rows.Err()
}
