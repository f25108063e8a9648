package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/billetkay/earnings-ledger/internal/core/domain"
)

type EarningsRepository struct {
	db *sql.DB
}

func NewEarningsRepository(db *sql.DB) *EarningsRepository {
	return &EarningsRepository{db: db}
}

func (r *EarningsRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*domain.EventEarnings, error) {
	query := `
	SELECT event_id, organizer_id, gross_sales, tickets_sold, platform_fee, processing_fees,
	       net_amount, available_to_withdraw, withdrawn_amount, settlement_status,
	       settlement_ready_date, currency, last_payout_id, created_at, updated_at
	FROM event_earnings
	WHERE event_id = $1
	`

	var e domain.EventEarnings
	var lastPayoutID sql.NullString
	var readyDate sql.NullTime

	err := r.db.QueryRowContext(ctx, query, eventID).Scan(
		&e.EventID,
		&e.OrganizerID,
		&e.GrossSales,
		&e.TicketsSold,
		&e.PlatformFee,
		&e.ProcessingFees,
		&e.NetAmount,
		&e.AvailableToWithdraw,
		&e.WithdrawnAmount,
		&e.SettlementStatus,
		&readyDate,
		&e.Currency,
		&lastPayoutID,
		&e.CreatedAt,
		&e.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrEarningsNotFound
		}
		return nil, err
	}

	if lastPayoutID.Valid {
		e.LastPayoutID = lastPayoutID.String
	}
	if readyDate.Valid {
		e.SettlementReadyDate = readyDate.Time
	}
	return &e, nil
}

func (r *EarningsRepository) Create(ctx context.Context, e *domain.EventEarnings) error {
	// ON CONFLICT DO NOTHING: two near-simultaneous first purchases may both
	// try to seed the record; the first insert wins and both proceed.
	query := `
	INSERT INTO event_earnings (event_id, organizer_id, gross_sales, tickets_sold, platform_fee,
	        processing_fees, net_amount, available_to_withdraw, withdrawn_amount,
	        settlement_status, settlement_ready_date, currency, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (event_id) DO NOTHING
	`

	var readyDate interface{}
	if !e.SettlementReadyDate.IsZero() {
		readyDate = e.SettlementReadyDate
	}

	_, err := r.db.ExecContext(ctx, query,
		e.EventID, e.OrganizerID, e.GrossSales, e.TicketsSold, e.PlatformFee,
		e.ProcessingFees, e.NetAmount, e.AvailableToWithdraw, e.WithdrawnAmount,
		e.SettlementStatus, readyDate, e.Currency, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert earnings record: %w", err)
	}
	return nil
}

// ApplyTicket increments the running totals in a single statement so
// concurrent purchase confirmations never lose updates. The available
// balance only grows while the record is already in ready status.
func (r *EarningsRepository) ApplyTicket(ctx context.Context, eventID uuid.UUID, d domain.EarningsDelta) error {
	query := `
	UPDATE event_earnings
	SET gross_sales = gross_sales + $1,
	    platform_fee = platform_fee + $2,
	    processing_fees = processing_fees + $3,
	    net_amount = net_amount + $4,
	    tickets_sold = tickets_sold + $5,
	    available_to_withdraw = CASE WHEN settlement_status = 'ready'
	                                 THEN available_to_withdraw + $4
	                                 ELSE available_to_withdraw END,
	    updated_at = NOW()
	WHERE event_id = $6
	`

	result, err := r.db.ExecContext(ctx, query,
		d.GrossCents, d.PlatformFeeCents, d.ProcessingFeeCents, d.NetCents, d.Tickets, eventID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// ApplyRefund floors every total at zero so duplicate or out-of-order
// refunds cannot drive the ledger negative.
func (r *EarningsRepository) ApplyRefund(ctx context.Context, eventID uuid.UUID, d domain.EarningsDelta) error {
	query := `
	UPDATE event_earnings
	SET gross_sales = GREATEST(gross_sales - $1, 0),
	    platform_fee = GREATEST(platform_fee - $2, 0),
	    processing_fees = GREATEST(processing_fees - $3, 0),
	    net_amount = GREATEST(net_amount - $4, 0),
	    available_to_withdraw = GREATEST(available_to_withdraw - $4, 0),
	    tickets_sold = GREATEST(tickets_sold - $5, 0),
	    updated_at = NOW()
	WHERE event_id = $6
	`

	result, err := r.db.ExecContext(ctx, query,
		d.GrossCents, d.PlatformFeeCents, d.ProcessingFeeCents, d.NetCents, d.Tickets, eventID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// Withdraw is a conditional single-statement update: it only fires when the
// record is settled and carries enough available balance, locking the record
// when the remainder hits exactly zero. A zero-row result is classified by
// re-reading the record.
func (r *EarningsRepository) Withdraw(ctx context.Context, eventID uuid.UUID, amountCents int64, payoutID string) error {
	query := `
	UPDATE event_earnings
	SET available_to_withdraw = available_to_withdraw - $1,
	    withdrawn_amount = withdrawn_amount + $1,
	    settlement_status = CASE WHEN available_to_withdraw - $1 = 0
	                             THEN 'locked'
	                             ELSE settlement_status END,
	    last_payout_id = $2,
	    updated_at = NOW()
	WHERE event_id = $3 AND settlement_status = 'ready' AND available_to_withdraw >= $1
	`

	result, err := r.db.ExecContext(ctx, query, amountCents, payoutID, eventID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected > 0 {
		return nil
	}

	record, err := r.GetByEventID(ctx, eventID)
	if err != nil {
		return err
	}
	if record.SettlementStatus != domain.SettlementReady {
		return domain.ErrNotSettled
	}
	return domain.ErrInsufficientFunds
}

func (r *EarningsRepository) MarkReady(ctx context.Context, eventID uuid.UUID, asOf time.Time) (bool, error) {
	query := `
	UPDATE event_earnings
	SET settlement_status = 'ready',
	    available_to_withdraw = GREATEST(net_amount - withdrawn_amount, 0),
	    updated_at = NOW()
	WHERE event_id = $1
	  AND settlement_status = 'pending'
	  AND settlement_ready_date IS NOT NULL
	  AND settlement_ready_date <= $2
	`

	result, err := r.db.ExecContext(ctx, query, eventID, asOf)
	if err != nil {
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

func (r *EarningsRepository) ListDueForSettlement(ctx context.Context, asOf time.Time, limit int) ([]uuid.UUID, error) {
	query := `
	SELECT event_id FROM event_earnings
	WHERE settlement_status = 'pending'
	  AND settlement_ready_date IS NOT NULL
	  AND settlement_ready_date <= $1
	LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, asOf, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrEarningsNotFound
	}
	return nil
}
