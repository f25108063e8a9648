package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/billetkay/earnings-ledger/internal/core/domain"
)

// ticketQueryBatchSize bounds the cardinality of IN lists when loading
// tickets across many events at once.
const ticketQueryBatchSize = 100

type TicketRepository struct {
	db *sql.DB
}

func NewTicketRepository(db *sql.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

const ticketColumns = `id, event_id, status, price_paid, quantity, payment_id, payment_method,
	currency, original_currency, exchange_rate, charged_amount, tier_id, tier_name, purchased_at`

func (r *TicketRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE event_id = $1`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTickets(rows)
}

// ListValidByEvents loads valid-status tickets across the given events,
// chunking the event IDs so IN lists stay bounded. Chunks have no ordering
// dependency between each other.
func (r *TicketRepository) ListValidByEvents(ctx context.Context, eventIDs []uuid.UUID) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE status = 'valid' AND event_id = ANY($1)`

	var tickets []domain.Ticket
	for start := 0; start < len(eventIDs); start += ticketQueryBatchSize {
		end := start + ticketQueryBatchSize
		if end > len(eventIDs) {
			end = len(eventIDs)
		}

		chunk := eventIDs[start:end]
		ids := make([]string, len(chunk))
		for i, id := range chunk {
			ids[i] = id.String()
		}

		rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
		if err != nil {
			return nil, err
		}

		batch, err := scanTickets(rows)
		rows.Close()
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, batch...)
	}
	return tickets, nil
}

func scanTickets(rows *sql.Rows) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	for rows.Next() {
		var t domain.Ticket
		var paymentID, paymentMethod, currency, originalCurrency, tierID, tierName sql.NullString
		var exchangeRate, chargedAmount sql.NullFloat64
		var quantity sql.NullInt64

		err := rows.Scan(
			&t.ID,
			&t.EventID,
			&t.Status,
			&t.PricePaid,
			&quantity,
			&paymentID,
			&paymentMethod,
			&currency,
			&originalCurrency,
			&exchangeRate,
			&chargedAmount,
			&tierID,
			&tierName,
			&t.PurchasedAt,
		)
		if err != nil {
			return nil, err
		}

		t.Quantity = int(quantity.Int64)
		t.PaymentID = paymentID.String
		t.PaymentMethod = paymentMethod.String
		t.Currency = currency.String
		t.OriginalCurrency = originalCurrency.String
		t.TierID = tierID.String
		t.TierName = tierName.String
		if exchangeRate.Valid {
			rate := exchangeRate.Float64
			t.ExchangeRate = &rate
		}
		if chargedAmount.Valid {
			amount := chargedAmount.Float64
			t.ChargedAmount = &amount
		}

		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}
