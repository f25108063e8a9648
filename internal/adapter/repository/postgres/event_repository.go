package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/billetkay/earnings-ledger/internal/core/domain"
)

type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, organizer_id, title, currency, starts_at, ends_at, event_date, created_at`

func (r *EventRepository) GetByID(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	event, err := scanEvent(r.db.QueryRowContext(ctx, query, eventID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (r *EventRepository) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE organizer_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	var e domain.Event
	var title, currency sql.NullString
	var startsAt, endsAt, eventDate sql.NullTime

	err := row.Scan(
		&e.ID,
		&e.OrganizerID,
		&title,
		&currency,
		&startsAt,
		&endsAt,
		&eventDate,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Title = title.String
	e.Currency = currency.String
	if startsAt.Valid {
		e.StartsAt = &startsAt.Time
	}
	if endsAt.Valid {
		e.EndsAt = &endsAt.Time
	}
	if eventDate.Valid {
		e.EventDate = &eventDate.Time
	}
	return &e, nil
}
