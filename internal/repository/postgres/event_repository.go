package postgres

import (
	"context"
	"time"

	"github.com/bibee/backend/internal/domain"
)

// EventRepository is the audit trail of security events. It implements
// domain.EventPublisher so it can sit next to the broker publisher.
type EventRepository struct {
	db DB
}

func NewEventRepository(db DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Publish(ctx context.Context, event domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	query := `
		INSERT INTO security_events (type, subject, token_id, occurred_at)
		VALUES ($1, $2, NULLIF($3, ''), $4)
	`
	if _, err := r.db.Exec(ctx, query, string(event.Type), event.Subject, event.TokenID, event.OccurredAt); err != nil {
		return storeError(err)
	}
	return nil
}

func (r *EventRepository) ListBySubject(ctx context.Context, subject string, limit, offset int) ([]domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	limit, offset = domain.ClampPage(limit, offset)

	query := `
		SELECT type, subject, COALESCE(token_id, ''), occurred_at
		FROM security_events
		WHERE subject = $1
		ORDER BY occurred_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, subject, limit, offset)
}

func (r *EventRepository) ListRecent(ctx context.Context, limit, offset int) ([]domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	limit, offset = domain.ClampPage(limit, offset)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM security_events`).Scan(&total); err != nil {
		return nil, 0, storeError(err)
	}

	query := `
		SELECT type, subject, COALESCE(token_id, ''), occurred_at
		FROM security_events
		ORDER BY occurred_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	events, err := r.list(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *EventRepository) list(ctx context.Context, query string, args ...any) ([]domain.Event, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		var (
			e   domain.Event
			typ string
		)
		if err := rows.Scan(&typ, &e.Subject, &e.TokenID, &e.OccurredAt); err != nil {
			return nil, storeError(err)
		}
		e.Type = domain.EventType(typ)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}
	return events, nil
}
