package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"meda/internal/domain"
)

type attendeeRepository struct {
	DB *sql.DB
}

func NewAttendeeRepository(db *sql.DB) domain.AttendeeRepository {
	return &attendeeRepository{
		DB: db,
	}
}

func (r *attendeeRepository) RegisterBatch(ctx context.Context, eventID, userID string, quantity int, enforceCapacity bool) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if enforceCapacity {
		// Remaining-seats guard: only matches while enough seats are left.
		result, err := tx.ExecContext(ctx, `
			UPDATE events
			SET capacity = capacity - $1, updated_at = NOW()
			WHERE id = $2 AND capacity >= $1
		`, quantity, eventID)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrNotEnoughSeats
		}
	}

	for i := 0; i < quantity; i++ {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO event_attendees (event_id, user_id, status, created_at)
			VALUES ($1, $2, $3, NOW())
		`, eventID, userID, domain.AttendeeStatusRSVPed)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *attendeeRepository) CountByEvent(ctx context.Context, eventID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event_attendees WHERE event_id = $1`, eventID).Scan(&n)
	return n, err
}

func (r *attendeeRepository) CountByEventAndUser(ctx context.Context, eventID, userID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event_attendees WHERE event_id = $1 AND user_id = $2`,
		eventID, userID).Scan(&n)
	return n, err
}

func (r *attendeeRepository) CountsByUser(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT event_id, COUNT(*)
		FROM event_attendees
		WHERE user_id = $1
		GROUP BY event_id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCounts(rows)
}

func (r *attendeeRepository) CountsByUserForEvents(ctx context.Context, userID string, eventIDs []string) (map[string]int, error) {
	if len(eventIDs) == 0 {
		return map[string]int{}, nil
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT event_id, COUNT(*)
		FROM event_attendees
		WHERE user_id = $1 AND event_id = ANY($2)
		GROUP BY event_id
	`, userID, pq.Array(eventIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCounts(rows)
}

func scanCounts(rows *sql.Rows) (map[string]int, error) {
	counts := make(map[string]int)
	for rows.Next() {
		var eventID string
		var n int
		if err := rows.Scan(&eventID, &n); err != nil {
			return nil, err
		}
		counts[eventID] = n
	}
	return counts, rows.Err()
}

func (r *attendeeRepository) CountAll(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM event_attendees`).Scan(&n)
	return n, err
}

func (r *attendeeRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event_attendees WHERE created_at >= $1`, since).Scan(&n)
	return n, err
}
