package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"meda/internal/domain"
)

type savedEventRepository struct {
	DB *sql.DB
}

func NewSavedEventRepository(db *sql.DB) domain.SavedEventRepository {
	return &savedEventRepository{
		DB: db,
	}
}

func (r *savedEventRepository) Save(ctx context.Context, eventID, userID string) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO saved_events (event_id, user_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (event_id, user_id) DO NOTHING
	`, eventID, userID)
	return err
}

func (r *savedEventRepository) Delete(ctx context.Context, eventID, userID string) error {
	result, err := r.DB.ExecContext(ctx, `
		DELETE FROM saved_events WHERE event_id = $1 AND user_id = $2
	`, eventID, userID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *savedEventRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.SavedEventWithEvent, error) {
	query := fmt.Sprintf(`
		SELECT%s, %s, s.created_at
		%s
		JOIN saved_events s ON s.event_id = e.id
		WHERE s.user_id = $1
		ORDER BY s.created_at DESC
	`, eventColumns, attendeeCountExpr, eventFrom)
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	saved := make([]*domain.SavedEventWithEvent, 0)
	for rows.Next() {
		item := &domain.SavedEventWithEvent{}
		e, err := scanEvent(rows, &item.AttendeeCount, &item.SavedAt)
		if err != nil {
			return nil, err
		}
		item.Event = e
		saved = append(saved, item)
	}
	return saved, rows.Err()
}
