package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"meda/internal/domain"
)

const eventColumns = `
	e.id, e.name, e.description, e.category_id, c.name, e.owner_id,
	e.starts_at, e.ends_at, e.location, e.picture_url, e.capacity, e.price,
	e.is_recurring, e.recurrence_kind, e.recurrence_until, e.series_id,
	e.occurrence_index, e.created_at, e.updated_at`

const eventFrom = `
	FROM events e
	LEFT JOIN categories c ON c.id = e.category_id`

const attendeeCountExpr = `(SELECT COUNT(*) FROM event_attendees a WHERE a.event_id = e.id)`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner, extra ...any) (*domain.Event, error) {
	e := &domain.Event{}
	var (
		descNull     sql.NullString
		categoryNull sql.NullString
		catNameNull  sql.NullString
		picNull      sql.NullString
		capNull      sql.NullInt64
		kindNull     sql.NullString
		untilNull    sql.NullTime
		seriesNull   sql.NullString
		idxNull      sql.NullInt64
	)
	dest := []any{
		&e.ID, &e.Name, &descNull, &categoryNull, &catNameNull, &e.OwnerID,
		&e.StartsAt, &e.EndsAt, &e.Location, &picNull, &capNull, &e.Price,
		&e.IsRecurring, &kindNull, &untilNull, &seriesNull,
		&idxNull, &e.CreatedAt, &e.UpdatedAt,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if descNull.Valid {
		e.Description = &descNull.String
	}
	if categoryNull.Valid {
		e.CategoryID = &categoryNull.String
	}
	if catNameNull.Valid {
		e.CategoryName = &catNameNull.String
	}
	if picNull.Valid {
		e.PictureURL = &picNull.String
	}
	if capNull.Valid {
		c := int(capNull.Int64)
		e.Capacity = &c
	}
	if kindNull.Valid {
		e.RecurrenceKind = &kindNull.String
	}
	if untilNull.Valid {
		e.RecurrenceUntil = &untilNull.Time
	}
	if seriesNull.Valid {
		e.SeriesID = &seriesNull.String
	}
	if idxNull.Valid {
		i := int(idxNull.Int64)
		e.OccurrenceIndex = &i
	}
	return e, nil
}

const insertEventQuery = `
		INSERT INTO events (
			name, description, category_id, owner_id, starts_at, ends_at,
			location, picture_url, capacity, price, is_recurring,
			recurrence_kind, recurrence_until, series_id, occurrence_index,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id
	`

func insertEventArgs(e *domain.Event) []any {
	return []any{
		e.Name, e.Description, e.CategoryID, e.OwnerID, e.StartsAt, e.EndsAt,
		e.Location, e.PictureURL, e.Capacity, e.Price, e.IsRecurring,
		e.RecurrenceKind, e.RecurrenceUntil, e.SeriesID, e.OccurrenceIndex,
		e.CreatedAt, e.UpdatedAt,
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	return r.DB.QueryRowContext(ctx, insertEventQuery, insertEventArgs(e)...).Scan(&e.ID)
}

func (r *eventRepository) CreateSeries(ctx context.Context, events []*domain.Event) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		if err := tx.QueryRowContext(ctx, insertEventQuery, insertEventArgs(e)...).Scan(&e.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT` + eventColumns + eventFrom + ` WHERE e.id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func statusClause(status domain.EventStatusFilter, args *[]any) string {
	switch status {
	case domain.EventStatusUpcoming:
		*args = append(*args, time.Now())
		return fmt.Sprintf("e.starts_at >= $%d", len(*args))
	case domain.EventStatusPast:
		*args = append(*args, time.Now())
		return fmt.Sprintf("e.starts_at < $%d", len(*args))
	}
	return ""
}

func (r *eventRepository) List(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.EventWithCount, int, error) {
	var clauses []string
	var args []any

	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(e.name ILIKE $%d OR e.description ILIKE $%d OR e.location ILIKE $%d)", n, n, n))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("e.category_id = $%d", len(args)))
	}
	if c := statusClause(filter.Status, &args); c != "" {
		clauses = append(clauses, c)
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*)` + eventFrom + where
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, params.PageSize, params.Offset())
	query := fmt.Sprintf(`SELECT%s, %s%s%s ORDER BY e.created_at DESC LIMIT $%d OFFSET $%d`,
		eventColumns, attendeeCountExpr, eventFrom, where, len(args)-1, len(args))
	events, err := r.queryEventsWithCount(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventRepository) ListUpcoming(ctx context.Context, limit int) ([]*domain.EventWithCount, error) {
	query := fmt.Sprintf(`SELECT%s, %s%s WHERE e.ends_at >= $1 ORDER BY e.starts_at ASC LIMIT $2`,
		eventColumns, attendeeCountExpr, eventFrom)
	return r.queryEventsWithCount(ctx, query, time.Now(), limit)
}

func (r *eventRepository) ListByOwnerID(ctx context.Context, ownerID string, status domain.EventStatusFilter, params domain.PaginationParams) ([]*domain.EventWithCount, int, error) {
	args := []any{ownerID}
	where := " WHERE e.owner_id = $1"
	if c := statusClause(status, &args); c != "" {
		where += " AND " + c
	}
	order := "e.starts_at ASC"
	if status == domain.EventStatusPast {
		order = "e.starts_at DESC"
	}

	var total int
	countQuery := `SELECT COUNT(*)` + eventFrom + where
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, params.PageSize, params.Offset())
	query := fmt.Sprintf(`SELECT%s, %s%s%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		eventColumns, attendeeCountExpr, eventFrom, where, order, len(args)-1, len(args))
	events, err := r.queryEventsWithCount(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventRepository) ListUpcomingBySeriesID(ctx context.Context, seriesID string, limit int) ([]*domain.EventWithCount, error) {
	query := fmt.Sprintf(`SELECT%s, %s%s WHERE e.series_id = $1 AND e.ends_at >= $2 ORDER BY e.starts_at ASC LIMIT $3`,
		eventColumns, attendeeCountExpr, eventFrom)
	return r.queryEventsWithCount(ctx, query, seriesID, time.Now(), limit)
}

func (r *eventRepository) queryEventsWithCount(ctx context.Context, query string, args ...any) ([]*domain.EventWithCount, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.EventWithCount, 0)
	for rows.Next() {
		var count int
		e, err := scanEvent(rows, &count)
		if err != nil {
			return nil, err
		}
		events = append(events, &domain.EventWithCount{Event: e, AttendeeCount: count})
	}
	return events, rows.Err()
}

func patchClauses(patch domain.EventPatch, includeSchedule bool) ([]string, []any) {
	setClauses := []string{"updated_at = NOW()"}
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.PictureURL != nil {
		add("picture_url", *patch.PictureURL)
	}
	if includeSchedule && patch.StartsAt != nil {
		add("starts_at", *patch.StartsAt)
	}
	if includeSchedule && patch.EndsAt != nil {
		add("ends_at", *patch.EndsAt)
	}
	if patch.Location != nil {
		add("location", *patch.Location)
	}
	if patch.Capacity != nil {
		add("capacity", *patch.Capacity)
	}
	if patch.Price != nil {
		add("price", *patch.Price)
	}
	if patch.CategoryID != nil {
		add("category_id", *patch.CategoryID)
	}
	return setClauses, args
}

func (r *eventRepository) Update(ctx context.Context, eventID string, patch domain.EventPatch) (*domain.Event, error) {
	setClauses, args := patchClauses(patch, true)
	if len(args) == 0 {
		return r.GetByID(ctx, eventID)
	}
	args = append(args, eventID)
	query := fmt.Sprintf(`UPDATE events e SET %s WHERE e.id = $%d RETURNING e.id`,
		strings.Join(setClauses, ", "), len(args))
	var id string
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *eventRepository) UpdateSeries(ctx context.Context, seriesID string, patch domain.EventPatch) (int, error) {
	// Schedule fields are per-occurrence and excluded from bulk application.
	setClauses, args := patchClauses(patch, false)
	args = append(args, seriesID)
	query := fmt.Sprintf(`UPDATE events SET %s WHERE series_id = $%d`,
		strings.Join(setClauses, ", "), len(args))
	result, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) CountBySeriesID(ctx context.Context, seriesID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE series_id = $1`, seriesID).Scan(&n)
	return n, err
}

func (r *eventRepository) CountAll(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

func (r *eventRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE created_at >= $1`, since).Scan(&n)
	return n, err
}

func (r *eventRepository) CountSeries(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(DISTINCT series_id) FROM events WHERE series_id IS NOT NULL`).Scan(&n)
	return n, err
}
