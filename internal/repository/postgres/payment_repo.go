package postgres

import (
	"context"
	"database/sql"
	"errors"

	"meda/internal/domain"
)

type paymentRepository struct {
	DB *sql.DB
}

func NewPaymentRepository(db *sql.DB) domain.PaymentRepository {
	return &paymentRepository{
		DB: db,
	}
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `
		INSERT INTO payments (
			event_id, user_id, amount, currency, status, tx_ref, checkout_url,
			quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		p.EventID, p.UserID, p.Amount, p.Currency, p.Status, p.TxRef,
		p.CheckoutURL, p.Quantity, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
}

func (r *paymentRepository) GetByTxRefAndUser(ctx context.Context, txRef, userID string) (*domain.Payment, error) {
	query := `
		SELECT id, event_id, user_id, amount, currency, status, tx_ref,
			checkout_url, quantity, created_at, updated_at
		FROM payments
		WHERE tx_ref = $1 AND user_id = $2
	`
	p := &domain.Payment{}
	err := r.DB.QueryRowContext(ctx, query, txRef, userID).Scan(
		&p.ID, &p.EventID, &p.UserID, &p.Amount, &p.Currency, &p.Status,
		&p.TxRef, &p.CheckoutURL, &p.Quantity, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *paymentRepository) MarkFailed(ctx context.Context, paymentID string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE payments SET status = $1, updated_at = NOW() WHERE id = $2
	`, domain.PaymentFailed, paymentID)
	return err
}

func (r *paymentRepository) ConfirmWithRegistration(ctx context.Context, paymentID, eventID, userID string, quantity int, enforceCapacity bool) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	// Claim the payment row first: only one confirmation may move it out of
	// processing.
	result, err := tx.ExecContext(ctx, `
		UPDATE payments
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, domain.PaymentSucceeded, paymentID, domain.PaymentProcessing)
	if err != nil {
		return false, err
	}
	claimed, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if claimed == 0 {
		return false, nil
	}

	if enforceCapacity {
		result, err := tx.ExecContext(ctx, `
			UPDATE events
			SET capacity = capacity - $1, updated_at = NOW()
			WHERE id = $2 AND capacity >= $1
		`, quantity, eventID)
		if err != nil {
			return false, err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return false, err
		}
		if rows == 0 {
			return false, domain.ErrNotEnoughSeats
		}
	}

	for i := 0; i < quantity; i++ {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO event_attendees (event_id, user_id, status, created_at)
			VALUES ($1, $2, $3, NOW())
		`, eventID, userID, domain.AttendeeStatusRSVPed)
		if err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}
