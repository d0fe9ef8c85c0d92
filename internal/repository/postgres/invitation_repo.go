package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"meda/internal/domain"
)

const invitationColumns = `
	id, event_id, user_id, token_hash, status, max_claims, claimed_count,
	expires_at, created_at, updated_at`

type invitationRepository struct {
	DB *sql.DB
}

func NewInvitationRepository(db *sql.DB) domain.InvitationRepository {
	return &invitationRepository{
		DB: db,
	}
}

func scanInvitation(row rowScanner) (*domain.Invitation, error) {
	inv := &domain.Invitation{}
	err := row.Scan(
		&inv.ID, &inv.EventID, &inv.UserID, &inv.TokenHash, &inv.Status,
		&inv.MaxClaims, &inv.ClaimedCount, &inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r *invitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	query := `
		INSERT INTO invitations (
			event_id, user_id, token_hash, status, max_claims, claimed_count,
			expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		inv.EventID, inv.UserID, inv.TokenHash, inv.Status, inv.MaxClaims,
		inv.ClaimedCount, inv.ExpiresAt, inv.CreatedAt, inv.UpdatedAt,
	).Scan(&inv.ID)
}

func (r *invitationRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Invitation, error) {
	query := `SELECT` + invitationColumns + ` FROM invitations WHERE token_hash = $1`
	return scanInvitation(r.DB.QueryRowContext(ctx, query, tokenHash))
}

func (r *invitationRepository) FindReusable(ctx context.Context, eventID, ownerUserID string) (*domain.Invitation, error) {
	query := `
		SELECT` + invitationColumns + `
		FROM invitations
		WHERE event_id = $1 AND user_id = $2 AND status = ANY($3)
		ORDER BY updated_at DESC
		LIMIT 1
	`
	statuses := pq.Array([]string{string(domain.InvitationActive), string(domain.InvitationExpired)})
	return scanInvitation(r.DB.QueryRowContext(ctx, query, eventID, ownerUserID, statuses))
}

func (r *invitationRepository) Reissue(ctx context.Context, invitationID, tokenHash string, maxClaims int, expiresAt time.Time) (*domain.Invitation, error) {
	query := `
		UPDATE invitations
		SET token_hash = $1, status = $2, max_claims = $3, expires_at = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING` + invitationColumns + `
	`
	return scanInvitation(r.DB.QueryRowContext(ctx, query,
		tokenHash, domain.InvitationActive, maxClaims, expiresAt, invitationID))
}

func (r *invitationRepository) RevokeOthers(ctx context.Context, eventID, ownerUserID, keepInvitationID string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE invitations
		SET status = $1, updated_at = NOW()
		WHERE event_id = $2 AND user_id = $3 AND id <> $4 AND status = $5
	`, domain.InvitationRevoked, eventID, ownerUserID, keepInvitationID, domain.InvitationActive)
	return err
}

func (r *invitationRepository) MarkExpired(ctx context.Context, invitationID string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE invitations
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, domain.InvitationExpired, invitationID, domain.InvitationActive)
	return err
}

func (r *invitationRepository) Revoke(ctx context.Context, invitationID string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE invitations
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status <> $1
	`, domain.InvitationRevoked, invitationID)
	return err
}

func (r *invitationRepository) HasClaim(ctx context.Context, invitationID, userID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM invitation_claims
			WHERE invitation_id = $1 AND claimed_by_user_id = $2
		)
	`, invitationID, userID).Scan(&exists)
	return exists, err
}

func (r *invitationRepository) ClaimTransfer(ctx context.Context, transfer domain.ClaimTransfer) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Re-verify inside the transaction that the owner still holds a spare
	// ticket: a concurrent transfer may have drained the pool since the
	// service checked.
	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM event_attendees
		WHERE event_id = $1 AND user_id = $2
		ORDER BY created_at ASC
		LIMIT 2
	`, transfer.EventID, transfer.OwnerUserID)
	if err != nil {
		return err
	}
	var ticketIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ticketIDs = append(ticketIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(ticketIDs) < 2 {
		return domain.ErrNoShareableTickets
	}

	// Optimistic guard: the increment only matches while the counter still
	// holds the value observed before the transaction. Losing the race is a
	// conflict, not an overcount.
	result, err := tx.ExecContext(ctx, `
		UPDATE invitations
		SET claimed_count = claimed_count + 1, status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3 AND claimed_count = $4
	`, transfer.NextStatus, transfer.InvitationID, domain.InvitationActive, transfer.ObservedClaimedCount)
	if err != nil {
		return err
	}
	matched, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if matched == 0 {
		return domain.ErrClaimConflict
	}

	// Hand over the owner's oldest ticket. The user_id predicate guards
	// against the ticket having been transferred concurrently.
	result, err = tx.ExecContext(ctx, `
		UPDATE event_attendees
		SET user_id = $1
		WHERE id = $2 AND user_id = $3
	`, transfer.ClaimantID, ticketIDs[0], transfer.OwnerUserID)
	if err != nil {
		return err
	}
	moved, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if moved == 0 {
		return domain.ErrClaimConflict
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO invitation_claims (invitation_id, claimed_by_user_id, created_at)
		VALUES ($1, $2, NOW())
	`, transfer.InvitationID, transfer.ClaimantID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.ErrAlreadyClaimed
		}
		return err
	}

	return tx.Commit()
}
