package domain

import (
	"context"
	"fmt"
	"time"
)

// InvitationStatus is the lifecycle state of a share link.
// Active may move to Expired (time passes or the claim pool is exhausted) or
// to Revoked (owner action, or superseded by a newer link for the same event
// and owner). Expired and Revoked are terminal.
type InvitationStatus string

const (
	InvitationActive  InvitationStatus = "Active"
	InvitationExpired InvitationStatus = "Expired"
	InvitationRevoked InvitationStatus = "Revoked"
)

// Sentinel errors for share-link operations.
var (
	ErrNotEnoughTickets   = fmt.Errorf("%w: you need at least 2 tickets to share", ErrInvalidInput)
	ErrShareLinkExpired   = fmt.Errorf("%w: this share link has expired", ErrInvalidInput)
	ErrShareLinkInactive  = fmt.Errorf("%w: this share link is no longer active", ErrInvalidInput)
	ErrSelfClaim          = fmt.Errorf("%w: you cannot claim your own share link", ErrInvalidInput)
	ErrAlreadyClaimed     = fmt.Errorf("%w: you already claimed a ticket from this link", ErrInvalidInput)
	ErrNoClaimsLeft       = fmt.Errorf("%w: no tickets left to claim on this link", ErrInvalidInput)
	ErrNoShareableTickets = fmt.Errorf("%w: no shareable tickets remain", ErrInvalidInput)
	ErrClaimConflict      = fmt.Errorf("%w: ticket claim conflict, please try again", ErrConflict)
)

// Invitation is a ticket owner's offer to give away surplus tickets for one
// event via a single opaque link. The raw token is never persisted; only its
// SHA-256 hash is stored.
// swagger:model Invitation
type Invitation struct {
	ID           string           `json:"id"`
	EventID      string           `json:"event_id"`
	UserID       string           `json:"user_id"` // owner
	TokenHash    string           `json:"-"`
	Status       InvitationStatus `json:"status"`
	MaxClaims    int              `json:"max_claims"`
	ClaimedCount int              `json:"claimed_count"`
	ExpiresAt    time.Time        `json:"expires_at"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// RemainingClaims returns how many claims are still available, never negative.
func (i *Invitation) RemainingClaims() int {
	if r := i.MaxClaims - i.ClaimedCount; r > 0 {
		return r
	}
	return 0
}

// TimeExpired reports whether the invitation has expired by time alone,
// independent of its stored status.
func (i *Invitation) TimeExpired(now, eventStartsAt time.Time) bool {
	return !i.ExpiresAt.After(now) || !eventStartsAt.After(now)
}

// InvitationClaim records that a user redeemed one ticket from an invitation.
// The (invitation, user) pair is unique: each user may claim at most once.
type InvitationClaim struct {
	ID              string    `json:"id"`
	InvitationID    string    `json:"invitation_id"`
	ClaimedByUserID string    `json:"claimed_by_user_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// ShareLink is the result of creating (or re-issuing) a share link.
type ShareLink struct {
	EventID         string    `json:"event_id"`
	EventName       string    `json:"event_name"`
	ShareURL        string    `json:"share_url"`
	ExpiresAt       time.Time `json:"expires_at"`
	RemainingClaims int       `json:"remaining_claims"`
	MaxClaims       int       `json:"max_claims"`
	ClaimedCount    int       `json:"claimed_count"`
}

// ShareLinkEvent is the event summary shown to a prospective claimant.
type ShareLinkEvent struct {
	EventID      string    `json:"event_id"`
	EventName    string    `json:"event_name"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"`
	PictureURL   *string   `json:"picture_url"`
	Price        int       `json:"price"`
	AddressLabel *string   `json:"address_label"`
}

// ShareLinkDetails is the public view of a share link resolved from its token.
type ShareLinkDetails struct {
	InvitationID    string           `json:"invitation_id"`
	Status          InvitationStatus `json:"status"`
	RemainingClaims int              `json:"remaining_claims"`
	MaxClaims       int              `json:"max_claims"`
	ClaimedCount    int              `json:"claimed_count"`
	Event           ShareLinkEvent   `json:"event"`
}

// ClaimResult is returned after a successful claim.
type ClaimResult struct {
	EventID         string `json:"event_id"`
	RemainingClaims int    `json:"remaining_claims"`
}

// ClaimTransfer carries the parameters for the transactional part of a claim:
// the optimistic guard on the invitation counter plus the ticket hand-over.
type ClaimTransfer struct {
	InvitationID string
	EventID      string
	OwnerUserID  string
	ClaimantID   string
	// ObservedClaimedCount is the counter value read before the transaction;
	// the guarded update only matches while the row still holds this value.
	ObservedClaimedCount int
	// NextStatus is Expired when this claim takes the last slot, else Active.
	NextStatus InvitationStatus
}

// InvitationRepository defines storage operations for share links and claims.
type InvitationRepository interface {
	Create(ctx context.Context, inv *Invitation) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*Invitation, error)
	// FindReusable returns the latest Active or Expired invitation for the
	// (event, owner) pair, or ErrNotFound. Revoked links are never reused.
	FindReusable(ctx context.Context, eventID, ownerUserID string) (*Invitation, error)
	// Reissue points an existing invitation at a new token, resets its status
	// to Active, and updates its claim ceiling and expiry. ClaimedCount is
	// preserved so claims already made stay counted.
	Reissue(ctx context.Context, invitationID, tokenHash string, maxClaims int, expiresAt time.Time) (*Invitation, error)
	// RevokeOthers revokes every other Active invitation for the pair,
	// keeping only keepInvitationID usable.
	RevokeOthers(ctx context.Context, eventID, ownerUserID, keepInvitationID string) error
	// MarkExpired flips an Active invitation to Expired. A no-op when the
	// invitation is already terminal.
	MarkExpired(ctx context.Context, invitationID string) error
	Revoke(ctx context.Context, invitationID string) error
	HasClaim(ctx context.Context, invitationID, userID string) (bool, error)
	// ClaimTransfer executes one claim atomically: re-verifies the owner still
	// holds a spare ticket, increments the claim counter under the optimistic
	// guard, reassigns the owner's oldest ticket to the claimant, and records
	// the claim. Returns ErrClaimConflict when the guard loses the race,
	// ErrNoShareableTickets when the owner's pool drained, ErrAlreadyClaimed
	// on a duplicate claim row.
	ClaimTransfer(ctx context.Context, transfer ClaimTransfer) error
}

// SharingService defines the ticket-sharing operations.
type SharingService interface {
	CreateShareLink(ctx context.Context, eventID, ownerUserID, baseURL string) (*ShareLink, error)
	GetShareLinkDetails(ctx context.Context, token string) (*ShareLinkDetails, error)
	ClaimShareLink(ctx context.Context, token, claimantUserID string) (*ClaimResult, error)
	RevokeShareLink(ctx context.Context, token, ownerUserID string) error
}
