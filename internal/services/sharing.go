package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"meda/internal/domain"
)

type sharingService struct {
	invitationRepo domain.InvitationRepository
	eventRepo      domain.EventRepository
	attendeeRepo   domain.AttendeeRepository
	logger         *slog.Logger
}

// NewSharingService creates the SharingService that manages ticket share links.
func NewSharingService(
	invitationRepo domain.InvitationRepository,
	eventRepo domain.EventRepository,
	attendeeRepo domain.AttendeeRepository,
	logger *slog.Logger,
) domain.SharingService {
	return &sharingService{
		invitationRepo: invitationRepo,
		eventRepo:      eventRepo,
		attendeeRepo:   attendeeRepo,
		logger:         logger,
	}
}

// newShareToken returns the raw URL token and its stored SHA-256 hex hash.
// The raw token leaves the service exactly once, inside the share URL.
func newShareToken() (token, tokenHash string, err error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate share token: %w", err)
	}
	token = base64.RawURLEncoding.EncodeToString(buf)
	sum := sha256.Sum256([]byte(token))
	return token, hex.EncodeToString(sum[:]), nil
}

func hashShareToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// shareURL builds the public claim URL on a trailing-slash-normalized base.
func shareURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/tickets/claim/" + token
}

func (s *sharingService) CreateShareLink(ctx context.Context, eventID, ownerUserID, baseURL string) (*domain.ShareLink, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	now := time.Now()
	if event.HasStarted(now) {
		return nil, domain.ErrEventStarted
	}

	live, err := s.attendeeRepo.CountByEventAndUser(ctx, eventID, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("count owner tickets: %w", err)
	}
	if live < 2 {
		return nil, domain.ErrNotEnoughTickets
	}

	token, tokenHash, err := newShareToken()
	if err != nil {
		return nil, err
	}

	// Claims already made on a prior link for this event stay counted, so the
	// ceiling is surplus tickets now plus what was claimed before.
	var inv *domain.Invitation
	prior, err := s.invitationRepo.FindReusable(ctx, eventID, ownerUserID)
	switch {
	case err == nil:
		maxClaims := (live - 1) + prior.ClaimedCount
		inv, err = s.invitationRepo.Reissue(ctx, prior.ID, tokenHash, maxClaims, event.StartsAt)
		if err != nil {
			return nil, fmt.Errorf("reissue invitation: %w", err)
		}
	case errors.Is(err, domain.ErrNotFound):
		inv = &domain.Invitation{
			EventID:   eventID,
			UserID:    ownerUserID,
			TokenHash: tokenHash,
			Status:    domain.InvitationActive,
			MaxClaims: live - 1,
			ExpiresAt: event.StartsAt,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.invitationRepo.Create(ctx, inv); err != nil {
			return nil, fmt.Errorf("create invitation: %w", err)
		}
	default:
		return nil, fmt.Errorf("find reusable invitation: %w", err)
	}

	// A fresh link supersedes every other live link for this event and owner.
	if err := s.invitationRepo.RevokeOthers(ctx, eventID, ownerUserID, inv.ID); err != nil {
		return nil, fmt.Errorf("revoke superseded invitations: %w", err)
	}

	s.logger.Info("share link issued",
		"event_id", eventID, "owner_id", ownerUserID, "max_claims", inv.MaxClaims)

	return &domain.ShareLink{
		EventID:         eventID,
		EventName:       event.Name,
		ShareURL:        shareURL(baseURL, token),
		ExpiresAt:       inv.ExpiresAt,
		RemainingClaims: inv.RemainingClaims(),
		MaxClaims:       inv.MaxClaims,
		ClaimedCount:    inv.ClaimedCount,
	}, nil
}

func (s *sharingService) GetShareLinkDetails(ctx context.Context, token string) (*domain.ShareLinkDetails, error) {
	inv, err := s.invitationRepo.GetByTokenHash(ctx, hashShareToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}

	event, err := s.eventRepo.GetByID(ctx, inv.EventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}

	// Lazy expiry: time-expired links are flipped on read so the stored
	// status catches up with the clock.
	if inv.Status == domain.InvitationActive && inv.TimeExpired(time.Now(), event.StartsAt) {
		if err := s.invitationRepo.MarkExpired(ctx, inv.ID); err != nil {
			return nil, fmt.Errorf("mark invitation expired: %w", err)
		}
		inv.Status = domain.InvitationExpired
	}

	loc := domain.DecodeEventLocation(event.Location)
	return &domain.ShareLinkDetails{
		InvitationID:    inv.ID,
		Status:          inv.Status,
		RemainingClaims: inv.RemainingClaims(),
		MaxClaims:       inv.MaxClaims,
		ClaimedCount:    inv.ClaimedCount,
		Event: domain.ShareLinkEvent{
			EventID:      event.ID,
			EventName:    event.Name,
			StartsAt:     event.StartsAt,
			EndsAt:       event.EndsAt,
			PictureURL:   event.PictureURL,
			Price:        event.Price,
			AddressLabel: loc.AddressLabel,
		},
	}, nil
}

func (s *sharingService) ClaimShareLink(ctx context.Context, token, claimantUserID string) (*domain.ClaimResult, error) {
	inv, err := s.invitationRepo.GetByTokenHash(ctx, hashShareToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	if inv.UserID == claimantUserID {
		return nil, domain.ErrSelfClaim
	}

	event, err := s.eventRepo.GetByID(ctx, inv.EventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if inv.TimeExpired(time.Now(), event.StartsAt) {
		if inv.Status == domain.InvitationActive {
			if err := s.invitationRepo.MarkExpired(ctx, inv.ID); err != nil {
				return nil, fmt.Errorf("mark invitation expired: %w", err)
			}
		}
		return nil, domain.ErrShareLinkExpired
	}
	if inv.Status != domain.InvitationActive {
		return nil, domain.ErrShareLinkInactive
	}
	if inv.RemainingClaims() == 0 {
		if err := s.invitationRepo.MarkExpired(ctx, inv.ID); err != nil {
			return nil, fmt.Errorf("mark invitation expired: %w", err)
		}
		return nil, domain.ErrNoClaimsLeft
	}

	claimed, err := s.invitationRepo.HasClaim(ctx, inv.ID, claimantUserID)
	if err != nil {
		return nil, fmt.Errorf("check prior claim: %w", err)
	}
	if claimed {
		return nil, domain.ErrAlreadyClaimed
	}

	ownerTickets, err := s.attendeeRepo.CountByEventAndUser(ctx, inv.EventID, inv.UserID)
	if err != nil {
		return nil, fmt.Errorf("count owner tickets: %w", err)
	}
	if ownerTickets < 2 {
		return nil, domain.ErrNoShareableTickets
	}

	// This claim takes the last slot when exactly one remains.
	nextStatus := domain.InvitationActive
	if inv.RemainingClaims() == 1 {
		nextStatus = domain.InvitationExpired
	}

	err = s.invitationRepo.ClaimTransfer(ctx, domain.ClaimTransfer{
		InvitationID:         inv.ID,
		EventID:              inv.EventID,
		OwnerUserID:          inv.UserID,
		ClaimantID:           claimantUserID,
		ObservedClaimedCount: inv.ClaimedCount,
		NextStatus:           nextStatus,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("share link claimed",
		"invitation_id", inv.ID, "event_id", inv.EventID, "claimant_id", claimantUserID)

	return &domain.ClaimResult{
		EventID:         inv.EventID,
		RemainingClaims: inv.RemainingClaims() - 1,
	}, nil
}

func (s *sharingService) RevokeShareLink(ctx context.Context, token, ownerUserID string) error {
	inv, err := s.invitationRepo.GetByTokenHash(ctx, hashShareToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get invitation: %w", err)
	}
	if inv.UserID != ownerUserID {
		return domain.ErrForbidden
	}
	if err := s.invitationRepo.Revoke(ctx, inv.ID); err != nil {
		return fmt.Errorf("revoke invitation: %w", err)
	}
	return nil
}
