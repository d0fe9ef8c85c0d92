package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"meda/internal/domain"
)

type registrationService struct {
	eventRepo    domain.EventRepository
	attendeeRepo domain.AttendeeRepository
	userRepo     domain.UserRepository
	emails       domain.EmailService
	logger       *slog.Logger
}

// NewRegistrationService creates a RegistrationService for free-event reservations.
func NewRegistrationService(
	eventRepo domain.EventRepository,
	attendeeRepo domain.AttendeeRepository,
	userRepo domain.UserRepository,
	emails domain.EmailService,
	logger *slog.Logger,
) domain.RegistrationService {
	return &registrationService{
		eventRepo:    eventRepo,
		attendeeRepo: attendeeRepo,
		userRepo:     userRepo,
		emails:       emails,
		logger:       logger,
	}
}

func (s *registrationService) RegisterForEvent(ctx context.Context, eventID, userID string, quantity int) (int, error) {
	if quantity < domain.MinRegistrationQuantity || quantity > domain.MaxRegistrationQuantity {
		return 0, domain.ErrInvalidQuantity
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("get event: %w", err)
	}
	if event.Price > 0 {
		return 0, domain.ErrPaidEvent
	}
	if event.HasEnded(time.Now()) {
		return 0, domain.ErrEventEnded
	}

	enforceCapacity := event.Capacity != nil
	if err := s.attendeeRepo.RegisterBatch(ctx, eventID, userID, quantity, enforceCapacity); err != nil {
		if errors.Is(err, domain.ErrNotEnoughSeats) {
			return 0, domain.ErrNotEnoughSeats
		}
		return 0, fmt.Errorf("register batch: %w", err)
	}

	count, err := s.attendeeRepo.CountByEvent(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("count attendees: %w", err)
	}

	s.sendConfirmation(ctx, event, userID, quantity)

	return count, nil
}

// sendConfirmation is best effort: the reservation already holds, a mail
// failure only gets logged.
func (s *registrationService) sendConfirmation(ctx context.Context, event *domain.Event, userID string, quantity int) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("skipping confirmation email, user lookup failed", "user_id", userID, "error", err)
		return
	}
	data := &domain.TicketConfirmationEmailData{
		Email:         user.Email,
		BuyerName:     user.Name,
		EventName:     event.Name,
		StartsAt:      event.StartsAt,
		EndsAt:        event.EndsAt,
		LocationLabel: addressLabel(event.Location),
		Quantity:      quantity,
	}
	if err := s.emails.SendTicketConfirmation(ctx, data); err != nil {
		s.logger.Warn("failed to send confirmation email", "user_id", userID, "event_id", event.ID, "error", err)
	}
}

func addressLabel(packedLocation string) string {
	loc := domain.DecodeEventLocation(packedLocation)
	if loc.AddressLabel != nil {
		return *loc.AddressLabel
	}
	return ""
}

func (s *registrationService) ListMyRegisteredEvents(ctx context.Context, userID string, status domain.EventStatusFilter) ([]*domain.RegisteredEvent, error) {
	counts, err := s.attendeeRepo.CountsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list my ticket counts: %w", err)
	}

	now := time.Now()
	result := make([]*domain.RegisteredEvent, 0, len(counts))
	for eventID, tickets := range counts {
		event, err := s.eventRepo.GetByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Event deleted but tickets remain; skip the orphaned entry.
				continue
			}
			return nil, fmt.Errorf("get event for registration: %w", err)
		}
		switch status {
		case domain.EventStatusUpcoming:
			if event.HasEnded(now) {
				continue
			}
		case domain.EventStatusPast:
			if !event.HasEnded(now) {
				continue
			}
		}
		total, err := s.attendeeRepo.CountByEvent(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("count attendees: %w", err)
		}
		result = append(result, &domain.RegisteredEvent{
			Event:         event,
			AttendeeCount: total,
			TicketCount:   tickets,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Event.StartsAt.Before(result[j].Event.StartsAt)
	})
	return result, nil
}
