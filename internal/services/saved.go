package services

import (
	"context"
	"errors"
	"fmt"

	"meda/internal/domain"
)

type savedEventService struct {
	savedRepo domain.SavedEventRepository
	eventRepo domain.EventRepository
}

// NewSavedEventService creates the bookmark service.
func NewSavedEventService(savedRepo domain.SavedEventRepository, eventRepo domain.EventRepository) domain.SavedEventService {
	return &savedEventService{
		savedRepo: savedRepo,
		eventRepo: eventRepo,
	}
}

func (s *savedEventService) SaveEvent(ctx context.Context, eventID, userID string) error {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if err := s.savedRepo.Save(ctx, eventID, userID); err != nil {
		return fmt.Errorf("save event: %w", err)
	}
	return nil
}

func (s *savedEventService) UnsaveEvent(ctx context.Context, eventID, userID string) error {
	if err := s.savedRepo.Delete(ctx, eventID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("unsave event: %w", err)
	}
	return nil
}

func (s *savedEventService) ListSavedEvents(ctx context.Context, userID string) ([]*domain.SavedEventWithEvent, error) {
	saved, err := s.savedRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list saved events: %w", err)
	}
	return saved, nil
}
