package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"meda/internal/domain"
)

type eventService struct {
	eventRepo    domain.EventRepository
	attendeeRepo domain.AttendeeRepository
}

// NewEventService creates an EventService with the given repositories.
func NewEventService(eventRepo domain.EventRepository, attendeeRepo domain.AttendeeRepository) domain.EventService {
	return &eventService{
		eventRepo:    eventRepo,
		attendeeRepo: attendeeRepo,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, input domain.CreateEventInput) ([]*domain.Event, error) {
	if !input.EndsAt.After(input.StartsAt) {
		return nil, fmt.Errorf("%w: end time must be after start time", domain.ErrInvalidInput)
	}

	now := time.Now()
	if !input.StartsAt.After(now) {
		return nil, fmt.Errorf("%w: start time must be in the future", domain.ErrInvalidInput)
	}
	base := &domain.Event{
		Name:        input.Name,
		Description: input.Description,
		CategoryID:  input.CategoryID,
		OwnerID:     input.OwnerID,
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
		Location:    input.Location,
		PictureURL:  input.PictureURL,
		Capacity:    input.Capacity,
		Price:       input.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if input.RecurrenceKind == nil {
		if err := s.eventRepo.Create(ctx, base); err != nil {
			return nil, fmt.Errorf("create event: %w", err)
		}
		return []*domain.Event{base}, nil
	}

	if input.RecurrenceUntil == nil {
		return nil, fmt.Errorf("%w: recurrence_until is required for recurring events", domain.ErrInvalidInput)
	}
	windows, err := domain.ExpandOccurrences(input.StartsAt, input.EndsAt, *input.RecurrenceKind, *input.RecurrenceUntil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	seriesID := uuid.NewString()
	events := make([]*domain.Event, 0, len(windows))
	for i, w := range windows {
		idx := i
		occurrence := *base
		occurrence.StartsAt = w.StartsAt
		occurrence.EndsAt = w.EndsAt
		occurrence.IsRecurring = true
		occurrence.RecurrenceKind = input.RecurrenceKind
		occurrence.RecurrenceUntil = input.RecurrenceUntil
		occurrence.SeriesID = &seriesID
		occurrence.OccurrenceIndex = &idx
		events = append(events, &occurrence)
	}
	if err := s.eventRepo.CreateSeries(ctx, events); err != nil {
		return nil, fmt.Errorf("create series: %w", err)
	}
	return events, nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID, viewerUserID string) (*domain.EventDetails, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	count, err := s.attendeeRepo.CountByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("count attendees: %w", err)
	}

	details := &domain.EventDetails{
		Event:         event,
		AttendeeCount: count,
		Location:      domain.DecodeEventLocation(event.Location),
	}

	if viewerUserID != "" {
		mine, err := s.attendeeRepo.CountByEventAndUser(ctx, eventID, viewerUserID)
		if err != nil {
			return nil, fmt.Errorf("count my tickets: %w", err)
		}
		details.MyTickets = &mine
	}

	if event.SeriesID != nil {
		occurrences, err := s.seriesOccurrences(ctx, *event.SeriesID, viewerUserID)
		if err != nil {
			return nil, err
		}
		details.Occurrences = occurrences
	}
	return details, nil
}

func (s *eventService) seriesOccurrences(ctx context.Context, seriesID, viewerUserID string) ([]*domain.Occurrence, error) {
	upcoming, err := s.eventRepo.ListUpcomingBySeriesID(ctx, seriesID, domain.MaxSeriesOccurrences)
	if err != nil {
		return nil, fmt.Errorf("list series occurrences: %w", err)
	}

	var mine map[string]int
	if viewerUserID != "" {
		ids := make([]string, 0, len(upcoming))
		for _, occ := range upcoming {
			ids = append(ids, occ.Event.ID)
		}
		mine, err = s.attendeeRepo.CountsByUserForEvents(ctx, viewerUserID, ids)
		if err != nil {
			return nil, fmt.Errorf("count my tickets for series: %w", err)
		}
	}

	occurrences := make([]*domain.Occurrence, 0, len(upcoming))
	for _, occ := range upcoming {
		occurrences = append(occurrences, &domain.Occurrence{
			EventID:         occ.Event.ID,
			StartsAt:        occ.Event.StartsAt,
			EndsAt:          occ.Event.EndsAt,
			AttendeeCount:   occ.AttendeeCount,
			Capacity:        occ.Event.Capacity,
			MyTickets:       mine[occ.Event.ID],
			OccurrenceIndex: occ.Event.OccurrenceIndex,
		})
	}
	return occurrences, nil
}

func (s *eventService) ListEvents(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.EventWithCount, int, error) {
	events, total, err := s.eventRepo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	return events, total, nil
}

// nearbyScanLimit bounds how many upcoming events are pulled for in-memory
// distance filtering. Coordinates live inside the packed location string, so
// the distance cannot be computed in SQL.
const nearbyScanLimit = 500

func (s *eventService) ListNearbyEvents(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]*domain.EventWithCount, error) {
	upcoming, err := s.eventRepo.ListUpcoming(ctx, nearbyScanLimit)
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}

	type scored struct {
		event    *domain.EventWithCount
		distance float64
	}
	var matches []scored
	for _, ev := range upcoming {
		loc := domain.DecodeEventLocation(ev.Event.Location)
		if loc.Latitude == nil || loc.Longitude == nil {
			continue
		}
		d := domain.HaversineDistanceKm(lat, lng, *loc.Latitude, *loc.Longitude)
		if d <= radiusKm {
			matches = append(matches, scored{event: ev, distance: d})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].distance < matches[j].distance })

	result := make([]*domain.EventWithCount, 0, len(matches))
	for _, m := range matches {
		if limit > 0 && len(result) >= limit {
			break
		}
		result = append(result, m.event)
	}
	return result, nil
}

func (s *eventService) ListEventsByOwner(ctx context.Context, ownerID string, status domain.EventStatusFilter, params domain.PaginationParams) ([]*domain.EventWithCount, int, error) {
	events, total, err := s.eventRepo.ListByOwnerID(ctx, ownerID, status, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list events by owner: %w", err)
	}
	return events, total, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, eventID, callerID string, isAdmin bool, patch domain.EventPatch, applyToSeries bool) (*domain.Event, int, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, 0, domain.ErrNotFound
		}
		return nil, 0, fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != callerID && !isAdmin {
		return nil, 0, domain.ErrForbidden
	}
	if patch.StartsAt != nil || patch.EndsAt != nil {
		starts, ends := event.StartsAt, event.EndsAt
		if patch.StartsAt != nil {
			starts = *patch.StartsAt
		}
		if patch.EndsAt != nil {
			ends = *patch.EndsAt
		}
		if !ends.After(starts) {
			return nil, 0, fmt.Errorf("%w: end time must be after start time", domain.ErrInvalidInput)
		}
	}

	if applyToSeries {
		if event.SeriesID == nil {
			return nil, 0, fmt.Errorf("%w: event is not part of a series", domain.ErrInvalidInput)
		}
		updated, err := s.eventRepo.UpdateSeries(ctx, *event.SeriesID, patch)
		if err != nil {
			return nil, 0, fmt.Errorf("update series: %w", err)
		}
		refreshed, err := s.eventRepo.GetByID(ctx, eventID)
		if err != nil {
			return nil, 0, fmt.Errorf("reload event: %w", err)
		}
		return refreshed, updated, nil
	}

	updated, err := s.eventRepo.Update(ctx, eventID, patch)
	if err != nil {
		return nil, 0, fmt.Errorf("update event: %w", err)
	}
	return updated, 1, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, eventID, callerID string, isAdmin bool) error {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != callerID && !isAdmin {
		return domain.ErrForbidden
	}
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func (s *eventService) GetSeriesCount(ctx context.Context, event *domain.Event) (int, error) {
	if event.SeriesID == nil {
		return 1, nil
	}
	n, err := s.eventRepo.CountBySeriesID(ctx, *event.SeriesID)
	if err != nil {
		return 0, fmt.Errorf("count series occurrences: %w", err)
	}
	return n, nil
}
