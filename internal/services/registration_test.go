package services

import (
	"context"
	"testing"
	"time"

	"meda/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrationService_RegisterForEvent(t *testing.T) {
	ctx := context.Background()

	newService := func(event *domain.Event, attendeeRepo *mockAttendeeRepository, emails *mockEmailService) domain.RegistrationService {
		eventRepo := &mockEventRepository{events: map[string]*domain.Event{event.ID: event}}
		userRepo := &mockUserRepository{users: map[string]*domain.User{
			"user-1": {ID: "user-1", Email: "abel@example.com", Name: "Abel"},
		}}
		return NewRegistrationService(eventRepo, attendeeRepo, userRepo, emails, testLogger())
	}

	t.Run("free event with capacity", func(t *testing.T) {
		capacity := 10
		event := futureEvent("ev-1", "owner-1")
		event.Capacity = &capacity
		attendeeRepo := &mockAttendeeRepository{countByEvent: map[string]int{"ev-1": 7}}
		emails := &mockEmailService{}
		svc := newService(event, attendeeRepo, emails)

		count, err := svc.RegisterForEvent(ctx, "ev-1", "user-1", 3)
		require.NoError(t, err)
		assert.Equal(t, 7, count)
		require.Len(t, attendeeRepo.registered, 1)
		assert.Equal(t, registerCall{"ev-1", "user-1", 3, true}, attendeeRepo.registered[0])
		require.Len(t, emails.sent, 1)
		assert.Equal(t, "abel@example.com", emails.sent[0].Email)
		assert.Equal(t, 3, emails.sent[0].Quantity)
	})

	t.Run("unlimited event skips capacity guard", func(t *testing.T) {
		event := futureEvent("ev-1", "owner-1")
		attendeeRepo := &mockAttendeeRepository{}
		svc := newService(event, attendeeRepo, &mockEmailService{})

		_, err := svc.RegisterForEvent(ctx, "ev-1", "user-1", 1)
		require.NoError(t, err)
		require.Len(t, attendeeRepo.registered, 1)
		assert.False(t, attendeeRepo.registered[0].EnforceCapacity)
	})

	t.Run("paid event must go through checkout", func(t *testing.T) {
		event := futureEvent("ev-1", "owner-1")
		event.Price = 150
		svc := newService(event, &mockAttendeeRepository{}, &mockEmailService{})

		_, err := svc.RegisterForEvent(ctx, "ev-1", "user-1", 1)
		require.ErrorIs(t, err, domain.ErrPaidEvent)
	})

	t.Run("quantity out of bounds", func(t *testing.T) {
		event := futureEvent("ev-1", "owner-1")
		svc := newService(event, &mockAttendeeRepository{}, &mockEmailService{})

		_, err := svc.RegisterForEvent(ctx, "ev-1", "user-1", 0)
		require.ErrorIs(t, err, domain.ErrInvalidQuantity)
		_, err = svc.RegisterForEvent(ctx, "ev-1", "user-1", 21)
		require.ErrorIs(t, err, domain.ErrInvalidQuantity)
	})

	t.Run("ended event", func(t *testing.T) {
		event := futureEvent("ev-1", "owner-1")
		event.StartsAt = time.Now().Add(-3 * time.Hour)
		event.EndsAt = time.Now().Add(-time.Hour)
		svc := newService(event, &mockAttendeeRepository{}, &mockEmailService{})

		_, err := svc.RegisterForEvent(ctx, "ev-1", "user-1", 1)
		require.ErrorIs(t, err, domain.ErrEventEnded)
	})

	t.Run("sold out", func(t *testing.T) {
		capacity := 1
		event := futureEvent("ev-1", "owner-1")
		event.Capacity = &capacity
		attendeeRepo := &mockAttendeeRepository{registerErr: domain.ErrNotEnoughSeats}
		svc := newService(event, attendeeRepo, &mockEmailService{})

		_, err := svc.RegisterForEvent(ctx, "ev-1", "user-1", 2)
		require.ErrorIs(t, err, domain.ErrNotEnoughSeats)
	})

	t.Run("mail failure does not fail the reservation", func(t *testing.T) {
		event := futureEvent("ev-1", "owner-1")
		attendeeRepo := &mockAttendeeRepository{countByEvent: map[string]int{"ev-1": 1}}
		emails := &mockEmailService{err: context.DeadlineExceeded}
		svc := newService(event, attendeeRepo, emails)

		count, err := svc.RegisterForEvent(ctx, "ev-1", "user-1", 1)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestRegistrationService_ListMyRegisteredEvents(t *testing.T) {
	ctx := context.Background()

	past := futureEvent("ev-past", "owner-1")
	past.StartsAt = time.Now().Add(-4 * time.Hour)
	past.EndsAt = time.Now().Add(-2 * time.Hour)
	upcoming := futureEvent("ev-up", "owner-1")

	eventRepo := &mockEventRepository{events: map[string]*domain.Event{
		"ev-past": past,
		"ev-up":   upcoming,
	}}
	attendeeRepo := &mockAttendeeRepository{
		countByEvent: map[string]int{"ev-past": 8, "ev-up": 3},
		countByEventUser: map[string]int{
			"ev-past:user-1": 1,
			"ev-up:user-1":   2,
			"ev-gone:user-1": 1, // event deleted; entry is skipped
		},
	}
	svc := NewRegistrationService(eventRepo, attendeeRepo, &mockUserRepository{}, &mockEmailService{}, testLogger())

	t.Run("upcoming only", func(t *testing.T) {
		got, err := svc.ListMyRegisteredEvents(ctx, "user-1", domain.EventStatusUpcoming)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "ev-up", got[0].Event.ID)
		assert.Equal(t, 2, got[0].TicketCount)
		assert.Equal(t, 3, got[0].AttendeeCount)
	})

	t.Run("past only", func(t *testing.T) {
		got, err := svc.ListMyRegisteredEvents(ctx, "user-1", domain.EventStatusPast)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "ev-past", got[0].Event.ID)
	})

	t.Run("all, sorted by start", func(t *testing.T) {
		got, err := svc.ListMyRegisteredEvents(ctx, "user-1", domain.EventStatusAll)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "ev-past", got[0].Event.ID)
		assert.Equal(t, "ev-up", got[1].Event.ID)
	})
}
