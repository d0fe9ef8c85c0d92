package services

import (
	"context"
	"testing"
	"time"

	"meda/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventService_CreateEvent(t *testing.T) {
	ctx := context.Background()
	start := time.Now().Add(48 * time.Hour).Truncate(time.Hour)

	t.Run("single event", func(t *testing.T) {
		repo := &mockEventRepository{}
		svc := NewEventService(repo, &mockAttendeeRepository{})

		events, err := svc.CreateEvent(ctx, domain.CreateEventInput{
			Name:     "Sunday Football",
			OwnerID:  "owner-1",
			StartsAt: start,
			EndsAt:   start.Add(2 * time.Hour),
			Location: "Meskel Square!longitude=38.76&latitude=9.01",
		})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.False(t, events[0].IsRecurring)
		assert.Nil(t, events[0].SeriesID)
		require.Len(t, repo.created, 1)
	})

	t.Run("weekly series shares one series id", func(t *testing.T) {
		repo := &mockEventRepository{}
		svc := NewEventService(repo, &mockAttendeeRepository{})

		kind := domain.RecurrenceWeekly
		until := start.AddDate(0, 0, 21) // start + 3 weeks: 4 occurrences
		events, err := svc.CreateEvent(ctx, domain.CreateEventInput{
			Name:            "Run Club",
			OwnerID:         "owner-1",
			StartsAt:        start,
			EndsAt:          start.Add(time.Hour),
			RecurrenceKind:  &kind,
			RecurrenceUntil: &until,
		})
		require.NoError(t, err)
		require.Len(t, events, 4)
		require.Len(t, repo.createdSeries, 1)

		seriesID := *events[0].SeriesID
		for i, ev := range events {
			assert.True(t, ev.IsRecurring)
			assert.Equal(t, seriesID, *ev.SeriesID)
			assert.Equal(t, i, *ev.OccurrenceIndex)
			assert.Equal(t, start.AddDate(0, 0, 7*i), ev.StartsAt)
			assert.Equal(t, time.Hour, ev.EndsAt.Sub(ev.StartsAt))
		}
	})

	t.Run("recurring without until", func(t *testing.T) {
		svc := NewEventService(&mockEventRepository{}, &mockAttendeeRepository{})
		kind := domain.RecurrenceDaily
		_, err := svc.CreateEvent(ctx, domain.CreateEventInput{
			Name:           "Run Club",
			OwnerID:        "owner-1",
			StartsAt:       start,
			EndsAt:         start.Add(time.Hour),
			RecurrenceKind: &kind,
		})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("end before start", func(t *testing.T) {
		svc := NewEventService(&mockEventRepository{}, &mockAttendeeRepository{})
		_, err := svc.CreateEvent(ctx, domain.CreateEventInput{
			Name:     "Backwards",
			OwnerID:  "owner-1",
			StartsAt: start,
			EndsAt:   start.Add(-time.Hour),
		})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("start in the past", func(t *testing.T) {
		svc := NewEventService(&mockEventRepository{}, &mockAttendeeRepository{})
		past := time.Now().Add(-time.Hour)
		_, err := svc.CreateEvent(ctx, domain.CreateEventInput{
			Name:     "Too Late",
			OwnerID:  "owner-1",
			StartsAt: past,
			EndsAt:   past.Add(2 * time.Hour),
		})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestEventService_GetEvent(t *testing.T) {
	ctx := context.Background()
	seriesID := "series-1"
	idx := 0
	event := futureEvent("ev-1", "owner-1")
	event.SeriesID = &seriesID
	event.OccurrenceIndex = &idx

	sibling := futureEvent("ev-2", "owner-1")
	eventRepo := &mockEventRepository{
		events: map[string]*domain.Event{"ev-1": event},
		seriesEvents: map[string][]*domain.EventWithCount{
			seriesID: {
				{Event: event, AttendeeCount: 5},
				{Event: sibling, AttendeeCount: 2},
			},
		},
	}
	attendeeRepo := &mockAttendeeRepository{
		countByEvent: map[string]int{"ev-1": 5},
		countByEventUser: map[string]int{
			"ev-1:viewer-1": 2,
			"ev-2:viewer-1": 1,
		},
	}
	svc := NewEventService(eventRepo, attendeeRepo)

	t.Run("with viewer", func(t *testing.T) {
		details, err := svc.GetEvent(ctx, "ev-1", "viewer-1")
		require.NoError(t, err)
		assert.Equal(t, 5, details.AttendeeCount)
		require.NotNil(t, details.MyTickets)
		assert.Equal(t, 2, *details.MyTickets)
		require.NotNil(t, details.Location.AddressLabel)
		assert.Equal(t, "Meskel Square", *details.Location.AddressLabel)
		require.Len(t, details.Occurrences, 2)
		assert.Equal(t, 1, details.Occurrences[1].MyTickets)
	})

	t.Run("anonymous viewer", func(t *testing.T) {
		details, err := svc.GetEvent(ctx, "ev-1", "")
		require.NoError(t, err)
		assert.Nil(t, details.MyTickets)
		require.Len(t, details.Occurrences, 2)
		assert.Equal(t, 0, details.Occurrences[0].MyTickets)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.GetEvent(ctx, "ev-missing", "")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestEventService_ListNearbyEvents(t *testing.T) {
	ctx := context.Background()
	near := futureEvent("ev-near", "owner-1") // Meskel Square, Addis
	far := futureEvent("ev-far", "owner-1")
	far.Location = "Adama Stadium!longitude=39.27&latitude=8.54"
	noCoords := futureEvent("ev-nocoords", "owner-1")
	noCoords.Location = "somewhere"

	eventRepo := &mockEventRepository{upcoming: []*domain.EventWithCount{
		{Event: far, AttendeeCount: 1},
		{Event: near, AttendeeCount: 2},
		{Event: noCoords, AttendeeCount: 3},
	}}
	svc := NewEventService(eventRepo, &mockAttendeeRepository{})

	// Centered on Addis Ababa with a 20km radius: only Meskel Square qualifies.
	got, err := svc.ListNearbyEvents(ctx, 9.005, 38.75, 20, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ev-near", got[0].Event.ID)

	// A 120km radius reaches Adama; nearest first.
	got, err = svc.ListNearbyEvents(ctx, 9.005, 38.75, 120, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ev-near", got[0].Event.ID)
	assert.Equal(t, "ev-far", got[1].Event.ID)
}

func TestEventService_UpdateEvent(t *testing.T) {
	ctx := context.Background()
	name := "Renamed"

	t.Run("owner updates", func(t *testing.T) {
		event := futureEvent("ev-1", "owner-1")
		repo := &mockEventRepository{events: map[string]*domain.Event{"ev-1": event}}
		svc := NewEventService(repo, &mockAttendeeRepository{})

		_, n, err := svc.UpdateEvent(ctx, "ev-1", "owner-1", false, domain.EventPatch{Name: &name}, false)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		require.NotNil(t, repo.updatedPatch)
	})

	t.Run("non-owner forbidden", func(t *testing.T) {
		event := futureEvent("ev-1", "owner-1")
		repo := &mockEventRepository{events: map[string]*domain.Event{"ev-1": event}}
		svc := NewEventService(repo, &mockAttendeeRepository{})

		_, _, err := svc.UpdateEvent(ctx, "ev-1", "intruder", false, domain.EventPatch{Name: &name}, false)
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("admin may update", func(t *testing.T) {
		event := futureEvent("ev-1", "owner-1")
		repo := &mockEventRepository{events: map[string]*domain.Event{"ev-1": event}}
		svc := NewEventService(repo, &mockAttendeeRepository{})

		_, _, err := svc.UpdateEvent(ctx, "ev-1", "admin-1", true, domain.EventPatch{Name: &name}, false)
		require.NoError(t, err)
	})

	t.Run("apply to series", func(t *testing.T) {
		seriesID := "series-1"
		event := futureEvent("ev-1", "owner-1")
		event.SeriesID = &seriesID
		repo := &mockEventRepository{
			events:        map[string]*domain.Event{"ev-1": event},
			seriesUpdated: 4,
		}
		svc := NewEventService(repo, &mockAttendeeRepository{})

		_, n, err := svc.UpdateEvent(ctx, "ev-1", "owner-1", false, domain.EventPatch{Name: &name}, true)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		require.NotNil(t, repo.seriesPatch)
	})

	t.Run("apply to series on a standalone event", func(t *testing.T) {
		event := futureEvent("ev-1", "owner-1")
		repo := &mockEventRepository{events: map[string]*domain.Event{"ev-1": event}}
		svc := NewEventService(repo, &mockAttendeeRepository{})

		_, _, err := svc.UpdateEvent(ctx, "ev-1", "owner-1", false, domain.EventPatch{Name: &name}, true)
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestEventService_DeleteEvent(t *testing.T) {
	ctx := context.Background()
	event := futureEvent("ev-1", "owner-1")
	repo := &mockEventRepository{events: map[string]*domain.Event{"ev-1": event}}
	svc := NewEventService(repo, &mockAttendeeRepository{})

	require.ErrorIs(t, svc.DeleteEvent(ctx, "ev-1", "intruder", false), domain.ErrForbidden)
	require.NoError(t, svc.DeleteEvent(ctx, "ev-1", "owner-1", false))
	assert.Equal(t, []string{"ev-1"}, repo.deleted)
}
