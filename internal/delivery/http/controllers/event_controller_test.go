package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"meda/internal/domain"
)

type fakeEventService struct {
	created       []*domain.Event
	details       *domain.EventDetails
	listed        []*domain.EventWithCount
	nearby        []*domain.EventWithCount
	updated       *domain.Event
	updatedCount  int
	err           error
	gotInput      domain.CreateEventInput
	gotEventID    string
	gotViewerID   string
	gotCallerID   string
	gotIsAdmin    bool
	gotPatch      domain.EventPatch
	gotSeriesFlag bool
	gotFilter     domain.EventFilter
	gotLat        float64
	gotLng        float64
	gotRadius     float64
}

func (f *fakeEventService) CreateEvent(_ context.Context, input domain.CreateEventInput) ([]*domain.Event, error) {
	f.gotInput = input
	return f.created, f.err
}

func (f *fakeEventService) GetEvent(_ context.Context, eventID, viewerUserID string) (*domain.EventDetails, error) {
	f.gotEventID, f.gotViewerID = eventID, viewerUserID
	return f.details, f.err
}

func (f *fakeEventService) ListEvents(_ context.Context, filter domain.EventFilter, _ domain.PaginationParams) ([]*domain.EventWithCount, int, error) {
	f.gotFilter = filter
	return f.listed, len(f.listed), f.err
}

func (f *fakeEventService) ListNearbyEvents(_ context.Context, lat, lng, radiusKm float64, _ int) ([]*domain.EventWithCount, error) {
	f.gotLat, f.gotLng, f.gotRadius = lat, lng, radiusKm
	return f.nearby, f.err
}

func (f *fakeEventService) ListEventsByOwner(_ context.Context, ownerID string, _ domain.EventStatusFilter, _ domain.PaginationParams) ([]*domain.EventWithCount, int, error) {
	f.gotCallerID = ownerID
	return f.listed, len(f.listed), f.err
}

func (f *fakeEventService) UpdateEvent(_ context.Context, eventID, callerID string, isAdmin bool, patch domain.EventPatch, applyToSeries bool) (*domain.Event, int, error) {
	f.gotEventID, f.gotCallerID, f.gotIsAdmin = eventID, callerID, isAdmin
	f.gotPatch, f.gotSeriesFlag = patch, applyToSeries
	return f.updated, f.updatedCount, f.err
}

func (f *fakeEventService) DeleteEvent(_ context.Context, eventID, callerID string, isAdmin bool) error {
	f.gotEventID, f.gotCallerID, f.gotIsAdmin = eventID, callerID, isAdmin
	return f.err
}

func (f *fakeEventService) GetSeriesCount(_ context.Context, _ *domain.Event) (int, error) {
	return 1, f.err
}

func eventMux(c *EventController) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", c.List)
	mux.HandleFunc("POST /events", c.Create)
	mux.HandleFunc("GET /events/{eventID}", c.Get)
	mux.HandleFunc("PATCH /events/{eventID}", c.Update)
	mux.HandleFunc("DELETE /events/{eventID}", c.Delete)
	return mux
}

func TestEventController_Create(t *testing.T) {
	body := `{
		"name": "Sunday Football",
		"starts_at": "2026-10-04T08:00:00Z",
		"ends_at": "2026-10-04T10:00:00Z",
		"address_label": "Meskel Square",
		"latitude": 9.01,
		"longitude": 38.76,
		"capacity": 22,
		"price": 0
	}`

	t.Run("creates an event with an encoded location", func(t *testing.T) {
		svc := &fakeEventService{created: []*domain.Event{{ID: "ev-1", Name: "Sunday Football"}}}
		mux := eventMux(NewEventController(testLogger(), svc))

		req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, asUser(req, "user-1"))

		require.Equal(t, http.StatusCreated, rec.Code)
		require.Equal(t, "user-1", svc.gotInput.OwnerID)
		require.Equal(t, "Meskel Square!longitude=38.76&latitude=9.01", svc.gotInput.Location)
		require.Equal(t, 22, *svc.gotInput.Capacity)
	})

	t.Run("rejects anonymous callers", func(t *testing.T) {
		mux := eventMux(NewEventController(testLogger(), &fakeEventService{}))

		req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects an unknown recurrence kind", func(t *testing.T) {
		mux := eventMux(NewEventController(testLogger(), &fakeEventService{}))

		bad := strings.Replace(body, `"price": 0`, `"price": 0, "recurrence_kind": "hourly"`, 1)
		req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(bad))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, asUser(req, "user-1"))

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects a lone latitude", func(t *testing.T) {
		mux := eventMux(NewEventController(testLogger(), &fakeEventService{}))

		bad := strings.Replace(body, `"longitude": 38.76,`, "", 1)
		req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(bad))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, asUser(req, "user-1"))

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestEventController_Get(t *testing.T) {
	two := 2
	svc := &fakeEventService{details: &domain.EventDetails{
		Event:         &domain.Event{ID: "ev-1", Name: "Sunday Football"},
		AttendeeCount: 10,
		MyTickets:     &two,
	}}
	mux := eventMux(NewEventController(testLogger(), svc))

	t.Run("passes the viewer through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/events/ev-1", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, asUser(req, "user-1"))

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "ev-1", svc.gotEventID)
		require.Equal(t, "user-1", svc.gotViewerID)
	})

	t.Run("serves anonymous viewers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/events/ev-1", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "", svc.gotViewerID)
	})

	t.Run("maps a missing event to 404", func(t *testing.T) {
		missing := &fakeEventService{err: domain.ErrNotFound}
		mux := eventMux(NewEventController(testLogger(), missing))

		req := httptest.NewRequest(http.MethodGet, "/events/nope", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestEventController_List(t *testing.T) {
	listed := []*domain.EventWithCount{
		{Event: &domain.Event{ID: "ev-1", Name: "Sunday Football", Location: "Meskel Square!longitude=38.76&latitude=9.01"}, AttendeeCount: 10},
	}

	t.Run("lists with filters", func(t *testing.T) {
		svc := &fakeEventService{listed: listed}
		mux := eventMux(NewEventController(testLogger(), svc))

		req := httptest.NewRequest(http.MethodGet, "/events?search=football&status=all", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "football", svc.gotFilter.Search)
		require.Equal(t, domain.EventStatusAll, svc.gotFilter.Status)

		env := decodeEnvelope(t, rec)
		var payload struct {
			Events []struct {
				Event    *domain.Event          `json:"event"`
				Location domain.DecodedLocation `json:"location"`
			} `json:"events"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &payload))
		require.Len(t, payload.Events, 1)
		require.NotNil(t, payload.Events[0].Location.AddressLabel)
		require.Equal(t, "Meskel Square", *payload.Events[0].Location.AddressLabel)
	})

	t.Run("rejects an unknown status", func(t *testing.T) {
		mux := eventMux(NewEventController(testLogger(), &fakeEventService{}))

		req := httptest.NewRequest(http.MethodGet, "/events?status=tomorrow", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("routes coordinate queries to nearby search", func(t *testing.T) {
		svc := &fakeEventService{nearby: listed}
		mux := eventMux(NewEventController(testLogger(), svc))

		req := httptest.NewRequest(http.MethodGet, "/events?lat=9.01&lng=38.76&radius_km=25", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, 9.01, svc.gotLat)
		require.Equal(t, 38.76, svc.gotLng)
		require.Equal(t, 25.0, svc.gotRadius)
	})

	t.Run("rejects a lone coordinate", func(t *testing.T) {
		mux := eventMux(NewEventController(testLogger(), &fakeEventService{}))

		req := httptest.NewRequest(http.MethodGet, "/events?lat=9.01", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestEventController_Update(t *testing.T) {
	t.Run("applies the patch to the series", func(t *testing.T) {
		svc := &fakeEventService{updated: &domain.Event{ID: "ev-1", Name: "Renamed"}, updatedCount: 4}
		mux := eventMux(NewEventController(testLogger(), svc))

		body := `{"name": "Renamed", "apply_to_series": true}`
		req := httptest.NewRequest(http.MethodPatch, "/events/ev-1", strings.NewReader(body))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, asUser(req, "user-1"))

		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, svc.gotSeriesFlag)
		require.False(t, svc.gotIsAdmin)
		require.Equal(t, "Renamed", *svc.gotPatch.Name)

		env := decodeEnvelope(t, rec)
		var payload struct {
			UpdatedCount int `json:"updated_count"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &payload))
		require.Equal(t, 4, payload.UpdatedCount)
	})

	t.Run("re-encodes the location when the address changes", func(t *testing.T) {
		svc := &fakeEventService{updated: &domain.Event{ID: "ev-1"}}
		mux := eventMux(NewEventController(testLogger(), svc))

		body := `{"address_label": "Jan Meda", "latitude": 9.03, "longitude": 38.77}`
		req := httptest.NewRequest(http.MethodPatch, "/events/ev-1", strings.NewReader(body))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, asUser(req, "user-1"))

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "Jan Meda!longitude=38.77&latitude=9.03", *svc.gotPatch.Location)
	})

	t.Run("maps non-owners to 403", func(t *testing.T) {
		svc := &fakeEventService{err: domain.ErrForbidden}
		mux := eventMux(NewEventController(testLogger(), svc))

		req := httptest.NewRequest(http.MethodPatch, "/events/ev-1", strings.NewReader(`{"name": "X"}`))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, asUser(req, "user-2"))

		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestEventController_Delete(t *testing.T) {
	svc := &fakeEventService{}
	mux := eventMux(NewEventController(testLogger(), svc))

	req := httptest.NewRequest(http.MethodDelete, "/events/ev-1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, asUser(req, "user-1"))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ev-1", svc.gotEventID)
	require.Equal(t, "user-1", svc.gotCallerID)
}

func TestRegistrationController_Cancel(t *testing.T) {
	mux := http.NewServeMux()
	ctrl := NewRegistrationController(testLogger(), nil)
	mux.HandleFunc("DELETE /events/{eventID}/registrations", ctrl.Cancel)

	req := httptest.NewRequest(http.MethodDelete, "/events/ev-1/registrations", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, asUser(req, "user-1"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.Equal(t, "bad_request", env.Error.Code)
	require.Contains(t, env.Error.Message, "final")
}
