package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for event operations.
var (
	ErrEventStarted = errors.New("event has already started")
	ErrEventEnded   = errors.New("event has ended")
)

// Event represents a single occurrence of a pickup-sports event. Events created
// from a recurrence rule share a SeriesID and carry their position in the
// series as OccurrenceIndex.
// swagger:model Event
type Event struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Description     *string    `json:"description"`
	CategoryID      *string    `json:"category_id"`
	CategoryName    *string    `json:"category_name,omitempty"`
	OwnerID         string     `json:"owner_id"`
	StartsAt        time.Time  `json:"starts_at"`
	EndsAt          time.Time  `json:"ends_at"`
	Location        string     `json:"-"`
	PictureURL      *string    `json:"picture_url"`
	Capacity        *int       `json:"capacity"` // remaining seats; nil = unlimited
	Price           int        `json:"price"`    // 0 = free event
	IsRecurring     bool       `json:"is_recurring"`
	RecurrenceKind  *string    `json:"recurrence_kind"`
	RecurrenceUntil *time.Time `json:"recurrence_until"`
	SeriesID        *string    `json:"series_id"`
	OccurrenceIndex *int       `json:"occurrence_index"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// HasStarted reports whether the event's start time is at or before now.
func (e *Event) HasStarted(now time.Time) bool {
	return !e.StartsAt.After(now)
}

// HasEnded reports whether the event's end time is at or before now.
func (e *Event) HasEnded(now time.Time) bool {
	return !e.EndsAt.After(now)
}

// EventWithCount bundles an event with its current attendee count.
type EventWithCount struct {
	Event         *Event `json:"event"`
	AttendeeCount int    `json:"attendee_count"`
}

// Occurrence is one dated instance of a series as shown on the event detail
// page: schedule, remaining capacity, and the viewer's ticket count for it.
type Occurrence struct {
	EventID         string    `json:"event_id"`
	StartsAt        time.Time `json:"starts_at"`
	EndsAt          time.Time `json:"ends_at"`
	AttendeeCount   int       `json:"attendee_count"`
	Capacity        *int      `json:"capacity"`
	MyTickets       int       `json:"my_tickets"`
	OccurrenceIndex *int      `json:"occurrence_index"`
}

// EventDetails is the full detail-page view of an event.
type EventDetails struct {
	Event         *Event          `json:"event"`
	AttendeeCount int             `json:"attendee_count"`
	Location      DecodedLocation `json:"location"`
	MyTickets     *int            `json:"my_tickets"`
	Occurrences   []*Occurrence   `json:"occurrences,omitempty"`
}

// EventStatusFilter selects events by their position relative to now.
type EventStatusFilter string

const (
	EventStatusUpcoming EventStatusFilter = "upcoming"
	EventStatusPast     EventStatusFilter = "past"
	EventStatusAll      EventStatusFilter = "all"
)

// EventFilter holds optional list filters.
type EventFilter struct {
	Search     string
	CategoryID *string
	Status     EventStatusFilter
}

// EventPatch holds optional event fields for partial updates. Nil fields are
// left unchanged.
type EventPatch struct {
	Name        *string
	Description *string
	PictureURL  *string
	StartsAt    *time.Time
	EndsAt      *time.Time
	Location    *string
	Capacity    *int
	Price       *int
	CategoryID  *string
}

// CreateEventInput is the validated input for creating an event or a recurring
// series of events.
type CreateEventInput struct {
	Name            string
	Description     *string
	CategoryID      *string
	OwnerID         string
	StartsAt        time.Time
	EndsAt          time.Time
	Location        string
	PictureURL      *string
	Capacity        *int
	Price           int
	RecurrenceKind  *string
	RecurrenceUntil *time.Time
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	// CreateSeries inserts all occurrences of a recurring series in one transaction.
	CreateSeries(ctx context.Context, events []*Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, filter EventFilter, params PaginationParams) ([]*EventWithCount, int, error)
	ListUpcoming(ctx context.Context, limit int) ([]*EventWithCount, error)
	ListByOwnerID(ctx context.Context, ownerID string, status EventStatusFilter, params PaginationParams) ([]*EventWithCount, int, error)
	// ListUpcomingBySeriesID returns occurrences of a series that have not yet
	// ended, ordered by start time, capped at limit.
	ListUpcomingBySeriesID(ctx context.Context, seriesID string, limit int) ([]*EventWithCount, error)
	Update(ctx context.Context, eventID string, patch EventPatch) (*Event, error)
	// UpdateSeries applies the patch to every occurrence sharing seriesID and
	// returns the number of rows updated. Schedule fields in the patch are
	// ignored: each occurrence keeps its own start and end.
	UpdateSeries(ctx context.Context, seriesID string, patch EventPatch) (int, error)
	Delete(ctx context.Context, id string) error
	CountBySeriesID(ctx context.Context, seriesID string) (int, error)
	CountAll(ctx context.Context) (int, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
	CountSeries(ctx context.Context) (int, error)
}

// EventService defines event management operations.
type EventService interface {
	// CreateEvent creates one event, or the full occurrence set when the input
	// carries a recurrence rule. Returns the created events in series order.
	CreateEvent(ctx context.Context, input CreateEventInput) ([]*Event, error)
	// GetEvent returns the detail view. viewerUserID may be empty; when set,
	// the viewer's ticket counts are included.
	GetEvent(ctx context.Context, eventID, viewerUserID string) (*EventDetails, error)
	ListEvents(ctx context.Context, filter EventFilter, params PaginationParams) ([]*EventWithCount, int, error)
	// ListNearbyEvents returns upcoming events within radiusKm of the given
	// coordinates, nearest first.
	ListNearbyEvents(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]*EventWithCount, error)
	ListEventsByOwner(ctx context.Context, ownerID string, status EventStatusFilter, params PaginationParams) ([]*EventWithCount, int, error)
	// UpdateEvent patches an event. Only the owner or an admin may update.
	// With applyToSeries, the patch is applied to every occurrence of the
	// event's series; the count of updated occurrences is returned.
	UpdateEvent(ctx context.Context, eventID, callerID string, isAdmin bool, patch EventPatch, applyToSeries bool) (*Event, int, error)
	DeleteEvent(ctx context.Context, eventID, callerID string, isAdmin bool) error
	// GetSeriesCount returns how many occurrences share the event's series.
	GetSeriesCount(ctx context.Context, event *Event) (int, error)
}
