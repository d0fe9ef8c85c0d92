package domain

import (
	"context"
	"time"
)

// SavedEvent marks an event bookmarked by a user.
type SavedEvent struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SavedEventWithEvent bundles a bookmark with its event and attendee count.
type SavedEventWithEvent struct {
	Event         *Event    `json:"event"`
	AttendeeCount int       `json:"attendee_count"`
	SavedAt       time.Time `json:"saved_at"`
}

// SavedEventRepository defines storage operations for bookmarks.
type SavedEventRepository interface {
	// Save bookmarks the event for the user. Idempotent: saving twice keeps one row.
	Save(ctx context.Context, eventID, userID string) error
	Delete(ctx context.Context, eventID, userID string) error
	ListByUserID(ctx context.Context, userID string) ([]*SavedEventWithEvent, error)
}

// SavedEventService defines bookmark operations.
type SavedEventService interface {
	SaveEvent(ctx context.Context, eventID, userID string) error
	UnsaveEvent(ctx context.Context, eventID, userID string) error
	ListSavedEvents(ctx context.Context, userID string) ([]*SavedEventWithEvent, error)
}
