package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for registration operations.
var (
	ErrNotEnoughSeats    = errors.New("not enough seats available")
	ErrReservationsFinal = errors.New("reservations are final and cannot be canceled")
	ErrInvalidQuantity   = errors.New("quantity must be between 1 and 20")
	ErrPaidEvent         = errors.New("this event requires payment")
)

// Registration quantity bounds per request.
const (
	MinRegistrationQuantity = 1
	MaxRegistrationQuantity = 20
)

// EventAttendee is one reserved seat (a ticket) for an event. Registration
// creates one row per seat; a share-link claim reassigns UserID to the claimant.
// swagger:model EventAttendee
type EventAttendee struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// AttendeeStatusRSVPed is the status for a confirmed seat.
const AttendeeStatusRSVPed = "RSVPed"

// RegisteredEvent is an event on the caller's registered list along with the
// caller's ticket count for it.
type RegisteredEvent struct {
	Event         *Event `json:"event"`
	AttendeeCount int    `json:"attendee_count"`
	TicketCount   int    `json:"ticket_count"`
}

// AttendeeRepository defines storage operations for tickets.
type AttendeeRepository interface {
	// RegisterBatch inserts quantity ticket rows for (eventID, userID) and,
	// when enforceCapacity is set, decrements the event's remaining capacity
	// by quantity in the same transaction, guarded by capacity >= quantity.
	// Returns ErrNotEnoughSeats when the guard matches no row.
	RegisterBatch(ctx context.Context, eventID, userID string, quantity int, enforceCapacity bool) error
	CountByEvent(ctx context.Context, eventID string) (int, error)
	CountByEventAndUser(ctx context.Context, eventID, userID string) (int, error)
	// CountsByUser returns the caller's ticket count per event ID.
	CountsByUser(ctx context.Context, userID string) (map[string]int, error)
	// CountsByUserForEvents is CountsByUser restricted to the given event IDs.
	CountsByUserForEvents(ctx context.Context, userID string, eventIDs []string) (map[string]int, error)
	CountAll(ctx context.Context) (int, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
}

// RegistrationService defines attendee-facing registration operations.
type RegistrationService interface {
	// RegisterForEvent reserves quantity free seats for the user and returns
	// the event's attendee count after registration. Paid events must go
	// through checkout instead.
	RegisterForEvent(ctx context.Context, eventID, userID string, quantity int) (int, error)
	ListMyRegisteredEvents(ctx context.Context, userID string, status EventStatusFilter) ([]*RegisteredEvent, error)
}
