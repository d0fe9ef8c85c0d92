package controllers

import (
	"log/slog"
	"net/http"

	"meda/internal/delivery/http/helpers"
	"meda/internal/delivery/http/middleware"
	"meda/internal/domain"
)

// SaveEventRequest is the request body for POST /profile/saved-events.
type SaveEventRequest struct {
	EventID string `json:"event_id"`
}

// Validate implements Validator.
func (r SaveEventRequest) Validate() []string {
	var errs []string
	if r.EventID == "" {
		errs = append(errs, "event_id is required")
	}
	return errs
}

// ProfileController serves the caller's own events, registrations, and bookmarks.
type ProfileController struct {
	Logger        *slog.Logger
	Events        domain.EventService
	Registrations domain.RegistrationService
	Saved         domain.SavedEventService
}

func NewProfileController(
	logger *slog.Logger,
	events domain.EventService,
	registrations domain.RegistrationService,
	saved domain.SavedEventService,
) *ProfileController {
	return &ProfileController{
		Logger:        logger,
		Events:        events,
		Registrations: registrations,
		Saved:         saved,
	}
}

func (c *ProfileController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	helpers.WriteDomainError(w, err)
}

// MyEvents godoc
// @Summary List my events
// @Description Lists events the caller owns, filtered by status.
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Param status query string false "upcoming | past | all (default upcoming)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains events and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /profile/events [get]
func (c *ProfileController) MyEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "authentication required")
		return
	}
	status, ok := parseStatusFilter(r.URL.Query().Get("status"))
	if !ok {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "status must be one of upcoming, past, all")
		return
	}
	params := helpers.ParsePagination(r)
	events, total, err := c.Events.ListEventsByOwner(r.Context(), userID, status, params)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, EventListResponse{
		Events:     toListItems(events),
		Pagination: helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// MyRegisteredEvents godoc
// @Summary List my registered events
// @Description Lists events the caller holds tickets for, with the ticket count per event.
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Param status query string false "upcoming | past | all (default upcoming)"
// @Success 200 {object} helpers.APIResponse "data contains registered events"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /profile/registered-events [get]
func (c *ProfileController) MyRegisteredEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "authentication required")
		return
	}
	status, ok := parseStatusFilter(r.URL.Query().Get("status"))
	if !ok {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "status must be one of upcoming, past, all")
		return
	}
	events, err := c.Registrations.ListMyRegisteredEvents(r.Context(), userID, status)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// MySavedEvents godoc
// @Summary List my saved events
// @Description Lists events the caller has bookmarked, most recently saved first.
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains saved events"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /profile/saved-events [get]
func (c *ProfileController) MySavedEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "authentication required")
		return
	}
	events, err := c.Saved.ListSavedEvents(r.Context(), userID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// SaveEvent godoc
// @Summary Save an event
// @Description Bookmarks an event for the caller. Saving twice is a no-op.
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param bookmark body SaveEventRequest true "Event to save"
// @Success 201 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /profile/saved-events [post]
func (c *ProfileController) SaveEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "authentication required")
		return
	}
	var req SaveEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Saved.SaveEvent(r.Context(), req.EventID, userID); err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, map[string]string{"message": "event saved"})
}

// UnsaveEvent godoc
// @Summary Remove a saved event
// @Description Deletes the caller's bookmark for the event.
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /profile/saved-events/{eventID} [delete]
func (c *ProfileController) UnsaveEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "authentication required")
		return
	}
	eventID := r.PathValue("eventID")
	if err := c.Saved.UnsaveEvent(r.Context(), eventID, userID); err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"message": "event removed from saved"})
}

func parseStatusFilter(s string) (domain.EventStatusFilter, bool) {
	switch s {
	case "", string(domain.EventStatusUpcoming):
		return domain.EventStatusUpcoming, true
	case string(domain.EventStatusPast):
		return domain.EventStatusPast, true
	case string(domain.EventStatusAll):
		return domain.EventStatusAll, true
	default:
		return "", false
	}
}
