package controllers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"meda/internal/delivery/http/helpers"
	"meda/internal/delivery/http/middleware"
	"meda/internal/domain"
)

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	Name            string     `json:"name"`
	Description     *string    `json:"description"`
	CategoryID      *string    `json:"category_id"`
	StartsAt        time.Time  `json:"starts_at"`
	EndsAt          time.Time  `json:"ends_at"`
	AddressLabel    string     `json:"address_label"`
	Latitude        *float64   `json:"latitude"`
	Longitude       *float64   `json:"longitude"`
	PictureURL      *string    `json:"picture_url"`
	Capacity        *int       `json:"capacity"`
	Price           int        `json:"price"`
	RecurrenceKind  *string    `json:"recurrence_kind"`
	RecurrenceUntil *time.Time `json:"recurrence_until"`
}

// Validate implements Validator.
func (r CreateEventRequest) Validate() []string {
	var errs []string
	if r.Name == "" {
		errs = append(errs, "name is required")
	}
	if r.StartsAt.IsZero() {
		errs = append(errs, "starts_at is required")
	}
	if r.EndsAt.IsZero() {
		errs = append(errs, "ends_at is required")
	}
	if r.AddressLabel == "" {
		errs = append(errs, "address_label is required")
	}
	if (r.Latitude == nil) != (r.Longitude == nil) {
		errs = append(errs, "latitude and longitude must be provided together")
	}
	if r.Capacity != nil && *r.Capacity < 1 {
		errs = append(errs, "capacity must be at least 1")
	}
	if r.Price < 0 {
		errs = append(errs, "price must not be negative")
	}
	if r.RecurrenceKind != nil && !domain.ValidRecurrenceKind(*r.RecurrenceKind) {
		errs = append(errs, "recurrence_kind must be one of daily, weekly, biweekly, monthly")
	}
	return errs
}

func (r CreateEventRequest) location() string {
	if r.Latitude != nil && r.Longitude != nil {
		return domain.EncodeEventLocation(r.AddressLabel, *r.Longitude, *r.Latitude)
	}
	return r.AddressLabel
}

// UpdateEventRequest is the request body for PATCH /events/{eventID}. All
// fields are optional; absent fields are left unchanged.
type UpdateEventRequest struct {
	Name          *string    `json:"name"`
	Description   *string    `json:"description"`
	CategoryID    *string    `json:"category_id"`
	StartsAt      *time.Time `json:"starts_at"`
	EndsAt        *time.Time `json:"ends_at"`
	AddressLabel  *string    `json:"address_label"`
	Latitude      *float64   `json:"latitude"`
	Longitude     *float64   `json:"longitude"`
	PictureURL    *string    `json:"picture_url"`
	Capacity      *int       `json:"capacity"`
	Price         *int       `json:"price"`
	ApplyToSeries bool       `json:"apply_to_series"`
}

// Validate implements Validator.
func (r UpdateEventRequest) Validate() []string {
	var errs []string
	if r.Name != nil && *r.Name == "" {
		errs = append(errs, "name must not be empty")
	}
	if r.AddressLabel == nil && (r.Latitude != nil || r.Longitude != nil) {
		errs = append(errs, "address_label is required when coordinates are set")
	}
	if (r.Latitude == nil) != (r.Longitude == nil) {
		errs = append(errs, "latitude and longitude must be provided together")
	}
	if r.Capacity != nil && *r.Capacity < 0 {
		errs = append(errs, "capacity must not be negative")
	}
	if r.Price != nil && *r.Price < 0 {
		errs = append(errs, "price must not be negative")
	}
	return errs
}

func (r UpdateEventRequest) patch() domain.EventPatch {
	p := domain.EventPatch{
		Name:        r.Name,
		Description: r.Description,
		CategoryID:  r.CategoryID,
		StartsAt:    r.StartsAt,
		EndsAt:      r.EndsAt,
		PictureURL:  r.PictureURL,
		Capacity:    r.Capacity,
		Price:       r.Price,
	}
	if r.AddressLabel != nil {
		loc := *r.AddressLabel
		if r.Latitude != nil && r.Longitude != nil {
			loc = domain.EncodeEventLocation(*r.AddressLabel, *r.Longitude, *r.Latitude)
		}
		p.Location = &loc
	}
	return p
}

// EventListItem is one entry in a paginated event listing.
type EventListItem struct {
	Event         *domain.Event          `json:"event"`
	AttendeeCount int                    `json:"attendee_count"`
	Location      domain.DecodedLocation `json:"location"`
}

// EventListResponse is the data payload for event listings.
type EventListResponse struct {
	Events     []EventListItem        `json:"events"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// EventDetailsSuccessResponse is the success envelope for the detail page.
type EventDetailsSuccessResponse struct {
	Data  *domain.EventDetails `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// CreateEventSuccessResponse is the success envelope for event creation.
type CreateEventSuccessResponse struct {
	Data  []*domain.Event   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// Create godoc
// @Summary Create an event
// @Description Creates an event. With recurrence_kind and recurrence_until set, the whole occurrence series is created and returned in order.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.CreateEventSuccessResponse "data contains the created events"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /events [post]
func (c *EventController) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "authentication required")
		return
	}
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	events, err := c.Service.CreateEvent(r.Context(), domain.CreateEventInput{
		Name:            req.Name,
		Description:     req.Description,
		CategoryID:      req.CategoryID,
		OwnerID:         userID,
		StartsAt:        req.StartsAt,
		EndsAt:          req.EndsAt,
		Location:        req.location(),
		PictureURL:      req.PictureURL,
		Capacity:        req.Capacity,
		Price:           req.Price,
		RecurrenceKind:  req.RecurrenceKind,
		RecurrenceUntil: req.RecurrenceUntil,
	})
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, events)
}

// Get godoc
// @Summary Get event details
// @Description Returns the event detail view. With a bearer token, the viewer's ticket counts are included.
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EventDetailsSuccessResponse "data contains the event details"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [get]
func (c *EventController) Get(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	viewerID, _ := middleware.UserIDFromContext(r.Context())
	details, err := c.Service.GetEvent(r.Context(), eventID, viewerID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, details)
}

// List godoc
// @Summary List events
// @Description Lists events with optional search, category, and status filters. With lat, lng, and radius_km set, returns upcoming events within the radius, nearest first.
// @Tags events
// @Produce json
// @Param search query string false "Name search"
// @Param category_id query string false "Category filter"
// @Param status query string false "upcoming | past | all (default upcoming)"
// @Param lat query number false "Latitude for nearby search"
// @Param lng query number false "Longitude for nearby search"
// @Param radius_km query number false "Radius in kilometers (default 10)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains events and pagination"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /events [get]
func (c *EventController) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("lat") != "" || q.Get("lng") != "" {
		c.listNearby(w, r)
		return
	}

	status, ok := parseStatusFilter(q.Get("status"))
	if !ok {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "status must be one of upcoming, past, all")
		return
	}
	filter := domain.EventFilter{
		Search: q.Get("search"),
		Status: status,
	}
	if v := q.Get("category_id"); v != "" {
		filter.CategoryID = &v
	}

	params := helpers.ParsePagination(r)
	events, total, err := c.Service.ListEvents(r.Context(), filter, params)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, EventListResponse{
		Events:     toListItems(events),
		Pagination: helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

func (c *EventController) listNearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(q.Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "lat and lng must both be valid coordinates")
		return
	}
	radiusKm := 10.0
	if v := q.Get("radius_km"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "radius_km must be a positive number")
			return
		}
		radiusKm = parsed
	}

	params := helpers.ParsePagination(r)
	events, err := c.Service.ListNearbyEvents(r.Context(), lat, lng, radiusKm, params.PageSize)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, EventListResponse{
		Events:     toListItems(events),
		Pagination: helpers.NewPaginationMeta(1, params.PageSize, len(events)),
	})
}

// Update godoc
// @Summary Update an event
// @Description Patches an event. Only the owner or an admin may update. With apply_to_series, the non-schedule fields are applied to every occurrence of the series.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param event body UpdateEventRequest true "Fields to change"
// @Success 200 {object} helpers.APIResponse "data contains the updated event and updated_count"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [patch]
func (c *EventController) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "authentication required")
		return
	}
	eventID := r.PathValue("eventID")
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	isAdmin := middleware.IsAdminFromContext(r.Context())
	event, updated, err := c.Service.UpdateEvent(r.Context(), eventID, userID, isAdmin, req.patch(), req.ApplyToSeries)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]any{
		"event":         event,
		"updated_count": updated,
	})
}

// Delete godoc
// @Summary Delete an event
// @Description Deletes an event. Only the owner or an admin may delete.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [delete]
func (c *EventController) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "authentication required")
		return
	}
	eventID := r.PathValue("eventID")
	isAdmin := middleware.IsAdminFromContext(r.Context())
	if err := c.Service.DeleteEvent(r.Context(), eventID, userID, isAdmin); err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"message": "event deleted"})
}

func toListItems(events []*domain.EventWithCount) []EventListItem {
	items := make([]EventListItem, 0, len(events))
	for _, e := range events {
		items = append(items, EventListItem{
			Event:         e.Event,
			AttendeeCount: e.AttendeeCount,
			Location:      domain.DecodeEventLocation(e.Event.Location),
		})
	}
	return items
}
