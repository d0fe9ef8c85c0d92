package controllers

import (
	"log/slog"
	"net/http"

	"meda/internal/delivery/http/helpers"
	"meda/internal/delivery/http/middleware"
	"meda/internal/domain"
)

// RegisterRequest is the request body for POST /events/{eventID}/registrations.
type RegisterRequest struct {
	Quantity int `json:"quantity"`
}

// Validate implements Validator.
func (r RegisterRequest) Validate() []string {
	var errs []string
	if r.Quantity < domain.MinRegistrationQuantity || r.Quantity > domain.MaxRegistrationQuantity {
		errs = append(errs, "quantity must be between 1 and 20")
	}
	return errs
}

// RegistrationResult is the data payload returned after registering.
type RegistrationResult struct {
	EventID       string `json:"event_id"`
	Quantity      int    `json:"quantity"`
	AttendeeCount int    `json:"attendee_count"`
}

type RegistrationController struct {
	Logger  *slog.Logger
	Service domain.RegistrationService
}

func NewRegistrationController(logger *slog.Logger, svc domain.RegistrationService) *RegistrationController {
	return &RegistrationController{
		Logger:  logger,
		Service: svc,
	}
}

// Register godoc
// @Summary Register for a free event
// @Description Reserves seats for the caller. Paid events must go through checkout instead.
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param registration body RegisterRequest true "Seat quantity"
// @Success 201 {object} helpers.APIResponse "data contains the registration result"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (paid event, ended event, invalid quantity)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (not enough seats)"
// @Router /events/{eventID}/registrations [post]
func (c *RegistrationController) Register(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "authentication required")
		return
	}
	eventID := r.PathValue("eventID")
	var req RegisterRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	count, err := c.Service.RegisterForEvent(r.Context(), eventID, userID, req.Quantity)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, RegistrationResult{
		EventID:       eventID,
		Quantity:      req.Quantity,
		AttendeeCount: count,
	})
}

// Cancel godoc
// @Summary Cancel a registration
// @Description Reservations are final: this endpoint always rejects the request.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (reservations are final)"
// @Router /events/{eventID}/registrations [delete]
func (c *RegistrationController) Cancel(w http.ResponseWriter, r *http.Request) {
	helpers.WriteDomainError(w, domain.ErrReservationsFinal)
}
