package controllers

import (
	"log/slog"
	"net/http"

	"meda/internal/delivery/http/helpers"
	"meda/internal/delivery/http/middleware"
	"meda/internal/domain"
)

// CreateShareLinkRequest is the request body for POST /tickets/share.
type CreateShareLinkRequest struct {
	EventID string `json:"event_id"`
}

// Validate implements Validator.
func (r CreateShareLinkRequest) Validate() []string {
	var errs []string
	if r.EventID == "" {
		errs = append(errs, "event_id is required")
	}
	return errs
}

// ShareLinkSuccessResponse is the success envelope for share link creation.
type ShareLinkSuccessResponse struct {
	Data  *domain.ShareLink `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ShareLinkDetailsSuccessResponse is the success envelope for resolving a token.
type ShareLinkDetailsSuccessResponse struct {
	Data  *domain.ShareLinkDetails `json:"data"`
	Error *helpers.APIError        `json:"error"`
}

type SharingController struct {
	Logger *slog.Logger
	// BaseURL is the public origin used to build share URLs.
	BaseURL string
	Service domain.SharingService
}

func NewSharingController(logger *slog.Logger, baseURL string, svc domain.SharingService) *SharingController {
	return &SharingController{
		Logger:  logger,
		BaseURL: baseURL,
		Service: svc,
	}
}

// CreateShareLink godoc
// @Summary Create or refresh a share link
// @Description Issues a share link for the caller's tickets to an event. Repeated calls reuse the standing invitation with a fresh token and a claim ceiling covering the current shareable pool.
// @Tags tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param share body CreateShareLinkRequest true "Event to share tickets for"
// @Success 201 {object} controllers.ShareLinkSuccessResponse "data contains the share link"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (fewer than two tickets, or event already started)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /tickets/share [post]
func (c *SharingController) CreateShareLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "authentication required")
		return
	}
	var req CreateShareLinkRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	link, err := c.Service.CreateShareLink(r.Context(), req.EventID, userID, c.BaseURL)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, link)
}

// GetShareLink godoc
// @Summary Resolve a share link
// @Description Returns the public view of a share link: event summary, status, and remaining claims. Expired links are reported as expired, not hidden.
// @Tags tickets
// @Produce json
// @Param token path string true "Share token"
// @Success 200 {object} controllers.ShareLinkDetailsSuccessResponse "data contains the share link details"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /tickets/share/{token} [get]
func (c *SharingController) GetShareLink(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	details, err := c.Service.GetShareLinkDetails(r.Context(), token)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, details)
}

// ClaimShareLink godoc
// @Summary Claim a shared ticket
// @Description Transfers one ticket from the link owner to the caller. Each user may claim a given link once; the owner always keeps at least one ticket.
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Param token path string true "Share token"
// @Success 200 {object} helpers.APIResponse "data contains the claim result"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (inactive or expired link, self-claim, already claimed, no claims left)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (a concurrent claim won)"
// @Router /tickets/share/{token}/claim [post]
func (c *SharingController) ClaimShareLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "authentication required")
		return
	}
	token := r.PathValue("token")
	result, err := c.Service.ClaimShareLink(r.Context(), token, userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

// RevokeShareLink godoc
// @Summary Revoke a share link
// @Description Deactivates a share link. Tickets already claimed stay with their claimants.
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Param token path string true "Share token"
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not the link owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /tickets/share/{token}/revoke [post]
func (c *SharingController) RevokeShareLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "authentication required")
		return
	}
	token := r.PathValue("token")
	if err := c.Service.RevokeShareLink(r.Context(), token, userID); err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"message": "share link revoked"})
}
