package controllers

import (
	"log/slog"
	"net/http"

	"meda/internal/delivery/http/helpers"
	"meda/internal/delivery/http/middleware"
	"meda/internal/domain"
)

// BanUserRequest is the request body for PATCH /admin/users/{userID}/ban.
type BanUserRequest struct {
	Banned bool   `json:"banned"`
	Reason string `json:"reason"`
}

// Validate implements Validator.
func (r BanUserRequest) Validate() []string {
	return nil
}

// SetRoleRequest is the request body for PATCH /admin/users/{userID}/role.
type SetRoleRequest struct {
	Role string `json:"role"`
}

// Validate implements Validator.
func (r SetRoleRequest) Validate() []string {
	var errs []string
	if r.Role == "" {
		errs = append(errs, "role is required")
	}
	return errs
}

// AdminStatsSuccessResponse is the success envelope for the stats dashboard.
type AdminStatsSuccessResponse struct {
	Data  *domain.AdminStats `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// UserListResponse is the data payload for the admin user listing.
type UserListResponse struct {
	Users      []*domain.User         `json:"users"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

type AdminController struct {
	Logger  *slog.Logger
	Service domain.AdminService
	Events  domain.EventService
}

func NewAdminController(logger *slog.Logger, svc domain.AdminService, events domain.EventService) *AdminController {
	return &AdminController{
		Logger:  logger,
		Service: svc,
		Events:  events,
	}
}

func (c *AdminController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	helpers.WriteDomainError(w, err)
}

// Stats godoc
// @Summary Platform stats
// @Description Returns dashboard counters: totals plus activity over the last 7 and 30 days.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.AdminStatsSuccessResponse "data contains the stats"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /admin/stats [get]
func (c *AdminController) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.Service.Stats(r.Context())
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, stats)
}

// ListEvents godoc
// @Summary List all events
// @Description Lists every event regardless of status, with search and pagination.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name search"
// @Param status query string false "upcoming | past | all (default all)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains events and pagination"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /admin/events [get]
func (c *AdminController) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := domain.EventStatusAll
	if s := q.Get("status"); s != "" {
		parsed, ok := parseStatusFilter(s)
		if !ok {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "status must be one of upcoming, past, all")
			return
		}
		status = parsed
	}
	params := helpers.ParsePagination(r)
	events, total, err := c.Events.ListEvents(r.Context(), domain.EventFilter{
		Search: q.Get("search"),
		Status: status,
	}, params)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, EventListResponse{
		Events:     toListItems(events),
		Pagination: helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// ListUsers godoc
// @Summary List users
// @Description Lists users with optional name or email search.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name or email search"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains users and pagination"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /admin/users [get]
func (c *AdminController) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	users, total, err := c.Service.ListUsers(r.Context(), r.URL.Query().Get("search"), params)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, UserListResponse{
		Users:      users,
		Pagination: helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// BanUser godoc
// @Summary Ban or unban a user
// @Description Sets the user's ban flag. A banned user cannot log in.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userID path string true "User ID"
// @Param ban body BanUserRequest true "Ban state and optional reason"
// @Success 200 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /admin/users/{userID}/ban [patch]
func (c *AdminController) BanUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	var req BanUserRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if callerID, _ := middleware.UserIDFromContext(r.Context()); callerID == userID && req.Banned {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "you cannot ban yourself")
		return
	}
	if err := c.Service.SetUserBan(r.Context(), userID, req.Banned, req.Reason); err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"message": "user ban updated"})
}

// SetUserRole godoc
// @Summary Change a user's role
// @Description Sets the user's role to user or admin.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userID path string true "User ID"
// @Param role body SetRoleRequest true "New role"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (unknown role)"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /admin/users/{userID}/role [patch]
func (c *AdminController) SetUserRole(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	var req SetRoleRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.SetUserRole(r.Context(), userID, req.Role); err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"message": "user role updated"})
}
