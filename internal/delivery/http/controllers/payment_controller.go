package controllers

import (
	"log/slog"
	"net/http"

	"meda/internal/delivery/http/helpers"
	"meda/internal/delivery/http/middleware"
	"meda/internal/domain"
)

// CheckoutRequest is the request body for POST /payments/chapa/checkout.
type CheckoutRequest struct {
	EventID  string `json:"event_id"`
	Quantity int    `json:"quantity"`
}

// Validate implements Validator.
func (r CheckoutRequest) Validate() []string {
	var errs []string
	if r.EventID == "" {
		errs = append(errs, "event_id is required")
	}
	if r.Quantity < domain.MinRegistrationQuantity || r.Quantity > domain.MaxRegistrationQuantity {
		errs = append(errs, "quantity must be between 1 and 20")
	}
	return errs
}

// CheckoutSuccessResponse is the success envelope for checkout initialization.
type CheckoutSuccessResponse struct {
	Data  *domain.CheckoutSession `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

// ConfirmSuccessResponse is the success envelope for payment confirmation.
type ConfirmSuccessResponse struct {
	Data  *domain.PaymentConfirmation `json:"data"`
	Error *helpers.APIError           `json:"error"`
}

type PaymentController struct {
	Logger *slog.Logger
	// BaseURL is the public origin used for gateway callback and return URLs.
	BaseURL string
	Service domain.PaymentService
}

func NewPaymentController(logger *slog.Logger, baseURL string, svc domain.PaymentService) *PaymentController {
	return &PaymentController{
		Logger:  logger,
		BaseURL: baseURL,
		Service: svc,
	}
}

// Checkout godoc
// @Summary Start a paid checkout
// @Description Initializes a hosted Chapa checkout for a paid event and returns the checkout URL. Seats are only reserved once the payment is confirmed.
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param checkout body CheckoutRequest true "Event and seat quantity"
// @Success 201 {object} controllers.CheckoutSuccessResponse "data contains the checkout session"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (free event, ended event, invalid quantity)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (not enough seats)"
// @Failure 502 {object} helpers.APIResponse "error.code: bad_gateway (gateway unavailable)"
// @Router /payments/chapa/checkout [post]
func (c *PaymentController) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "authentication required")
		return
	}
	var req CheckoutRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	session, err := c.Service.InitializeCheckout(r.Context(), domain.CheckoutInput{
		EventID:       req.EventID,
		UserID:        userID,
		Quantity:      req.Quantity,
		CallbackURL:   c.BaseURL + "/payments/chapa/confirm",
		ReturnURLBase: c.BaseURL,
	})
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, session)
}

// Confirm godoc
// @Summary Confirm a checkout
// @Description Verifies the transaction with Chapa and, on success, reserves the paid seats. Safe to call repeatedly; a settled payment is reported as already confirmed.
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param tx_ref query string true "Transaction reference from checkout"
// @Success 200 {object} controllers.ConfirmSuccessResponse "data contains the confirmation outcome"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (payment not completed)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (event sold out before confirmation)"
// @Failure 502 {object} helpers.APIResponse "error.code: bad_gateway (gateway unavailable)"
// @Router /payments/chapa/confirm [get]
func (c *PaymentController) Confirm(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "authentication required")
		return
	}
	txRef := r.URL.Query().Get("tx_ref")
	if txRef == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "tx_ref is required")
		return
	}
	confirmation, err := c.Service.ConfirmPayment(r.Context(), txRef, userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, confirmation)
}
