package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// PaymentStatus is the lifecycle state of a checkout.
type PaymentStatus string

const (
	PaymentProcessing PaymentStatus = "processing"
	PaymentSucceeded  PaymentStatus = "succeeded"
	PaymentFailed     PaymentStatus = "failed"
)

// Sentinel errors for payment operations.
var (
	ErrFreeEvent           = fmt.Errorf("%w: this event does not require payment", ErrInvalidInput)
	ErrPaymentNotCompleted = fmt.Errorf("%w: payment has not been completed", ErrInvalidInput)
	ErrGatewayUnavailable  = errors.New("payment gateway unavailable")
)

// Payment is one checkout attempt against the payment gateway.
// swagger:model Payment
type Payment struct {
	ID          string        `json:"id"`
	EventID     string        `json:"event_id"`
	UserID      string        `json:"user_id"`
	Amount      string        `json:"amount"` // decimal string, e.g. "150.00"
	Currency    string        `json:"currency"`
	Status      PaymentStatus `json:"status"`
	TxRef       string        `json:"tx_ref"`
	CheckoutURL string        `json:"-"`
	Quantity    int           `json:"quantity"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// CheckoutInput is the validated input for initializing a checkout.
type CheckoutInput struct {
	EventID       string
	UserID        string
	Quantity      int
	Email         string
	FirstName     string
	LastName      string
	CallbackURL   string
	ReturnURLBase string
}

// CheckoutSession is the gateway hand-off returned to the client.
type CheckoutSession struct {
	PaymentID   string `json:"payment_id"`
	TxRef       string `json:"tx_ref"`
	CheckoutURL string `json:"checkout_url"`
}

// PaymentConfirmation reports the outcome of confirming a checkout.
type PaymentConfirmation struct {
	OK               bool   `json:"ok"`
	AlreadyConfirmed bool   `json:"already_confirmed"`
	Quantity         int    `json:"quantity"`
	EventID          string `json:"event_id"`
}

// GatewayCheckout is the request sent to the payment gateway when
// initializing a checkout.
type GatewayCheckout struct {
	Amount      string
	Currency    string
	TxRef       string
	Email       string
	FirstName   string
	LastName    string
	CallbackURL string
	ReturnURL   string
	Title       string
	Description string
}

// PaymentGateway is the port for the third-party checkout provider.
type PaymentGateway interface {
	// Initialize starts a hosted checkout and returns its URL.
	Initialize(ctx context.Context, checkout GatewayCheckout) (checkoutURL string, err error)
	// Verify reports whether the transaction completed successfully.
	Verify(ctx context.Context, txRef string) (paid bool, err error)
}

// PaymentRepository defines storage operations for payments.
type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	GetByTxRefAndUser(ctx context.Context, txRef, userID string) (*Payment, error)
	MarkFailed(ctx context.Context, paymentID string) error
	// ConfirmWithRegistration finalizes a verified payment in one transaction:
	// re-checks the payment is still processing, decrements the event's
	// remaining capacity under the capacity >= quantity guard (when
	// enforceCapacity is set), inserts the ticket rows, and marks the payment
	// succeeded. Returns (false, nil) if another confirmation got there first.
	ConfirmWithRegistration(ctx context.Context, paymentID, eventID, userID string, quantity int, enforceCapacity bool) (confirmed bool, err error)
}

// PaymentService defines checkout operations.
type PaymentService interface {
	InitializeCheckout(ctx context.Context, input CheckoutInput) (*CheckoutSession, error)
	ConfirmPayment(ctx context.Context, txRef, userID string) (*PaymentConfirmation, error)
}
