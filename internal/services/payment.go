package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"meda/internal/domain"
)

const (
	txRefPrefix     = "MEDA-"
	defaultCurrency = "ETB"
)

type paymentService struct {
	paymentRepo  domain.PaymentRepository
	eventRepo    domain.EventRepository
	attendeeRepo domain.AttendeeRepository
	userRepo     domain.UserRepository
	gateway      domain.PaymentGateway
	emails       domain.EmailService
	logger       *slog.Logger
}

// NewPaymentService creates the PaymentService for paid-event checkouts.
func NewPaymentService(
	paymentRepo domain.PaymentRepository,
	eventRepo domain.EventRepository,
	attendeeRepo domain.AttendeeRepository,
	userRepo domain.UserRepository,
	gateway domain.PaymentGateway,
	emails domain.EmailService,
	logger *slog.Logger,
) domain.PaymentService {
	return &paymentService{
		paymentRepo:  paymentRepo,
		eventRepo:    eventRepo,
		attendeeRepo: attendeeRepo,
		userRepo:     userRepo,
		gateway:      gateway,
		emails:       emails,
		logger:       logger,
	}
}

func newTxRef() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate tx ref: %w", err)
	}
	return txRefPrefix + hex.EncodeToString(buf), nil
}

func (s *paymentService) InitializeCheckout(ctx context.Context, input domain.CheckoutInput) (*domain.CheckoutSession, error) {
	if input.Quantity < domain.MinRegistrationQuantity || input.Quantity > domain.MaxRegistrationQuantity {
		return nil, domain.ErrInvalidQuantity
	}

	event, err := s.eventRepo.GetByID(ctx, input.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.Price == 0 {
		return nil, domain.ErrFreeEvent
	}
	if event.HasEnded(time.Now()) {
		return nil, domain.ErrEventEnded
	}
	if event.Capacity != nil && *event.Capacity < input.Quantity {
		return nil, domain.ErrNotEnoughSeats
	}

	email, firstName, lastName := input.Email, input.FirstName, input.LastName
	if email == "" {
		user, err := s.userRepo.GetByID(ctx, input.UserID)
		if err != nil {
			return nil, fmt.Errorf("get user: %w", err)
		}
		email, firstName, lastName = user.Email, user.Name, user.LastName
	}

	txRef, err := newTxRef()
	if err != nil {
		return nil, err
	}
	amount := strconv.Itoa(event.Price*input.Quantity) + ".00"

	now := time.Now()
	payment := &domain.Payment{
		EventID:   input.EventID,
		UserID:    input.UserID,
		Amount:    amount,
		Currency:  defaultCurrency,
		Status:    domain.PaymentProcessing,
		TxRef:     txRef,
		Quantity:  input.Quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}

	checkoutURL, err := s.gateway.Initialize(ctx, domain.GatewayCheckout{
		Amount:      amount,
		Currency:    defaultCurrency,
		TxRef:       txRef,
		Email:       email,
		FirstName:   firstName,
		LastName:    lastName,
		CallbackURL: input.CallbackURL,
		ReturnURL:   input.ReturnURLBase + "/events/" + input.EventID + "?payment=" + txRef,
		Title:       event.Name,
		Description: fmt.Sprintf("%d ticket(s) for %s", input.Quantity, event.Name),
	})
	if err != nil {
		return nil, err
	}
	payment.CheckoutURL = checkoutURL

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	s.logger.Info("checkout initialized",
		"event_id", input.EventID, "user_id", input.UserID, "tx_ref", txRef, "amount", amount)

	return &domain.CheckoutSession{
		PaymentID:   payment.ID,
		TxRef:       txRef,
		CheckoutURL: checkoutURL,
	}, nil
}

func (s *paymentService) ConfirmPayment(ctx context.Context, txRef, userID string) (*domain.PaymentConfirmation, error) {
	payment, err := s.paymentRepo.GetByTxRefAndUser(ctx, txRef, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}

	// Confirming twice is safe: a settled payment short-circuits here.
	if payment.Status == domain.PaymentSucceeded {
		return &domain.PaymentConfirmation{
			OK:               true,
			AlreadyConfirmed: true,
			Quantity:         payment.Quantity,
			EventID:          payment.EventID,
		}, nil
	}

	paid, err := s.gateway.Verify(ctx, txRef)
	if err != nil {
		return nil, err
	}
	if !paid {
		return nil, domain.ErrPaymentNotCompleted
	}

	event, err := s.eventRepo.GetByID(ctx, payment.EventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}

	enforceCapacity := event.Capacity != nil
	confirmed, err := s.paymentRepo.ConfirmWithRegistration(
		ctx, payment.ID, payment.EventID, userID, payment.Quantity, enforceCapacity)
	if err != nil {
		if errors.Is(err, domain.ErrNotEnoughSeats) {
			if markErr := s.paymentRepo.MarkFailed(ctx, payment.ID); markErr != nil {
				s.logger.Error("failed to mark payment failed", "payment_id", payment.ID, "error", markErr)
			}
			return nil, domain.ErrNotEnoughSeats
		}
		return nil, fmt.Errorf("confirm payment: %w", err)
	}

	if confirmed {
		s.logger.Info("payment confirmed",
			"payment_id", payment.ID, "event_id", payment.EventID, "quantity", payment.Quantity)
		s.sendConfirmation(ctx, event, userID, payment.Quantity)
	}

	return &domain.PaymentConfirmation{
		OK:               true,
		AlreadyConfirmed: !confirmed,
		Quantity:         payment.Quantity,
		EventID:          payment.EventID,
	}, nil
}

func (s *paymentService) sendConfirmation(ctx context.Context, event *domain.Event, userID string, quantity int) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("skipping confirmation email, user lookup failed", "user_id", userID, "error", err)
		return
	}
	data := &domain.TicketConfirmationEmailData{
		Email:         user.Email,
		BuyerName:     user.Name,
		EventName:     event.Name,
		StartsAt:      event.StartsAt,
		EndsAt:        event.EndsAt,
		LocationLabel: addressLabel(event.Location),
		Quantity:      quantity,
	}
	if err := s.emails.SendTicketConfirmation(ctx, data); err != nil {
		s.logger.Warn("failed to send confirmation email", "user_id", userID, "event_id", event.ID, "error", err)
	}
}
