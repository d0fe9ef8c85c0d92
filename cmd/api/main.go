package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"meda/config"
	"meda/internal/adapters/auth"
	"meda/internal/adapters/chapa"
	"meda/internal/adapters/email"
	httpdelivery "meda/internal/delivery/http"
	"meda/internal/delivery/http/controllers"
	"meda/internal/delivery/http/middleware"
	"meda/internal/repository/postgres"
	"meda/internal/services"
)

// @title Meda API
// @version 1.0
// @description Pickup-sports event marketplace: events, recurring series, free and paid registration, and ticket sharing.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("ping database", "err", err)
		os.Exit(1)
	}

	eventRepo := postgres.NewEventRepository(db)
	attendeeRepo := postgres.NewAttendeeRepository(db)
	invitationRepo := postgres.NewInvitationRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	savedRepo := postgres.NewSavedEventRepository(db)
	userRepo := postgres.NewUserRepository(db)

	jwtAuthority := auth.NewJWTAuthority(cfg.JWTSecret)
	hasher := auth.NewBcryptHasher(10)
	gateway := chapa.NewGateway(nil, cfg.ChapaAPIURL, cfg.ChapaSecretKey)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFrom,
		FromName:    "Meda",
		SES: email.SESConfig{
			Region:          cfg.AWSRegion,
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		},
	}, logger)
	if err != nil {
		logger.Error("create mailer", "err", err)
		os.Exit(1)
	}

	emailSvc := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)
	authSvc := services.NewAuthService(userRepo, hasher, jwtAuthority, cfg.TokenExpiry)
	eventSvc := services.NewEventService(eventRepo, attendeeRepo)
	registrationSvc := services.NewRegistrationService(eventRepo, attendeeRepo, userRepo, emailSvc, logger)
	sharingSvc := services.NewSharingService(invitationRepo, eventRepo, attendeeRepo, logger)
	paymentSvc := services.NewPaymentService(paymentRepo, eventRepo, attendeeRepo, userRepo, gateway, emailSvc, logger)
	savedSvc := services.NewSavedEventService(savedRepo, eventRepo)
	adminSvc := services.NewAdminService(userRepo, eventRepo, attendeeRepo)

	mux := httpdelivery.NewRouter(httpdelivery.Controllers{
		Auth:          controllers.NewAuthController(logger, authSvc),
		Events:        controllers.NewEventController(logger, eventSvc),
		Registrations: controllers.NewRegistrationController(logger, registrationSvc),
		Sharing:       controllers.NewSharingController(logger, cfg.PublicBaseURL, sharingSvc),
		Payments:      controllers.NewPaymentController(logger, cfg.PublicBaseURL, paymentSvc),
		Profile:       controllers.NewProfileController(logger, eventSvc, registrationSvc, savedSvc),
		Admin:         controllers.NewAdminController(logger, adminSvc, eventSvc),
	}, jwtAuthority)

	var allowedOrigins []string
	if cfg.CORSAllowedOrigins != "" {
		allowedOrigins = strings.Split(cfg.CORSAllowedOrigins, ",")
	}
	handler := middleware.CORS(allowedOrigins, middleware.LoggingMiddleware(logger, mux))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "err", err)
	}
	logger.Info("server stopped")
}
