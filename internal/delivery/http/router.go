package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"meda/internal/delivery/http/controllers"
	"meda/internal/delivery/http/middleware"
	"meda/internal/domain"
)

// Controllers bundles the controllers the router wires up.
type Controllers struct {
	Auth          *controllers.AuthController
	Events        *controllers.EventController
	Registrations *controllers.RegistrationController
	Sharing       *controllers.SharingController
	Payments      *controllers.PaymentController
	Profile       *controllers.ProfileController
	Admin         *controllers.AdminController
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(c Controllers, verifier domain.TokenVerifier) *http.ServeMux {
	mux := http.NewServeMux()

	auth := middleware.RequireAuth(verifier)
	optional := middleware.OptionalAuth(verifier)
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return auth(middleware.RequireAdmin(h))
	}

	// Auth
	mux.HandleFunc("POST /auth/signup", c.Auth.SignUp)
	mux.HandleFunc("POST /auth/login", c.Auth.Login)

	// Events
	mux.HandleFunc("GET /events", c.Events.List)
	mux.HandleFunc("POST /events", auth(c.Events.Create))
	mux.HandleFunc("GET /events/{eventID}", optional(c.Events.Get))
	mux.HandleFunc("PATCH /events/{eventID}", auth(c.Events.Update))
	mux.HandleFunc("DELETE /events/{eventID}", auth(c.Events.Delete))

	// Registrations
	mux.HandleFunc("POST /events/{eventID}/registrations", auth(c.Registrations.Register))
	mux.HandleFunc("DELETE /events/{eventID}/registrations", auth(c.Registrations.Cancel))

	// Profile
	mux.HandleFunc("GET /profile/events", auth(c.Profile.MyEvents))
	mux.HandleFunc("GET /profile/registered-events", auth(c.Profile.MyRegisteredEvents))
	mux.HandleFunc("GET /profile/saved-events", auth(c.Profile.MySavedEvents))
	mux.HandleFunc("POST /profile/saved-events", auth(c.Profile.SaveEvent))
	mux.HandleFunc("DELETE /profile/saved-events/{eventID}", auth(c.Profile.UnsaveEvent))

	// Ticket sharing
	mux.HandleFunc("POST /tickets/share", auth(c.Sharing.CreateShareLink))
	mux.HandleFunc("GET /tickets/share/{token}", c.Sharing.GetShareLink)
	mux.HandleFunc("POST /tickets/share/{token}/claim", auth(c.Sharing.ClaimShareLink))
	mux.HandleFunc("POST /tickets/share/{token}/revoke", auth(c.Sharing.RevokeShareLink))

	// Payments
	mux.HandleFunc("POST /payments/chapa/checkout", auth(c.Payments.Checkout))
	mux.HandleFunc("GET /payments/chapa/confirm", auth(c.Payments.Confirm))

	// Admin
	mux.HandleFunc("GET /admin/stats", admin(c.Admin.Stats))
	mux.HandleFunc("GET /admin/events", admin(c.Admin.ListEvents))
	mux.HandleFunc("GET /admin/events/{eventID}", admin(c.Events.Get))
	mux.HandleFunc("PATCH /admin/events/{eventID}", admin(c.Events.Update))
	mux.HandleFunc("DELETE /admin/events/{eventID}", admin(c.Events.Delete))
	mux.HandleFunc("GET /admin/users", admin(c.Admin.ListUsers))
	mux.HandleFunc("PATCH /admin/users/{userID}/ban", admin(c.Admin.BanUser))
	mux.HandleFunc("PATCH /admin/users/{userID}/role", admin(c.Admin.SetUserRole))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
