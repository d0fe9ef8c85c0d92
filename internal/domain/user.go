package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for user operations.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserBanned         = errors.New("account is banned")
)

// Application roles. Role lives directly on the user row.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered user.
// swagger:model User
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	Role         string    `json:"role"`
	Banned       bool      `json:"banned"`
	BanReason    *string   `json:"ban_reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PasswordHasher handles salt generation, hashing, and verification.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email, role string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated user ID and role.
type TokenVerifier interface {
	Verify(token string) (userID, role string, err error)
}

// UserRepository defines the interface for user storage.
type UserRepository interface {
	// Create inserts the user. Returns ErrDuplicateEmail when the email is taken.
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, search string, params PaginationParams) ([]*User, int, error)
	SetBanned(ctx context.Context, userID string, banned bool, reason *string) error
	SetRole(ctx context.Context, userID, role string) error
	CountAll(ctx context.Context) (int, error)
}

// AuthSession is an issued token together with the authenticated user.
type AuthSession struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	User      *User  `json:"user"`
}

// AuthService defines signup and login.
type AuthService interface {
	SignUp(ctx context.Context, email, password, name, lastName string) (*AuthSession, error)
	Login(ctx context.Context, email, password string) (*AuthSession, error)
}

// AdminStats is the admin dashboard summary.
type AdminStats struct {
	TotalUsers         int `json:"total_users"`
	TotalEvents        int `json:"total_events"`
	TotalRegistrations int `json:"total_registrations"`
	RecurringSeries    int `json:"recurring_series"`

	EventsLast7Days         int `json:"events_last_7_days"`
	EventsLast30Days        int `json:"events_last_30_days"`
	RegistrationsLast7Days  int `json:"registrations_last_7_days"`
	RegistrationsLast30Days int `json:"registrations_last_30_days"`
}

// AdminService defines admin-only operations on users and platform stats.
type AdminService interface {
	Stats(ctx context.Context) (*AdminStats, error)
	ListUsers(ctx context.Context, search string, params PaginationParams) ([]*User, int, error)
	SetUserBan(ctx context.Context, userID string, banned bool, reason string) error
	SetUserRole(ctx context.Context, userID, role string) error
}
