package services

import (
	"context"
	"testing"
	"time"

	"meda/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_SignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user and issues token", func(t *testing.T) {
		userRepo := &mockUserRepository{}
		svc := NewAuthService(userRepo, &mockHasher{}, &mockTokenIssuer{}, 24*time.Hour)

		session, err := svc.SignUp(ctx, "  Abel@Example.com ", "secret123", "Abel", "Tesfaye")
		require.NoError(t, err)
		assert.Equal(t, "Bearer", session.TokenType)
		assert.NotEmpty(t, session.Token)

		require.NotNil(t, userRepo.created)
		assert.Equal(t, "abel@example.com", userRepo.created.Email)
		assert.Equal(t, domain.RoleUser, userRepo.created.Role)
		assert.Equal(t, "salt", userRepo.created.Salt)
		assert.NotEqual(t, "secret123", userRepo.created.PasswordHash)
	})

	t.Run("duplicate email", func(t *testing.T) {
		userRepo := &mockUserRepository{createErr: domain.ErrDuplicateEmail}
		svc := NewAuthService(userRepo, &mockHasher{}, &mockTokenIssuer{}, 24*time.Hour)

		_, err := svc.SignUp(ctx, "abel@example.com", "secret123", "Abel", "Tesfaye")
		require.ErrorIs(t, err, domain.ErrDuplicateEmail)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	user := &domain.User{
		ID: "user-1", Email: "abel@example.com", Name: "Abel",
		PasswordHash: "hash", Salt: "salt", Role: domain.RoleUser,
	}

	t.Run("valid credentials", func(t *testing.T) {
		userRepo := &mockUserRepository{usersByMail: map[string]*domain.User{"abel@example.com": user}}
		svc := NewAuthService(userRepo, &mockHasher{}, &mockTokenIssuer{}, 24*time.Hour)

		session, err := svc.Login(ctx, "Abel@example.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, "user-1", session.User.ID)
		assert.Equal(t, "token-user-1-user", session.Token)
	})

	t.Run("unknown email maps to invalid credentials", func(t *testing.T) {
		svc := NewAuthService(&mockUserRepository{}, &mockHasher{}, &mockTokenIssuer{}, 24*time.Hour)
		_, err := svc.Login(ctx, "ghost@example.com", "secret123")
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		userRepo := &mockUserRepository{usersByMail: map[string]*domain.User{"abel@example.com": user}}
		svc := NewAuthService(userRepo, &mockHasher{compareErr: domain.ErrInvalidCredentials}, &mockTokenIssuer{}, 24*time.Hour)

		_, err := svc.Login(ctx, "abel@example.com", "wrong")
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("banned account", func(t *testing.T) {
		banned := *user
		banned.Banned = true
		userRepo := &mockUserRepository{usersByMail: map[string]*domain.User{"abel@example.com": &banned}}
		svc := NewAuthService(userRepo, &mockHasher{}, &mockTokenIssuer{}, 24*time.Hour)

		_, err := svc.Login(ctx, "abel@example.com", "secret123")
		require.ErrorIs(t, err, domain.ErrUserBanned)
	})
}

func TestAdminService(t *testing.T) {
	ctx := context.Background()
	userRepo := &mockUserRepository{users: map[string]*domain.User{
		"user-1": {ID: "user-1", Email: "abel@example.com"},
	}}
	svc := NewAdminService(userRepo, &mockEventRepository{}, &mockAttendeeRepository{})

	t.Run("ban with reason", func(t *testing.T) {
		require.NoError(t, svc.SetUserBan(ctx, "user-1", true, "spam listings"))
		assert.True(t, userRepo.banned["user-1"])
	})

	t.Run("ban unknown user", func(t *testing.T) {
		err := svc.SetUserBan(ctx, "ghost", true, "")
		require.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("role must be known", func(t *testing.T) {
		err := svc.SetUserRole(ctx, "user-1", "superuser")
		require.ErrorIs(t, err, domain.ErrInvalidInput)
		require.NoError(t, svc.SetUserRole(ctx, "user-1", domain.RoleAdmin))
		assert.Equal(t, domain.RoleAdmin, userRepo.roles["user-1"])
	})

	t.Run("stats aggregates counters", func(t *testing.T) {
		stats, err := svc.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.TotalUsers)
	})
}
