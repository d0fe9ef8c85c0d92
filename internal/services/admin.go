package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"meda/internal/domain"
)

type adminService struct {
	userRepo     domain.UserRepository
	eventRepo    domain.EventRepository
	attendeeRepo domain.AttendeeRepository
}

// NewAdminService creates the admin dashboard and moderation service.
func NewAdminService(
	userRepo domain.UserRepository,
	eventRepo domain.EventRepository,
	attendeeRepo domain.AttendeeRepository,
) domain.AdminService {
	return &adminService{
		userRepo:     userRepo,
		eventRepo:    eventRepo,
		attendeeRepo: attendeeRepo,
	}
}

func (s *adminService) Stats(ctx context.Context) (*domain.AdminStats, error) {
	stats := &domain.AdminStats{}
	now := time.Now()
	weekAgo := now.AddDate(0, 0, -7)
	monthAgo := now.AddDate(0, 0, -30)

	var err error
	if stats.TotalUsers, err = s.userRepo.CountAll(ctx); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if stats.TotalEvents, err = s.eventRepo.CountAll(ctx); err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	if stats.TotalRegistrations, err = s.attendeeRepo.CountAll(ctx); err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	if stats.RecurringSeries, err = s.eventRepo.CountSeries(ctx); err != nil {
		return nil, fmt.Errorf("count series: %w", err)
	}
	if stats.EventsLast7Days, err = s.eventRepo.CountCreatedSince(ctx, weekAgo); err != nil {
		return nil, fmt.Errorf("count recent events: %w", err)
	}
	if stats.EventsLast30Days, err = s.eventRepo.CountCreatedSince(ctx, monthAgo); err != nil {
		return nil, fmt.Errorf("count recent events: %w", err)
	}
	if stats.RegistrationsLast7Days, err = s.attendeeRepo.CountCreatedSince(ctx, weekAgo); err != nil {
		return nil, fmt.Errorf("count recent registrations: %w", err)
	}
	if stats.RegistrationsLast30Days, err = s.attendeeRepo.CountCreatedSince(ctx, monthAgo); err != nil {
		return nil, fmt.Errorf("count recent registrations: %w", err)
	}
	return stats, nil
}

func (s *adminService) ListUsers(ctx context.Context, search string, params domain.PaginationParams) ([]*domain.User, int, error) {
	users, total, err := s.userRepo.List(ctx, search, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

func (s *adminService) SetUserBan(ctx context.Context, userID string, banned bool, reason string) error {
	var reasonPtr *string
	if banned {
		if r := strings.TrimSpace(reason); r != "" {
			reasonPtr = &r
		}
	}
	if err := s.userRepo.SetBanned(ctx, userID, banned, reasonPtr); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("set banned: %w", err)
	}
	return nil
}

func (s *adminService) SetUserRole(ctx context.Context, userID, role string) error {
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	if err := s.userRepo.SetRole(ctx, userID, role); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("set role: %w", err)
	}
	return nil
}
