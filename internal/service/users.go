package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dariogeorge21/prayer-collector/internal/domain"
	"github.com/dariogeorge21/prayer-collector/internal/stats"
)

// CreateUser validates and registers a new user
func (s *Service) CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if err := s.validator.ValidateUser(&req); err != nil {
		return nil, err
	}
	user := s.newUser(req, false)

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created", "user_id", user.ID)
	s.refreshAfterWrite(ctx)
	return &user, nil
}

func (s *Service) newUser(req domain.CreateUserRequest, isAdmin bool) domain.User {
	user := domain.User{
		ID:        uuid.NewString(),
		Name:      req.Name,
		IsAdmin:   isAdmin,
		CreatedAt: s.now().UTC(),
	}
	if req.Email != "" {
		email := req.Email
		user.Email = &email
	}
	return user
}

// EnsureAdmin makes sure a user with the given name exists and is an admin
func (s *Service) EnsureAdmin(ctx context.Context, name string) (*domain.User, error) {
	existing, err := s.store.GetUserByName(ctx, name)
	switch {
	case err == nil:
		if !existing.IsAdmin {
			if err := s.store.SetAdmin(ctx, existing.ID, true); err != nil {
				return nil, fmt.Errorf("promoting admin: %w", err)
			}
			existing.IsAdmin = true
		}
		return existing, nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("looking up admin: %w", err)
	}

	req := domain.CreateUserRequest{Name: name}
	if err := s.validator.ValidateUser(&req); err != nil {
		return nil, err
	}
	user := s.newUser(req, true)
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("creating admin: %w", err)
	}
	s.logger.Info("admin user created", "user_id", user.ID)
	return &user, nil
}

// GetUser returns a user by ID
func (s *Service) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.store.GetUser(ctx, userID)
}

// ListUsers returns users ordered by name, optionally filtered by a
// case-insensitive name search
func (s *Service) ListUsers(ctx context.Context, query string) ([]domain.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return stats.FilterUsers(users, query), nil
}

// DeleteUser removes a user and their entries
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("user deleted", "user_id", userID)
	s.refreshAfterWrite(ctx)
	return nil
}
