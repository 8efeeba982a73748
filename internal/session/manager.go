// Package session manages admin sessions: password login, token lookup,
// expiry checks and logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dariogeorge21/prayer-collector/internal/config"
	"github.com/dariogeorge21/prayer-collector/internal/domain"
)

// Store persists sessions by token
type Store interface {
	SaveSession(ctx context.Context, s domain.AdminSession, ttl time.Duration) error
	GetSession(ctx context.Context, token string) (*domain.AdminSession, error)
	DeleteSession(ctx context.Context, token string) error
}

// UserLookup resolves the user a session is issued for
type UserLookup interface {
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	FirstAdmin(ctx context.Context) (*domain.User, error)
}

// Result is the outcome of verifying a token
type Result struct {
	Valid   bool
	Session *domain.AdminSession
}

// Manager issues and verifies admin sessions
type Manager struct {
	store    Store
	users    UserLookup
	password string
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewManager creates a session manager. A nil clock means time.Now.
func NewManager(store Store, users UserLookup, cfg *config.AdminConfig, clock func() time.Time, logger *slog.Logger) *Manager {
	if clock == nil {
		clock = time.Now
	}
	return &Manager{
		store:    store,
		users:    users,
		password: cfg.Password,
		ttl:      cfg.SessionTTL,
		now:      clock,
		logger:   logger,
	}
}

// IsExpired reports whether s has passed its expiry at now
func IsExpired(s domain.AdminSession, now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Login checks the shared admin password and opens a session for the given
// user, or for the first admin when no user is named.
func (m *Manager) Login(ctx context.Context, req domain.AdminLoginRequest) (*domain.AdminSession, error) {
	if m.password == "" || req.Password != m.password {
		return nil, domain.ErrInvalidPassword
	}

	var (
		user *domain.User
		err  error
	)
	if req.UserID != "" {
		user, err = m.users.GetUser(ctx, req.UserID)
	} else {
		user, err = m.users.FirstAdmin(ctx)
	}
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin {
		return nil, domain.ErrNotAdmin
	}

	s := domain.AdminSession{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Name:      user.Name,
		IsAdmin:   true,
		ExpiresAt: m.now().Add(m.ttl),
	}
	if err := m.store.SaveSession(ctx, s, m.ttl); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}

	m.logger.Info("admin logged in", "user_id", user.ID)
	return &s, nil
}

// Verify looks up a token. Unknown or expired tokens produce an invalid
// Result rather than an error; errors are reserved for store failures.
func (m *Manager) Verify(ctx context.Context, token string) (Result, error) {
	if token == "" {
		return Result{}, nil
	}

	s, err := m.store.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("verifying session: %w", err)
	}

	if IsExpired(*s, m.now()) || !s.IsAdmin {
		if err := m.store.DeleteSession(ctx, token); err != nil {
			m.logger.Warn("failed to drop expired session", "error", err)
		}
		return Result{}, nil
	}
	return Result{Valid: true, Session: s}, nil
}

// Extend pushes a valid session's expiry a full TTL past now
func (m *Manager) Extend(ctx context.Context, token string) (*domain.AdminSession, error) {
	res, err := m.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return nil, domain.ErrSessionExpired
	}

	s := *res.Session
	s.ExpiresAt = m.now().Add(m.ttl)
	if err := m.store.SaveSession(ctx, s, m.ttl); err != nil {
		return nil, fmt.Errorf("extending session: %w", err)
	}
	return &s, nil
}

// Logout ends a session
func (m *Manager) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.store.DeleteSession(ctx, token)
}
