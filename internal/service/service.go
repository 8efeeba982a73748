package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/dariogeorge21/prayer-collector/internal/config"
	"github.com/dariogeorge21/prayer-collector/internal/domain"
	"github.com/dariogeorge21/prayer-collector/internal/stats"
	"github.com/dariogeorge21/prayer-collector/internal/validation"
)

// Store is the persistent user and entry storage
type Store interface {
	CreateUser(ctx context.Context, user domain.User) error
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	GetUserByName(ctx context.Context, name string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	SetAdmin(ctx context.Context, userID string, isAdmin bool) error
	DeleteUser(ctx context.Context, userID string) error
	CountUsers(ctx context.Context) (int, error)

	UpsertEntry(ctx context.Context, entry domain.DailyEntry) (*domain.DailyEntry, error)
	BatchUpsertEntries(ctx context.Context, entries []domain.DailyEntry) ([]domain.DailyEntry, error)
	GetEntry(ctx context.Context, userID string, date domain.Date) (*domain.DailyEntry, error)
	ListUserEntries(ctx context.Context, userID string) ([]domain.DailyEntry, error)
	ListEntriesBetween(ctx context.Context, from, to domain.Date) ([]domain.DailyEntry, error)
	ListAllEntries(ctx context.Context) ([]domain.DailyEntry, error)
}

// Cache holds computed snapshots. Getters return domain.ErrCacheMiss when a
// snapshot is absent or expired.
type Cache interface {
	SetLeaderboard(ctx context.Context, board []domain.LeaderboardEntry, ttl time.Duration) error
	GetLeaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error)
	UserRank(ctx context.Context, userID string) (int, int, error)
	SetTopScorers(ctx context.Context, ts domain.TopScorers, ttl time.Duration) error
	GetTopScorers(ctx context.Context) (*domain.TopScorers, error)
	SetAdminStats(ctx context.Context, s domain.AdminStats, ttl time.Duration) error
	GetAdminStats(ctx context.Context) (*domain.AdminStats, error)
	Invalidate(ctx context.Context) error
}

// Broadcaster pushes refreshed snapshots to connected clients
type Broadcaster interface {
	BroadcastLeaderboard(board []domain.LeaderboardEntry)
	BroadcastTopScorers(ts domain.TopScorers)
}

// Service provides the prayer tracker's business operations
type Service struct {
	store       Store
	cache       Cache
	broadcaster Broadcaster
	validator   *validation.Validator
	config      *config.LeaderboardConfig
	loc         *time.Location
	now         func() time.Time
	logger      *slog.Logger
}

// New creates a new service. loc is the zone in which calendar days are
// counted; nil means UTC.
func New(
	store Store,
	cache Cache,
	validator *validation.Validator,
	cfg *config.LeaderboardConfig,
	loc *time.Location,
	logger *slog.Logger,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:     store,
		cache:     cache,
		validator: validator,
		config:    cfg,
		loc:       loc,
		now:       time.Now,
		logger:    logger,
	}
}

// SetBroadcaster attaches the push channel used after each refresh
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetClock replaces the wall clock
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Today returns the current calendar day in the configured zone
func (s *Service) Today() domain.Date {
	return stats.Today(s.now(), s.loc)
}

// paginate clamps page and size and returns the slice bounds for n items
func (s *Service) paginate(n, page, size int) (from, to, outPage, outSize, pages int) {
	if size <= 0 {
		size = s.config.HistoryPageSize
	}
	if size > s.config.MaxPageSize {
		size = s.config.MaxPageSize
	}
	if page < 1 {
		page = 1
	}
	pages = (n + size - 1) / size

	from = min((page-1)*size, n)
	to = min(from+size, n)
	return from, to, page, size, pages
}
