package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dariogeorge21/prayer-collector/internal/domain"
	"github.com/dariogeorge21/prayer-collector/internal/stats"
)

// snapshot is the raw data every derived view is computed from
type snapshot struct {
	users   []domain.User
	entries []domain.DailyEntry
	today   domain.Date
}

func (s *Service) loadSnapshot(ctx context.Context) (*snapshot, error) {
	snap := &snapshot{today: s.Today()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		users, err := s.store.ListUsers(gctx)
		if err != nil {
			return fmt.Errorf("loading users: %w", err)
		}
		snap.users = users
		return nil
	})
	g.Go(func() error {
		entries, err := s.store.ListAllEntries(gctx)
		if err != nil {
			return fmt.Errorf("loading entries: %w", err)
		}
		snap.entries = entries
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func (snap *snapshot) leaderboard() []domain.LeaderboardEntry {
	return stats.RankLeaderboard(stats.SummarizeAll(snap.users, snap.entries, snap.today))
}

func (snap *snapshot) topScorers() domain.TopScorers {
	return stats.SelectTopScorers(snap.users, snap.entries, snap.today)
}

func (snap *snapshot) adminStats() domain.AdminStats {
	return stats.AdminTotals(len(snap.users), snap.entries, snap.today)
}

// board returns the ranked leaderboard from cache, recomputing on a miss
func (s *Service) board(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	board, err := s.cache.GetLeaderboard(ctx)
	if err == nil {
		return board, nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		s.logger.Warn("leaderboard cache unavailable, recomputing", "error", err)
	}

	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	board = snap.leaderboard()
	if err := s.cache.SetLeaderboard(ctx, board, s.config.LeaderboardTTL); err != nil {
		s.logger.Warn("failed to cache leaderboard", "error", err)
	}
	return board, nil
}

// Leaderboard returns the ranked board. When userID is set, that user's row
// and rank are attached.
func (s *Service) Leaderboard(ctx context.Context, userID string) (*domain.Leaderboard, error) {
	board, err := s.board(ctx)
	if err != nil {
		return nil, err
	}

	lb := stats.BuildLeaderboard(board, userID)
	return &lb, nil
}

// UserRank returns one user's leaderboard position
func (s *Service) UserRank(ctx context.Context, userID string) (*domain.UserRank, error) {
	rank, total, err := s.cache.UserRank(ctx, userID)
	switch {
	case err == nil:
		return &domain.UserRank{UserID: userID, Rank: rank, TotalUsers: total}, nil
	case errors.Is(err, domain.ErrUserNotFound):
		return nil, err
	case !errors.Is(err, domain.ErrCacheMiss):
		s.logger.Warn("rank index unavailable, recomputing", "error", err)
	}

	board, err := s.board(ctx)
	if err != nil {
		return nil, err
	}
	entry, ok := stats.FindUser(board, userID)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &domain.UserRank{UserID: userID, Rank: entry.Rank, TotalUsers: len(board)}, nil
}

// TopScorers returns the three top-5 lists from cache, recomputing on a miss
func (s *Service) TopScorers(ctx context.Context) (*domain.TopScorers, error) {
	ts, err := s.cache.GetTopScorers(ctx)
	if err == nil {
		return ts, nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		s.logger.Warn("top scorers cache unavailable, recomputing", "error", err)
	}

	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	computed := snap.topScorers()
	if err := s.cache.SetTopScorers(ctx, computed, s.config.TopScorersTTL); err != nil {
		s.logger.Warn("failed to cache top scorers", "error", err)
	}
	return &computed, nil
}

// Refresh recomputes every snapshot from the store, caches them and pushes
// the leaderboard and top scorers to subscribers
func (s *Service) Refresh(ctx context.Context) error {
	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return err
	}

	board := snap.leaderboard()
	ts := snap.topScorers()
	totals := snap.adminStats()

	var errs []error
	if err := s.cache.SetLeaderboard(ctx, board, s.config.LeaderboardTTL); err != nil {
		errs = append(errs, err)
	}
	if err := s.cache.SetTopScorers(ctx, ts, s.config.TopScorersTTL); err != nil {
		errs = append(errs, err)
	}
	if err := s.cache.SetAdminStats(ctx, totals, s.config.AdminStatsTTL); err != nil {
		errs = append(errs, err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastLeaderboard(board)
		s.broadcaster.BroadcastTopScorers(ts)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("caching snapshots: %w", err)
	}

	s.logger.Debug("snapshots refreshed",
		"users", len(snap.users),
		"entries", len(snap.entries),
	)
	return nil
}

// refreshAfterWrite refreshes snapshots after a successful write. Failures
// are logged; if the refresh could not complete the stale snapshots are
// dropped instead.
func (s *Service) refreshAfterWrite(ctx context.Context) {
	err := s.Refresh(ctx)
	if err == nil {
		return
	}
	s.logger.Warn("refresh after write failed", "error", err)
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Error("failed to invalidate snapshots", "error", err)
	}
}
