package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/dariogeorge21/prayer-collector/internal/domain"
	"github.com/dariogeorge21/prayer-collector/internal/stats"
)

// UserQuery selects, orders and pages the admin user table
type UserQuery struct {
	Search     string
	Sort       string
	Descending bool
	Page       int
	PageSize   int
}

// AdminStats returns group-wide totals for today and the current month
func (s *Service) AdminStats(ctx context.Context) (*domain.AdminStats, error) {
	cached, err := s.cache.GetAdminStats(ctx)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		s.logger.Warn("admin stats cache unavailable, recomputing", "error", err)
	}

	today := s.Today()
	var (
		userCount int
		entries   []domain.DailyEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.CountUsers(gctx)
		if err != nil {
			return err
		}
		userCount = n
		return nil
	})
	g.Go(func() error {
		e, err := s.store.ListEntriesBetween(gctx, stats.MonthStart(today), today)
		if err != nil {
			return err
		}
		entries = e
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading admin stats: %w", err)
	}

	totals := stats.AdminTotals(userCount, entries, today)
	if err := s.cache.SetAdminStats(ctx, totals, s.config.AdminStatsTTL); err != nil {
		s.logger.Warn("failed to cache admin stats", "error", err)
	}
	return &totals, nil
}

func (s *Service) userRows(ctx context.Context, search string) ([]domain.UserWithStats, error) {
	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	users := stats.FilterUsers(snap.users, search)
	return stats.UsersWithStats(users, stats.SummarizeAll(users, snap.entries, snap.today)), nil
}

// AdminUsers returns a sorted, filtered page of users with their activity
// totals
func (s *Service) AdminUsers(ctx context.Context, q UserQuery) (*domain.UserPage, error) {
	rows, err := s.userRows(ctx, q.Search)
	if err != nil {
		return nil, err
	}
	stats.SortUsers(rows, stats.ParseUserSortField(q.Sort), q.Descending)

	from, to, page, size, pages := s.paginate(len(rows), q.Page, q.PageSize)
	return &domain.UserPage{
		Users:      rows[from:to],
		TotalCount: len(rows),
		Page:       page,
		PageSize:   size,
		TotalPages: pages,
	}, nil
}

// ExportUsers writes every user with their totals as CSV, ordered by name
func (s *Service) ExportUsers(ctx context.Context, w io.Writer) error {
	rows, err := s.userRows(ctx, "")
	if err != nil {
		return err
	}
	stats.SortUsers(rows, stats.SortByName, false)
	if err := stats.WriteUsersCSV(w, rows); err != nil {
		return fmt.Errorf("exporting users: %w", err)
	}
	return nil
}
