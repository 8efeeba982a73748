package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/dariogeorge21/prayer-collector/internal/domain"
	"github.com/dariogeorge21/prayer-collector/internal/stats"
)

// HistoryQuery selects a page of a user's history
type HistoryQuery struct {
	Range    string
	Page     int
	PageSize int
}

// prepareEntry validates a submission and turns it into a storable entry.
// A missing date means today; dates after today are rejected.
func (s *Service) prepareEntry(sub domain.EntrySubmission) (domain.DailyEntry, error) {
	if err := s.validator.ValidateEntry(sub); err != nil {
		return domain.DailyEntry{}, err
	}

	today := s.Today()
	date := sub.EntryDate
	if date.IsZero() {
		date = today
	}
	if date.After(today) {
		return domain.DailyEntry{}, fmt.Errorf("%w: %s is in the future", domain.ErrInvalidEntry, date)
	}

	now := s.now().UTC()
	return domain.DailyEntry{
		ID:                uuid.NewString(),
		UserID:            sub.UserID,
		EntryDate:         date,
		RosaryCompleted:   sub.RosaryCompleted,
		HolyMassAttended:  sub.HolyMassAttended,
		PrayerTimeMinutes: sub.PrayerTimeMinutes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// SaveEntry validates and upserts one day's entry, then refreshes snapshots
func (s *Service) SaveEntry(ctx context.Context, sub domain.EntrySubmission) (*domain.DailyEntry, error) {
	entry, err := s.prepareEntry(sub)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetUser(ctx, sub.UserID); err != nil {
		return nil, err
	}

	saved, err := s.store.UpsertEntry(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("saving entry: %w", err)
	}

	s.logger.Info("entry saved",
		"user_id", saved.UserID,
		"entry_date", saved.EntryDate.String(),
	)
	s.refreshAfterWrite(ctx)
	return saved, nil
}

// SaveEntries upserts a batch of submissions. Invalid submissions and
// submissions for unknown users are logged and skipped. Snapshots are
// refreshed once for the whole batch.
//
// The batch is written atomically, so a user deleted after the membership
// check fails every row. The rows are then retried one by one and only the
// orphaned ones are dropped.
func (s *Service) SaveEntries(ctx context.Context, subs []domain.EntrySubmission) (int, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading users: %w", err)
	}
	known := make(map[string]bool, len(users))
	for _, u := range users {
		known[u.ID] = true
	}

	entries := make([]domain.DailyEntry, 0, len(subs))
	for _, sub := range subs {
		entry, err := s.prepareEntry(sub)
		if err == nil && !known[sub.UserID] {
			err = domain.ErrUserNotFound
		}
		if err != nil {
			s.logger.Warn("skipping entry submission",
				"user_id", sub.UserID,
				"error", err,
			)
			continue
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	saved, err := s.store.BatchUpsertEntries(ctx, entries)
	if errors.Is(err, domain.ErrUserNotFound) {
		n, err := s.saveEachEntry(ctx, entries)
		if err != nil {
			return 0, err
		}
		if n > 0 {
			s.refreshAfterWrite(ctx)
		}
		return n, nil
	}
	if err != nil {
		return 0, fmt.Errorf("saving entry batch: %w", err)
	}

	s.refreshAfterWrite(ctx)
	return len(saved), nil
}

func (s *Service) saveEachEntry(ctx context.Context, entries []domain.DailyEntry) (int, error) {
	saved := 0
	for _, entry := range entries {
		_, err := s.store.UpsertEntry(ctx, entry)
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Warn("dropping entry for removed user",
				"user_id", entry.UserID,
				"entry_date", entry.EntryDate.String(),
			)
			continue
		}
		if err != nil {
			return saved, fmt.Errorf("saving entry: %w", err)
		}
		saved++
	}
	return saved, nil
}

// TodayEntry returns the user's entry for today, or an empty entry dated
// today when nothing has been saved yet
func (s *Service) TodayEntry(ctx context.Context, userID string) (*domain.DailyEntry, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	today := s.Today()
	entry, err := s.store.GetEntry(ctx, userID, today)
	if err != nil {
		return nil, fmt.Errorf("getting today's entry: %w", err)
	}
	if entry == nil {
		entry = &domain.DailyEntry{UserID: userID, EntryDate: today}
	}
	return entry, nil
}

// History returns one page of a user's entries inside the requested window,
// newest first, together with all-time stats and streaks
func (s *Service) History(ctx context.Context, userID string, q HistoryQuery) (*domain.HistoryPage, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	all, err := s.store.ListUserEntries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	filter := stats.ParseRangeFilter(q.Range)
	windowed := all
	if filter != stats.RangeAll {
		r := stats.ResolveRange(filter, s.now(), s.loc)
		windowed = make([]domain.DailyEntry, 0, len(all))
		for _, e := range all {
			if r.Contains(e.EntryDate) {
				windowed = append(windowed, e)
			}
		}
	}

	from, to, page, size, pages := s.paginate(len(windowed), q.Page, q.PageSize)
	return &domain.HistoryPage{
		User:       *user,
		Range:      string(filter),
		Entries:    windowed[from:to],
		TotalCount: len(windowed),
		Page:       page,
		PageSize:   size,
		TotalPages: pages,
		Stats:      stats.ComputeHistoryStats(all, s.Today()),
	}, nil
}

// ExportHistory writes the user's full history as CSV and returns the
// download file name
func (s *Service) ExportHistory(ctx context.Context, userID string, w io.Writer) (string, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	entries, err := s.store.ListUserEntries(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("loading history: %w", err)
	}
	if err := stats.WriteCSV(w, entries); err != nil {
		return "", fmt.Errorf("exporting history: %w", err)
	}
	return stats.HistoryFilename(user.Name), nil
}
