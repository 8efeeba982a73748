package stats

import (
	"sort"

	"github.com/dariogeorge21/prayer-collector/internal/domain"
)

// day is one distinct calendar date and whether anything was done on it
type day struct {
	date   domain.Date
	active bool
}

// distinctDays collapses entries to one record per date. A date is active if
// any entry for it has activity.
func distinctDays(entries []domain.DailyEntry) []day {
	index := make(map[string]int, len(entries))
	days := make([]day, 0, len(entries))
	for _, e := range entries {
		key := e.EntryDate.String()
		if i, ok := index[key]; ok {
			days[i].active = days[i].active || HasActivity(e)
			continue
		}
		index[key] = len(days)
		days = append(days, day{date: e.EntryDate, active: HasActivity(e)})
	}
	return days
}

// CurrentStreak counts consecutive active days ending today, or ending
// yesterday when the most recent entry is from yesterday.
func CurrentStreak(entries []domain.DailyEntry, today domain.Date) int {
	days := distinctDays(entries)
	if len(days) == 0 {
		return 0
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].date.After(days[j].date)
	})

	var expected domain.Date
	switch yesterday := today.AddDays(-1); {
	case days[0].date.Equal(today):
		expected = today
	case days[0].date.Equal(yesterday):
		expected = yesterday
	default:
		return 0
	}

	streak := 0
	for _, d := range days {
		if d.date.Equal(expected) && d.active {
			streak++
			expected = expected.AddDays(-1)
			continue
		}
		if d.date.Before(expected) {
			break
		}
	}
	return streak
}

// LongestStreak returns the longest run of consecutive active days in the
// whole history.
func LongestStreak(entries []domain.DailyEntry) int {
	days := distinctDays(entries)
	active := days[:0]
	for _, d := range days {
		if d.active {
			active = append(active, d)
		}
	}
	if len(active) == 0 {
		return 0
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].date.Before(active[j].date)
	})

	longest, run := 1, 1
	for i := 1; i < len(active); i++ {
		if active[i-1].date.DaysUntil(active[i].date) == 1 {
			run++
			longest = max(longest, run)
		} else {
			run = 1
		}
	}
	return longest
}

// ComputeStreaks returns both streaks for one user's history
func ComputeStreaks(entries []domain.DailyEntry, today domain.Date) domain.StreakResult {
	return domain.StreakResult{
		Current: CurrentStreak(entries, today),
		Longest: LongestStreak(entries),
	}
}
