package stats

import (
	"math"

	"github.com/dariogeorge21/prayer-collector/internal/domain"
)

// percentage returns round(count/total*100), or 0 for an empty total
func percentage(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}

// ComputeStats totals a set of entries
func ComputeStats(entries []domain.DailyEntry) domain.Stats {
	var s domain.Stats
	s.TotalDays = len(entries)
	for _, e := range entries {
		if e.RosaryCompleted {
			s.RosaryCount++
		}
		if e.HolyMassAttended {
			s.MassCount++
		}
		if e.PrayerTimeMinutes > 0 {
			s.TotalPrayerMinutes += e.PrayerTimeMinutes
		}
		if IsComplete(e) {
			s.CompleteDays++
		}
	}
	s.RosaryPercentage = percentage(s.RosaryCount, s.TotalDays)
	s.MassPercentage = percentage(s.MassCount, s.TotalDays)
	s.CompletePercentage = percentage(s.CompleteDays, s.TotalDays)
	return s
}

// ComputeHistoryStats combines totals and streaks for a full history
func ComputeHistoryStats(entries []domain.DailyEntry, today domain.Date) domain.HistoryStats {
	s := ComputeStats(entries)
	return domain.HistoryStats{
		Stats:           s,
		StreakResult:    ComputeStreaks(entries, today),
		PrayerTimeLabel: FormatPrayerTime(s.TotalPrayerMinutes),
	}
}

// Score weighs one entry: 10 for the rosary, 15 for Mass, 1 per prayer minute
func Score(e domain.DailyEntry) int {
	score := 0
	if e.RosaryCompleted {
		score += domain.RosaryPoints
	}
	if e.HolyMassAttended {
		score += domain.HolyMassPoints
	}
	if e.PrayerTimeMinutes > 0 {
		score += e.PrayerTimeMinutes * domain.PrayerMinutePoint
	}
	return score
}

// TotalScore sums Score over entries
func TotalScore(entries []domain.DailyEntry) int {
	total := 0
	for _, e := range entries {
		total += Score(e)
	}
	return total
}

// FilterRange keeps entries dated within [from, to], inclusive
func FilterRange(entries []domain.DailyEntry, from, to domain.Date) []domain.DailyEntry {
	out := make([]domain.DailyEntry, 0, len(entries))
	for _, e := range entries {
		if e.EntryDate.Before(from) || e.EntryDate.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// GroupByUser buckets entries by user ID, preserving their relative order
func GroupByUser(entries []domain.DailyEntry) map[string][]domain.DailyEntry {
	groups := make(map[string][]domain.DailyEntry)
	for _, e := range entries {
		groups[e.UserID] = append(groups[e.UserID], e)
	}
	return groups
}

// Summarize builds the leaderboard aggregates for one user's entries
func Summarize(user domain.User, entries []domain.DailyEntry, today domain.Date) domain.UserSummary {
	s := ComputeStats(entries)
	summary := domain.UserSummary{
		UserID:             user.ID,
		Name:               user.Name,
		TotalDaysLogged:    s.TotalDays,
		RosaryDays:         s.RosaryCount,
		MassDays:           s.MassCount,
		TotalPrayerMinutes: s.TotalPrayerMinutes,
		TotalScore:         TotalScore(entries),
		CurrentStreak:      CurrentStreak(entries, today),
		PrayerTimeLabel:    FormatPrayerTimeShort(s.TotalPrayerMinutes),
	}
	if s.TotalDays > 0 {
		avg := float64(s.TotalPrayerMinutes) / float64(s.TotalDays)
		summary.AvgPrayerMinutes = math.Round(avg*100) / 100
	}
	for _, e := range entries {
		if summary.LastActivityDate == nil || e.EntryDate.After(*summary.LastActivityDate) {
			d := e.EntryDate
			summary.LastActivityDate = &d
		}
	}
	return summary
}

// SummarizeAll summarizes every user in input order
func SummarizeAll(users []domain.User, entries []domain.DailyEntry, today domain.Date) []domain.UserSummary {
	groups := GroupByUser(entries)
	summaries := make([]domain.UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, Summarize(u, groups[u.ID], today))
	}
	return summaries
}

// AdminTotals computes the admin dashboard counters. Monthly figures cover
// the first of today's month through today.
func AdminTotals(userCount int, entries []domain.DailyEntry, today domain.Date) domain.AdminStats {
	stats := domain.AdminStats{TotalUsers: userCount}

	activeToday := make(map[string]struct{})
	monthStart := MonthStart(today)
	for _, e := range entries {
		if e.EntryDate.Equal(today) {
			activeToday[e.UserID] = struct{}{}
		}
		if e.EntryDate.Before(monthStart) || e.EntryDate.After(today) {
			continue
		}
		if e.RosaryCompleted {
			stats.RosariesThisMonth++
		}
		if e.HolyMassAttended {
			stats.MassesThisMonth++
		}
		if e.PrayerTimeMinutes > 0 {
			stats.PrayerMinutesThisMonth += e.PrayerTimeMinutes
		}
	}
	stats.ActiveUsersToday = len(activeToday)
	stats.PrayerHoursThisMonth = stats.PrayerMinutesThisMonth / 60
	return stats
}
