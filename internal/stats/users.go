package stats

import (
	"sort"
	"strings"

	"github.com/dariogeorge21/prayer-collector/internal/domain"
)

// UserSortField names a sortable admin table column
type UserSortField string

const (
	SortByName               UserSortField = "name"
	SortByTotalEntries       UserSortField = "total_entries"
	SortByLastActiveDate     UserSortField = "last_active_date"
	SortByTotalRosaries      UserSortField = "total_rosaries"
	SortByTotalMasses        UserSortField = "total_masses"
	SortByTotalPrayerMinutes UserSortField = "total_prayer_minutes"
	SortByCurrentStreak      UserSortField = "current_streak"
)

// ParseUserSortField defaults unknown values to name
func ParseUserSortField(s string) UserSortField {
	switch f := UserSortField(s); f {
	case SortByTotalEntries, SortByLastActiveDate, SortByTotalRosaries,
		SortByTotalMasses, SortByTotalPrayerMinutes, SortByCurrentStreak:
		return f
	default:
		return SortByName
	}
}

// UsersWithStats joins users with their summaries, in user order
func UsersWithStats(users []domain.User, summaries []domain.UserSummary) []domain.UserWithStats {
	byID := make(map[string]domain.UserSummary, len(summaries))
	for _, s := range summaries {
		byID[s.UserID] = s
	}
	rows := make([]domain.UserWithStats, 0, len(users))
	for _, u := range users {
		s := byID[u.ID]
		rows = append(rows, domain.UserWithStats{
			User:               u,
			TotalEntries:       s.TotalDaysLogged,
			LastActiveDate:     s.LastActivityDate,
			TotalRosaries:      s.RosaryDays,
			TotalMasses:        s.MassDays,
			TotalPrayerMinutes: s.TotalPrayerMinutes,
			CurrentStreak:      s.CurrentStreak,
		})
	}
	return rows
}

// SortUsers orders admin rows in place. Users who were never active sort
// last when ascending and first when descending.
func SortUsers(rows []domain.UserWithStats, field UserSortField, descending bool) {
	cmp := func(a, b domain.UserWithStats) int {
		switch field {
		case SortByTotalEntries:
			return a.TotalEntries - b.TotalEntries
		case SortByTotalRosaries:
			return a.TotalRosaries - b.TotalRosaries
		case SortByTotalMasses:
			return a.TotalMasses - b.TotalMasses
		case SortByTotalPrayerMinutes:
			return a.TotalPrayerMinutes - b.TotalPrayerMinutes
		case SortByCurrentStreak:
			return a.CurrentStreak - b.CurrentStreak
		case SortByLastActiveDate:
			return b.LastActiveDate.DaysUntil(*a.LastActiveDate)
		default:
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if field == SortByLastActiveDate && (a.LastActiveDate == nil || b.LastActiveDate == nil) {
			if a.LastActiveDate == nil && b.LastActiveDate == nil {
				return false
			}
			// a nil sorts after b when ascending
			if a.LastActiveDate == nil {
				return descending
			}
			return !descending
		}
		c := cmp(a, b)
		if descending {
			return c > 0
		}
		return c < 0
	})
}

// FilterUsers keeps users whose name contains query, case-insensitively
func FilterUsers(users []domain.User, query string) []domain.User {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return users
	}
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Name), query) {
			out = append(out, u)
		}
	}
	return out
}
