package stats

import "github.com/dariogeorge21/prayer-collector/internal/domain"

func entry(userID, date string, rosary, mass bool, minutes int) domain.DailyEntry {
	return domain.DailyEntry{
		UserID:            userID,
		EntryDate:         domain.MustParseDate(date),
		RosaryCompleted:   rosary,
		HolyMassAttended:  mass,
		PrayerTimeMinutes: minutes,
	}
}

// activeRun returns n consecutive active entries ending on last
func activeRun(userID, last string, n int) []domain.DailyEntry {
	end := domain.MustParseDate(last)
	entries := make([]domain.DailyEntry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, entry(userID, end.AddDays(-i).String(), true, false, 0))
	}
	return entries
}
