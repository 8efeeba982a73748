package stats

import "github.com/dariogeorge21/prayer-collector/internal/domain"

// HasActivity reports whether any of the three activities was recorded
func HasActivity(e domain.DailyEntry) bool {
	return e.RosaryCompleted || e.HolyMassAttended || e.PrayerTimeMinutes > 0
}

// IsComplete reports whether rosary, Mass and prayer time were all recorded
func IsComplete(e domain.DailyEntry) bool {
	return e.RosaryCompleted && e.HolyMassAttended && e.PrayerTimeMinutes > 0
}

// Classify labels an entry by how many of its three activities were done
func Classify(e domain.DailyEntry) domain.Status {
	done := 0
	if e.RosaryCompleted {
		done++
	}
	if e.HolyMassAttended {
		done++
	}
	if e.PrayerTimeMinutes > 0 {
		done++
	}

	switch {
	case done == 3:
		return domain.StatusComplete
	case done >= 1:
		return domain.StatusPartial
	default:
		return domain.StatusMinimal
	}
}
