package stats

import "fmt"

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// FormatPrayerTime renders minutes as e.g. "2 hours 5 minutes"
func FormatPrayerTime(minutes int) string {
	if minutes <= 0 {
		return "0 minutes"
	}
	if minutes < 60 {
		return plural(minutes, "minute")
	}
	hours, mins := minutes/60, minutes%60
	if mins == 0 {
		return plural(hours, "hour")
	}
	return plural(hours, "hour") + " " + plural(mins, "minute")
}

// FormatPrayerTimeShort renders minutes as e.g. "2h 5m"
func FormatPrayerTimeShort(minutes int) string {
	if minutes <= 0 {
		return "0m"
	}
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	hours, mins := minutes/60, minutes%60
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, mins)
}
