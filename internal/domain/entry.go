package domain

import "time"

// Activity scoring weights
const (
	RosaryPoints      = 10
	HolyMassPoints    = 15
	PrayerMinutePoint = 1

	// MaxPrayerMinutes is one full day
	MaxPrayerMinutes = 1440
)

// DailyEntry is one user's recorded activity for one calendar date
type DailyEntry struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	EntryDate         Date      `json:"entry_date"`
	RosaryCompleted   bool      `json:"rosary_completed"`
	HolyMassAttended  bool      `json:"holy_mass_attended"`
	PrayerTimeMinutes int       `json:"prayer_time_minutes"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// EntryInput is the user-editable part of a daily entry
type EntryInput struct {
	RosaryCompleted   bool `json:"rosary_completed"`
	HolyMassAttended  bool `json:"holy_mass_attended"`
	PrayerTimeMinutes int  `json:"prayer_time_minutes" validate:"gte=0,lte=1440"`
}

// EntrySubmission is a save request arriving over HTTP or Kafka.
// A zero EntryDate means "today" in the server's configured time zone.
type EntrySubmission struct {
	UserID    string `json:"user_id" validate:"required"`
	EntryDate Date   `json:"entry_date,omitempty"`
	EntryInput
}

// BatchEntrySubmission groups several submissions
type BatchEntrySubmission struct {
	Entries []EntrySubmission `json:"entries"`
}
