package domain

// Status is a day's completion classification
type Status string

const (
	StatusComplete Status = "complete"
	StatusPartial  Status = "partial"
	StatusMinimal  Status = "minimal"
)

// Stats summarizes a set of daily entries
type Stats struct {
	TotalDays          int `json:"total_days"`
	RosaryCount        int `json:"rosary_count"`
	MassCount          int `json:"mass_count"`
	TotalPrayerMinutes int `json:"total_prayer_minutes"`
	RosaryPercentage   int `json:"rosary_percentage"`
	MassPercentage     int `json:"mass_percentage"`
	CompleteDays       int `json:"complete_days"`
	CompletePercentage int `json:"complete_percentage"`
}

// StreakResult holds current and longest consecutive-day streaks
type StreakResult struct {
	Current int `json:"current_streak"`
	Longest int `json:"longest_streak"`
}

// HistoryStats is the all-time summary shown alongside a user's history
type HistoryStats struct {
	Stats
	StreakResult
	PrayerTimeLabel string `json:"prayer_time_label"`
}

// UserSummary holds the per-user aggregates the leaderboard is ranked on
type UserSummary struct {
	UserID             string  `json:"user_id"`
	Name               string  `json:"name"`
	TotalDaysLogged    int     `json:"total_days_logged"`
	RosaryDays         int     `json:"rosary_days"`
	MassDays           int     `json:"mass_days"`
	TotalPrayerMinutes int     `json:"total_prayer_minutes"`
	AvgPrayerMinutes   float64 `json:"avg_prayer_minutes"`
	TotalScore         int     `json:"total_score"`
	LastActivityDate   *Date   `json:"last_activity_date"`
	CurrentStreak      int     `json:"current_streak"`
	PrayerTimeLabel    string  `json:"prayer_time_label"`
}

// LastActiveLabel returns the last activity date, or "Never"
func (s UserSummary) LastActiveLabel() string {
	if s.LastActivityDate == nil {
		return "Never"
	}
	return s.LastActivityDate.String()
}

// LeaderboardEntry represents a single ranked row in the leaderboard
type LeaderboardEntry struct {
	UserSummary
	Rank int `json:"rank"`
}

// Leaderboard is the ranked board plus the requesting user's position
type Leaderboard struct {
	Entries         []LeaderboardEntry `json:"entries"`
	CurrentUser     *LeaderboardEntry  `json:"current_user,omitempty"`
	CurrentUserRank int                `json:"current_user_rank,omitempty"`
	TotalUsers      int                `json:"total_users"`
}

// TopScorer is one row of a top-5 category
type TopScorer struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Value  int    `json:"value"`
	Rank   int    `json:"rank"`
}

// TopScorers groups the three independently ranked categories
type TopScorers struct {
	MostConsistent     []TopScorer `json:"most_consistent"`
	MostPrayerTime     []TopScorer `json:"most_prayer_time"`
	MostActiveThisWeek []TopScorer `json:"most_active_this_week"`
}

// AdminStats contains group-wide totals for the admin dashboard
type AdminStats struct {
	TotalUsers             int `json:"total_users"`
	ActiveUsersToday       int `json:"active_users_today"`
	RosariesThisMonth      int `json:"rosaries_this_month"`
	MassesThisMonth        int `json:"masses_this_month"`
	PrayerHoursThisMonth   int `json:"prayer_hours_this_month"`
	PrayerMinutesThisMonth int `json:"prayer_minutes_this_month"`
}

// UserWithStats is a row of the admin user table
type UserWithStats struct {
	User
	TotalEntries       int   `json:"total_entries"`
	LastActiveDate     *Date `json:"last_active_date"`
	TotalRosaries      int   `json:"total_rosaries"`
	TotalMasses        int   `json:"total_masses"`
	TotalPrayerMinutes int   `json:"total_prayer_minutes"`
	CurrentStreak      int   `json:"current_streak"`
}

// LastActiveLabel returns the last active date, or "Never"
func (u UserWithStats) LastActiveLabel() string {
	if u.LastActiveDate == nil {
		return "Never"
	}
	return u.LastActiveDate.String()
}
