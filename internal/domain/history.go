package domain

// HistoryPage is one page of a user's history plus their all-time stats
type HistoryPage struct {
	User       User         `json:"user"`
	Range      string       `json:"range"`
	Entries    []DailyEntry `json:"entries"`
	TotalCount int          `json:"total_count"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalPages int          `json:"total_pages"`
	Stats      HistoryStats `json:"stats"`
}

// UserPage is one page of the admin user table
type UserPage struct {
	Users      []UserWithStats `json:"users"`
	TotalCount int             `json:"total_count"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// UserRank is a user's position on the leaderboard
type UserRank struct {
	UserID     string `json:"user_id"`
	Rank       int    `json:"rank"`
	TotalUsers int    `json:"total_users"`
}
