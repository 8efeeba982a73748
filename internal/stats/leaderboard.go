package stats

import (
	"sort"

	"github.com/dariogeorge21/prayer-collector/internal/domain"
)

// RankLeaderboard orders summaries by total score, highest first, and
// assigns 1-based ranks. Equal scores keep their input order.
func RankLeaderboard(summaries []domain.UserSummary) []domain.LeaderboardEntry {
	sorted := make([]domain.UserSummary, len(summaries))
	copy(sorted, summaries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalScore > sorted[j].TotalScore
	})

	board := make([]domain.LeaderboardEntry, len(sorted))
	for i, s := range sorted {
		board[i] = domain.LeaderboardEntry{
			UserSummary: s,
			Rank:        i + 1,
		}
	}
	return board
}

// FindUser returns a user's row from a ranked board
func FindUser(board []domain.LeaderboardEntry, userID string) (domain.LeaderboardEntry, bool) {
	for _, entry := range board {
		if entry.UserID == userID {
			return entry, true
		}
	}
	return domain.LeaderboardEntry{}, false
}

// BuildLeaderboard wraps a ranked board and attaches the requesting user's
// row when userID is on it
func BuildLeaderboard(board []domain.LeaderboardEntry, userID string) domain.Leaderboard {
	lb := domain.Leaderboard{
		Entries:    board,
		TotalUsers: len(board),
	}
	if userID != "" {
		if entry, ok := FindUser(board, userID); ok {
			lb.CurrentUser = &entry
			lb.CurrentUserRank = entry.Rank
		}
	}
	return lb
}
