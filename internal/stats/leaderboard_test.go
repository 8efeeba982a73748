package stats

import (
	"testing"

	"github.com/dariogeorge21/prayer-collector/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankLeaderboard(t *testing.T) {
	summaries := []domain.UserSummary{
		{UserID: "a", TotalScore: 40},
		{UserID: "b", TotalScore: 90},
		{UserID: "c", TotalScore: 40},
		{UserID: "d", TotalScore: 0},
		{UserID: "e", TotalScore: 120},
	}

	board := RankLeaderboard(summaries)

	require.Len(t, board, 5)
	gotIDs := make([]string, len(board))
	for i, e := range board {
		gotIDs[i] = e.UserID
		assert.Equal(t, i+1, e.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, board[i-1].TotalScore, e.TotalScore)
		}
	}
	// a and c tie; a came first in the input
	assert.Equal(t, []string{"e", "b", "a", "c", "d"}, gotIDs)
	assert.Equal(t, "a", summaries[0].UserID, "input must not be reordered")
}

func TestRankLeaderboard_Empty(t *testing.T) {
	assert.Empty(t, RankLeaderboard(nil))
}

func TestFindUser(t *testing.T) {
	board := RankLeaderboard([]domain.UserSummary{
		{UserID: "a", TotalScore: 10},
		{UserID: "b", TotalScore: 20},
	})

	entry, ok := FindUser(board, "a")
	require.True(t, ok)
	assert.Equal(t, 2, entry.Rank)

	_, ok = FindUser(board, "missing")
	assert.False(t, ok)
}

func TestBuildLeaderboard(t *testing.T) {
	summaries := []domain.UserSummary{
		{UserID: "a", TotalScore: 10},
		{UserID: "b", TotalScore: 20},
	}

	board := RankLeaderboard(summaries)

	lb := BuildLeaderboard(board, "a")
	assert.Equal(t, 2, lb.TotalUsers)
	require.NotNil(t, lb.CurrentUser)
	assert.Equal(t, 2, lb.CurrentUserRank)

	lb = BuildLeaderboard(board, "")
	assert.Nil(t, lb.CurrentUser)
	assert.Zero(t, lb.CurrentUserRank)

	lb = BuildLeaderboard(board, "missing")
	assert.Nil(t, lb.CurrentUser)
	assert.Equal(t, 2, lb.TotalUsers)
}
