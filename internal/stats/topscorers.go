package stats

import (
	"sort"

	"github.com/dariogeorge21/prayer-collector/internal/domain"
)

// TopScorerLimit is the length of each top-scorer list
const TopScorerLimit = 5

// unknownName labels weekly activity from a user missing from the user set
const unknownName = "Unknown"

type candidate struct {
	userID string
	name   string
	value  int
}

// topN sorts candidates by value, highest first, keeping encounter order for
// ties, and ranks the first n.
func topN(candidates []candidate, n int) []domain.TopScorer {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].value > candidates[j].value
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]domain.TopScorer, len(candidates))
	for i, c := range candidates {
		out[i] = domain.TopScorer{
			UserID: c.userID,
			Name:   c.name,
			Value:  c.value,
			Rank:   i + 1,
		}
	}
	return out
}

// SelectTopScorers builds the three top-5 lists: longest current streak,
// most all-time prayer minutes, and highest score since Monday.
func SelectTopScorers(users []domain.User, entries []domain.DailyEntry, today domain.Date) domain.TopScorers {
	groups := GroupByUser(entries)

	consistent := make([]candidate, 0, len(users))
	prayerTime := make([]candidate, 0, len(users))
	for _, u := range users {
		userEntries := groups[u.ID]
		if streak := CurrentStreak(userEntries, today); streak > 0 {
			consistent = append(consistent, candidate{userID: u.ID, name: u.Name, value: streak})
		}
		prayerTime = append(prayerTime, candidate{
			userID: u.ID,
			name:   u.Name,
			value:  ComputeStats(userEntries).TotalPrayerMinutes,
		})
	}

	return domain.TopScorers{
		MostConsistent:     topN(consistent, TopScorerLimit),
		MostPrayerTime:     topN(prayerTime, TopScorerLimit),
		MostActiveThisWeek: topN(weeklyCandidates(users, entries, today), TopScorerLimit),
	}
}

// weeklyCandidates scores each user's entries from Monday through today,
// in first-encounter order.
func weeklyCandidates(users []domain.User, entries []domain.DailyEntry, today domain.Date) []candidate {
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	index := make(map[string]int)
	var weekly []candidate
	for _, e := range FilterRange(entries, WeekStart(today), today) {
		i, ok := index[e.UserID]
		if !ok {
			name, known := names[e.UserID]
			if !known {
				name = unknownName
			}
			i = len(weekly)
			index[e.UserID] = i
			weekly = append(weekly, candidate{userID: e.UserID, name: name})
		}
		weekly[i].value += Score(e)
	}
	return weekly
}
