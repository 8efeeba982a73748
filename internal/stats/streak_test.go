package stats

import (
	"testing"

	"github.com/dariogeorge21/prayer-collector/internal/domain"
	"github.com/stretchr/testify/assert"
)

var today = domain.MustParseDate("2024-03-10")

func TestCurrentStreak(t *testing.T) {
	tests := []struct {
		name    string
		entries []domain.DailyEntry
		want    int
	}{
		{
			name:    "no entries",
			entries: nil,
			want:    0,
		},
		{
			name:    "five days ending today",
			entries: activeRun("u", "2024-03-10", 5),
			want:    5,
		},
		{
			name:    "only yesterday",
			entries: []domain.DailyEntry{entry("u", "2024-03-09", false, false, 10)},
			want:    1,
		},
		{
			name:    "three days ending yesterday",
			entries: activeRun("u", "2024-03-09", 3),
			want:    3,
		},
		{
			name:    "most recent is two days ago",
			entries: activeRun("u", "2024-03-08", 4),
			want:    0,
		},
		{
			name: "gap breaks the chain",
			entries: []domain.DailyEntry{
				entry("u", "2024-03-10", true, false, 0),
				entry("u", "2024-03-09", true, false, 0),
				entry("u", "2024-03-07", true, false, 0),
				entry("u", "2024-03-06", true, false, 0),
			},
			want: 2,
		},
		{
			name: "inactive day breaks the chain",
			entries: []domain.DailyEntry{
				entry("u", "2024-03-10", true, false, 0),
				entry("u", "2024-03-09", false, false, 0),
				entry("u", "2024-03-08", true, false, 0),
			},
			want: 1,
		},
		{
			name: "unsorted input",
			entries: []domain.DailyEntry{
				entry("u", "2024-03-08", true, false, 0),
				entry("u", "2024-03-10", false, true, 0),
				entry("u", "2024-03-09", false, false, 30),
			},
			want: 3,
		},
		{
			name: "duplicate dates count once",
			entries: []domain.DailyEntry{
				entry("u", "2024-03-10", true, false, 0),
				entry("u", "2024-03-10", false, true, 0),
				entry("u", "2024-03-09", true, false, 0),
				entry("u", "2024-03-09", true, false, 0),
			},
			want: 2,
		},
		{
			name: "duplicate date with one active record is active",
			entries: []domain.DailyEntry{
				entry("u", "2024-03-10", false, false, 0),
				entry("u", "2024-03-10", true, false, 0),
				entry("u", "2024-03-09", true, false, 0),
			},
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CurrentStreak(tt.entries, today))
		})
	}
}

func TestCurrentStreak_Idempotent(t *testing.T) {
	entries := []domain.DailyEntry{
		entry("u", "2024-03-08", true, false, 0),
		entry("u", "2024-03-10", true, false, 0),
		entry("u", "2024-03-09", true, false, 0),
	}
	first := CurrentStreak(entries, today)
	second := CurrentStreak(entries, today)

	assert.Equal(t, first, second)
	assert.Equal(t, "2024-03-08", entries[0].EntryDate.String(), "input must not be reordered")
}

func TestLongestStreak(t *testing.T) {
	tests := []struct {
		name    string
		entries []domain.DailyEntry
		want    int
	}{
		{"no entries", nil, 0},
		{"no active entries", []domain.DailyEntry{entry("u", "2024-03-01", false, false, 0)}, 0},
		{"single active entry", []domain.DailyEntry{entry("u", "2024-01-01", true, false, 0)}, 1},
		{
			name: "longest run in the past",
			entries: append(
				activeRun("u", "2024-02-10", 6),
				activeRun("u", "2024-03-10", 2)...,
			),
			want: 6,
		},
		{
			name: "inactive day splits runs",
			entries: []domain.DailyEntry{
				entry("u", "2024-03-01", true, false, 0),
				entry("u", "2024-03-02", true, false, 0),
				entry("u", "2024-03-03", false, false, 0),
				entry("u", "2024-03-04", true, false, 0),
			},
			want: 2,
		},
		{
			name: "across a month boundary",
			entries: []domain.DailyEntry{
				entry("u", "2024-02-28", true, false, 0),
				entry("u", "2024-02-29", true, false, 0),
				entry("u", "2024-03-01", true, false, 0),
			},
			want: 3,
		},
		{
			name: "duplicates do not extend the run",
			entries: []domain.DailyEntry{
				entry("u", "2024-03-01", true, false, 0),
				entry("u", "2024-03-01", true, false, 0),
				entry("u", "2024-03-01", true, false, 0),
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LongestStreak(tt.entries))
		})
	}
}

func TestComputeStreaks_LongestAtLeastCurrent(t *testing.T) {
	histories := [][]domain.DailyEntry{
		nil,
		activeRun("u", "2024-03-10", 9),
		activeRun("u", "2024-03-09", 1),
		append(activeRun("u", "2024-03-10", 3), activeRun("u", "2024-02-01", 10)...),
		{entry("u", "2024-03-10", false, false, 0)},
	}

	for _, h := range histories {
		r := ComputeStreaks(h, today)
		assert.GreaterOrEqual(t, r.Longest, r.Current)
		assert.GreaterOrEqual(t, r.Current, 0)
	}
}
