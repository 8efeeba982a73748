package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dariogeorge21/prayer-collector/internal/domain"
)

var historyHeader = []string{"Date", "Rosary", "Holy Mass", "Prayer Time (min)", "Status"}

var usersHeader = []string{
	"Name", "Email", "Admin", "Total Entries", "Last Active",
	"Total Rosaries", "Total Masses", "Prayer Minutes", "Current Streak",
}

// ExportRow is one history line in its exported form
type ExportRow struct {
	Date          string `json:"date"`
	Rosary        string `json:"rosary"`
	HolyMass      string `json:"holy_mass"`
	PrayerMinutes int    `json:"prayer_minutes"`
	Status        string `json:"status"`
}

func (r ExportRow) record() []string {
	return []string{r.Date, r.Rosary, r.HolyMass, strconv.Itoa(r.PrayerMinutes), r.Status}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// statusLabel capitalizes a classifier status for display
func statusLabel(s domain.Status) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// ExportRows converts entries to export rows, keeping their order
func ExportRows(entries []domain.DailyEntry) []ExportRow {
	rows := make([]ExportRow, len(entries))
	for i, e := range entries {
		rows[i] = ExportRow{
			Date:          e.EntryDate.String(),
			Rosary:        yesNo(e.RosaryCompleted),
			HolyMass:      yesNo(e.HolyMassAttended),
			PrayerMinutes: e.PrayerTimeMinutes,
			Status:        statusLabel(Classify(e)),
		}
	}
	return rows
}

// WriteCSV writes a user's history as CSV with a header row
func WriteCSV(w io.Writer, entries []domain.DailyEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(historyHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, row := range ExportRows(entries) {
		if err := cw.Write(row.record()); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteUsersCSV writes the admin user table as CSV
func WriteUsersCSV(w io.Writer, users []domain.UserWithStats) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(usersHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, u := range users {
		record := []string{
			u.Name,
			u.EmailOrEmpty(),
			yesNo(u.IsAdmin),
			strconv.Itoa(u.TotalEntries),
			u.LastActiveLabel(),
			strconv.Itoa(u.TotalRosaries),
			strconv.Itoa(u.TotalMasses),
			strconv.Itoa(u.TotalPrayerMinutes),
			strconv.Itoa(u.CurrentStreak),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// HistoryFilename returns the download name for a user's history export
func HistoryFilename(name string) string {
	return strings.Join(strings.Fields(name), "_") + "_prayer_history.csv"
}
