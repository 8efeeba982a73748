// Package stats computes streaks, totals, rankings and top-scorer lists from
// daily entries. Every function is pure: callers pass in the entries, the
// users and the current calendar day.
package stats

import (
	"time"

	"github.com/dariogeorge21/prayer-collector/internal/domain"
)

// RangeFilter is a symbolic history window
type RangeFilter string

const (
	RangeLast7  RangeFilter = "last7"
	RangeLast30 RangeFilter = "last30"
	RangeLast90 RangeFilter = "last90"
	RangeAll    RangeFilter = "all"
)

// allTimeStart is the far-past start used for RangeAll
var allTimeStart = domain.NewDate(2000, time.January, 1)

// ParseRangeFilter maps a query value to a filter, defaulting to last30
func ParseRangeFilter(s string) RangeFilter {
	switch f := RangeFilter(s); f {
	case RangeLast7, RangeLast30, RangeLast90, RangeAll:
		return f
	default:
		return RangeLast30
	}
}

// DateRange is an inclusive [Start, End] interval in the caller's location
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// StartDate returns the first calendar day of the range
func (r DateRange) StartDate() domain.Date {
	return domain.DateOf(r.Start)
}

// EndDate returns the last calendar day of the range
func (r DateRange) EndDate() domain.Date {
	return domain.DateOf(r.End)
}

// Contains reports whether d falls inside the range
func (r DateRange) Contains(d domain.Date) bool {
	return !d.Before(r.StartDate()) && !d.After(r.EndDate())
}

// Today returns the calendar day of now in loc. A nil loc means UTC.
func Today(now time.Time, loc *time.Location) domain.Date {
	if loc == nil {
		loc = time.UTC
	}
	return domain.DateOf(now.In(loc))
}

// ResolveRange turns a filter into concrete bounds: Start is 00:00:00.000 of
// the first day and End is 23:59:59.999 of today, both in loc.
// Unknown filters resolve like last30.
func ResolveRange(filter RangeFilter, now time.Time, loc *time.Location) DateRange {
	if loc == nil {
		loc = time.UTC
	}
	today := Today(now, loc)

	var start domain.Date
	switch filter {
	case RangeLast7:
		start = today.AddDays(-6)
	case RangeLast90:
		start = today.AddDays(-89)
	case RangeAll:
		start = allTimeStart
	default:
		start = today.AddDays(-29)
	}

	return DateRange{
		Start: start.In(loc),
		End:   time.Date(today.Year(), today.Month(), today.Day(), 23, 59, 59, int(999*time.Millisecond), loc),
	}
}

// WeekStart returns the Monday on or before today. Sunday counts as day 7
// of the week that began six days earlier.
func WeekStart(today domain.Date) domain.Date {
	weekday := int(today.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return today.AddDays(-(weekday - 1))
}

// MonthStart returns the first day of today's month
func MonthStart(today domain.Date) domain.Date {
	return domain.NewDate(today.Year(), today.Month(), 1)
}
