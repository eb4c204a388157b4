package util

import "time"

// PreviousMonth returns the year and month for the previous month
func PreviousMonth(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

// IsHistoricalMonth returns true if the given year/month is before the month containing now
func IsHistoricalMonth(year, month int, now time.Time) bool {
	if year < now.Year() {
		return true
	}
	if year == now.Year() && month < int(now.Month()) {
		return true
	}
	return false
}

// IsCurrentMonth returns true if the given year/month is the month containing now
func IsCurrentMonth(year, month int, now time.Time) bool {
	return year == now.Year() && month == int(now.Month())
}

// DaysInMonth returns the number of days in the given month
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this month
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthSpan returns the first and last day of the given month as UTC dates
func MonthSpan(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, month, DaysInMonth(year, month), 0, 0, 0, 0, time.UTC)
	return start, end
}

// AddMonthsClamped adds months to t, clamping the day to the target month's
// length instead of normalizing (Jan 31 + 1 month is Feb 28, not Mar 3).
// This is the calendar arithmetic the recurring schedule depends on.
func AddMonthsClamped(t time.Time, months int) time.Time {
	year := t.Year()
	month := int(t.Month()) + months
	// time.Date normalizes out-of-range months, so month 13 of 2025 is Jan 2026
	normalized := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, t.Location())

	day := t.Day()
	if last := DaysInMonth(normalized.Year(), normalized.Month()); day > last {
		day = last
	}

	return time.Date(normalized.Year(), normalized.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// DateOnly truncates t to midnight UTC
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetweenInclusive counts calendar days from start to end, both endpoints included
func DaysBetweenInclusive(start, end time.Time) int {
	return int(DateOnly(end).Sub(DateOnly(start)).Hours()/24) + 1
}
