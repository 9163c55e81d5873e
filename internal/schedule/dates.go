package schedule

import "time"

// Mixing local-time and UTC day boundaries is a reliable source of
// off-by-one-day bugs. Every date comparison in this codebase goes through
// the helpers below, which fix the convention to UTC civil days.

// DayStart truncates t to the start of its UTC civil day.
func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// TodayUTC returns the start of the current UTC day.
func TodayUTC() time.Time {
	return DayStart(timeNow())
}

// AddDays returns the day start n civil days after t.
func AddDays(t time.Time, n int) time.Time {
	return DayStart(t).AddDate(0, 0, n)
}

// DaysBetween returns the number of whole civil days from a to b.
// Negative when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(DayStart(b).Sub(DayStart(a)).Hours() / 24)
}

// SameDay reports whether a and b fall on the same UTC civil day.
func SameDay(a, b time.Time) bool {
	return DayStart(a).Equal(DayStart(b))
}

// Variable to allow mocking time.Now in tests.
var timeNow = time.Now
