package agro

import "time"

// DateLayout is the canonical day format used in keys and API parameters.
const DateLayout = "2006-01-02"

// Day normalizes t to UTC midnight. All planner dates are daily granularity;
// normalizing once at the boundary keeps map keys and comparisons exact.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

// DayKey returns the canonical string form of a day.
func DayKey(t time.Time) string {
	return Day(t).Format(DateLayout)
}

// ParseDay parses a canonical day string back into a UTC midnight time.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// DaysBetween returns the number of whole days from a to b (negative when b
// precedes a). Both are normalized first, so DST shifts cannot skew the count.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)) / (24 * time.Hour))
}
