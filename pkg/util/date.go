package util

import (
    "strings"
    "time"
)

// DateLayout is the ISO calendar date format used on the wire.
const DateLayout = "2006-01-02"

// ParseDate parses an ISO date (YYYY-MM-DD) into a civil date at UTC midnight.
func ParseDate(s string) (time.Time, bool) {
    s = strings.TrimSpace(s)
    if s == "" {
        return time.Time{}, false
    }
    t, err := time.Parse(DateLayout, s)
    if err != nil {
        return time.Time{}, false
    }
    return t, true
}

// FormatDate renders a civil date as YYYY-MM-DD.
func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// CivilDate returns the calendar date of t as observed in loc, at UTC midnight.
// Keeping every date at UTC midnight makes day arithmetic immune to DST shifts.
func CivilDate(t time.Time, loc *time.Location) time.Time {
    if loc != nil {
        t = t.In(loc)
    }
    y, m, d := t.Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays shifts a civil date by n calendar days.
func AddDays(d time.Time, n int) time.Time {
    return d.AddDate(0, 0, n)
}

// DaysBetween returns to - from in whole days. Both must be civil dates.
// It works on Unix seconds since time.Duration saturates after about 292 years.
func DaysBetween(from, to time.Time) int {
    return int((to.Unix() - from.Unix()) / 86400)
}
