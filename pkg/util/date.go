package util

import (
	"strconv"
	"time"
)

// BarTimeLayout is the naive second-resolution layout intraday vendors use.
const BarTimeLayout = "2006-01-02 15:04:05"

// ParseTime tries RFC3339, the vendor bar layout, and unix seconds.
// Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(BarTimeLayout, s); err == nil {
		return t.UTC(), true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// FormatDate renders a time as the YYYY-MM-DD path segment range endpoints use.
func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// AlignFromTo truncates the time range to bar-interval boundaries.
func AlignFromTo(from, to time.Time, interval time.Duration) (time.Time, time.Time) {
	if interval <= 0 {
		interval = time.Minute
	}
	return from.Truncate(interval), to.Truncate(interval)
}
