// Package dates contains the date parsing and rendering helpers shared by the
// API layer and the domain service.
package dates

import (
	"regexp"
	"time"
)

// datePattern accepts a 4-digit year with 1-2 digit month and day.
var datePattern = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`)

// Parse interprets raw as a calendar date in UTC. It reports ok=false when
// raw is empty, does not match the YYYY-M-D pattern, or names an impossible
// calendar date such as 2019-13-40.
func Parse(raw string) (time.Time, bool) {
	if !datePattern.MatchString(raw) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-1-2", raw, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Normalize returns the parsed date, or the current UTC instant when raw is
// absent or malformed. Malformed input is silently replaced, never rejected.
func Normalize(raw string) time.Time {
	if t, ok := Parse(raw); ok {
		return t
	}
	return time.Now().UTC()
}

// FormatLog renders a stored date for log entries, e.g. "Sat Dec 21 2019".
// Output is fixed to UTC so the same stored date always renders identically.
func FormatLog(t time.Time) string {
	return t.UTC().Format("Mon Jan 02 2006")
}
