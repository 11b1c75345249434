package domain

import "time"

// User is an account identified by a unique username and a generated id.
type User struct {
	ID        string
	Username  string
	CreatedAt time.Time
}

// Exercise is a single logged activity owned by a User. Username is a
// denormalized copy of the owner's name taken at creation time; it is not
// kept in sync with later renames.
type Exercise struct {
	ID          string
	UserID      string
	Username    string
	Description string
	DurationMin int
	Date        time.Time
	LoggedAt    time.Time
}

// LogFilter restricts a user's exercise log. The date range is inclusive on
// both ends. A zero From means no lower bound; a zero To is resolved to "now"
// before the filter reaches a repository. Limit <= 0 returns everything.
type LogFilter struct {
	From  time.Time
	To    time.Time
	Limit int
}

// Matches reports whether the exercise date falls inside the filter range.
func (f LogFilter) Matches(e Exercise) bool {
	if !f.From.IsZero() && e.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Date.After(f.To) {
		return false
	}
	return true
}
