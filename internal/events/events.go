// Package events defines the payloads published through the outbox.
package events

import "time"

// UserCreated is emitted when a new user is registered.
type UserCreated struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// ExerciseLogged is emitted when an exercise is recorded against a user.
type ExerciseLogged struct {
	ExerciseID  string    `json:"exercise_id"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	Description string    `json:"description"`
	DurationMin int       `json:"duration_min"`
	Date        time.Time `json:"date"`
	LoggedAt    time.Time `json:"logged_at"`
}
