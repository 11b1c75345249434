// Package domain defines the business logic for the exercise tracker.
package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/exercisetracker/internal/dates"
)

var (
	// ErrDuplicateUsername indicates the username is already taken.
	ErrDuplicateUsername = errors.New("username already taken")
	// ErrUserNotFound is returned when a user cannot be located.
	ErrUserNotFound = errors.New("user not found")
)

// UserRepository captures persistence operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id string) (*User, error)
}

// ExerciseRepository captures persistence operations for exercises.
type ExerciseRepository interface {
	CreateExercise(ctx context.Context, exercise Exercise) error
	ListByUser(ctx context.Context, userID string, filter LogFilter) ([]Exercise, error)
}

// Service orchestrates the tracker workflows.
type Service struct {
	users     UserRepository
	exercises ExerciseRepository
}

// NewService constructs a Service.
func NewService(users UserRepository, exercises ExerciseRepository) *Service {
	return &Service{users: users, exercises: exercises}
}

// CreateUser registers a new username, assigning a fresh id. Uniqueness is
// enforced atomically by the repository.
func (s *Service) CreateUser(ctx context.Context, username string) (*User, error) {
	user := User{
		ID:        uuid.NewString(),
		Username:  strings.TrimSpace(username),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns all users in creation order.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.users.ListUsers(ctx)
}

// LogExerciseInput captures the payload from the API layer. Date is the raw
// caller-supplied string; absent or malformed values fall back to "now".
type LogExerciseInput struct {
	UserID      string
	Description string
	DurationMin int
	Date        string
}

// LogExercise records an exercise against an existing user. The owner's
// username is denormalized onto the record at creation time.
func (s *Service) LogExercise(ctx context.Context, input LogExerciseInput) (*Exercise, error) {
	user, err := s.users.GetUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	exercise := Exercise{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Username:    user.Username,
		Description: input.Description,
		DurationMin: input.DurationMin,
		Date:        dates.Normalize(input.Date),
		LoggedAt:    time.Now().UTC(),
	}

	if err := s.exercises.CreateExercise(ctx, exercise); err != nil {
		return nil, err
	}
	return &exercise, nil
}

// GetLog resolves the user and returns their filtered exercises in insertion
// order. A zero To bound is resolved to the current instant here so that
// repositories only ever see concrete bounds.
func (s *Service) GetLog(ctx context.Context, userID string, filter LogFilter) (*User, []Exercise, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrUserNotFound
	}

	if filter.To.IsZero() {
		filter.To = time.Now().UTC()
	}

	exercises, err := s.exercises.ListByUser(ctx, user.ID, filter)
	if err != nil {
		return nil, nil, err
	}
	return user, exercises, nil
}
