// Package memory stores users and exercises in memory for local development
// and tests.
package memory

import (
	"context"
	"sync"

	"example.com/exercisetracker/internal/domain"
)

// Repository is a mutex-guarded in-process backend. Exercises are kept in
// insertion order per user, which is the order the log endpoint reports.
type Repository struct {
	mu        sync.RWMutex
	users     []domain.User
	usersByID map[string]int
	usernames map[string]struct{}
	exercises map[string][]domain.Exercise
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{
		usersByID: make(map[string]int),
		usernames: make(map[string]struct{}),
		exercises: make(map[string][]domain.Exercise),
	}
}

// CreateUser implements domain.UserRepository. The check-and-insert happens under
// a single lock, which is the uniqueness guarantee here.
func (r *Repository) CreateUser(ctx context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.usernames[user.Username]; taken {
		return domain.ErrDuplicateUsername
	}
	r.usernames[user.Username] = struct{}{}
	r.usersByID[user.ID] = len(r.users)
	r.users = append(r.users, user)
	return nil
}

// ListUsers implements domain.UserRepository.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.User, len(r.users))
	copy(out, r.users)
	return out, nil
}

// GetUser implements domain.UserRepository. A missing id yields (nil, nil).
func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index, ok := r.usersByID[id]
	if !ok {
		return nil, nil
	}
	user := r.users[index]
	return &user, nil
}

// CreateExercise implements domain.ExerciseRepository.
func (r *Repository) CreateExercise(ctx context.Context, exercise domain.Exercise) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.exercises[exercise.UserID] = append(r.exercises[exercise.UserID], exercise)
	return nil
}

// ListByUser implements domain.ExerciseRepository, applying the inclusive
// date range first and the limit after filtering.
func (r *Repository) ListByUser(ctx context.Context, userID string, filter domain.LogFilter) ([]domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Exercise, 0, len(r.exercises[userID]))
	for _, exercise := range r.exercises[userID] {
		if !filter.Matches(exercise) {
			continue
		}
		out = append(out, exercise)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}
