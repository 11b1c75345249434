// Package postgres provides pgx-backed persistence for users, exercises, and
// the outbox.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/events"
	"example.com/exercisetracker/internal/observability"
)

// uniqueViolation is the SQLSTATE raised by the users.username constraint.
const uniqueViolation = "23505"

// Repository provides Postgres-backed persistence. It implements both
// domain.UserRepository and domain.ExerciseRepository.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateUser inserts the user and a user.created outbox row in one
// transaction. The UNIQUE constraint on username is the atomic uniqueness
// guarantee; its violation surfaces as domain.ErrDuplicateUsername.
func (r *Repository) CreateUser(ctx context.Context, user domain.User) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	const insertUser = `INSERT INTO users (user_id, username, created_at) VALUES ($1,$2,$3)`
	if _, err = tx.Exec(ctx, insertUser, user.ID, user.Username, user.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicateUsername
		}
		return err
	}

	if err = insertOutbox(ctx, tx, "user.created", "user", user.ID, user.ID, events.UserCreated{
		UserID:    user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordUserCreated()
	return nil
}

// ListUsers returns all users in insertion order.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	const query = `SELECT user_id, username, created_at FROM users ORDER BY seq`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Username, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// GetUser retrieves a user by id. A missing id yields (nil, nil).
func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT user_id, username, created_at FROM users WHERE user_id=$1`

	row := r.pool.QueryRow(ctx, query, id)
	var user domain.User
	if err := row.Scan(&user.ID, &user.Username, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// CreateExercise inserts the exercise and an exercise.logged outbox row in
// one transaction.
func (r *Repository) CreateExercise(ctx context.Context, exercise domain.Exercise) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	const insertExercise = `INSERT INTO exercises (exercise_id, user_id, username, description, duration_min, exercise_date, logged_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err = tx.Exec(ctx, insertExercise,
		exercise.ID,
		exercise.UserID,
		exercise.Username,
		exercise.Description,
		exercise.DurationMin,
		exercise.Date,
		exercise.LoggedAt,
	)
	if err != nil {
		return err
	}

	if err = insertOutbox(ctx, tx, "exercise.logged", "exercise", exercise.ID, exercise.UserID, events.ExerciseLogged{
		ExerciseID:  exercise.ID,
		UserID:      exercise.UserID,
		Username:    exercise.Username,
		Description: exercise.Description,
		DurationMin: exercise.DurationMin,
		Date:        exercise.Date,
		LoggedAt:    exercise.LoggedAt,
	}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordExercisePersisted(exercise.LoggedAt)
	return nil
}

// ListByUser returns the user's exercises within the inclusive date range in
// insertion order, truncated to filter.Limit when positive.
func (r *Repository) ListByUser(ctx context.Context, userID string, filter domain.LogFilter) ([]domain.Exercise, error) {
	query := `SELECT exercise_id, user_id, username, description, duration_min, exercise_date, logged_at
        FROM exercises WHERE user_id=$1`
	args := []interface{}{userID}

	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(" AND exercise_date >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += fmt.Sprintf(" AND exercise_date <= $%d", len(args))
	}
	query += " ORDER BY seq"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.Exercise, 0)
	for rows.Next() {
		var exercise domain.Exercise
		if err := rows.Scan(&exercise.ID, &exercise.UserID, &exercise.Username, &exercise.Description, &exercise.DurationMin, &exercise.Date, &exercise.LoggedAt); err != nil {
			return nil, err
		}
		results = append(results, exercise)
	}
	return results, rows.Err()
}

func insertOutbox(ctx context.Context, tx pgx.Tx, eventType, aggregateType, aggregateID, partitionKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	dedupeKey := fmt.Sprintf("%s:%s", aggregateID, eventType)

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err = tx.Exec(ctx, stmt, aggregateType, aggregateID, eventType, meta.Topic, partitionKey, body, dedupeKey)
	return err
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic string
}

var eventCatalog = map[string]EventMetadata{
	"user.created":    {Topic: "user_events"},
	"exercise.logged": {Topic: "exercise_events"},
}
