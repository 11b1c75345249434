//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/exercisetracker/internal/domain"
)

func setupRepository(t *testing.T, ctx context.Context) *Repository {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("exercise"),
		postgrescontainer.WithUsername("tracker"),
		postgrescontainer.WithPassword("tracker"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))
	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return NewRepository(pool)
}

func TestRepositoryUsernameUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := setupRepository(t, ctx)

	user := domain.User{ID: uuid.NewString(), Username: "joe", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.CreateUser(ctx, user))

	dup := domain.User{ID: uuid.NewString(), Username: "joe", CreatedAt: time.Now().UTC()}
	require.ErrorIs(t, repo.CreateUser(ctx, dup), domain.ErrDuplicateUsername)

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	stored, err := repo.GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, "joe", stored.Username)

	missing, err := repo.GetUser(ctx, uuid.NewString())
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestRepositoryLogFilteringAndOrder(t *testing.T) {
	ctx := context.Background()
	repo := setupRepository(t, ctx)

	user := domain.User{ID: uuid.NewString(), Username: "joe", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.CreateUser(ctx, user))

	day := func(d int) time.Time {
		return time.Date(2019, time.December, d, 0, 0, 0, 0, time.UTC)
	}

	for i, d := range []int{19, 21, 24} {
		require.NoError(t, repo.CreateExercise(ctx, domain.Exercise{
			ID:          uuid.NewString(),
			UserID:      user.ID,
			Username:    user.Username,
			Description: []string{"run", "swim", "row"}[i],
			DurationMin: 30,
			Date:        day(d),
			LoggedAt:    time.Now().UTC(),
		}))
	}

	// Inclusive bounds on both ends.
	got, err := repo.ListByUser(ctx, user.ID, domain.LogFilter{From: day(21), To: day(24)})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "swim", got[0].Description)
	require.Equal(t, "row", got[1].Description)

	// Limit truncates the filtered sequence in insertion order.
	limited, err := repo.ListByUser(ctx, user.ID, domain.LogFilter{To: day(31), Limit: 2})
	require.NoError(t, err)
	require.Len(t, limited, 2)
	require.Equal(t, "run", limited[0].Description)

	full, err := repo.ListByUser(ctx, user.ID, domain.LogFilter{To: day(31)})
	require.NoError(t, err)
	require.Len(t, full, 3)
}

func TestRepositoryRecordsOutboxRows(t *testing.T) {
	ctx := context.Background()
	repo := setupRepository(t, ctx)

	user := domain.User{ID: uuid.NewString(), Username: "joe", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.CreateUser(ctx, user))

	require.NoError(t, repo.CreateExercise(ctx, domain.Exercise{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Username:    user.Username,
		Description: "run",
		DurationMin: 30,
		Date:        time.Now().UTC(),
		LoggedAt:    time.Now().UTC(),
	}))

	var counts = map[string]int{}
	rows, err := repo.pool.Query(ctx, `SELECT event_type, COUNT(*) FROM outbox WHERE published_at IS NULL GROUP BY event_type`)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var eventType string
		var count int
		require.NoError(t, rows.Scan(&eventType, &count))
		counts[eventType] = count
	}
	require.NoError(t, rows.Err())

	require.Equal(t, 1, counts["user.created"])
	require.Equal(t, 1, counts["exercise.logged"])
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	files := []string{
		"../../../db/postgres/migrations/0001_init.up.sql",
	}

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	for _, rel := range files {
		path := resolvePath(t, rel)
		contents, readErr := os.ReadFile(path)
		require.NoError(t, readErr)

		_, execErr := pool.Exec(ctx, string(contents))
		require.NoError(t, execErr)
	}
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
