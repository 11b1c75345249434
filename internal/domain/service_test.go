package domain_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/persistence/memory"
)

func newService(t *testing.T) (*domain.Service, *memory.Repository) {
	t.Helper()
	repo := memory.NewRepository()
	return domain.NewService(repo, repo), repo
}

func TestCreateUserAssignsID(t *testing.T) {
	service, _ := newService(t)

	user, err := service.CreateUser(context.Background(), "joe")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.ID == "" {
		t.Fatal("expected generated id")
	}
	if user.Username != "joe" {
		t.Fatalf("unexpected username %q", user.Username)
	}
}

func TestCreateUserPropagatesConflict(t *testing.T) {
	service, _ := newService(t)

	if _, err := service.CreateUser(context.Background(), "joe"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := service.CreateUser(context.Background(), "joe")
	if !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestLogExerciseStoresParsedDate(t *testing.T) {
	service, _ := newService(t)
	user, _ := service.CreateUser(context.Background(), "joe")

	exercise, err := service.LogExercise(context.Background(), domain.LogExerciseInput{
		UserID:      user.ID,
		Description: "run",
		DurationMin: 30,
		Date:        "2019-12-21",
	})
	if err != nil {
		t.Fatalf("LogExercise: %v", err)
	}

	want := time.Date(2019, time.December, 21, 0, 0, 0, 0, time.UTC)
	if !exercise.Date.Equal(want) {
		t.Fatalf("stored date %v, want %v", exercise.Date, want)
	}
	if exercise.Username != "joe" {
		t.Fatalf("expected denormalized username, got %q", exercise.Username)
	}
	if exercise.UserID != user.ID {
		t.Fatalf("unexpected owner %q", exercise.UserID)
	}
}

func TestLogExerciseMalformedDateBecomesNow(t *testing.T) {
	service, _ := newService(t)
	user, _ := service.CreateUser(context.Background(), "joe")

	before := time.Now().UTC()
	exercise, err := service.LogExercise(context.Background(), domain.LogExerciseInput{
		UserID:      user.ID,
		Description: "run",
		DurationMin: 30,
		Date:        "next tuesday",
	})
	after := time.Now().UTC()
	if err != nil {
		t.Fatalf("LogExercise: %v", err)
	}
	if exercise.Date.Before(before) || exercise.Date.After(after) {
		t.Fatalf("fallback date %v outside [%v, %v]", exercise.Date, before, after)
	}
}

func TestLogExerciseUnknownUser(t *testing.T) {
	service, _ := newService(t)

	_, err := service.LogExercise(context.Background(), domain.LogExerciseInput{
		UserID:      "missing",
		Description: "run",
		DurationMin: 30,
	})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestGetLogDefaultsUpperBoundToNow(t *testing.T) {
	service, _ := newService(t)
	user, _ := service.CreateUser(context.Background(), "joe")

	log := func(date string) {
		if _, err := service.LogExercise(context.Background(), domain.LogExerciseInput{
			UserID:      user.ID,
			Description: "run",
			DurationMin: 30,
			Date:        date,
		}); err != nil {
			t.Fatalf("LogExercise(%s): %v", date, err)
		}
	}
	log("2019-12-21")
	log("2999-01-01") // future-dated entry

	_, exercises, err := service.GetLog(context.Background(), user.ID, domain.LogFilter{})
	if err != nil {
		t.Fatalf("GetLog: %v", err)
	}
	if len(exercises) != 1 {
		t.Fatalf("default to-bound should exclude future dates, got %d entries", len(exercises))
	}

	_, all, err := service.GetLog(context.Background(), user.ID, domain.LogFilter{
		To: time.Date(3000, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("GetLog: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("explicit to-bound should include future dates, got %d entries", len(all))
	}
}

func TestGetLogUnknownUser(t *testing.T) {
	service, _ := newService(t)

	_, _, err := service.GetLog(context.Background(), "missing", domain.LogFilter{})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
