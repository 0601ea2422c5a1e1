// Package storagetest holds the behavior suite every storage.Provider must pass.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	apperrors "github.com/julianstephens/mono/internal/errors"
	"github.com/julianstephens/mono/internal/models"
	"github.com/julianstephens/mono/internal/storage"
)

// Factory returns a fresh, empty provider. It registers its own cleanup.
type Factory func(t *testing.T) storage.Provider

// Run executes the provider suite against providers built by newProvider.
func Run(t *testing.T, newProvider Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, p storage.Provider)
	}{
		{"CreateThenList", testCreateThenList},
		{"ToggleAdvancesUpdatedAt", testToggleAdvancesUpdatedAt},
		{"UpdateUnknownTask", testUpdateUnknownTask},
		{"DeleteIsIdempotent", testDeleteIsIdempotent},
		{"CreateTaskValidation", testCreateTaskValidation},
		{"OneMoodPerDate", testOneMoodPerDate},
		{"MoodByDate", testMoodByDate},
		{"ChallengeRoundTrip", testChallengeRoundTrip},
		{"ConcurrentFirstUse", testConcurrentFirstUse},
		{"SchemaVersion", testSchemaVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newProvider(t))
		})
	}
}

func testCreateThenList(t *testing.T, p storage.Provider) {
	ctx := context.Background()

	inputs := []models.NewTask{
		{Title: "Write report", Time: "09:00"},
		{Title: "Call mom", Time: "18:30"},
	}
	for _, in := range inputs {
		before, err := p.ListTasks(ctx)
		if err != nil {
			t.Fatalf("ListTasks() error = %v", err)
		}

		created, err := p.CreateTask(ctx, in)
		if err != nil {
			t.Fatalf("CreateTask() error = %v", err)
		}
		if created.ID == "" {
			t.Error("CreateTask() returned empty id")
		}
		if created.Completed {
			t.Error("CreateTask() returned a completed task")
		}
		if !created.CreatedAt.Equal(created.UpdatedAt) {
			t.Errorf("CreatedAt %v != UpdatedAt %v", created.CreatedAt, created.UpdatedAt)
		}

		after, err := p.ListTasks(ctx)
		if err != nil {
			t.Fatalf("ListTasks() error = %v", err)
		}
		if len(after) != len(before)+1 {
			t.Fatalf("ListTasks() len = %d, want %d", len(after), len(before)+1)
		}

		matches := 0
		for _, task := range after {
			if task.ID == created.ID {
				matches++
				if task.Title != in.Title || task.Time != in.Time || task.Completed {
					t.Errorf("listed task = %+v, want title %q time %q incomplete", task, in.Title, in.Time)
				}
			}
		}
		if matches != 1 {
			t.Errorf("ListTasks() contains created task %d times, want 1", matches)
		}
	}
}

func testToggleAdvancesUpdatedAt(t *testing.T, p storage.Provider) {
	ctx := context.Background()

	task, err := p.CreateTask(ctx, models.NewTask{Title: "Stretch", Time: "07:00"})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		prev := task
		task.Completed = !task.Completed

		updated, err := p.UpdateTask(ctx, task)
		if err != nil {
			t.Fatalf("UpdateTask() error = %v", err)
		}
		if updated.Completed != task.Completed {
			t.Errorf("UpdateTask() Completed = %v, want %v", updated.Completed, task.Completed)
		}
		if !updated.UpdatedAt.After(prev.UpdatedAt) {
			t.Errorf("UpdatedAt %v not after previous %v", updated.UpdatedAt, prev.UpdatedAt)
		}
		if !updated.CreatedAt.Equal(prev.CreatedAt) {
			t.Errorf("CreatedAt changed from %v to %v", prev.CreatedAt, updated.CreatedAt)
		}

		listed, err := p.GetTask(ctx, task.ID)
		if err != nil {
			t.Fatalf("GetTask() error = %v", err)
		}
		if listed.Completed != task.Completed {
			t.Errorf("stored Completed = %v, want %v", listed.Completed, task.Completed)
		}
		task = updated
	}
}

func testUpdateUnknownTask(t *testing.T, p storage.Provider) {
	_, err := p.UpdateTask(context.Background(), models.Task{ID: "missing", Title: "x", Time: "10:00"})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("UpdateTask(missing) error = %v, want ErrNotFound", err)
	}
}

func testDeleteIsIdempotent(t *testing.T, p storage.Provider) {
	ctx := context.Background()

	task, err := p.CreateTask(ctx, models.NewTask{Title: "Throwaway", Time: "12:00"})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		id, err := p.DeleteTask(ctx, task.ID)
		if err != nil {
			t.Fatalf("DeleteTask() #%d error = %v", i+1, err)
		}
		if id != task.ID {
			t.Errorf("DeleteTask() = %q, want %q", id, task.ID)
		}
	}

	tasks, err := p.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	for _, tk := range tasks {
		if tk.ID == task.ID {
			t.Error("deleted task still listed")
		}
	}

	if _, err := p.DeleteTask(ctx, "never-existed"); err != nil {
		t.Errorf("DeleteTask(never-existed) error = %v", err)
	}
}

func testCreateTaskValidation(t *testing.T, p storage.Provider) {
	_, err := p.CreateTask(context.Background(), models.NewTask{Title: "", Time: "10:00"})
	if err == nil {
		t.Fatal("CreateTask() accepted an empty title")
	}
	if kind, _ := apperrors.KindOf(err); kind != apperrors.KindWrite {
		t.Errorf("KindOf() = %q, want %q", kind, apperrors.KindWrite)
	}
}

func testOneMoodPerDate(t *testing.T, p storage.Provider) {
	ctx := context.Background()
	date := "2026-04-01"

	first, err := p.CreateMood(ctx, models.NewMood{Date: date, Mood: models.MoodGood, Energy: models.EnergyHigh})
	if err != nil {
		t.Fatalf("CreateMood() error = %v", err)
	}

	_, err = p.CreateMood(ctx, models.NewMood{Date: date, Mood: models.MoodBad, Energy: models.EnergyLow})
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("second CreateMood() error = %v, want ErrConflict", err)
	}

	first.Mood = models.MoodBad
	updated, err := p.UpdateMood(ctx, first)
	if err != nil {
		t.Fatalf("UpdateMood() error = %v", err)
	}
	if updated.Mood != models.MoodBad || !updated.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("UpdateMood() = %+v", updated)
	}

	moods, err := p.ListMoods(ctx)
	if err != nil {
		t.Fatalf("ListMoods() error = %v", err)
	}
	count := 0
	for _, m := range moods {
		if m.Date == date {
			count++
		}
	}
	if count != 1 {
		t.Errorf("moods for %s = %d, want 1", date, count)
	}
}

func testMoodByDate(t *testing.T, p storage.Provider) {
	ctx := context.Background()

	if _, err := p.GetMoodByDate(ctx, "2026-05-05"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("GetMoodByDate() on empty store error = %v, want ErrNotFound", err)
	}

	created, err := p.CreateMood(ctx, models.NewMood{Date: "2026-05-05", Mood: models.MoodNeutral, Energy: models.EnergyMedium})
	if err != nil {
		t.Fatalf("CreateMood() error = %v", err)
	}

	got, err := p.GetMoodByDate(ctx, "2026-05-05")
	if err != nil {
		t.Fatalf("GetMoodByDate() error = %v", err)
	}
	if got.ID != created.ID || got.Energy != models.EnergyMedium {
		t.Errorf("GetMoodByDate() = %+v, want %+v", got, created)
	}

	if _, err := p.DeleteMood(ctx, created.ID); err != nil {
		t.Fatalf("DeleteMood() error = %v", err)
	}
	if _, err := p.GetMoodByDate(ctx, "2026-05-05"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("GetMoodByDate() after delete error = %v, want ErrNotFound", err)
	}
}

// ChallengeDays returns a valid 30-day plan for tests.
func ChallengeDays() []models.ChallengeDay {
	days := make([]models.ChallengeDay, 30)
	for i := range days {
		days[i] = models.ChallengeDay{
			Day:         i + 1,
			Title:       fmt.Sprintf("Day %d", i+1),
			Description: fmt.Sprintf("Step %d", i+1),
		}
	}
	return days
}

func testChallengeRoundTrip(t *testing.T, p storage.Provider) {
	ctx := context.Background()

	created, err := p.CreateChallenge(ctx, models.Challenge{
		Title:     "Read more",
		Prompt:    "reading",
		StartedOn: "2026-03-01",
		Days:      ChallengeDays(),
	})
	if err != nil {
		t.Fatalf("CreateChallenge() error = %v", err)
	}
	if len(created.Days) != 30 || created.Days[29].Day != 30 {
		t.Fatalf("CreateChallenge() days = %d", len(created.Days))
	}

	created.Days[4].Memo = "Finished chapter one"
	created.Days[4].Sticker = "cat"
	updated, err := p.UpdateChallenge(ctx, created)
	if err != nil {
		t.Fatalf("UpdateChallenge() error = %v", err)
	}
	if updated.Days[4].Memo != "Finished chapter one" || updated.Days[4].Sticker != "cat" {
		t.Errorf("UpdateChallenge() day 5 = %+v", updated.Days[4])
	}

	list, err := p.ListChallenges(ctx)
	if err != nil {
		t.Fatalf("ListChallenges() error = %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("ListChallenges() len = %d, want 1", len(list))
	}

	if _, err := p.CreateChallenge(ctx, models.Challenge{Title: "Short", StartedOn: "2026-03-01", Days: ChallengeDays()[:10]}); err == nil {
		t.Error("CreateChallenge() accepted a 10-day plan")
	}

	if _, err := p.DeleteChallenge(ctx, created.ID); err != nil {
		t.Fatalf("DeleteChallenge() error = %v", err)
	}
	if _, err := p.GetChallenge(ctx, created.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("GetChallenge() after delete error = %v, want ErrNotFound", err)
	}
}

func testConcurrentFirstUse(t *testing.T, p storage.Provider) {
	ctx := context.Background()
	const workers = 8

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := p.CreateTask(ctx, models.NewTask{Title: fmt.Sprintf("task %d", i), Time: "08:00"})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent CreateTask() error = %v", err)
		}
	}

	tasks, err := p.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(tasks) != workers {
		t.Errorf("ListTasks() len = %d, want %d", len(tasks), workers)
	}
}

func testSchemaVersion(t *testing.T, p storage.Provider) {
	current, latest, err := p.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if current != latest || latest < 1 {
		t.Errorf("SchemaVersion() = (%d, %d), want equal and >= 1", current, latest)
	}
}
