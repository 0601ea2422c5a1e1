package appstate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/mono/internal/constants"
	apperrors "github.com/julianstephens/mono/internal/errors"
	"github.com/julianstephens/mono/internal/kv"
	"github.com/julianstephens/mono/internal/models"
	"github.com/julianstephens/mono/internal/storage"
	"github.com/julianstephens/mono/internal/storage/sqlite"
)

func TestTaskLifecycle(t *testing.T) {
	s, _ := newEnv(t).open(t)
	mustLoad(t, s)
	ctx := context.Background()

	if _, err := s.AddTask(ctx, "   ", "09:00"); err == nil {
		t.Error("AddTask() accepted a blank title")
	}

	first, err := s.AddTask(ctx, "Write report", "09:00")
	if err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	second, err := s.AddTask(ctx, "Call mom", "18:30")
	if err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}

	if _, err := s.ToggleTask(ctx, first.ID); err != nil {
		t.Fatalf("ToggleTask() error = %v", err)
	}

	sorted := s.SortedTasks()
	if len(sorted) != 2 || sorted[0].ID != second.ID || sorted[1].ID != first.ID {
		t.Errorf("SortedTasks() = %+v, want incomplete first", sorted)
	}
	if focus, ok := s.FocusTask(); !ok || focus.ID != second.ID {
		t.Errorf("FocusTask() = %+v, %v", focus, ok)
	}
	if done, total := s.TaskProgress(); done != 1 || total != 2 {
		t.Errorf("TaskProgress() = %d/%d, want 1/2", done, total)
	}

	newTitle := "Call dad"
	edited, err := s.EditTask(ctx, second.ID, &newTitle, nil)
	if err != nil {
		t.Fatalf("EditTask() error = %v", err)
	}
	if edited.Title != "Call dad" || edited.Time != "18:30" {
		t.Errorf("EditTask() = %+v", edited)
	}

	badTime := "25:00"
	if _, err := s.EditTask(ctx, second.ID, nil, &badTime); err == nil {
		t.Error("EditTask() accepted an invalid time")
	}

	if err := s.RemoveTask(ctx, first.ID); err != nil {
		t.Fatalf("RemoveTask() error = %v", err)
	}
	if err := s.RemoveTask(ctx, first.ID); err != nil {
		t.Fatalf("second RemoveTask() error = %v", err)
	}
	tasks := s.Tasks()
	if len(tasks) != 1 || tasks[0].ID != second.ID {
		t.Errorf("Tasks() = %+v", tasks)
	}

	if _, err := s.ToggleTask(ctx, "missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("ToggleTask(missing) error = %v, want ErrNotFound", err)
	}
}

func TestTasksReloadFromDatabase(t *testing.T) {
	e := newEnv(t)
	s, _ := e.open(t)
	mustLoad(t, s)
	if _, err := s.AddTask(context.Background(), "Persist me", "07:15"); err != nil {
		t.Fatal(err)
	}

	again, _ := e.open(t)
	mustLoad(t, again)
	tasks := again.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "Persist me" {
		t.Errorf("Tasks() after restart = %+v", tasks)
	}
}

func legacyTasks() []models.LegacyTask {
	return []models.LegacyTask{
		{ID: "1", Text: "Old task", Completed: false},
		{ID: "2", Text: "Done task", Completed: true},
		{ID: "3", Text: "  ", Completed: false},
	}
}

func TestLegacyTasksWhenDatabaseUnavailable(t *testing.T) {
	e := newEnv(t)
	e.seedKV(t, map[string]interface{}{constants.KeyTasks: legacyTasks()})

	blocker := filepath.Join(e.dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0600); err != nil {
		t.Fatal(err)
	}
	db := sqlite.NewStore(filepath.Join(blocker, "main.db"))
	t.Cleanup(func() { db.Close() })

	s := New(kv.NewFileStore(e.kvPath), db)
	if err := s.Load(context.Background()); err == nil {
		t.Error("Load() returned no error with an unreachable database")
	}
	if !s.IsLoaded() || s.DatabaseReady() {
		t.Fatalf("IsLoaded() = %v DatabaseReady() = %v", s.IsLoaded(), s.DatabaseReady())
	}
	if len(s.Warnings()) == 0 {
		t.Error("no warning recorded")
	}

	tasks := s.Tasks()
	if len(tasks) != 3 || tasks[0].Title != "Old task" || !tasks[1].Completed {
		t.Errorf("Tasks() = %+v", tasks)
	}

	if _, err := s.AddTask(context.Background(), "New", "10:00"); err == nil {
		t.Error("AddTask() succeeded without a database")
	}
}

func TestImportLegacyTasks(t *testing.T) {
	e := newEnv(t)
	e.seedKV(t, map[string]interface{}{constants.KeyTasks: legacyTasks()})

	s, _ := e.open(t)
	mustLoad(t, s)

	n, err := s.ImportLegacyTasks(context.Background())
	if err != nil {
		t.Fatalf("ImportLegacyTasks() error = %v", err)
	}
	if n != 2 {
		t.Errorf("ImportLegacyTasks() = %d, want 2", n)
	}

	tasks := s.Tasks()
	if len(tasks) != 2 {
		t.Fatalf("Tasks() len = %d, want 2", len(tasks))
	}
	completed := 0
	for _, task := range tasks {
		if task.Time != "09:30" {
			t.Errorf("imported task time = %q, want 09:30", task.Time)
		}
		if task.Completed {
			completed++
		}
	}
	if completed != 1 {
		t.Errorf("completed imported tasks = %d, want 1", completed)
	}

	again, _ := e.open(t)
	mustLoad(t, again)
	if n, err := again.ImportLegacyTasks(context.Background()); err != nil || n != 0 {
		t.Errorf("second ImportLegacyTasks() = %d, %v; want 0, nil", n, err)
	}
}

func TestImportLegacyTasksRefusesNonEmptyDatabase(t *testing.T) {
	e := newEnv(t)
	e.seedKV(t, map[string]interface{}{constants.KeyTasks: legacyTasks()})

	s, _ := e.open(t)
	mustLoad(t, s)
	if _, err := s.AddTask(context.Background(), "Existing", "08:00"); err != nil {
		t.Fatal(err)
	}

	if _, err := s.ImportLegacyTasks(context.Background()); err == nil {
		t.Error("ImportLegacyTasks() imported into a non-empty database")
	}
}

// failingCreates lets the first ok task inserts through and fails the rest.
type failingCreates struct {
	storage.Provider
	ok int
}

func (f *failingCreates) CreateTask(ctx context.Context, in models.NewTask) (models.Task, error) {
	if f.ok == 0 {
		return models.Task{}, apperrors.Wrap("create task", apperrors.KindWrite, errors.New("disk full"))
	}
	f.ok--
	return f.Provider.CreateTask(ctx, in)
}

func TestImportLegacyTasksResumesAfterFailure(t *testing.T) {
	e := newEnv(t)
	e.seedKV(t, map[string]interface{}{constants.KeyTasks: []models.LegacyTask{
		{ID: "1", Text: "Call mom"},
		{ID: "2", Text: "Pay rent", Completed: true},
		{ID: "3", Text: "Fix bike"},
	}})
	ctx := context.Background()

	db := sqlite.NewStore(e.dbPath)
	t.Cleanup(func() { db.Close() })
	first := New(kv.NewFileStore(e.kvPath), &failingCreates{Provider: db, ok: 1},
		WithClock(func() time.Time { return fixedNow }), WithLocation(time.UTC))
	mustLoad(t, first)

	if n, err := first.ImportLegacyTasks(ctx); err == nil || n != 1 {
		t.Fatalf("first ImportLegacyTasks() = %d, %v; want 1 and an error", n, err)
	}

	retry, _ := e.open(t)
	mustLoad(t, retry)
	n, err := retry.ImportLegacyTasks(ctx)
	if err != nil {
		t.Fatalf("retry ImportLegacyTasks() error = %v", err)
	}
	if n != 2 {
		t.Errorf("retry imported %d, want 2", n)
	}

	rows, err := db.ListTasks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	titles := map[string]bool{}
	for _, r := range rows {
		titles[r.Title] = true
	}
	if len(rows) != 3 || !titles["Call mom"] || !titles["Pay rent"] || !titles["Fix bike"] {
		t.Errorf("tasks after retry = %+v", rows)
	}

	store := kv.NewFileStore(e.kvPath)
	if err := store.Load(ctx); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{constants.KeyTasks, constants.KeyLegacyImport} {
		if _, ok, _ := store.Get(key); ok {
			t.Errorf("key %q left behind after import", key)
		}
	}
}

func TestTrackMoodTwiceKeepsOneRow(t *testing.T) {
	s, db := newEnv(t).open(t)
	mustLoad(t, s)
	ctx := context.Background()

	first, err := s.TrackMood(ctx, models.MoodGood, models.EnergyHigh)
	if err != nil {
		t.Fatalf("TrackMood() error = %v", err)
	}
	second, err := s.TrackMood(ctx, models.MoodLow, models.EnergyLow)
	if err != nil {
		t.Fatalf("second TrackMood() error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second TrackMood() created a new row %s, want %s", second.ID, first.ID)
	}

	rows, err := db.ListMoods(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Mood != models.MoodLow {
		t.Errorf("ListMoods() = %+v", rows)
	}

	today, ok := s.TodayMood()
	if !ok || today.Energy != models.EnergyLow || len(s.Moods()) != 1 {
		t.Errorf("TodayMood() = %+v, %v; Moods() = %d", today, ok, len(s.Moods()))
	}

	if _, err := s.TrackMood(ctx, "ecstatic", models.EnergyLow); err == nil {
		t.Error("TrackMood() accepted an unknown mood")
	}
}

// racingProvider hides an existing row from the first lookup, as if another
// writer inserted it between the lookup and the create.
type racingProvider struct {
	storage.Provider
	mu     sync.Mutex
	hidden int
}

func (r *racingProvider) GetMoodByDate(ctx context.Context, date string) (models.Mood, error) {
	r.mu.Lock()
	hide := r.hidden > 0
	if hide {
		r.hidden--
	}
	r.mu.Unlock()
	if hide {
		return models.Mood{}, apperrors.NotFound("get mood for " + date)
	}
	return r.Provider.GetMoodByDate(ctx, date)
}

func TestTrackMoodRecoversFromLostRace(t *testing.T) {
	e := newEnv(t)
	db := sqlite.NewStore(e.dbPath)
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()

	s := New(kv.NewFileStore(e.kvPath), &racingProvider{Provider: db, hidden: 1},
		WithClock(func() time.Time { return fixedNow }), WithLocation(time.UTC))
	mustLoad(t, s)

	winner, err := db.CreateMood(ctx, models.NewMood{Date: "2026-03-14", Mood: models.MoodGreat, Energy: models.EnergyHigh})
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.TrackMood(ctx, models.MoodBad, models.EnergyMedium)
	if err != nil {
		t.Fatalf("TrackMood() error = %v", err)
	}
	if got.ID != winner.ID || got.Mood != models.MoodBad {
		t.Errorf("TrackMood() = %+v, want update of %s", got, winner.ID)
	}

	rows, err := db.ListMoods(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("ListMoods() len = %d, want 1", len(rows))
	}
}

func TestConcurrentTrackMood(t *testing.T) {
	s, db := newEnv(t).open(t)
	mustLoad(t, s)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.TrackMood(ctx, models.MoodNeutral, models.EnergyMedium); err != nil {
				t.Errorf("TrackMood() error = %v", err)
			}
		}()
	}
	wg.Wait()

	rows, err := db.ListMoods(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("ListMoods() len = %d, want 1", len(rows))
	}
}
