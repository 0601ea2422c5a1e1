package appstate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/mono/internal/constants"
	apperrors "github.com/julianstephens/mono/internal/errors"
	"github.com/julianstephens/mono/internal/kv"
	"github.com/julianstephens/mono/internal/logger"
	"github.com/julianstephens/mono/internal/models"
)

// Tasks returns the tasks in stored order. While the database is
// unreachable it returns the legacy key-value list instead.
func (s *State) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return []models.Task{}
	}
	if !s.dbReady {
		out := make([]models.Task, 0, len(s.legacy))
		for _, l := range s.legacy {
			out = append(out, models.Task{ID: l.ID, Title: l.Text, Completed: l.Completed})
		}
		return out
	}
	return append([]models.Task{}, s.tasks...)
}

// SortedTasks returns incomplete tasks first, otherwise in stored order.
func (s *State) SortedTasks() []models.Task {
	tasks := s.Tasks()
	sort.SliceStable(tasks, func(i, j int) bool {
		return !tasks[i].Completed && tasks[j].Completed
	})
	return tasks
}

// FocusTask is the first incomplete task in sorted order.
func (s *State) FocusTask() (models.Task, bool) {
	for _, t := range s.SortedTasks() {
		if !t.Completed {
			return t, true
		}
	}
	return models.Task{}, false
}

// TaskProgress reports how many tasks are done out of the total.
func (s *State) TaskProgress() (done, total int) {
	for _, t := range s.Tasks() {
		total++
		if t.Completed {
			done++
		}
	}
	return done, total
}

func (s *State) findTask(id string) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

func (s *State) putTask(task models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == task.ID {
			s.tasks[i] = task
			return
		}
	}
	s.tasks = append(s.tasks, task)
}

// dbFailure records storage failures as warnings. Missing rows and
// conflicts are answers, not failures.
func (s *State) dbFailure(op string, err error) error {
	switch kind, _ := apperrors.KindOf(err); kind {
	case apperrors.KindNotFound, apperrors.KindConflict:
	default:
		s.recordWarning("Failed to "+op, err)
	}
	return err
}

func (s *State) AddTask(ctx context.Context, title, at string) (models.Task, error) {
	if err := s.requireLoaded(); err != nil {
		return models.Task{}, err
	}
	in := models.NewTask{Title: strings.TrimSpace(title), Time: at}
	if err := in.Validate(); err != nil {
		return models.Task{}, err
	}

	task, err := s.db.CreateTask(ctx, in)
	if err != nil {
		return models.Task{}, s.dbFailure("add task", err)
	}
	s.adoptDB(ctx)
	s.putTask(task)
	s.emit(constants.ChangeTasks)
	return task, nil
}

// ToggleTask flips the completion flag of the task with id.
func (s *State) ToggleTask(ctx context.Context, id string) (models.Task, error) {
	return s.modifyTask(ctx, id, func(t *models.Task) error {
		t.Completed = !t.Completed
		return nil
	})
}

// SetTaskCompleted marks a task done or not done.
func (s *State) SetTaskCompleted(ctx context.Context, id string, completed bool) (models.Task, error) {
	return s.modifyTask(ctx, id, func(t *models.Task) error {
		t.Completed = completed
		return nil
	})
}

// EditTask merges the non-nil fields into the current row and writes it back.
func (s *State) EditTask(ctx context.Context, id string, title, at *string) (models.Task, error) {
	return s.modifyTask(ctx, id, func(t *models.Task) error {
		if title != nil {
			t.Title = strings.TrimSpace(*title)
		}
		if at != nil {
			t.Time = *at
		}
		return t.Validate()
	})
}

func (s *State) modifyTask(ctx context.Context, id string, change func(*models.Task) error) (models.Task, error) {
	if err := s.requireLoaded(); err != nil {
		return models.Task{}, err
	}

	current, ok := s.findTask(id)
	if !ok {
		var err error
		if current, err = s.db.GetTask(ctx, id); err != nil {
			return models.Task{}, s.dbFailure("read task", err)
		}
	}

	if err := change(&current); err != nil {
		return models.Task{}, err
	}

	updated, err := s.db.UpdateTask(ctx, current)
	if err != nil {
		return models.Task{}, s.dbFailure("update task", err)
	}
	s.adoptDB(ctx)
	s.putTask(updated)
	s.emit(constants.ChangeTasks)
	return updated, nil
}

// RemoveTask deletes a task. Removing an unknown id is not an error.
func (s *State) RemoveTask(ctx context.Context, id string) error {
	if err := s.requireLoaded(); err != nil {
		return err
	}
	if _, err := s.db.DeleteTask(ctx, id); err != nil {
		return s.dbFailure("delete task", err)
	}
	s.adoptDB(ctx)

	s.mu.Lock()
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
	s.mu.Unlock()

	s.emit(constants.ChangeTasks)
	return nil
}

// ImportLegacyTasks copies the key-value task list into the database and
// removes the key. It refuses to import into a database that already has
// tasks, unless an earlier import stopped partway: each imported entry is
// dropped from the stored list as it lands, so a retry picks up the rest.
// Legacy entries carry no time, so they get the current time.
func (s *State) ImportLegacyTasks(ctx context.Context) (int, error) {
	if err := s.requireLoaded(); err != nil {
		return 0, err
	}

	s.kvMu.Lock()
	legacy, ok, err := kv.GetValue[[]models.LegacyTask](s.kv, constants.KeyTasks)
	var resuming bool
	if err == nil {
		resuming, _, err = kv.GetValue[bool](s.kv, constants.KeyLegacyImport)
	}
	s.kvMu.Unlock()
	if err != nil {
		return 0, err
	}
	if !ok || len(legacy) == 0 {
		if resuming {
			return 0, s.saveLegacy(nil, false)
		}
		return 0, nil
	}

	if !resuming {
		existing, err := s.db.ListTasks(ctx)
		if err != nil {
			return 0, s.dbFailure("list tasks", err)
		}
		if len(existing) > 0 {
			return 0, fmt.Errorf("database already has %d tasks, refusing to import %d legacy tasks", len(existing), len(legacy))
		}
		if err := s.saveLegacy(legacy, true); err != nil {
			return 0, err
		}
	}

	at := s.Now().Format(constants.TimeFormat)
	imported := 0
	for i, l := range legacy {
		if strings.TrimSpace(l.Text) == "" {
			logger.Warn("Skipping legacy task without text", "id", l.ID)
			continue
		}
		task, err := s.db.CreateTask(ctx, models.NewTask{Title: l.Text, Time: at})
		if err != nil {
			return imported, s.dbFailure("import task", err)
		}
		if l.Completed {
			task.Completed = true
			if _, err := s.db.UpdateTask(ctx, task); err != nil {
				return imported, s.dbFailure("import task", err)
			}
		}
		imported++
		if err := s.saveLegacy(legacy[i+1:], true); err != nil {
			return imported, err
		}
	}

	if err := s.saveLegacy(nil, false); err != nil {
		s.recordWarning("Imported legacy tasks but failed to remove them", err)
	}

	s.reloadDB(ctx)
	s.emit(constants.ChangeTasks)

	logger.Info("Imported legacy tasks", "count", imported)
	return imported, nil
}

// saveLegacy stores the entries still to import along with the in-progress
// marker, or removes both once inProgress is false.
func (s *State) saveLegacy(remaining []models.LegacyTask, inProgress bool) error {
	s.kvMu.Lock()
	defer s.kvMu.Unlock()

	var err error
	if inProgress {
		err = kv.SetValue(s.kv, constants.KeyTasks, remaining)
		if err == nil {
			err = kv.SetValue(s.kv, constants.KeyLegacyImport, true)
		}
	} else {
		err = s.kv.Delete(constants.KeyTasks)
		if err == nil {
			err = s.kv.Delete(constants.KeyLegacyImport)
		}
	}
	if err == nil {
		err = s.kv.Save()
	}
	return err
}
