package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	apperrors "github.com/julianstephens/mono/internal/errors"
	"github.com/julianstephens/mono/internal/models"
	"github.com/julianstephens/mono/internal/utils"
)

const taskColumns = `id, title, time, completed, created_at, updated_at`

func scanTask(row scanner) (models.Task, error) {
	var t models.Task
	var completed int
	var createdAt, updatedAt string

	if err := row.Scan(&t.ID, &t.Title, &t.Time, &completed, &createdAt, &updatedAt); err != nil {
		return models.Task{}, err
	}
	t.Completed = completed != 0

	var err error
	if t.CreatedAt, err = utils.ParseTimestamp(createdAt); err != nil {
		return models.Task{}, err
	}
	if t.UpdatedAt, err = utils.ParseTimestamp(updatedAt); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

func (s *Store) ListTasks(ctx context.Context) ([]models.Task, error) {
	rows, err := s.query(ctx, "list tasks", `SELECT `+taskColumns+` FROM task`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, apperrors.Wrap("list tasks", apperrors.KindRead, err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap("list tasks", apperrors.KindRead, err)
	}
	return tasks, nil
}

func (s *Store) GetTask(ctx context.Context, id string) (models.Task, error) {
	row, err := s.queryRow(ctx, `SELECT `+taskColumns+` FROM task WHERE id = ?`, id)
	if err != nil {
		return models.Task{}, err
	}
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, apperrors.NotFound("get task " + id)
		}
		return models.Task{}, apperrors.Wrap("get task "+id, apperrors.KindRead, err)
	}
	return t, nil
}

// CreateTask inserts a new incomplete task and returns the row as stored.
func (s *Store) CreateTask(ctx context.Context, in models.NewTask) (models.Task, error) {
	if err := in.Validate(); err != nil {
		return models.Task{}, apperrors.Wrap("create task", apperrors.KindWrite, err)
	}

	id := uuid.NewString()
	now := utils.FormatTimestamp(s.stamp(noPrior))

	if _, err := s.exec(ctx, "create task",
		`INSERT INTO task (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		id, in.Title, in.Time, 0, now, now,
	); err != nil {
		return models.Task{}, err
	}

	return s.GetTask(ctx, id)
}

// UpdateTask writes every column of task except created_at and returns the
// row as stored. updated_at always moves forward.
func (s *Store) UpdateTask(ctx context.Context, task models.Task) (models.Task, error) {
	if err := task.Validate(); err != nil {
		return models.Task{}, apperrors.Wrap("update task", apperrors.KindWrite, err)
	}

	prev, err := s.GetTask(ctx, task.ID)
	if err != nil {
		return models.Task{}, err
	}

	updatedAt := utils.FormatTimestamp(s.stamp(prev.UpdatedAt))
	res, err := s.exec(ctx, "update task "+task.ID,
		`UPDATE task SET title = ?, time = ?, completed = ?, updated_at = ? WHERE id = ?`,
		task.Title, task.Time, boolToInt(task.Completed), updatedAt, task.ID,
	)
	if err != nil {
		return models.Task{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.Task{}, apperrors.NotFound("update task " + task.ID)
	}

	return s.GetTask(ctx, task.ID)
}

func (s *Store) DeleteTask(ctx context.Context, id string) (string, error) {
	if _, err := s.exec(ctx, "delete task "+id, `DELETE FROM task WHERE id = ?`, id); err != nil {
		return "", err
	}
	return id, nil
}
