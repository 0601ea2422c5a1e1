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

const moodColumns = `id, date, mood, energy, created_at, updated_at`

func scanMood(row scanner) (models.Mood, error) {
	var m models.Mood
	var mood, energy, createdAt, updatedAt string

	if err := row.Scan(&m.ID, &m.Date, &mood, &energy, &createdAt, &updatedAt); err != nil {
		return models.Mood{}, err
	}
	m.Mood = models.MoodLevel(mood)
	m.Energy = models.EnergyLevel(energy)

	var err error
	if m.CreatedAt, err = utils.ParseTimestamp(createdAt); err != nil {
		return models.Mood{}, err
	}
	if m.UpdatedAt, err = utils.ParseTimestamp(updatedAt); err != nil {
		return models.Mood{}, err
	}
	return m, nil
}

func (s *Store) ListMoods(ctx context.Context) ([]models.Mood, error) {
	rows, err := s.query(ctx, "list moods", `SELECT `+moodColumns+` FROM mood ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	moods := []models.Mood{}
	for rows.Next() {
		m, err := scanMood(rows)
		if err != nil {
			return nil, apperrors.Wrap("list moods", apperrors.KindRead, err)
		}
		moods = append(moods, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap("list moods", apperrors.KindRead, err)
	}
	return moods, nil
}

func (s *Store) getMood(ctx context.Context, op, where string, arg string) (models.Mood, error) {
	row, err := s.queryRow(ctx, `SELECT `+moodColumns+` FROM mood WHERE `+where+` = ?`, arg)
	if err != nil {
		return models.Mood{}, err
	}
	m, err := scanMood(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Mood{}, apperrors.NotFound(op)
		}
		return models.Mood{}, apperrors.Wrap(op, apperrors.KindRead, err)
	}
	return m, nil
}

func (s *Store) GetMood(ctx context.Context, id string) (models.Mood, error) {
	return s.getMood(ctx, "get mood "+id, "id", id)
}

// GetMoodByDate returns the mood recorded for date (YYYY-MM-DD).
func (s *Store) GetMoodByDate(ctx context.Context, date string) (models.Mood, error) {
	return s.getMood(ctx, "get mood for "+date, "date", date)
}

// CreateMood inserts a mood. A second mood for the same date fails with
// errors.ErrConflict.
func (s *Store) CreateMood(ctx context.Context, in models.NewMood) (models.Mood, error) {
	if err := in.Validate(); err != nil {
		return models.Mood{}, apperrors.Wrap("create mood", apperrors.KindWrite, err)
	}

	id := uuid.NewString()
	now := utils.FormatTimestamp(s.stamp(noPrior))

	if _, err := s.exec(ctx, "create mood for "+in.Date,
		`INSERT INTO mood (`+moodColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		id, in.Date, string(in.Mood), string(in.Energy), now, now,
	); err != nil {
		return models.Mood{}, err
	}

	return s.GetMood(ctx, id)
}

func (s *Store) UpdateMood(ctx context.Context, mood models.Mood) (models.Mood, error) {
	if err := mood.Validate(); err != nil {
		return models.Mood{}, apperrors.Wrap("update mood", apperrors.KindWrite, err)
	}

	prev, err := s.GetMood(ctx, mood.ID)
	if err != nil {
		return models.Mood{}, err
	}

	updatedAt := utils.FormatTimestamp(s.stamp(prev.UpdatedAt))
	res, err := s.exec(ctx, "update mood "+mood.ID,
		`UPDATE mood SET date = ?, mood = ?, energy = ?, updated_at = ? WHERE id = ?`,
		mood.Date, string(mood.Mood), string(mood.Energy), updatedAt, mood.ID,
	)
	if err != nil {
		return models.Mood{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.Mood{}, apperrors.NotFound("update mood " + mood.ID)
	}

	return s.GetMood(ctx, mood.ID)
}

func (s *Store) DeleteMood(ctx context.Context, id string) (string, error) {
	if _, err := s.exec(ctx, "delete mood "+id, `DELETE FROM mood WHERE id = ?`, id); err != nil {
		return "", err
	}
	return id, nil
}
