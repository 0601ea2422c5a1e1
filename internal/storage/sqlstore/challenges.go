package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	apperrors "github.com/julianstephens/mono/internal/errors"
	"github.com/julianstephens/mono/internal/models"
	"github.com/julianstephens/mono/internal/utils"
)

const challengeColumns = `id, title, prompt, started_on, days, created_at, updated_at`

func scanChallenge(row scanner) (models.Challenge, error) {
	var c models.Challenge
	var days, createdAt, updatedAt string

	if err := row.Scan(&c.ID, &c.Title, &c.Prompt, &c.StartedOn, &days, &createdAt, &updatedAt); err != nil {
		return models.Challenge{}, err
	}
	if err := json.Unmarshal([]byte(days), &c.Days); err != nil {
		return models.Challenge{}, fmt.Errorf("decode days of challenge %s: %w", c.ID, err)
	}

	var err error
	if c.CreatedAt, err = utils.ParseTimestamp(createdAt); err != nil {
		return models.Challenge{}, err
	}
	if c.UpdatedAt, err = utils.ParseTimestamp(updatedAt); err != nil {
		return models.Challenge{}, err
	}
	return c, nil
}

func encodeDays(days []models.ChallengeDay) (string, error) {
	raw, err := json.Marshal(days)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s *Store) ListChallenges(ctx context.Context) ([]models.Challenge, error) {
	rows, err := s.query(ctx, "list challenges", `SELECT `+challengeColumns+` FROM challenge ORDER BY started_on DESC, created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	challenges := []models.Challenge{}
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, apperrors.Wrap("list challenges", apperrors.KindRead, err)
		}
		challenges = append(challenges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap("list challenges", apperrors.KindRead, err)
	}
	return challenges, nil
}

func (s *Store) GetChallenge(ctx context.Context, id string) (models.Challenge, error) {
	row, err := s.queryRow(ctx, `SELECT `+challengeColumns+` FROM challenge WHERE id = ?`, id)
	if err != nil {
		return models.Challenge{}, err
	}
	c, err := scanChallenge(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Challenge{}, apperrors.NotFound("get challenge " + id)
		}
		return models.Challenge{}, apperrors.Wrap("get challenge "+id, apperrors.KindRead, err)
	}
	return c, nil
}

// CreateChallenge stores c under a new id. Days are normalized to 1..30.
func (s *Store) CreateChallenge(ctx context.Context, c models.Challenge) (models.Challenge, error) {
	c.ID = uuid.NewString()
	days, err := models.NormalizeDays(c.Days)
	if err != nil {
		return models.Challenge{}, apperrors.Wrap("create challenge", apperrors.KindWrite, err)
	}
	c.Days = days
	if err := c.Validate(); err != nil {
		return models.Challenge{}, apperrors.Wrap("create challenge", apperrors.KindWrite, err)
	}

	encoded, err := encodeDays(c.Days)
	if err != nil {
		return models.Challenge{}, apperrors.Wrap("create challenge", apperrors.KindWrite, err)
	}
	now := utils.FormatTimestamp(s.stamp(noPrior))

	if _, err := s.exec(ctx, "create challenge",
		`INSERT INTO challenge (`+challengeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Title, c.Prompt, c.StartedOn, encoded, now, now,
	); err != nil {
		return models.Challenge{}, err
	}

	return s.GetChallenge(ctx, c.ID)
}

func (s *Store) UpdateChallenge(ctx context.Context, c models.Challenge) (models.Challenge, error) {
	if err := c.Validate(); err != nil {
		return models.Challenge{}, apperrors.Wrap("update challenge", apperrors.KindWrite, err)
	}

	prev, err := s.GetChallenge(ctx, c.ID)
	if err != nil {
		return models.Challenge{}, err
	}

	days, _ := models.NormalizeDays(c.Days)
	encoded, err := encodeDays(days)
	if err != nil {
		return models.Challenge{}, apperrors.Wrap("update challenge", apperrors.KindWrite, err)
	}
	updatedAt := utils.FormatTimestamp(s.stamp(prev.UpdatedAt))

	res, err := s.exec(ctx, "update challenge "+c.ID,
		`UPDATE challenge SET title = ?, prompt = ?, started_on = ?, days = ?, updated_at = ? WHERE id = ?`,
		c.Title, c.Prompt, c.StartedOn, encoded, updatedAt, c.ID,
	)
	if err != nil {
		return models.Challenge{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.Challenge{}, apperrors.NotFound("update challenge " + c.ID)
	}

	return s.GetChallenge(ctx, c.ID)
}

func (s *Store) DeleteChallenge(ctx context.Context, id string) (string, error) {
	if _, err := s.exec(ctx, "delete challenge "+id, `DELETE FROM challenge WHERE id = ?`, id); err != nil {
		return "", err
	}
	return id, nil
}
