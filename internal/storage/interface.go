package storage

import (
	"context"

	"github.com/julianstephens/mono/internal/models"
)

// Provider is the relational store for tasks, moods and challenges.
// Implementations open their connection lazily on the first call.
type Provider interface {
	// Lifecycle
	Open(ctx context.Context) error
	Close() error
	SchemaVersion(ctx context.Context) (current, latest int, err error)

	// Tasks
	ListTasks(ctx context.Context) ([]models.Task, error)
	GetTask(ctx context.Context, id string) (models.Task, error)
	CreateTask(ctx context.Context, in models.NewTask) (models.Task, error)
	// UpdateTask replaces the whole row and stamps UpdatedAt.
	UpdateTask(ctx context.Context, task models.Task) (models.Task, error)
	// DeleteTask is idempotent and returns the id it was given.
	DeleteTask(ctx context.Context, id string) (string, error)

	// Moods
	ListMoods(ctx context.Context) ([]models.Mood, error)
	GetMoodByDate(ctx context.Context, date string) (models.Mood, error)
	CreateMood(ctx context.Context, in models.NewMood) (models.Mood, error)
	UpdateMood(ctx context.Context, mood models.Mood) (models.Mood, error)
	DeleteMood(ctx context.Context, id string) (string, error)

	// Challenges
	ListChallenges(ctx context.Context) ([]models.Challenge, error)
	GetChallenge(ctx context.Context, id string) (models.Challenge, error)
	CreateChallenge(ctx context.Context, c models.Challenge) (models.Challenge, error)
	UpdateChallenge(ctx context.Context, c models.Challenge) (models.Challenge, error)
	DeleteChallenge(ctx context.Context, id string) (string, error)

	// Utils
	GetConfigPath() string
}
