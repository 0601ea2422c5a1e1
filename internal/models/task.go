package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/mono/internal/constants"
)

type Task struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Time      string    `json:"time" yaml:"time"` // HH:MM format
	Completed bool      `json:"completed" yaml:"completed"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// NewTask is the caller-supplied part of a task at creation.
type NewTask struct {
	Title string `json:"title"`
	Time  string `json:"time"`
}

func (n NewTask) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("task title cannot be empty")
	}
	if _, err := time.Parse(constants.TimeFormat, n.Time); err != nil {
		return fmt.Errorf("invalid time format (expected HH:MM): %w", err)
	}
	return nil
}

func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task id cannot be empty")
	}
	return NewTask{Title: t.Title, Time: t.Time}.Validate()
}

// LegacyTask is the task shape older builds kept in the key-value store.
type LegacyTask struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}
