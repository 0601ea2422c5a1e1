package appstate

import "github.com/julianstephens/mono/internal/models"

// Snapshot is everything the state holds, for export.
type Snapshot struct {
	Settings   models.Settings    `json:"settings" yaml:"settings"`
	User       *models.User       `json:"user,omitempty" yaml:"user,omitempty"`
	Tasks      []models.Task      `json:"tasks" yaml:"tasks"`
	Moods      []models.Mood      `json:"moods" yaml:"moods"`
	Challenges []models.Challenge `json:"challenges" yaml:"challenges"`
}

func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Settings:   s.Settings(),
		Tasks:      s.Tasks(),
		Moods:      s.Moods(),
		Challenges: s.Challenges(),
	}
	if u, ok := s.User(); ok {
		snap.User = &u
	}
	return snap
}
