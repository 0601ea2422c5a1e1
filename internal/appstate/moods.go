package appstate

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/julianstephens/mono/internal/constants"
	apperrors "github.com/julianstephens/mono/internal/errors"
	"github.com/julianstephens/mono/internal/models"
)

// Moods returns every check-in ordered by date.
func (s *State) Moods() []models.Mood {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return []models.Mood{}
	}
	return append([]models.Mood{}, s.moods...)
}

// TodayMood returns today's check-in if there is one.
func (s *State) TodayMood() (models.Mood, bool) {
	today := s.Today()
	for _, m := range s.Moods() {
		if m.Date == today {
			return m, true
		}
	}
	return models.Mood{}, false
}

// MoodInsight returns the suggestion shown for a mood and energy pair.
func (s *State) MoodInsight(mood models.MoodLevel, energy models.EnergyLevel) string {
	return models.Insight(mood, energy)
}

// TrackMood records today's mood. A date never gets a second row: an
// existing check-in is updated, and a create that loses a race to another
// writer falls back to updating the winner's row.
func (s *State) TrackMood(ctx context.Context, mood models.MoodLevel, energy models.EnergyLevel) (models.Mood, error) {
	if err := s.requireLoaded(); err != nil {
		return models.Mood{}, err
	}
	in := models.NewMood{Date: s.Today(), Mood: mood, Energy: energy}
	if err := in.Validate(); err != nil {
		return models.Mood{}, err
	}

	saved, err := s.upsertMood(ctx, in)
	if err != nil {
		return models.Mood{}, s.dbFailure("track mood", err)
	}

	s.adoptDB(ctx)
	s.putMood(saved)
	s.emit(constants.ChangeMoods)
	return saved, nil
}

func (s *State) upsertMood(ctx context.Context, in models.NewMood) (models.Mood, error) {
	existing, err := s.db.GetMoodByDate(ctx, in.Date)
	switch {
	case err == nil:
		return s.overwriteMood(ctx, existing, in)
	case !errors.Is(err, apperrors.ErrNotFound):
		return models.Mood{}, err
	}

	created, err := s.db.CreateMood(ctx, in)
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, apperrors.ErrConflict) {
		return models.Mood{}, err
	}

	winner, err := s.db.GetMoodByDate(ctx, in.Date)
	if err != nil {
		return models.Mood{}, fmt.Errorf("re-read mood after conflict: %w", err)
	}
	return s.overwriteMood(ctx, winner, in)
}

func (s *State) overwriteMood(ctx context.Context, existing models.Mood, in models.NewMood) (models.Mood, error) {
	existing.Mood = in.Mood
	existing.Energy = in.Energy
	return s.db.UpdateMood(ctx, existing)
}

func (s *State) putMood(mood models.Mood) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.moods {
		if s.moods[i].ID == mood.ID || s.moods[i].Date == mood.Date {
			s.moods[i] = mood
			return
		}
	}
	s.moods = append(s.moods, mood)
	sort.SliceStable(s.moods, func(i, j int) bool { return s.moods[i].Date < s.moods[j].Date })
}

// RemoveMood deletes a check-in by id.
func (s *State) RemoveMood(ctx context.Context, id string) error {
	if err := s.requireLoaded(); err != nil {
		return err
	}
	if _, err := s.db.DeleteMood(ctx, id); err != nil {
		return s.dbFailure("delete mood", err)
	}

	s.mu.Lock()
	kept := s.moods[:0]
	for _, m := range s.moods {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	s.moods = kept
	s.mu.Unlock()

	s.emit(constants.ChangeMoods)
	return nil
}
