package appstate

import (
	"context"
	"fmt"
	"strings"

	"github.com/julianstephens/mono/internal/constants"
	"github.com/julianstephens/mono/internal/models"
)

// Challenges returns the challenges, newest start date first.
func (s *State) Challenges() []models.Challenge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return []models.Challenge{}
	}
	return append([]models.Challenge{}, s.challenges...)
}

// Challenge looks up a challenge by id.
func (s *State) Challenge(id string) (models.Challenge, bool) {
	for _, c := range s.Challenges() {
		if c.ID == id {
			return c, true
		}
	}
	return models.Challenge{}, false
}

// GenerateChallenge asks the configured generator for a 30-day plan. The
// result is not saved; pass it to StartChallenge.
func (s *State) GenerateChallenge(ctx context.Context, prompt string) ([]models.ChallengeDay, error) {
	if s.gen == nil {
		return nil, ErrNoGenerator
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("challenge prompt cannot be empty")
	}
	days, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return models.NormalizeDays(days)
}

// StartChallenge saves a challenge that begins today.
func (s *State) StartChallenge(ctx context.Context, title, prompt string, days []models.ChallengeDay) (models.Challenge, error) {
	if err := s.requireLoaded(); err != nil {
		return models.Challenge{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = strings.TrimSpace(prompt)
	}

	created, err := s.db.CreateChallenge(ctx, models.Challenge{
		Title:     title,
		Prompt:    prompt,
		StartedOn: s.Today(),
		Days:      days,
	})
	if err != nil {
		return models.Challenge{}, s.dbFailure("start challenge", err)
	}

	s.adoptDB(ctx)
	s.putChallenge(created)

	s.emit(constants.ChangeChallenges)
	return created, nil
}

// SetChallengeMemo stores the memo and sticker for one day of a challenge.
// An empty sticker clears it.
func (s *State) SetChallengeMemo(ctx context.Context, id string, day int, memo, sticker string) (models.Challenge, error) {
	if err := s.requireLoaded(); err != nil {
		return models.Challenge{}, err
	}
	if sticker != "" && !models.ValidAvatar(sticker) {
		return models.Challenge{}, fmt.Errorf("unknown sticker %q", sticker)
	}

	c, ok := s.Challenge(id)
	if !ok {
		var err error
		if c, err = s.db.GetChallenge(ctx, id); err != nil {
			return models.Challenge{}, s.dbFailure("read challenge", err)
		}
	}

	c.Days = append([]models.ChallengeDay(nil), c.Days...)
	d := c.Day(day)
	if d == nil {
		return models.Challenge{}, fmt.Errorf("day must be between 1 and %d, got %d", constants.ChallengeLength, day)
	}
	d.Memo = strings.TrimSpace(memo)
	d.Sticker = sticker

	updated, err := s.db.UpdateChallenge(ctx, c)
	if err != nil {
		return models.Challenge{}, s.dbFailure("update challenge", err)
	}
	s.putChallenge(updated)
	s.emit(constants.ChangeChallenges)
	return updated, nil
}

func (s *State) putChallenge(c models.Challenge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.challenges {
		if s.challenges[i].ID == c.ID {
			s.challenges[i] = c
			return
		}
	}
	s.challenges = append([]models.Challenge{c}, s.challenges...)
}

func (s *State) RemoveChallenge(ctx context.Context, id string) error {
	if err := s.requireLoaded(); err != nil {
		return err
	}
	if _, err := s.db.DeleteChallenge(ctx, id); err != nil {
		return s.dbFailure("delete challenge", err)
	}

	s.mu.Lock()
	kept := s.challenges[:0]
	for _, c := range s.challenges {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.challenges = kept
	s.mu.Unlock()

	s.emit(constants.ChangeChallenges)
	return nil
}
