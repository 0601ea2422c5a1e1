package appstate

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/mono/internal/constants"
	apperrors "github.com/julianstephens/mono/internal/errors"
	"github.com/julianstephens/mono/internal/kv"
	"github.com/julianstephens/mono/internal/models"
	"github.com/julianstephens/mono/internal/utils"
)

// writeThrough stores v under key and saves. When saving fails the
// previous document is put back so the store never runs ahead of memory.
func writeThrough[T any](s *State, key string, v T) error {
	s.kvMu.Lock()
	defer s.kvMu.Unlock()

	prev, hadPrev, err := s.kv.Get(key)
	if err != nil {
		return err
	}
	if err := kv.SetValue(s.kv, key, v); err != nil {
		return err
	}
	if err := s.kv.Save(); err != nil {
		if hadPrev {
			_ = s.kv.Set(key, prev)
		} else {
			_ = s.kv.Delete(key)
		}
		return err
	}
	return nil
}

func (s *State) update(key string, kind constants.ChangeKind, write func() error, apply func()) error {
	if err := s.requireLoaded(); err != nil {
		return err
	}
	if err := write(); err != nil {
		s.recordWarning("Failed to save "+key, err)
		return apperrors.Wrap("save "+key, apperrors.KindWrite, err)
	}
	s.mu.Lock()
	apply()
	s.mu.Unlock()
	s.emit(kind)
	return nil
}

func (s *State) Settings() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return models.DefaultSettings()
	}
	return s.settings
}

func (s *State) Theme() models.Theme { return s.Settings().Theme }

func (s *State) Section() int { return s.Settings().Section }

func (s *State) DailyHighlight() string { return s.Settings().DailyHighlight }

// User returns the persisted profile. It reports absent until Load completes.
func (s *State) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded || s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

func (s *State) UpdateTheme(theme models.Theme) error {
	if !theme.Valid() {
		return fmt.Errorf("invalid theme %q (expected %s or %s)", theme, models.ThemeLight, models.ThemeDark)
	}
	return s.update(constants.KeyTheme, constants.ChangeTheme,
		func() error { return writeThrough(s, constants.KeyTheme, theme) },
		func() { s.settings.Theme = theme })
}

func (s *State) UpdateSection(section int) error {
	if err := models.ValidateSection(section); err != nil {
		return err
	}
	return s.update(constants.KeySection, constants.ChangeSection,
		func() error { return writeThrough(s, constants.KeySection, section) },
		func() { s.settings.Section = section })
}

// NextSection moves one section right, stopping at the last one.
func (s *State) NextSection() error {
	next := s.Section() + 1
	if next >= constants.SectionCount {
		return nil
	}
	return s.UpdateSection(next)
}

// PrevSection moves one section left, stopping at the first one.
func (s *State) PrevSection() error {
	prev := s.Section() - 1
	if prev < 0 {
		return nil
	}
	return s.UpdateSection(prev)
}

func (s *State) UpdateHighlight(text string) error {
	text = strings.TrimSpace(text)
	return s.update(constants.KeyDailyHighlight, constants.ChangeHighlight,
		func() error { return writeThrough(s, constants.KeyDailyHighlight, text) },
		func() { s.settings.DailyHighlight = text })
}

// HighlightSuggestions returns the fixed suggestions in random order.
func (s *State) HighlightSuggestions() []string {
	out := append([]string(nil), constants.HighlightSuggestions...)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func (s *State) UpdateUser(user models.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	if user.Avatar != "" && !models.ValidAvatar(user.Avatar) {
		return fmt.Errorf("unknown avatar %q", user.Avatar)
	}
	return s.update(constants.KeyUser, constants.ChangeUser,
		func() error { return writeThrough(s, constants.KeyUser, user) },
		func() { u := user; s.user = &u })
}

// CompleteOnboarding creates the local profile. An empty avatar picks the
// default one.
func (s *State) CompleteOnboarding(name, avatar string) (models.User, error) {
	if avatar == "" {
		avatar = constants.DefaultAvatar
	}
	user := models.User{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Avatar:    avatar,
		CreatedAt: s.now().UTC(),
	}
	if err := s.UpdateUser(user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Greeting is the time-of-day greeting, addressed to the user when known.
func (s *State) Greeting() string {
	g := utils.Greeting(s.Now())
	if u, ok := s.User(); ok {
		return g + ", " + u.Name
	}
	return g
}
