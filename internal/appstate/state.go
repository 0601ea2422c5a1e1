// Package appstate is the single in-memory access point the front ends use
// instead of talking to the key-value and relational stores directly.
//
// A State is built once at startup and handed to the CLI, the TUI and the
// MCP server. Until Load completes every accessor returns defaults.
package appstate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/julianstephens/mono/internal/constants"
	"github.com/julianstephens/mono/internal/kv"
	"github.com/julianstephens/mono/internal/logger"
	"github.com/julianstephens/mono/internal/models"
	"github.com/julianstephens/mono/internal/storage"
	"github.com/julianstephens/mono/internal/utils"
)

var (
	// ErrNotLoaded is returned by mutations called before Load.
	ErrNotLoaded = errors.New("application state is not loaded")
	// ErrNoGenerator is returned by GenerateChallenge when no generator is configured.
	ErrNoGenerator = errors.New("no challenge generator configured")
)

// ChallengeGenerator produces the days of a new challenge from a prompt.
type ChallengeGenerator interface {
	Generate(ctx context.Context, prompt string) ([]models.ChallengeDay, error)
}

// Change is emitted to subscribers after every successful mutation.
type Change struct {
	Kind constants.ChangeKind
}

type Option func(*State)

// WithClock replaces the time source used for "today".
func WithClock(now func() time.Time) Option {
	return func(s *State) { s.now = now }
}

// WithLocation sets the timezone that decides the current calendar date.
func WithLocation(loc *time.Location) Option {
	return func(s *State) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithChallengeGenerator wires the remote challenge generator.
func WithChallengeGenerator(g ChallengeGenerator) Option {
	return func(s *State) { s.gen = g }
}

type State struct {
	kv  kv.Store
	db  storage.Provider
	gen ChallengeGenerator
	now func() time.Time
	loc *time.Location

	// kvMu serializes write-through so Set and Save pair up.
	kvMu sync.Mutex

	mu         sync.RWMutex
	loaded     bool
	dbReady    bool
	settings   models.Settings
	user       *models.User
	tasks      []models.Task
	legacy     []models.LegacyTask
	moods      []models.Mood
	challenges []models.Challenge
	warnings   []error

	subMu sync.Mutex
	subs  map[chan Change]struct{}
}

// New returns an unloaded State over the given stores. Neither store is
// opened until Load.
func New(kvStore kv.Store, db storage.Provider, opts ...Option) *State {
	s := &State{
		kv:       kvStore,
		db:       db,
		now:      time.Now,
		loc:      time.Local,
		settings: models.DefaultSettings(),
		subs:     map[chan Change]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load performs the one initialization pass. Store failures do not stop
// it: they are logged, kept as warnings and returned joined, and the state
// becomes loaded with defaults for whatever could not be read. Calling
// Load again after success is a no-op.
func (s *State) Load(ctx context.Context) error {
	s.mu.RLock()
	done := s.loaded
	s.mu.RUnlock()
	if done {
		return nil
	}

	settings := models.DefaultSettings()
	var user *models.User
	var legacy []models.LegacyTask
	var warns []error

	warn := func(msg string, err error) {
		logger.Warn(msg, "error", err)
		warns = append(warns, err)
	}

	kvOK := true
	if err := s.kv.Load(ctx); err != nil {
		warn("Failed to load key-value store, using defaults", err)
		kvOK = false
	}

	if kvOK {
		if theme, ok, err := kv.GetValue[models.Theme](s.kv, constants.KeyTheme); err != nil {
			warn("Failed to read theme", err)
		} else if ok && theme.Valid() {
			settings.Theme = theme
		}

		if section, ok, err := kv.GetValue[int](s.kv, constants.KeySection); err != nil {
			warn("Failed to read section", err)
		} else if ok && models.ValidateSection(section) == nil {
			settings.Section = section
		}

		if highlight, ok, err := kv.GetValue[string](s.kv, constants.KeyDailyHighlight); err != nil {
			warn("Failed to read daily highlight", err)
		} else if ok {
			settings.DailyHighlight = highlight
		}

		if u, ok, err := kv.GetValue[models.User](s.kv, constants.KeyUser); err != nil {
			warn("Failed to read user", err)
		} else if ok {
			user = &u
		}
	}

	tasks, moods, challenges, err := s.readDB(ctx)
	dbReady := err == nil
	if err != nil {
		warn("Failed to open database, falling back to stored task list", err)
		if kvOK {
			if l, _, lerr := kv.GetValue[[]models.LegacyTask](s.kv, constants.KeyTasks); lerr != nil {
				warn("Failed to read legacy tasks", lerr)
			} else {
				legacy = l
			}
		}
	}

	s.mu.Lock()
	s.settings = settings
	s.user = user
	s.tasks = tasks
	s.moods = moods
	s.challenges = challenges
	s.legacy = legacy
	s.dbReady = dbReady
	s.warnings = append(s.warnings, warns...)
	s.loaded = true
	s.mu.Unlock()

	logger.Debug("Loaded application state", "database", dbReady, "user", user != nil)
	s.emit(constants.ChangeLoaded)
	return errors.Join(warns...)
}

func (s *State) readDB(ctx context.Context) ([]models.Task, []models.Mood, []models.Challenge, error) {
	if err := s.db.Open(ctx); err != nil {
		return nil, nil, nil, err
	}
	tasks, err := s.db.ListTasks(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	moods, err := s.db.ListMoods(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	challenges, err := s.db.ListChallenges(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return tasks, moods, challenges, nil
}

// adoptDB reloads the relational lists after a mutation succeeded while the
// state was still on the legacy fallback.
func (s *State) adoptDB(ctx context.Context) {
	s.mu.RLock()
	ready := s.dbReady
	s.mu.RUnlock()
	if !ready {
		s.reloadDB(ctx)
	}
}

func (s *State) reloadDB(ctx context.Context) {
	tasks, moods, challenges, err := s.readDB(ctx)
	if err != nil {
		logger.Warn("Database reachable but not readable", "error", err)
		return
	}

	s.mu.Lock()
	s.tasks, s.moods, s.challenges = tasks, moods, challenges
	s.legacy = nil
	s.dbReady = true
	s.mu.Unlock()
}

func (s *State) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// NeedsOnboarding is true only once loading has finished and no user is
// persisted. It is always false before Load.
func (s *State) NeedsOnboarding() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded && s.user == nil
}

// DatabaseReady reports whether the relational store was reachable.
func (s *State) DatabaseReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dbReady
}

// Warnings returns the store failures recorded so far.
func (s *State) Warnings() []error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]error(nil), s.warnings...)
}

func (s *State) recordWarning(msg string, err error) {
	logger.Warn(msg, "error", err)
	s.mu.Lock()
	s.warnings = append(s.warnings, err)
	s.mu.Unlock()
}

func (s *State) requireLoaded() error {
	if !s.IsLoaded() {
		return ErrNotLoaded
	}
	return nil
}

// Now returns the current time in the configured location.
func (s *State) Now() time.Time {
	return s.now().In(s.loc)
}

// Today returns the current calendar date as YYYY-MM-DD.
func (s *State) Today() string {
	return utils.DateOf(s.Now())
}

// Subscribe returns a channel of change events and a function that stops
// delivery and closes it. Slow subscribers miss events rather than block
// writers.
func (s *State) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, 16)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, ch)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *State) emit(kind constants.ChangeKind) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- Change{Kind: kind}:
		default:
		}
	}
}
