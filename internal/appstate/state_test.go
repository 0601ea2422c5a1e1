package appstate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/mono/internal/constants"
	apperrors "github.com/julianstephens/mono/internal/errors"
	"github.com/julianstephens/mono/internal/kv"
	"github.com/julianstephens/mono/internal/logger"
	"github.com/julianstephens/mono/internal/models"
	"github.com/julianstephens/mono/internal/storage"
	"github.com/julianstephens/mono/internal/storage/sqlite"
	"github.com/julianstephens/mono/internal/storage/storagetest"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type env struct {
	dir    string
	kvPath string
	dbPath string
}

func newEnv(t *testing.T) env {
	t.Helper()
	logger.Discard()
	dir := t.TempDir()
	return env{
		dir:    dir,
		kvPath: filepath.Join(dir, constants.KVFileName),
		dbPath: filepath.Join(dir, constants.DatabaseFileName),
	}
}

// open builds a State the way a fresh process would.
func (e env) open(t *testing.T, opts ...Option) (*State, *sqlite.Store) {
	t.Helper()
	db := sqlite.NewStore(e.dbPath)
	t.Cleanup(func() { db.Close() })
	opts = append([]Option{WithClock(func() time.Time { return fixedNow }), WithLocation(time.UTC)}, opts...)
	return New(kv.NewFileStore(e.kvPath), db, opts...), db
}

func (e env) seedKV(t *testing.T, values map[string]interface{}) {
	t.Helper()
	store := kv.NewFileStore(e.kvPath)
	if err := store.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	for k, v := range values {
		if err := kv.SetValue(store, k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.Save(); err != nil {
		t.Fatal(err)
	}
}

func mustLoad(t *testing.T, s *State) {
	t.Helper()
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}

func TestUserIsAbsentUntilLoaded(t *testing.T) {
	e := newEnv(t)
	e.seedKV(t, map[string]interface{}{
		constants.KeyUser: models.User{ID: "u1", Name: "Ada", Avatar: "cat", CreatedAt: fixedNow},
	})

	s, _ := e.open(t)

	if s.IsLoaded() {
		t.Fatal("IsLoaded() = true before Load")
	}
	if _, ok := s.User(); ok {
		t.Error("User() present before Load")
	}
	if s.NeedsOnboarding() {
		t.Error("NeedsOnboarding() = true before Load")
	}

	mustLoad(t, s)

	u, ok := s.User()
	if !ok || u.Name != "Ada" {
		t.Errorf("User() = %+v, %v; want Ada", u, ok)
	}
	if s.NeedsOnboarding() {
		t.Error("NeedsOnboarding() = true for a returning user")
	}
}

func TestNeedsOnboardingWithoutUser(t *testing.T) {
	s, _ := newEnv(t).open(t)
	mustLoad(t, s)

	if !s.NeedsOnboarding() {
		t.Error("NeedsOnboarding() = false with no user persisted")
	}
}

func TestDefaultsBeforeLoad(t *testing.T) {
	e := newEnv(t)
	e.seedKV(t, map[string]interface{}{constants.KeyTheme: "dark", constants.KeySection: 2})

	s, _ := e.open(t)
	if got := s.Theme(); got != models.ThemeLight {
		t.Errorf("Theme() before Load = %q, want light", got)
	}
	if got := s.Section(); got != 0 {
		t.Errorf("Section() before Load = %d, want 0", got)
	}

	mustLoad(t, s)
	if got := s.Theme(); got != models.ThemeDark {
		t.Errorf("Theme() = %q, want dark", got)
	}
	if got := s.Section(); got != 2 {
		t.Errorf("Section() = %d, want 2", got)
	}
}

func TestThemeSurvivesRestart(t *testing.T) {
	e := newEnv(t)

	first, _ := e.open(t)
	mustLoad(t, first)
	if err := first.UpdateTheme(models.ThemeDark); err != nil {
		t.Fatalf("UpdateTheme() error = %v", err)
	}
	if err := first.UpdateHighlight("  Ship the release  "); err != nil {
		t.Fatalf("UpdateHighlight() error = %v", err)
	}

	second, _ := e.open(t)
	mustLoad(t, second)
	if got := second.Theme(); got != models.ThemeDark {
		t.Errorf("Theme() after restart = %q, want dark", got)
	}
	if got := second.DailyHighlight(); got != "Ship the release" {
		t.Errorf("DailyHighlight() after restart = %q", got)
	}
}

func TestInvalidStoredValuesFallBackToDefaults(t *testing.T) {
	e := newEnv(t)
	e.seedKV(t, map[string]interface{}{constants.KeyTheme: "sepia", constants.KeySection: 7})

	s, _ := e.open(t)
	mustLoad(t, s)
	if s.Theme() != models.ThemeLight || s.Section() != 0 {
		t.Errorf("Settings() = %+v, want defaults", s.Settings())
	}
}

func TestUpdatesRequireLoad(t *testing.T) {
	s, _ := newEnv(t).open(t)

	if err := s.UpdateTheme(models.ThemeDark); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("UpdateTheme() error = %v, want ErrNotLoaded", err)
	}
	if _, err := s.AddTask(context.Background(), "x", "10:00"); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("AddTask() error = %v, want ErrNotLoaded", err)
	}
}

func TestUpdateValidation(t *testing.T) {
	s, _ := newEnv(t).open(t)
	mustLoad(t, s)

	if err := s.UpdateTheme("blue"); err == nil {
		t.Error("UpdateTheme(blue) succeeded")
	}
	if err := s.UpdateSection(3); err == nil {
		t.Error("UpdateSection(3) succeeded")
	}
	if err := s.UpdateUser(models.User{ID: "u", Name: "x", Avatar: "dragon"}); err == nil {
		t.Error("UpdateUser() accepted an unknown avatar")
	}
}

type saveFailingKV struct {
	kv.Store
	fail bool
}

func (f *saveFailingKV) Save() error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.Store.Save()
}

func TestFailedWriteLeavesMemoryUnchanged(t *testing.T) {
	e := newEnv(t)
	store := &saveFailingKV{Store: kv.NewFileStore(e.kvPath)}
	db := sqlite.NewStore(e.dbPath)
	t.Cleanup(func() { db.Close() })

	s := New(store, db)
	mustLoad(t, s)

	store.fail = true
	err := s.UpdateTheme(models.ThemeDark)
	if err == nil {
		t.Fatal("UpdateTheme() succeeded with a failing store")
	}
	if kind, _ := apperrors.KindOf(err); kind != apperrors.KindWrite {
		t.Errorf("KindOf() = %q, want write", kind)
	}
	if got := s.Theme(); got != models.ThemeLight {
		t.Errorf("Theme() = %q after failed write, want light", got)
	}
	if _, ok, _ := store.Get(constants.KeyTheme); ok {
		t.Error("failed write left the value in the store")
	}
	if len(s.Warnings()) == 0 {
		t.Error("failed write was not recorded as a warning")
	}

	store.fail = false
	if err := s.UpdateTheme(models.ThemeDark); err != nil {
		t.Fatalf("UpdateTheme() after recovery error = %v", err)
	}
	if got := s.Theme(); got != models.ThemeDark {
		t.Errorf("Theme() = %q, want dark", got)
	}
}

func TestCorruptKVLoadsDefaults(t *testing.T) {
	e := newEnv(t)
	if err := os.WriteFile(e.kvPath, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	s, _ := e.open(t)
	if err := s.Load(context.Background()); err == nil {
		t.Error("Load() returned no error for a corrupt store")
	}
	if !s.IsLoaded() {
		t.Fatal("IsLoaded() = false after a degraded load")
	}
	if s.Theme() != models.ThemeLight {
		t.Errorf("Theme() = %q, want default", s.Theme())
	}
	if !s.DatabaseReady() {
		t.Error("database should still load when only the kv store is broken")
	}
}

func TestSectionNavigationIsBounded(t *testing.T) {
	s, _ := newEnv(t).open(t)
	mustLoad(t, s)

	if err := s.PrevSection(); err != nil {
		t.Fatal(err)
	}
	if s.Section() != 0 {
		t.Errorf("Section() = %d after PrevSection at 0", s.Section())
	}
	for i := 0; i < 5; i++ {
		if err := s.NextSection(); err != nil {
			t.Fatal(err)
		}
	}
	if s.Section() != constants.SectionCount-1 {
		t.Errorf("Section() = %d, want %d", s.Section(), constants.SectionCount-1)
	}
}

func TestCompleteOnboarding(t *testing.T) {
	e := newEnv(t)
	s, _ := e.open(t)
	mustLoad(t, s)

	if _, err := s.CompleteOnboarding("   ", "cat"); err == nil {
		t.Error("CompleteOnboarding() accepted a blank name")
	}

	u, err := s.CompleteOnboarding(" Grace ", "")
	if err != nil {
		t.Fatalf("CompleteOnboarding() error = %v", err)
	}
	if u.Name != "Grace" || u.Avatar != constants.DefaultAvatar || u.ID == "" {
		t.Errorf("CompleteOnboarding() = %+v", u)
	}
	if s.NeedsOnboarding() {
		t.Error("NeedsOnboarding() = true after onboarding")
	}
	if got := s.Greeting(); got != "Good morning, Grace" {
		t.Errorf("Greeting() = %q", got)
	}

	again, _ := e.open(t)
	mustLoad(t, again)
	if got, ok := again.User(); !ok || got.ID != u.ID {
		t.Errorf("User() after restart = %+v, %v", got, ok)
	}
}

func TestSubscribeReceivesChanges(t *testing.T) {
	s, _ := newEnv(t).open(t)
	changes, stop := s.Subscribe()
	defer stop()

	mustLoad(t, s)
	if got := <-changes; got.Kind != constants.ChangeLoaded {
		t.Errorf("first change = %q, want loaded", got.Kind)
	}

	if err := s.UpdateTheme(models.ThemeDark); err != nil {
		t.Fatal(err)
	}
	if got := <-changes; got.Kind != constants.ChangeTheme {
		t.Errorf("change = %q, want theme", got.Kind)
	}

	stop()
	if _, open := <-changes; open {
		t.Error("channel still open after stop")
	}
	stop()
}

func TestHighlightSuggestionsArePermutation(t *testing.T) {
	s, _ := newEnv(t).open(t)
	got := s.HighlightSuggestions()
	if len(got) != len(constants.HighlightSuggestions) {
		t.Fatalf("len = %d", len(got))
	}
	seen := map[string]bool{}
	for _, g := range got {
		seen[g] = true
	}
	for _, want := range constants.HighlightSuggestions {
		if !seen[want] {
			t.Errorf("missing suggestion %q", want)
		}
	}
}

type stubGenerator struct {
	prompt string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) ([]models.ChallengeDay, error) {
	g.prompt = prompt
	days := storagetest.ChallengeDays()
	// Out of order on purpose.
	days[0], days[29] = days[29], days[0]
	return days, nil
}

func TestChallengeFlow(t *testing.T) {
	gen := &stubGenerator{}
	s, _ := newEnv(t).open(t, WithChallengeGenerator(gen))
	mustLoad(t, s)
	ctx := context.Background()

	days, err := s.GenerateChallenge(ctx, "  running  ")
	if err != nil {
		t.Fatalf("GenerateChallenge() error = %v", err)
	}
	if gen.prompt != "running" {
		t.Errorf("generator prompt = %q", gen.prompt)
	}
	if days[0].Day != 1 || days[29].Day != 30 {
		t.Errorf("days not normalized: first %d last %d", days[0].Day, days[29].Day)
	}

	c, err := s.StartChallenge(ctx, "", "running", days)
	if err != nil {
		t.Fatalf("StartChallenge() error = %v", err)
	}
	if c.Title != "running" || c.StartedOn != "2026-03-14" {
		t.Errorf("StartChallenge() = %q started %s", c.Title, c.StartedOn)
	}

	if _, err := s.SetChallengeMemo(ctx, c.ID, 31, "x", ""); err == nil {
		t.Error("SetChallengeMemo() accepted day 31")
	}
	if _, err := s.SetChallengeMemo(ctx, c.ID, 3, "x", "unicorn"); err == nil {
		t.Error("SetChallengeMemo() accepted an unknown sticker")
	}
	if got, _ := s.Challenge(c.ID); got.Days[2].Memo != "" {
		t.Error("rejected memo leaked into memory")
	}

	updated, err := s.SetChallengeMemo(ctx, c.ID, 3, " ran 5k ", "dog")
	if err != nil {
		t.Fatalf("SetChallengeMemo() error = %v", err)
	}
	if d := updated.Days[2]; d.Memo != "ran 5k" || d.Sticker != "dog" {
		t.Errorf("day 3 = %+v", d)
	}

	if err := s.RemoveChallenge(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	if len(s.Challenges()) != 0 {
		t.Error("challenge still listed after removal")
	}
}

func TestGenerateChallengeWithoutGenerator(t *testing.T) {
	s, _ := newEnv(t).open(t)
	if _, err := s.GenerateChallenge(context.Background(), "x"); !errors.Is(err, ErrNoGenerator) {
		t.Errorf("GenerateChallenge() error = %v, want ErrNoGenerator", err)
	}
}

func TestSnapshot(t *testing.T) {
	s, _ := newEnv(t).open(t)
	mustLoad(t, s)
	if _, err := s.AddTask(context.Background(), "Plan week", "08:00"); err != nil {
		t.Fatal(err)
	}

	snap := s.Snapshot()
	if snap.User != nil {
		t.Error("Snapshot() has a user before onboarding")
	}
	if len(snap.Tasks) != 1 || snap.Settings.Theme != models.ThemeLight {
		t.Errorf("Snapshot() = %+v", snap)
	}
}

var _ storage.Provider = (*sqlite.Store)(nil)
