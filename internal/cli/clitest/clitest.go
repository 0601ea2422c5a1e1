// Package clitest builds command contexts over throwaway data directories.
package clitest

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/mono/internal/chat"
	"github.com/julianstephens/mono/internal/cli"
	"github.com/julianstephens/mono/internal/config"
	"github.com/julianstephens/mono/internal/constants"
	"github.com/julianstephens/mono/internal/devserver"
	"github.com/julianstephens/mono/internal/kv"
	"github.com/julianstephens/mono/internal/logger"
	"github.com/julianstephens/mono/internal/storage/sqlite"
)

// Now is the fixed wall clock of every test context.
var Now = time.Date(2026, 7, 6, 9, 15, 0, 0, time.UTC)

type Env struct {
	Ctx *cli.Context
	Out *bytes.Buffer
	Dir string
}

// New returns a context over a fresh SQLite database and key-value file.
// Remote calls go to an in-process dev server.
func New(t *testing.T) *Env {
	t.Helper()
	logger.Discard()
	dir := t.TempDir()

	srv := httptest.NewServer(devserver.New().Handler())
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.DataDir = dir
	cfg.Database = filepath.Join(dir, constants.DatabaseFileName)
	cfg.Timezone = "UTC"
	cfg.ChatURL = srv.URL + "/api/chat"
	cfg.ChallengesURL = srv.URL + "/api/challenges"
	cfg.CompletionURL = srv.URL + "/api/completion"
	cfg.ChatToken = "test-token"

	store := sqlite.NewStore(cfg.Database)
	kvStore, err := kv.New(cfg.KVBackend, cfg.KVPath())
	if err != nil {
		t.Fatal(err)
	}

	out := &bytes.Buffer{}
	ctx := &cli.Context{
		Ctx:    context.Background(),
		Config: cfg,
		Store:  store,
		KV:     kvStore,
		Client: chat.NewClient(cfg.ChallengesURL, cfg.CompletionURL, chat.Options{Token: cfg.ChatToken}),
		Out:    out,
		In:     strings.NewReader(""),
		Now:    func() time.Time { return Now },
	}
	t.Cleanup(func() { store.Close() })
	return &Env{Ctx: ctx, Out: out, Dir: dir}
}

// Answer makes the next confirmation prompts read the given lines.
func (e *Env) Answer(lines ...string) {
	e.Ctx.In = strings.NewReader(strings.Join(lines, "\n") + "\n")
}

// Output returns and clears everything printed so far.
func (e *Env) Output() string {
	s := e.Out.String()
	e.Out.Reset()
	return s
}

// Reload drops the cached state so the next command reads the stores again,
// as a new process would.
func (e *Env) Reload(t *testing.T) {
	t.Helper()
	e.Ctx.Store.Close()
	kvStore, err := kv.New(e.Ctx.Config.KVBackend, e.Ctx.Config.KVPath())
	if err != nil {
		t.Fatal(err)
	}
	store := sqlite.NewStore(e.Ctx.Config.Database)
	t.Cleanup(func() { store.Close() })
	old := e.Ctx
	e.Ctx = &cli.Context{
		Ctx:      old.Ctx,
		Config:   old.Config,
		Store:    store,
		KV:       kvStore,
		Client:   old.Client,
		Notifier: old.Notifier,
		Out:      old.Out,
		In:       old.In,
		Now:      old.Now,
	}
}
