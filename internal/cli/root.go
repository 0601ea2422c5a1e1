package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/mono/internal/appstate"
	"github.com/julianstephens/mono/internal/backup"
	"github.com/julianstephens/mono/internal/chat"
	"github.com/julianstephens/mono/internal/config"
	"github.com/julianstephens/mono/internal/keyring"
	"github.com/julianstephens/mono/internal/kv"
	"github.com/julianstephens/mono/internal/logger"
	"github.com/julianstephens/mono/internal/models"
	"github.com/julianstephens/mono/internal/notifier"
	"github.com/julianstephens/mono/internal/storage"
	"github.com/julianstephens/mono/internal/utils"
)

// Context is handed to every command's Run method.
type Context struct {
	Ctx      context.Context
	Config   *config.Config
	Store    storage.Provider
	KV       kv.Store
	Client   *chat.Client
	Notifier *notifier.Notifier

	Out io.Writer
	In  io.Reader

	// Now overrides the wall clock, for tests.
	Now func() time.Time

	state *appstate.State
	in    *bufio.Reader
	inSrc io.Reader
}

// NewContext wires a command context writing to stdout.
func NewContext(ctx context.Context, cfg *config.Config, store storage.Provider, kvStore kv.Store) *Context {
	return &Context{
		Ctx:      ctx,
		Config:   cfg,
		Store:    store,
		KV:       kvStore,
		Client:   chat.NewClient(cfg.ChallengesURL, cfg.CompletionURL, chat.Options{Token: ChatToken(cfg)}),
		Notifier: notifier.New(),
		Out:      os.Stdout,
		In:       os.Stdin,
	}
}

// OpenKV opens the key-value store for cfg. A store that cannot be loaded
// is logged and replaced by an unloaded one, so State falls back to default
// settings instead of the command failing.
func OpenKV(ctx context.Context, cfg *config.Config) (kv.Store, error) {
	s, err := kv.Open(ctx, cfg.KVBackend, cfg.KVPath())
	if err == nil {
		return s, nil
	}
	logger.Warn("Key-value store unavailable, using defaults", "path", cfg.KVPath(), "error", err)
	return kv.New(cfg.KVBackend, cfg.KVPath())
}

// ChatToken returns the configured bearer token, falling back to the keyring.
func ChatToken(cfg *config.Config) string {
	if cfg.ChatToken != "" {
		return cfg.ChatToken
	}
	token, err := keyring.GetChatToken()
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			logger.Debug("Chat token unavailable", "error", err)
		}
		return ""
	}
	return token
}

// NotifyFunc returns the tray notifier's Notify, or nil when notifications
// are disabled.
func (c *Context) NotifyFunc() func(context.Context, string) error {
	if c.Notifier == nil {
		return nil
	}
	return c.Notifier.Notify
}

// Context returns the command's context.Context.
func (c *Context) Context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

func (c *Context) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// State loads the application state on first use. Store failures are
// logged and the state still loads with defaults.
func (c *Context) State() (*appstate.State, error) {
	if c.state != nil {
		return c.state, nil
	}
	loc, err := utils.LoadLocation(c.Config.Timezone)
	if err != nil {
		return nil, err
	}

	opts := []appstate.Option{appstate.WithLocation(loc)}
	if c.Now != nil {
		opts = append(opts, appstate.WithClock(c.Now))
	}
	if c.Client != nil {
		opts = append(opts, appstate.WithChallengeGenerator(c.Client))
	}

	st := appstate.New(c.KV, c.Store, opts...)
	if err := st.Load(c.Context()); err != nil {
		logger.Warn("State loaded with warnings", "error", err)
	}
	c.state = st
	return st, nil
}

// NewSession starts a chat session whose finished replies raise a desktop
// notification when the tray app is running.
func (c *Context) NewSession() *chat.Session {
	s := chat.NewSession(c.Config.ChatURL, chat.SystemMessage(c.now()), chat.Options{Token: ChatToken(c.Config)})
	if c.Notifier != nil {
		n := c.Notifier
		s.OnFinish = func(msg models.Message) {
			if err := n.NotifyReply(context.Background(), msg); err != nil {
				logger.Debug("Reply notification skipped", "error", err)
			}
		}
	}
	return s
}

// Backups returns the backup manager, or nil for PostgreSQL databases.
func (c *Context) Backups() *backup.Manager {
	if c.Config.IsPostgres() {
		return nil
	}
	return backup.NewManager(c.Config.Database, c.Config.BackupDir())
}

// PerformAutomaticBackup snapshots the SQLite database, logging failures.
func (c *Context) PerformAutomaticBackup() {
	mgr := c.Backups()
	if mgr == nil {
		return
	}
	if _, err := os.Stat(c.Config.Database); err != nil {
		return
	}
	if _, err := mgr.Create(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.Out, args...)
}

// Confirm asks a yes/no question on In. Anything but y or yes is a no.
func (c *Context) Confirm(question string) (bool, error) {
	c.Printf("%s [y/N]: ", question)
	src := c.In
	if src == nil {
		src = os.Stdin
	}
	// Reuse the reader so buffered answers survive between questions.
	if c.in == nil || c.inSrc != src {
		c.in, c.inSrc = bufio.NewReader(src), src
	}
	response, err := c.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

// Close releases the database and the key-value store.
func (c *Context) Close() {
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			logger.Warn("Failed to close database", "error", err)
		}
	}
	if c.KV != nil {
		kv.Release(c.Config.KVPath())
	}
}
