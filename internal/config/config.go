package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"github.com/julianstephens/mono/internal/constants"
	"github.com/julianstephens/mono/internal/utils"
)

// EnvPrefix is prepended to every environment variable name, e.g. MONO_DATA_DIR.
const EnvPrefix = "MONO"

// Config holds process-wide settings resolved from the environment and CLI flags.
type Config struct {
	// DataDir holds store.json, main.db, logs and backups.
	DataDir string `envconfig:"DATA_DIR" default:"~/.config/mono"`

	// Database is a SQLite file path or a PostgreSQL connection string.
	// Empty means <DataDir>/main.db.
	Database string `envconfig:"DATABASE" default:""`

	// KVBackend selects the key-value store implementation: file or disk.
	KVBackend string `envconfig:"KV_BACKEND" default:"file"`

	ChatURL       string `envconfig:"CHAT_URL" default:"https://mono-rosy.vercel.app/api/chat"`
	ChallengesURL string `envconfig:"CHALLENGES_URL" default:"https://mono-rosy.vercel.app/api/challenges"`
	CompletionURL string `envconfig:"COMPLETION_URL" default:"https://mono-rosy.vercel.app/api/completion"`
	ChatToken     string `envconfig:"CHAT_TOKEN" default:""`

	Timezone string `envconfig:"TIMEZONE" default:"Local"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

// Overrides are command-line values that win over the environment.
type Overrides struct {
	DataDir  string
	Database string
	Debug    bool
}

// Load reads MONO_* environment variables into a Config and resolves derived paths.
func Load() (*Config, error) {
	return LoadWith(Overrides{})
}

// LoadWith is Load with flag overrides applied before paths are resolved,
// so a --data-dir also moves the default database.
func LoadWith(o Overrides) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if o.DataDir != "" {
		cfg.DataDir = o.DataDir
	}
	if o.Database != "" {
		cfg.Database = o.Database
	}
	if o.Debug {
		cfg.Debug = true
	}
	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a Config with defaults only, for tests and tooling.
func Default() *Config {
	return &Config{
		DataDir:       constants.DefaultDataDir,
		KVBackend:     constants.DefaultKVBackend,
		ChatURL:       constants.DefaultChatURL,
		ChallengesURL: constants.DefaultChallengesURL,
		CompletionURL: constants.DefaultCompletionURL,
		Timezone:      constants.DefaultTimezone,
	}
}

// Resolve expands ~ in paths, fills in the default database location and
// validates enumerated fields.
func (c *Config) Resolve() error {
	dataDir, err := ExpandHome(c.DataDir)
	if err != nil {
		return err
	}
	c.DataDir = dataDir

	if c.Database == "" {
		c.Database = filepath.Join(c.DataDir, constants.DatabaseFileName)
	} else if !c.IsPostgres() {
		if c.Database, err = ExpandHome(c.Database); err != nil {
			return err
		}
	}

	switch c.KVBackend {
	case constants.KVBackendFile, constants.KVBackendDisk:
	case "":
		c.KVBackend = constants.DefaultKVBackend
	default:
		return fmt.Errorf("unsupported KV_BACKEND: %s (expected %s or %s)", c.KVBackend, constants.KVBackendFile, constants.KVBackendDisk)
	}

	if !utils.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("invalid TIMEZONE: %s", c.Timezone)
	}

	return nil
}

// IsPostgres reports whether Database is a PostgreSQL connection string.
func (c *Config) IsPostgres() bool {
	return strings.HasPrefix(c.Database, "postgres://") || strings.HasPrefix(c.Database, "postgresql://")
}

// KVPath is the location of the key-value store for the selected backend.
func (c *Config) KVPath() string {
	if c.KVBackend == constants.KVBackendDisk {
		return filepath.Join(c.DataDir, constants.KVDirName)
	}
	return filepath.Join(c.DataDir, constants.KVFileName)
}

// BackupDir is where database backups are written.
func (c *Config) BackupDir() string {
	return filepath.Join(c.DataDir, constants.BackupDirName)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
