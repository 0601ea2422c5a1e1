package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/mono/internal/cli"
)

type InitCmd struct {
	Force bool `help:"Delete the existing SQLite database before initializing."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	cfg := ctx.Config
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if c.Force {
		if cfg.IsPostgres() {
			return fmt.Errorf("--force only applies to SQLite databases")
		}
		if _, err := os.Stat(cfg.Database); err == nil {
			ctx.PerformAutomaticBackup()
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			for _, suffix := range []string{"", "-wal", "-shm"} {
				if err := os.Remove(cfg.Database + suffix); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("failed to delete existing database: %w", err)
				}
			}
			ctx.Printf("Deleted existing database at: %s\n", cfg.Database)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Open(ctx.Context()); err != nil {
		return err
	}
	current, _, err := ctx.Store.SchemaVersion(ctx.Context())
	if err != nil {
		return err
	}
	ctx.Printf("Initialized mono storage at: %s (schema v%d)\n", ctx.Store.GetConfigPath(), current)
	return nil
}
