package system

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/julianstephens/mono/internal/cli"
	"github.com/julianstephens/mono/internal/keyring"
	"github.com/julianstephens/mono/internal/utils"
)

type DoctorCmd struct{}

type check struct {
	name string
	// warnOnly checks never fail the run.
	warnOnly bool
	run      func(ctx *cli.Context) error
}

var errSkipped = errors.New("skipped")

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	dbReachable := false
	checks := []check{
		{name: "Data directory", run: checkDataDir},
		{name: "Key-value store", run: checkKV},
		{name: "Database reachable", run: func(ctx *cli.Context) error {
			if err := ctx.Store.Open(ctx.Context()); err != nil {
				return err
			}
			dbReachable = true
			return nil
		}},
		{name: "Schema version", run: func(ctx *cli.Context) error {
			if !dbReachable {
				return errSkipped
			}
			return checkSchemaVersion(ctx)
		}},
		{name: "Backups present", warnOnly: true, run: checkBackupsPresent},
		{name: "Clock/timezone", run: checkClockTimezone},
		{name: "Chat token", warnOnly: true, run: checkChatToken},
	}

	failed := 0
	for _, c := range checks {
		err := c.run(ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case errors.Is(err, errSkipped):
			ctx.Printf("⊘ %s: SKIPPED\n", c.name)
		case c.warnOnly:
			ctx.Printf("⚠ %s: WARNING\n   %v\n", c.name, err)
		default:
			ctx.Printf("❌ %s: FAIL\n   Error: %v\n", c.name, err)
			failed++
		}
	}

	ctx.Println()
	if failed > 0 {
		return fmt.Errorf("%d diagnostic check(s) failed", failed)
	}
	ctx.Println("All checks passed.")
	return nil
}

func checkDataDir(ctx *cli.Context) error {
	info, err := os.Stat(ctx.Config.DataDir)
	if err != nil {
		return fmt.Errorf("%s: %w (run 'mono init')", ctx.Config.DataDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", ctx.Config.DataDir)
	}
	return nil
}

func checkKV(ctx *cli.Context) error {
	if err := ctx.KV.Load(ctx.Context()); err != nil {
		return err
	}
	if _, err := ctx.KV.Keys(); err != nil {
		return err
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	current, latest, err := ctx.Store.SchemaVersion(ctx.Context())
	if err != nil {
		return err
	}
	if current != latest {
		return fmt.Errorf("schema v%d, expected v%d (run 'mono migrate')", current, latest)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	mgr := ctx.Backups()
	if mgr == nil {
		return errSkipped
	}
	backups, err := mgr.List()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups in %s (run 'mono backup create')", mgr.Dir())
	}
	if age := time.Since(backups[0].Timestamp); age > 7*24*time.Hour {
		return fmt.Errorf("newest backup is %d days old", int(age.Hours()/24))
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	if !utils.ValidateTimezone(ctx.Config.Timezone) {
		return fmt.Errorf("invalid timezone %q", ctx.Config.Timezone)
	}
	now, err := utils.NowInTimezone(ctx.Config.Timezone)
	if err != nil {
		return err
	}
	if now.Year() < 2020 {
		return fmt.Errorf("system clock looks wrong: %s", now.Format(time.RFC3339))
	}
	return nil
}

func checkChatToken(ctx *cli.Context) error {
	if ctx.Config.ChatToken != "" {
		return nil
	}
	if _, err := keyring.GetChatToken(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no chat token stored (run 'mono keyring set-token')")
		}
		return err
	}
	return nil
}
