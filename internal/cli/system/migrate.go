package system

import (
	"github.com/julianstephens/mono/internal/cli"
)

type MigrateCmd struct{}

// Run opens the database, which applies any pending migrations, and
// reports the resulting schema version.
func (c *MigrateCmd) Run(ctx *cli.Context) error {
	ctx.PerformAutomaticBackup()
	if err := ctx.Store.Open(ctx.Context()); err != nil {
		return err
	}
	current, latest, err := ctx.Store.SchemaVersion(ctx.Context())
	if err != nil {
		return err
	}
	if current == latest {
		ctx.Printf("Database is up to date (schema v%d).\n", current)
		return nil
	}
	ctx.Printf("Database schema is v%d, latest known is v%d.\n", current, latest)
	return nil
}
