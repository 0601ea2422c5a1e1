package system

import "github.com/julianstephens/mono/internal/cli"

type ImportLegacyCmd struct{}

// Run moves tasks saved by older versions in the key-value store into the database.
func (c *ImportLegacyCmd) Run(ctx *cli.Context) error {
	st, err := ctx.State()
	if err != nil {
		return err
	}
	ctx.PerformAutomaticBackup()

	n, err := st.ImportLegacyTasks(ctx.Context())
	if err != nil {
		if n > 0 {
			ctx.Printf("Imported %d tasks before failing.\n", n)
		}
		return err
	}
	if n == 0 {
		ctx.Println("No legacy tasks to import.")
		return nil
	}
	ctx.Printf("Imported %d legacy tasks.\n", n)
	return nil
}
