package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/mono/internal/cli"
	"github.com/julianstephens/mono/internal/keyring"
	"github.com/julianstephens/mono/internal/storage/postgres"
)

type KeyringCmd struct {
	SetToken        KeyringSetTokenCmd        `cmd:"" help:"Store the chat API token."`
	ClearToken      KeyringClearTokenCmd      `cmd:"" help:"Remove the chat API token."`
	SetConnection   KeyringSetConnectionCmd   `cmd:"" help:"Store a PostgreSQL connection string."`
	GetConnection   KeyringGetConnectionCmd   `cmd:"" help:"Show the stored connection string with the password masked."`
	ClearConnection KeyringClearConnectionCmd `cmd:"" help:"Remove the stored connection string."`
	Status          KeyringStatusCmd          `cmd:"" help:"Check keyring availability." default:"1"`
}

type KeyringSetTokenCmd struct {
	Token string `arg:"" help:"Bearer token sent to the chat endpoint."`
}

func (cmd *KeyringSetTokenCmd) Run(ctx *cli.Context) error {
	if err := keyring.SetChatToken(strings.TrimSpace(cmd.Token)); err != nil {
		return err
	}
	ctx.Println("✓ Chat token stored in OS keyring")
	return nil
}

type KeyringClearTokenCmd struct{}

func (cmd *KeyringClearTokenCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteChatToken(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no chat token found in keyring")
		}
		return err
	}
	ctx.Println("✓ Chat token deleted from OS keyring")
	return nil
}

type KeyringSetConnectionCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL connection string to store in keyring."`
}

func (cmd *KeyringSetConnectionCmd) Run(ctx *cli.Context) error {
	if !strings.HasPrefix(cmd.ConnectionString, "postgres://") &&
		!strings.HasPrefix(cmd.ConnectionString, "postgresql://") &&
		!strings.Contains(cmd.ConnectionString, "host=") {
		return errors.New("connection string must be a valid PostgreSQL connection string")
	}

	if _, err := postgres.ValidateConnString(cmd.ConnectionString); err != nil {
		if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return fmt.Errorf("invalid connection string: %w", err)
		}
		ctx.Println("⚠️  Connection string contains embedded credentials.")
		ctx.Println("   It will be stored as-is in the encrypted OS keyring.")
	}

	if err := keyring.SetConnectionString(cmd.ConnectionString); err != nil {
		return err
	}

	ctx.Println("✓ Connection string stored in OS keyring")
	ctx.Println("  mono will use it when MONO_DATABASE and --database are unset")
	return nil
}

type KeyringGetConnectionCmd struct{}

func (cmd *KeyringGetConnectionCmd) Run(ctx *cli.Context) error {
	connStr, err := keyring.GetConnectionString()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring. Use 'mono keyring set-connection' to store one")
		}
		return err
	}
	ctx.Println(MaskPassword(connStr))
	return nil
}

type KeyringClearConnectionCmd struct{}

func (cmd *KeyringClearConnectionCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteConnectionString(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring")
		}
		return err
	}
	ctx.Println("✓ Connection string deleted from OS keyring")
	return nil
}

type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		ctx.Println("❌ OS keyring is not available on this system")
		return keyring.ErrKeyringUnavailable
	}
	ctx.Println("✓ OS keyring is available")

	for _, item := range []struct {
		name string
		get  func() (string, error)
	}{
		{"Chat token", keyring.GetChatToken},
		{"Connection string", keyring.GetConnectionString},
	} {
		if _, err := item.get(); err == nil {
			ctx.Printf("✓ %s is stored\n", item.name)
		} else if errors.Is(err, keyring.ErrNotFound) {
			ctx.Printf("ℹ No %s stored\n", strings.ToLower(item.name))
		}
	}
	return nil
}

// MaskPassword hides the password in URL and key=value connection strings.
func MaskPassword(connStr string) string {
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		if idx := strings.Index(connStr, "://"); idx != -1 {
			remaining := connStr[idx+3:]
			if atIdx := strings.LastIndex(remaining, "@"); atIdx != -1 {
				userInfo := remaining[:atIdx]
				if colonIdx := strings.Index(userInfo, ":"); colonIdx != -1 {
					return connStr[:idx+3] + userInfo[:colonIdx] + ":****" + connStr[idx+3+atIdx:]
				}
			}
		}
	}

	if strings.Contains(connStr, "password=") {
		parts := strings.Fields(connStr)
		for i, part := range parts {
			if strings.HasPrefix(part, "password=") {
				parts[i] = "password=****"
			}
		}
		return strings.Join(parts, " ")
	}

	return connStr
}
