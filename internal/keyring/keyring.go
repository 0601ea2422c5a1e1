package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/mono/internal/constants"
)

var (
	ErrNotFound           = errors.New("credentials not found in keyring")
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

func get(user string) (string, error) {
	secret, err := keyring.Get(constants.AppName, user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return secret, nil
}

func set(user, what, secret string) error {
	if secret == "" {
		return fmt.Errorf("%s cannot be empty", what)
	}
	if err := keyring.Set(constants.AppName, user, secret); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", what, err)
	}
	return nil
}

func del(user, what string) error {
	if err := keyring.Delete(constants.AppName, user); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", what, err)
	}
	return nil
}

// GetChatToken retrieves the bearer token sent to the chat endpoint.
// Returns ErrNotFound if no token is stored.
func GetChatToken() (string, error) {
	return get(constants.DefaultKeyringUser)
}

// SetChatToken stores the chat endpoint bearer token.
func SetChatToken(token string) error {
	return set(constants.DefaultKeyringUser, "chat token", token)
}

// DeleteChatToken removes the chat endpoint bearer token.
func DeleteChatToken() error {
	return del(constants.DefaultKeyringUser, "chat token")
}

// GetConnectionString retrieves the PostgreSQL connection string, which may
// carry a password since it never touches the command line.
func GetConnectionString() (string, error) {
	return get(constants.KeyringConnUser)
}

// SetConnectionString stores the PostgreSQL connection string.
func SetConnectionString(connStr string) error {
	return set(constants.KeyringConnUser, "connection string", connStr)
}

// DeleteConnectionString removes the PostgreSQL connection string.
func DeleteConnectionString() error {
	return del(constants.KeyringConnUser, "connection string")
}

// IsAvailable probes the OS keyring with a lookup that is expected to miss.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
