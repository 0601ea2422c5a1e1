package models

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

const defaultAvatarPath = "/avatars/default.png"

// Avatars lists every avatar id the app ships an image for.
var Avatars = func() []string {
	ids := []string{"mo", "cat", "dog", "bird", "rabbit", "anon"}
	for i := 1; i <= 7; i++ {
		ids = append(ids, fmt.Sprintf("boy-%d", i))
	}
	for i := 1; i <= 12; i++ {
		ids = append(ids, fmt.Sprintf("girl-%d", i))
	}
	return ids
}()

// ValidAvatar reports whether id names a shipped avatar.
func ValidAvatar(id string) bool {
	return slices.Contains(Avatars, id)
}

// AvatarPath resolves an avatar id to its image asset path.
func AvatarPath(id string) string {
	if !ValidAvatar(id) {
		return defaultAvatarPath
	}
	return "/avatars/" + id + ".png"
}

// User is the single local profile. Its absence means onboarding has not run.
type User struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Avatar    string    `json:"avatar" yaml:"avatar"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
	Email     string    `json:"email,omitempty" yaml:"email,omitempty"`
	Phone     string    `json:"phone,omitempty" yaml:"phone,omitempty"`
	Bio       string    `json:"bio,omitempty" yaml:"bio,omitempty"`
	Birthday  string    `json:"birthday,omitempty" yaml:"birthday,omitempty"` // YYYY-MM-DD format
}

func (u *User) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("user id cannot be empty")
	}
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("user name cannot be empty")
	}
	if u.Birthday != "" {
		if _, err := time.Parse("2006-01-02", u.Birthday); err != nil {
			return fmt.Errorf("invalid birthday format (expected YYYY-MM-DD): %w", err)
		}
	}
	return nil
}
