package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/mono/internal/cli"
	"github.com/julianstephens/mono/internal/models"
)

var sectionNames = []string{"today", "tasks", "mood"}

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Theme     *string `help:"Color theme (light or dark)."`
	Section   *string `help:"Home section shown on launch (today, tasks, mood or 0-2)."`
	Highlight *string `help:"Today's highlight. Pass an empty string to clear it."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	st, err := ctx.State()
	if err != nil {
		return err
	}

	if c.List {
		s := st.Settings()
		ctx.Println("Current Settings:")
		ctx.Printf("  Theme:      %s\n", s.Theme)
		ctx.Printf("  Section:    %s\n", sectionNames[s.Section])
		ctx.Printf("  Highlight:  %s\n", orNone(s.DailyHighlight))
		ctx.Println("\nProfile:")
		if u, ok := st.User(); ok {
			ctx.Printf("  Name:       %s\n", u.Name)
			ctx.Printf("  Avatar:     %s\n", u.Avatar)
		} else {
			ctx.Println("  (not set up, run 'mono profile --name <name>')")
		}
		return nil
	}

	updated := false
	if c.Theme != nil {
		if err := st.UpdateTheme(models.Theme(strings.ToLower(*c.Theme))); err != nil {
			return fmt.Errorf("failed to save theme: %w", err)
		}
		updated = true
	}
	if c.Section != nil {
		section, err := parseSection(*c.Section)
		if err != nil {
			return err
		}
		if err := st.UpdateSection(section); err != nil {
			return fmt.Errorf("failed to save section: %w", err)
		}
		updated = true
	}
	if c.Highlight != nil {
		if err := st.UpdateHighlight(*c.Highlight); err != nil {
			return fmt.Errorf("failed to save highlight: %w", err)
		}
		updated = true
	}

	if updated {
		ctx.Println("Settings updated successfully.")
	} else {
		ctx.Println("No changes specified. Use --list to view settings or flags to update them.")
	}
	return nil
}

func parseSection(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range sectionNames {
		if s == name || s == fmt.Sprint(i) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown section %q (expected one of %s)", s, strings.Join(sectionNames, ", "))
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

type HighlightCmd struct {
	Suggest bool `help:"Print suggestions instead of the current highlight."`
}

func (c *HighlightCmd) Run(ctx *cli.Context) error {
	st, err := ctx.State()
	if err != nil {
		return err
	}
	if c.Suggest {
		for _, s := range st.HighlightSuggestions() {
			ctx.Printf("  • %s\n", s)
		}
		return nil
	}
	if h := st.DailyHighlight(); h != "" {
		ctx.Printf("✨ %s\n", h)
		return nil
	}
	ctx.Println("No highlight set. Try 'mono highlight --suggest'.")
	return nil
}

// ProfileCmd shows the local profile, or creates and edits it when flags are given.
type ProfileCmd struct {
	Name   string `help:"Display name."`
	Avatar string `help:"Avatar id. Use --avatars to list them."`
	Email  string `help:"Email address."`
	Bio    string `help:"Short bio."`

	Birthday string `help:"Birthday (YYYY-MM-DD)."`
	Avatars  bool   `help:"List the available avatars."`
}

func (c *ProfileCmd) Run(ctx *cli.Context) error {
	if c.Avatars {
		ctx.Println(strings.Join(models.Avatars, ", "))
		return nil
	}

	st, err := ctx.State()
	if err != nil {
		return err
	}
	user, exists := st.User()

	if c.Name == "" && c.Avatar == "" && c.Email == "" && c.Bio == "" && c.Birthday == "" {
		if !exists {
			ctx.Println("No profile yet. Create one with 'mono profile --name <name>'.")
			return nil
		}
		printUser(ctx, user)
		return nil
	}

	if c.Avatar != "" && !models.ValidAvatar(c.Avatar) {
		return fmt.Errorf("unknown avatar %q", c.Avatar)
	}

	if !exists {
		if strings.TrimSpace(c.Name) == "" {
			return errors.New("--name is required to create a profile")
		}
		if user, err = st.CompleteOnboarding(c.Name, c.Avatar); err != nil {
			return err
		}
	}

	if c.Name != "" {
		user.Name = strings.TrimSpace(c.Name)
	}
	if c.Avatar != "" {
		user.Avatar = c.Avatar
	}
	if c.Email != "" {
		user.Email = c.Email
	}
	if c.Bio != "" {
		user.Bio = c.Bio
	}
	if c.Birthday != "" {
		user.Birthday = c.Birthday
	}
	if err := st.UpdateUser(user); err != nil {
		return err
	}

	if exists {
		ctx.Println("Profile updated.")
	} else {
		ctx.Printf("Welcome, %s!\n", user.Name)
	}
	printUser(ctx, user)
	return nil
}

func printUser(ctx *cli.Context, u models.User) {
	ctx.Printf("  Name:     %s\n", u.Name)
	ctx.Printf("  Avatar:   %s\n", u.Avatar)
	if u.Email != "" {
		ctx.Printf("  Email:    %s\n", u.Email)
	}
	if u.Birthday != "" {
		ctx.Printf("  Birthday: %s\n", u.Birthday)
	}
	if u.Bio != "" {
		ctx.Printf("  Bio:      %s\n", u.Bio)
	}
}
