package models

import (
	"fmt"

	"github.com/julianstephens/mono/internal/constants"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Settings represents the scalar preferences kept in the key-value store
type Settings struct {
	Theme          Theme  `json:"theme" yaml:"theme"`                     // light or dark
	Section        int    `json:"section" yaml:"section"`                 // active home section, 0..2
	DailyHighlight string `json:"daily_highlight" yaml:"daily_highlight"` // free text
}

// DefaultSettings returns the values used before anything is persisted.
func DefaultSettings() Settings {
	return Settings{
		Theme:   constants.DefaultTheme,
		Section: constants.DefaultSection,
	}
}

// ValidateSection checks that a section index is in range.
func ValidateSection(section int) error {
	if section < 0 || section >= constants.SectionCount {
		return fmt.Errorf("section must be between 0 and %d, got %d", constants.SectionCount-1, section)
	}
	return nil
}
