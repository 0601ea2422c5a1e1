package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/mono/internal/constants"
	"github.com/julianstephens/mono/internal/utils"
)

// ChallengeDay is one day of a 30-day challenge plus the user's memo for it.
type ChallengeDay struct {
	Day         int    `json:"day" yaml:"day"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Memo        string `json:"memo,omitempty" yaml:"memo,omitempty"`
	Sticker     string `json:"sticker,omitempty" yaml:"sticker,omitempty"` // avatar id
}

type Challenge struct {
	ID        string         `json:"id" yaml:"id"`
	Title     string         `json:"title" yaml:"title"`
	Prompt    string         `json:"prompt" yaml:"prompt"`
	StartedOn string         `json:"started_on" yaml:"started_on"` // YYYY-MM-DD format
	Days      []ChallengeDay `json:"days" yaml:"days"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" yaml:"updated_at"`
}

// NormalizeDays sorts days by number and checks that exactly days 1..30 are present.
func NormalizeDays(days []ChallengeDay) ([]ChallengeDay, error) {
	if len(days) != constants.ChallengeLength {
		return nil, fmt.Errorf("challenge must have %d days, got %d", constants.ChallengeLength, len(days))
	}
	out := make([]ChallengeDay, len(days))
	copy(out, days)
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	for i, d := range out {
		if d.Day != i+1 {
			return nil, fmt.Errorf("challenge day %d is missing or duplicated", i+1)
		}
		if strings.TrimSpace(d.Title) == "" {
			return nil, fmt.Errorf("challenge day %d has no title", d.Day)
		}
	}
	return out, nil
}

func (c *Challenge) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("challenge id cannot be empty")
	}
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("challenge title cannot be empty")
	}
	if _, err := time.Parse(constants.DateFormat, c.StartedOn); err != nil {
		return fmt.Errorf("invalid start date (expected YYYY-MM-DD): %w", err)
	}
	if _, err := NormalizeDays(c.Days); err != nil {
		return err
	}
	for _, d := range c.Days {
		if d.Sticker != "" && !ValidAvatar(d.Sticker) {
			return fmt.Errorf("unknown sticker %q on day %d", d.Sticker, d.Day)
		}
	}
	return nil
}

// CurrentDay returns the challenge day that today falls on, clamped to 1..30.
func (c *Challenge) CurrentDay(today time.Time) int {
	elapsed, err := utils.DaysBetween(c.StartedOn, utils.DateOf(today))
	if err != nil {
		return 1
	}
	day := elapsed + 1
	if day < 1 {
		return 1
	}
	if day > constants.ChallengeLength {
		return constants.ChallengeLength
	}
	return day
}

// Day returns a pointer to the given day, or nil when out of range.
func (c *Challenge) Day(n int) *ChallengeDay {
	for i := range c.Days {
		if c.Days[i].Day == n {
			return &c.Days[i]
		}
	}
	return nil
}
