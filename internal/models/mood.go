package models

import (
	"fmt"
	"time"

	"github.com/julianstephens/mono/internal/constants"
)

type MoodLevel string

const (
	MoodGreat   MoodLevel = "great"
	MoodGood    MoodLevel = "good"
	MoodNeutral MoodLevel = "neutral"
	MoodLow     MoodLevel = "low"
	MoodBad     MoodLevel = "bad"
)

type EnergyLevel string

const (
	EnergyHigh   EnergyLevel = "high"
	EnergyMedium EnergyLevel = "medium"
	EnergyLow    EnergyLevel = "low"
)

// MoodLevels lists the moods from best to worst.
var MoodLevels = []MoodLevel{MoodGreat, MoodGood, MoodNeutral, MoodLow, MoodBad}

// EnergyLevels lists the energy levels from highest to lowest.
var EnergyLevels = []EnergyLevel{EnergyHigh, EnergyMedium, EnergyLow}

var moodEmoji = map[MoodLevel]string{
	MoodGreat:   "😄",
	MoodGood:    "🙂",
	MoodNeutral: "😐",
	MoodLow:     "🙁",
	MoodBad:     "😞",
}

func (m MoodLevel) Valid() bool {
	_, ok := moodEmoji[m]
	return ok
}

func (m MoodLevel) Emoji() string {
	return moodEmoji[m]
}

func (e EnergyLevel) Valid() bool {
	switch e {
	case EnergyHigh, EnergyMedium, EnergyLow:
		return true
	}
	return false
}

// Mood is one day's mood and energy check-in.
type Mood struct {
	ID        string      `json:"id" yaml:"id"`
	Date      string      `json:"date" yaml:"date"` // YYYY-MM-DD format
	Mood      MoodLevel   `json:"mood" yaml:"mood"`
	Energy    EnergyLevel `json:"energy" yaml:"energy"`
	CreatedAt time.Time   `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" yaml:"updated_at"`
}

// NewMood is the caller-supplied part of a mood at creation.
type NewMood struct {
	Date   string      `json:"date"`
	Mood   MoodLevel   `json:"mood"`
	Energy EnergyLevel `json:"energy"`
}

func (n NewMood) Validate() error {
	if _, err := time.Parse(constants.DateFormat, n.Date); err != nil {
		return fmt.Errorf("invalid date format (expected YYYY-MM-DD): %w", err)
	}
	if !n.Mood.Valid() {
		return fmt.Errorf("invalid mood %q", n.Mood)
	}
	if !n.Energy.Valid() {
		return fmt.Errorf("invalid energy %q", n.Energy)
	}
	return nil
}

func (m *Mood) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("mood id cannot be empty")
	}
	return NewMood{Date: m.Date, Mood: m.Mood, Energy: m.Energy}.Validate()
}

var insights = map[MoodLevel]map[EnergyLevel]string{
	MoodGreat: {
		EnergyHigh:   "You're at your peak! Great time for challenging tasks.",
		EnergyMedium: "You're in a great mood with balanced energy. Ideal for focused work.",
		EnergyLow:    "Your mood is great but energy is low. Consider gentle activities you enjoy.",
	},
	MoodGood: {
		EnergyHigh:   "Good mood and high energy - a productive combination!",
		EnergyMedium: "You're in a good balanced state. Good time for steady progress.",
		EnergyLow:    "Your positive mood can help you through low-energy tasks.",
	},
	MoodNeutral: {
		EnergyHigh:   "Your energy could be channeled into activities that might improve your mood.",
		EnergyMedium: "You're in a balanced neutral state. Good for routine tasks.",
		EnergyLow:    "Consider a short break or change of scenery to lift your mood.",
	},
	MoodLow: {
		EnergyHigh:   "Your energy is there, but mood is low. Physical activity might help balance this.",
		EnergyMedium: "Try to focus on small wins today to gradually lift your mood.",
		EnergyLow:    "Be gentle with yourself today. Focus on self-care and rest.",
	},
	MoodBad: {
		EnergyHigh:   "Your energy might feel chaotic with a bad mood. Consider calming activities.",
		EnergyMedium: "Take some time for yourself today if possible.",
		EnergyLow:    "This is a good time to prioritize rest and recovery.",
	},
}

// Insight returns the suggestion for a mood and energy pair, or "" when
// either value is unknown.
func Insight(mood MoodLevel, energy EnergyLevel) string {
	return insights[mood][energy]
}
