package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/mono/internal/constants"
	"github.com/julianstephens/mono/internal/models"
	"github.com/julianstephens/mono/internal/utils"
)

type formKind int

const (
	formOnboarding formKind = iota
	formAddTask
	formEditTask
	formMood
	formHighlight
)

type OnboardingFormModel struct {
	Name   string
	Avatar string
}

type TaskFormModel struct {
	ID    string
	Title string
	Time  string
}

type MoodFormModel struct {
	Mood   string
	Energy string
}

type HighlightFormModel struct {
	Text string
}

func validateNotBlank(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}
		return nil
	}
}

func validateClock(s string) error {
	if !utils.ValidateTimeFormat(s) {
		return fmt.Errorf("use 24-hour HH:MM")
	}
	return nil
}

func newOnboardingForm(data *OnboardingFormModel) *huh.Form {
	if data.Avatar == "" {
		data.Avatar = constants.DefaultAvatar
	}
	avatars := make([]huh.Option[string], len(models.Avatars))
	for i, id := range models.Avatars {
		avatars[i] = huh.NewOption(id, id)
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to Mono").
				Description("Mo, your AI buddy, will help you stay focused.\nLet's get to know you."),
			huh.NewInput().
				Title("What should we call you?").
				Value(&data.Name).
				Validate(validateNotBlank("name")),
			huh.NewSelect[string]().
				Title("Pick an avatar").
				Options(avatars...).
				Height(8).
				Value(&data.Avatar),
		),
	)
}

func newTaskForm(data *TaskFormModel) *huh.Form {
	title := "New task"
	if data.ID != "" {
		title = "Edit task"
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Placeholder("What needs doing?").
				Value(&data.Title).
				Validate(validateNotBlank("title")),
			huh.NewInput().
				Title("Time").
				Placeholder("HH:MM").
				Value(&data.Time).
				Validate(validateClock),
		),
	)
}

func newMoodForm(data *MoodFormModel) *huh.Form {
	moods := make([]huh.Option[string], len(models.MoodLevels))
	for i, m := range models.MoodLevels {
		moods[i] = huh.NewOption(m.Emoji()+" "+string(m), string(m))
	}
	energies := make([]huh.Option[string], len(models.EnergyLevels))
	for i, e := range models.EnergyLevels {
		energies[i] = huh.NewOption(string(e), string(e))
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("How are you feeling?").
				Options(moods...).
				Value(&data.Mood),
			huh.NewSelect[string]().
				Title("Energy level").
				Options(energies...).
				Value(&data.Energy),
		),
	)
}

func newHighlightForm(data *HighlightFormModel, suggestions []string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Today's highlight").
				Description("The one thing that would make today great. Leave empty to clear.").
				Suggestions(suggestions).
				Value(&data.Text),
		),
	)
}
