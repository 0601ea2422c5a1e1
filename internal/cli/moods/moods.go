package moods

import (
	"fmt"

	"github.com/julianstephens/mono/internal/cli"
	"github.com/julianstephens/mono/internal/models"
)

type MoodTrackCmd struct {
	Mood   string `arg:"" help:"How you feel." enum:"great,good,neutral,low,bad"`
	Energy string `arg:"" help:"Your energy level." enum:"high,medium,low"`
}

func (c *MoodTrackCmd) Run(ctx *cli.Context) error {
	st, err := ctx.State()
	if err != nil {
		return err
	}
	_, existed := st.TodayMood()

	m, err := st.TrackMood(ctx.Context(), models.MoodLevel(c.Mood), models.EnergyLevel(c.Energy))
	if err != nil {
		return fmt.Errorf("failed to track mood: %w", err)
	}
	verb := "Tracked"
	if existed {
		verb = "Updated"
	}
	ctx.Printf("%s %s mood for %s: %s, %s energy\n", m.Mood.Emoji(), verb, m.Date, m.Mood, m.Energy)
	ctx.Printf("💡 %s\n", st.MoodInsight(m.Mood, m.Energy))
	return nil
}

type MoodTodayCmd struct{}

func (c *MoodTodayCmd) Run(ctx *cli.Context) error {
	st, err := ctx.State()
	if err != nil {
		return err
	}
	m, ok := st.TodayMood()
	if !ok {
		ctx.Println("No check-in today. Track one with 'mono mood track <mood> <energy>'.")
		return nil
	}
	ctx.Printf("%s %s, %s energy\n", m.Mood.Emoji(), m.Mood, m.Energy)
	ctx.Printf("💡 %s\n", st.MoodInsight(m.Mood, m.Energy))
	return nil
}

type MoodListCmd struct {
	Limit int `help:"Show only the most recent N check-ins (0 for all)." default:"14"`
}

func (c *MoodListCmd) Run(ctx *cli.Context) error {
	st, err := ctx.State()
	if err != nil {
		return err
	}
	moods := st.Moods()
	if len(moods) == 0 {
		ctx.Println("No mood check-ins yet.")
		return nil
	}
	if c.Limit > 0 && len(moods) > c.Limit {
		moods = moods[len(moods)-c.Limit:]
	}
	for _, m := range moods {
		ctx.Printf("%s  %s %-8s %s energy\n", m.Date, m.Mood.Emoji(), m.Mood, m.Energy)
	}
	return nil
}

type MoodDeleteCmd struct {
	Date string `arg:"" help:"Date of the check-in (YYYY-MM-DD)."`
}

func (c *MoodDeleteCmd) Run(ctx *cli.Context) error {
	st, err := ctx.State()
	if err != nil {
		return err
	}
	m, err := cli.Resolve(st.Moods(), func(m models.Mood) string { return m.Date }, c.Date, "mood")
	if err != nil {
		return err
	}
	if err := st.RemoveMood(ctx.Context(), m.ID); err != nil {
		return fmt.Errorf("failed to delete mood: %w", err)
	}
	ctx.Printf("Deleted mood check-in for %s\n", m.Date)
	return nil
}
