package challenges

import (
	"errors"
	"fmt"

	"github.com/julianstephens/mono/internal/appstate"
	"github.com/julianstephens/mono/internal/cli"
	"github.com/julianstephens/mono/internal/models"
)

func challengeID(c models.Challenge) string { return c.ID }

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// pick resolves ref, or returns the newest challenge when ref is empty.
func pick(ctx *cli.Context, ref string) (*appstate.State, models.Challenge, error) {
	st, err := ctx.State()
	if err != nil {
		return nil, models.Challenge{}, err
	}
	all := st.Challenges()
	if ref == "" {
		if len(all) == 0 {
			return nil, models.Challenge{}, errors.New("no challenges yet. Start one with 'mono challenge new <goal>'")
		}
		return st, all[0], nil
	}
	c, err := cli.Resolve(all, challengeID, ref, "challenge")
	if err != nil {
		return nil, models.Challenge{}, err
	}
	return st, c, nil
}

type ChallengeNewCmd struct {
	Prompt string `arg:"" help:"What the 30 days should build toward."`
	Title  string `help:"Challenge title. Defaults to the prompt."`
	Yes    bool   `help:"Start without asking for confirmation." short:"y"`
}

func (c *ChallengeNewCmd) Run(ctx *cli.Context) error {
	st, err := ctx.State()
	if err != nil {
		return err
	}

	ctx.Println("Generating a 30-day plan...")
	days, err := st.GenerateChallenge(ctx.Context(), c.Prompt)
	if err != nil {
		return fmt.Errorf("failed to generate challenge: %w", err)
	}

	ctx.Println()
	for _, d := range days[:3] {
		ctx.Printf("  Day %2d  %s\n", d.Day, d.Title)
	}
	ctx.Printf("  ... and %d more days\n\n", len(days)-3)

	if !c.Yes {
		ok, err := ctx.Confirm("Start this challenge today?")
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Challenge discarded.")
			return nil
		}
	}

	started, err := st.StartChallenge(ctx.Context(), c.Title, c.Prompt, days)
	if err != nil {
		return fmt.Errorf("failed to start challenge: %w", err)
	}
	ctx.Printf("✓ Started %q on %s (ID: %s)\n", started.Title, started.StartedOn, shortID(started.ID))
	return nil
}

type ChallengeListCmd struct{}

func (c *ChallengeListCmd) Run(ctx *cli.Context) error {
	st, err := ctx.State()
	if err != nil {
		return err
	}
	all := st.Challenges()
	if len(all) == 0 {
		ctx.Println("No challenges yet.")
		return nil
	}
	now := st.Now()
	for _, ch := range all {
		ctx.Printf("%s  %-30s started %s  day %d/30  [%s]\n",
			memoMark(ch), ch.Title, ch.StartedOn, ch.CurrentDay(now), shortID(ch.ID))
	}
	return nil
}

// memoMark shows whether any day of the challenge has a memo.
func memoMark(ch models.Challenge) string {
	for _, d := range ch.Days {
		if d.Memo != "" {
			return "●"
		}
	}
	return "○"
}

type ChallengeShowCmd struct {
	ID  string `arg:"" optional:"" help:"Challenge ID or unique prefix. Defaults to the newest."`
	All bool   `help:"Show all 30 days instead of just today."`
}

func (c *ChallengeShowCmd) Run(ctx *cli.Context) error {
	st, ch, err := pick(ctx, c.ID)
	if err != nil {
		return err
	}
	current := ch.CurrentDay(st.Now())
	ctx.Printf("%s (started %s, day %d of 30)\n\n", ch.Title, ch.StartedOn, current)

	for _, d := range ch.Days {
		if !c.All && d.Day != current {
			continue
		}
		marker := " "
		if d.Day == current {
			marker = "▶"
		}
		ctx.Printf("%s Day %2d  %s\n", marker, d.Day, d.Title)
		if c.All && d.Day != current {
			continue
		}
		if d.Description != "" {
			ctx.Printf("          %s\n", d.Description)
		}
		if d.Memo != "" {
			ctx.Printf("          📝 %s\n", d.Memo)
		}
		if d.Sticker != "" {
			ctx.Printf("          sticker: %s\n", d.Sticker)
		}
	}
	return nil
}

type ChallengeMemoCmd struct {
	Memo    string `arg:"" help:"What you did or learned."`
	ID      string `help:"Challenge ID or unique prefix. Defaults to the newest."`
	Day     int    `help:"Day number. Defaults to today's day."`
	Sticker string `help:"Avatar id to stick on the day."`
}

func (c *ChallengeMemoCmd) Run(ctx *cli.Context) error {
	st, ch, err := pick(ctx, c.ID)
	if err != nil {
		return err
	}
	day := c.Day
	if day == 0 {
		day = ch.CurrentDay(st.Now())
	}
	updated, err := st.SetChallengeMemo(ctx.Context(), ch.ID, day, c.Memo, c.Sticker)
	if err != nil {
		return fmt.Errorf("failed to save memo: %w", err)
	}
	ctx.Printf("✓ Saved memo for day %d of %q\n", day, updated.Title)
	return nil
}

type ChallengeDeleteCmd struct {
	ID  string `arg:"" help:"Challenge ID or unique prefix."`
	Yes bool   `help:"Delete without asking for confirmation." short:"y"`
}

func (c *ChallengeDeleteCmd) Run(ctx *cli.Context) error {
	st, ch, err := pick(ctx, c.ID)
	if err != nil {
		return err
	}
	if !c.Yes {
		ok, err := ctx.Confirm(fmt.Sprintf("Delete challenge %q and all its memos?", ch.Title))
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Delete cancelled.")
			return nil
		}
	}
	if err := st.RemoveChallenge(ctx.Context(), ch.ID); err != nil {
		return fmt.Errorf("failed to delete challenge: %w", err)
	}
	ctx.Printf("Deleted challenge: %s\n", ch.Title)
	return nil
}
