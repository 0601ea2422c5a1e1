package challenges

import (
	"strings"
	"testing"

	"github.com/julianstephens/mono/internal/cli/clitest"
	"github.com/julianstephens/mono/internal/models"
)

func startChallenge(t *testing.T, env *clitest.Env, prompt string) models.Challenge {
	t.Helper()
	if err := (&ChallengeNewCmd{Prompt: prompt, Yes: true}).Run(env.Ctx); err != nil {
		t.Fatalf("challenge new failed: %v", err)
	}
	env.Output()
	st, err := env.Ctx.State()
	if err != nil {
		t.Fatal(err)
	}
	return st.Challenges()[0]
}

func TestChallengeNewCmd(t *testing.T) {
	env := clitest.New(t)

	if err := (&ChallengeNewCmd{Prompt: "juggling", Title: "Juggle"}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	out := env.Output()
	if !strings.Contains(out, "Day  1  juggling, day 1") {
		t.Errorf("missing preview:\n%s", out)
	}
	if !strings.Contains(out, "Challenge discarded.") {
		t.Errorf("expected the unconfirmed challenge to be discarded:\n%s", out)
	}

	env.Answer("y")
	if err := (&ChallengeNewCmd{Prompt: "juggling", Title: "Juggle"}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	if out := env.Output(); !strings.Contains(out, `Started "Juggle" on 2026-07-06`) {
		t.Errorf("unexpected output:\n%s", out)
	}

	all, err := env.Ctx.Store.ListChallenges(env.Ctx.Context())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || len(all[0].Days) != 30 {
		t.Fatalf("unexpected challenges: %+v", all)
	}
}

func TestChallengeNewCmd_EmptyPrompt(t *testing.T) {
	env := clitest.New(t)
	if err := (&ChallengeNewCmd{Prompt: "  ", Yes: true}).Run(env.Ctx); err == nil {
		t.Error("expected an error for an empty prompt")
	}
}

func TestChallengeListAndShowCmd(t *testing.T) {
	env := clitest.New(t)

	if err := (&ChallengeListCmd{}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	if out := env.Output(); !strings.Contains(out, "No challenges yet.") {
		t.Errorf("unexpected output: %q", out)
	}
	if err := (&ChallengeShowCmd{}).Run(env.Ctx); err == nil {
		t.Error("expected show to fail without challenges")
	}

	ch := startChallenge(t, env, "sketching")

	if err := (&ChallengeListCmd{}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	if out := env.Output(); !strings.Contains(out, "day 1/30") {
		t.Errorf("unexpected list output:\n%s", out)
	}

	if err := (&ChallengeShowCmd{ID: ch.ID[:5]}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	out := env.Output()
	if !strings.Contains(out, "▶ Day  1  sketching, day 1") {
		t.Errorf("unexpected show output:\n%s", out)
	}
	if strings.Contains(out, "Day  2") {
		t.Errorf("show without --all listed other days:\n%s", out)
	}

	if err := (&ChallengeShowCmd{All: true}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	if out := env.Output(); !strings.Contains(out, "Day 30") {
		t.Errorf("--all missing the last day:\n%s", out)
	}
}

func TestChallengeMemoCmd(t *testing.T) {
	env := clitest.New(t)
	ch := startChallenge(t, env, "running")

	if err := (&ChallengeMemoCmd{Memo: "Ran 2k", Sticker: "rabbit"}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	if err := (&ChallengeMemoCmd{Memo: "Planned route", ID: ch.ID, Day: 5}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}

	got, err := env.Ctx.Store.GetChallenge(env.Ctx.Context(), ch.ID)
	if err != nil {
		t.Fatal(err)
	}
	if d := got.Day(1); d.Memo != "Ran 2k" || d.Sticker != "rabbit" {
		t.Errorf("unexpected day 1: %+v", d)
	}
	if d := got.Day(5); d.Memo != "Planned route" {
		t.Errorf("unexpected day 5: %+v", d)
	}

	tests := []struct {
		name string
		cmd  ChallengeMemoCmd
	}{
		{"day out of range", ChallengeMemoCmd{Memo: "x", Day: 31}},
		{"unknown sticker", ChallengeMemoCmd{Memo: "x", Sticker: "dragon"}},
		{"unknown id", ChallengeMemoCmd{Memo: "x", ID: "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cmd.Run(env.Ctx); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestChallengeDeleteCmd(t *testing.T) {
	env := clitest.New(t)
	ch := startChallenge(t, env, "reading")

	env.Answer("n")
	if err := (&ChallengeDeleteCmd{ID: ch.ID}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	if out := env.Output(); !strings.Contains(out, "Delete cancelled.") {
		t.Errorf("unexpected output: %q", out)
	}

	if err := (&ChallengeDeleteCmd{ID: ch.ID, Yes: true}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	all, err := env.Ctx.Store.ListChallenges(env.Ctx.Context())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Errorf("expected no challenges after delete, got %d", len(all))
	}
}
