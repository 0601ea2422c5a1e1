package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/julianstephens/mono/internal/appstate"
	"github.com/julianstephens/mono/internal/kv"
	"github.com/julianstephens/mono/internal/logger"
	"github.com/julianstephens/mono/internal/models"
	"github.com/julianstephens/mono/internal/storage/sqlite"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger.Discard()
	dir := t.TempDir()
	db := sqlite.NewStore(filepath.Join(dir, "main.db"))
	t.Cleanup(func() { db.Close() })

	now := time.Date(2026, 4, 10, 14, 0, 0, 0, time.UTC)
	state := appstate.New(kv.NewFileStore(filepath.Join(dir, "store.json")), db,
		appstate.WithClock(func() time.Time { return now }), appstate.WithLocation(time.UTC))
	if err := state.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	return New(state)
}

func call(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}
	return text.Text
}

func TestTaskTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleAddTask(ctx, call(map[string]any{"title": "Water plants", "time": "08:00"}))
	if err != nil || res.IsError {
		t.Fatalf("add_task = %v, %v", res, err)
	}
	var task models.Task
	if err := json.Unmarshal([]byte(resultText(t, res)), &task); err != nil {
		t.Fatal(err)
	}

	res, _ = s.handleToggleTask(ctx, call(map[string]any{"id": task.ID}))
	if res.IsError {
		t.Fatalf("toggle_task error: %s", resultText(t, res))
	}

	res, _ = s.handleListTasks(ctx, call(nil))
	var tasks []models.Task
	if err := json.Unmarshal([]byte(resultText(t, res)), &tasks); err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || !tasks[0].Completed {
		t.Errorf("list_tasks = %+v", tasks)
	}

	res, _ = s.handleDeleteTask(ctx, call(map[string]any{"id": task.ID}))
	if res.IsError {
		t.Errorf("delete_task error: %s", resultText(t, res))
	}
}

func TestToolErrors(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		fn   func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args map[string]any
	}{
		{"add_task blank title", s.handleAddTask, map[string]any{"title": "", "time": "08:00"}},
		{"add_task bad time", s.handleAddTask, map[string]any{"title": "x", "time": "8pm"}},
		{"toggle_task missing id", s.handleToggleTask, map[string]any{}},
		{"toggle_task unknown id", s.handleToggleTask, map[string]any{"id": "nope"}},
		{"track_mood bad mood", s.handleTrackMood, map[string]any{"mood": "ecstatic", "energy": "high"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.fn(ctx, call(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if !res.IsError {
				t.Errorf("result is not an error: %s", resultText(t, res))
			}
		})
	}
}

func TestMoodTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, _ := s.handleTodayMood(ctx, call(nil))
	if got := resultText(t, res); got != "no mood tracked today" {
		t.Errorf("today_mood = %q", got)
	}

	for _, mood := range []string{"good", "low"} {
		res, _ = s.handleTrackMood(ctx, call(map[string]any{"mood": mood, "energy": "medium"}))
		if res.IsError {
			t.Fatalf("track_mood error: %s", resultText(t, res))
		}
	}

	res, _ = s.handleTodayMood(ctx, call(nil))
	var got moodResult
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatal(err)
	}
	if got.Mood.Mood != models.MoodLow || got.Date != "2026-04-10" || got.Insight == "" {
		t.Errorf("today_mood = %+v", got)
	}
	if n := len(s.state.Moods()); n != 1 {
		t.Errorf("moods = %d, want 1", n)
	}
}

func TestHighlightTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, _ := s.handleSetHighlight(ctx, call(map[string]any{"text": "Finish the draft"}))
	if res.IsError {
		t.Fatalf("set_highlight error: %s", resultText(t, res))
	}
	res, _ = s.handleGetHighlight(ctx, call(nil))
	if got := resultText(t, res); got != "Finish the draft" {
		t.Errorf("get_highlight = %q", got)
	}
}

func TestListChallenges(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	days := make([]models.ChallengeDay, 30)
	for i := range days {
		days[i] = models.ChallengeDay{Day: i + 1, Title: "Step " + string(rune('A'+i%26))}
	}
	if _, err := s.state.StartChallenge(ctx, "Letters", "alphabet", days); err != nil {
		t.Fatal(err)
	}

	res, _ := s.handleListChallenges(ctx, call(nil))
	text := resultText(t, res)
	if !strings.Contains(text, `"current_day": 1`) || !strings.Contains(text, `"today": "Step A"`) {
		t.Errorf("list_challenges = %s", text)
	}
}
