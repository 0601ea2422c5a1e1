// Package mcpserver exposes the application state to AI assistants over the
// Model Context Protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/julianstephens/mono/internal/appstate"
	"github.com/julianstephens/mono/internal/constants"
	"github.com/julianstephens/mono/internal/models"
)

type Server struct {
	state *appstate.State
	mcp   *server.MCPServer
}

// New registers every tool against a loaded state.
func New(state *appstate.State) *Server {
	s := &Server{state: state}
	s.mcp = server.NewMCPServer(
		constants.AppName,
		constants.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Read and update the user's Mono tasks, daily mood check-in, daily highlight and 30-day challenges."),
	)
	s.registerTools()
	return s
}

func (s *Server) MCP() *server.MCPServer { return s.mcp }

// ServeStdio blocks serving requests on stdin and stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func moodNames() []string {
	out := make([]string, len(models.MoodLevels))
	for i, m := range models.MoodLevels {
		out[i] = string(m)
	}
	return out
}

func energyNames() []string {
	out := make([]string, len(models.EnergyLevels))
	for i, e := range models.EnergyLevels {
		out[i] = string(e)
	}
	return out
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List today's tasks, incomplete first."),
	), s.handleListTasks)

	s.mcp.AddTool(mcp.NewTool("add_task",
		mcp.WithDescription("Add a task."),
		mcp.WithString("title", mcp.Required(), mcp.Description("What needs doing.")),
		mcp.WithString("time", mcp.Required(), mcp.Description("Time of day in 24-hour HH:MM.")),
	), s.handleAddTask)

	s.mcp.AddTool(mcp.NewTool("toggle_task",
		mcp.WithDescription("Flip a task between done and not done."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Task id.")),
	), s.handleToggleTask)

	s.mcp.AddTool(mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a task. Deleting an unknown id succeeds."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Task id.")),
	), s.handleDeleteTask)

	s.mcp.AddTool(mcp.NewTool("track_mood",
		mcp.WithDescription("Record today's mood and energy. Replaces an earlier check-in from today."),
		mcp.WithString("mood", mcp.Required(), mcp.Enum(moodNames()...)),
		mcp.WithString("energy", mcp.Required(), mcp.Enum(energyNames()...)),
	), s.handleTrackMood)

	s.mcp.AddTool(mcp.NewTool("today_mood",
		mcp.WithDescription("Get today's mood check-in and its insight, if any."),
	), s.handleTodayMood)

	s.mcp.AddTool(mcp.NewTool("get_highlight",
		mcp.WithDescription("Get the daily highlight."),
	), s.handleGetHighlight)

	s.mcp.AddTool(mcp.NewTool("set_highlight",
		mcp.WithDescription("Set the daily highlight, the one thing that would make today great."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Highlight text. Empty clears it.")),
	), s.handleSetHighlight)

	s.mcp.AddTool(mcp.NewTool("list_challenges",
		mcp.WithDescription("List 30-day challenges with the current day of each."),
	), s.handleListChallenges)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal error: %v", err)), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) handleListTasks(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.state.SortedTasks())
}

func (s *Server) handleAddTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Title string `json:"title"`
		Time  string `json:"time"`
	}
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	task, err := s.state.AddTask(ctx, args.Title, args.Time)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(task)
}

func (s *Server) handleToggleTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	task, err := s.state.ToggleTask(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(task)
}

func (s *Server) handleDeleteTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.state.RemoveTask(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("deleted " + id), nil
}

type moodResult struct {
	models.Mood
	Insight string `json:"insight"`
}

func (s *Server) handleTrackMood(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Mood   string `json:"mood"`
		Energy string `json:"energy"`
	}
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	mood, err := s.state.TrackMood(ctx, models.MoodLevel(args.Mood), models.EnergyLevel(args.Energy))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(moodResult{Mood: mood, Insight: models.Insight(mood.Mood, mood.Energy)})
}

func (s *Server) handleTodayMood(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mood, ok := s.state.TodayMood()
	if !ok {
		return mcp.NewToolResultText("no mood tracked today"), nil
	}
	return jsonResult(moodResult{Mood: mood, Insight: models.Insight(mood.Mood, mood.Energy)})
}

func (s *Server) handleGetHighlight(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h := s.state.DailyHighlight()
	if h == "" {
		return mcp.NewToolResultText("no highlight set"), nil
	}
	return mcp.NewToolResultText(h), nil
}

func (s *Server) handleSetHighlight(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	if err := s.state.UpdateHighlight(text); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("highlight saved"), nil
}

type challengeSummary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	StartedOn  string `json:"started_on"`
	CurrentDay int    `json:"current_day"`
	Today      string `json:"today"`
}

func (s *Server) handleListChallenges(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	now := s.state.Now()
	out := []challengeSummary{}
	for _, c := range s.state.Challenges() {
		day := c.CurrentDay(now)
		sum := challengeSummary{ID: c.ID, Title: c.Title, StartedOn: c.StartedOn, CurrentDay: day}
		if d := c.Day(day); d != nil {
			sum.Today = d.Title
		}
		out = append(out, sum)
	}
	return jsonResult(out)
}
