package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/mono/internal/models"
)

type palette struct {
	accent lipgloss.Color
	muted  lipgloss.Color
	tabBg  lipgloss.Color
	user   lipgloss.Color
	mo     lipgloss.Color
}

var palettes = map[models.Theme]palette{
	models.ThemeLight: {accent: "205", muted: "244", tabBg: "254", user: "25", mo: "90"},
	models.ThemeDark:  {accent: "212", muted: "240", tabBg: "236", user: "117", mo: "219"},
}

type styles struct {
	activeTab   lipgloss.Style
	inactiveTab lipgloss.Style
	title       lipgloss.Style
	muted       lipgloss.Style
	user        lipgloss.Style
	mo          lipgloss.Style
	tool        lipgloss.Style
	danger      lipgloss.Style
	toast       lipgloss.Style
	doc         lipgloss.Style
}

func newStyles(theme models.Theme) styles {
	p, ok := palettes[theme]
	if !ok {
		p = palettes[models.ThemeLight]
	}
	return styles{
		activeTab: lipgloss.NewStyle().
			Foreground(p.accent).
			Background(p.tabBg).
			Padding(0, 1).
			Bold(true),
		inactiveTab: lipgloss.NewStyle().
			Foreground(p.muted).
			Padding(0, 1),
		title: lipgloss.NewStyle().Foreground(p.accent).Bold(true),
		muted: lipgloss.NewStyle().Foreground(p.muted),
		user:  lipgloss.NewStyle().Foreground(p.user).Bold(true),
		mo:    lipgloss.NewStyle().Foreground(p.mo).Bold(true),
		tool:  lipgloss.NewStyle().Foreground(p.muted).Italic(true),
		danger: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
		toast: lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("214")).
			Padding(0, 1),
		doc: lipgloss.NewStyle().Padding(1, 2),
	}
}
