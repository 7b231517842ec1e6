package console

import "github.com/charmbracelet/lipgloss"

// Theme defines the color scheme.
type Theme struct {
	Primary   lipgloss.Color // welcome panel, success
	Accent    lipgloss.Color // user prompt
	Assistant lipgloss.Color // assistant answers
	Info      lipgloss.Color // help panel, model calls
	Tool      lipgloss.Color // tool call details
	Event     lipgloss.Color // structured feed events
	Warn      lipgloss.Color // raw feed data, markers, retries
	Error     lipgloss.Color
	Dim       lipgloss.Color
}

// DefaultTheme mirrors a green-on-dark terminal palette.
var DefaultTheme = Theme{
	Primary:   lipgloss.Color("#00ff9f"),
	Accent:    lipgloss.Color("#87ff00"),
	Assistant: lipgloss.Color("#ff5fff"),
	Info:      lipgloss.Color("#5f87ff"),
	Tool:      lipgloss.Color("#ffff5f"),
	Event:     lipgloss.Color("#00d7ff"),
	Warn:      lipgloss.Color("#ffaf00"),
	Error:     lipgloss.Color("#ff5f5f"),
	Dim:       lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Theme Theme

	Title  lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Prompt lipgloss.Style
	Marker lipgloss.Style
	Notice lipgloss.Style
	Warn   lipgloss.Style
	Error  lipgloss.Style
	Help   lipgloss.Style
	Rule   lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Theme:  t,
		Title:  lipgloss.NewStyle().Bold(true),
		Label:  lipgloss.NewStyle().Bold(true),
		Value:  lipgloss.NewStyle().Foreground(t.Event),
		Prompt: lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		Marker: lipgloss.NewStyle().Italic(true).Foreground(t.Warn),
		Notice: lipgloss.NewStyle().Foreground(t.Primary),
		Warn:   lipgloss.NewStyle().Foreground(t.Warn),
		Error:  lipgloss.NewStyle().Foreground(t.Error),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
		Rule:   lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// panel returns a rounded box with a colored border.
func panel(border lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
}
