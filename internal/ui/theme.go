package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/controldeck/internal/logtail"
	"github.com/five82/controldeck/internal/state"
)

// Theme defines the palette for the dashboard.
type Theme struct {
	Name string

	Background string // outermost background
	Surface    string // panels
	SurfaceAlt string // status bar, tabs
	Border     string
	Highlight  string // novelty glow behind fresh events

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// SyncColors is keyed by state.SyncState.String().
	SyncColors map[string]string
}

// Styles holds the lipgloss styles built from a Theme.
type Styles struct {
	Text    lipgloss.Style
	Muted   lipgloss.Style
	Faint   lipgloss.Style
	Accent  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Danger  lipgloss.Style
	Info    lipgloss.Style
	Title   lipgloss.Style

	Panel     lipgloss.Style
	StatusBar lipgloss.Style
	Tab       lipgloss.Style
	TabActive lipgloss.Style
	Glow      lipgloss.Style

	syncColors map[string]string
	background string
	muted      string
}

// Styles returns lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	fg := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	return Styles{
		Text:    fg(t.Text),
		Muted:   fg(t.Muted),
		Faint:   fg(t.Faint),
		Accent:  fg(t.Accent),
		Success: fg(t.Success).Bold(true),
		Warning: fg(t.Warning),
		Danger:  fg(t.Danger).Bold(true),
		Info:    fg(t.Info),
		Title:   fg(t.Accent).Bold(true),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Border)).
			Padding(0, 1),
		StatusBar: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SurfaceAlt)).
			Foreground(lipgloss.Color(t.Muted)),
		Tab: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)).
			Padding(0, 1),
		TabActive: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Accent)).
			Foreground(lipgloss.Color(t.Background)).
			Bold(true).
			Padding(0, 1),
		Glow: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Highlight)).
			Foreground(lipgloss.Color(t.Text)),

		syncColors: t.SyncColors,
		background: t.Background,
		muted:      t.Muted,
	}
}

// SyncBadge returns the badge style for a sync state.
func (s Styles) SyncBadge(st state.SyncState) lipgloss.Style {
	color := s.syncColors[st.String()]
	if color == "" {
		color = s.muted
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.background)).
		Background(lipgloss.Color(color)).
		Bold(true).
		Padding(0, 1)
}

// Severity returns the text style for a classified log line.
func (s Styles) Severity(sev logtail.Severity) lipgloss.Style {
	switch sev {
	case logtail.SeverityError:
		return s.Danger
	case logtail.SeverityWarn:
		return s.Warning
	default:
		return s.Text
	}
}

var themes = map[string]Theme{
	"Dracula": draculaTheme(),
	"Slate":   slateTheme(),
}

var themeOrder = []string{"Dracula", "Slate"}

// GetTheme returns a theme by name, falling back to Dracula.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return draculaTheme()
}

// NextTheme returns the theme after current in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	return themeOrder
}

func draculaTheme() Theme {
	// https://draculatheme.com/spec
	return Theme{
		Name:       "Dracula",
		Background: "#191A21",
		Surface:    "#282A36",
		SurfaceAlt: "#21222C",
		Border:     "#44475A",
		Highlight:  "#44475A",

		Text:    "#F8F8F2",
		Muted:   "#6272A4",
		Faint:   "#44475A",
		Accent:  "#BD93F9",
		Success: "#50FA7B",
		Warning: "#FFB86C",
		Danger:  "#FF5555",
		Info:    "#8BE9FD",

		SyncColors: map[string]string{
			"empty":        "#6272A4",
			"cached":       "#8BE9FD",
			"refreshing":   "#BD93F9",
			"fresh":        "#50FA7B",
			"stale":        "#FFB86C",
			"error":        "#FF5555",
			"unauthorized": "#FF79C6",
		},
	}
}

func slateTheme() Theme {
	// Tailwind slate/sky
	return Theme{
		Name:       "Slate",
		Background: "#020617",
		Surface:    "#0f172a",
		SurfaceAlt: "#1e293b",
		Border:     "#334155",
		Highlight:  "#0c4a6e",

		Text:    "#f1f5f9",
		Muted:   "#94a3b8",
		Faint:   "#64748b",
		Accent:  "#38bdf8",
		Success: "#22c55e",
		Warning: "#f59e0b",
		Danger:  "#ef4444",
		Info:    "#06b6d4",

		SyncColors: map[string]string{
			"empty":        "#64748b",
			"cached":       "#06b6d4",
			"refreshing":   "#8b5cf6",
			"fresh":        "#22c55e",
			"stale":        "#f59e0b",
			"error":        "#dc2626",
			"unauthorized": "#ea580c",
		},
	}
}
