package ui

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/charmbracelet/lipgloss"
)

// renderHelp renders the help overlay centered over the screen.
func (m Model) renderHelp() string {
	st := m.styles

	var b strings.Builder
	b.WriteString(st.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(st.Faint.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	h := m.help
	h.ShowAll = true
	h.Styles.FullKey = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Warning))
	h.Styles.FullDesc = st.Text
	h.Styles.FullSeparator = st.Faint
	b.WriteString(h.View(m.keys))

	b.WriteString("\n\n")
	for _, line := range m.settingsLines() {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(st.Faint.Render("Press any key to close"))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}

// settingsLines lists the session's runtime settings under the key help.
func (m Model) settingsLines() []string {
	st := m.styles
	row := func(label, value string) string {
		return st.Muted.Render(padRight(label, 11)) + st.Text.Render(value)
	}

	refresh := "off"
	if m.refreshEvery > 0 {
		refresh = "every " + m.refreshEvery.String()
	}

	quota := "unknown"
	if rl := m.snapshot.RateLimit; rl.Limit > 0 {
		quota = fmt.Sprintf("%s/%s left", count(rl.Remaining), count(rl.Limit))
		if !rl.ResetAt.IsZero() {
			quota += ", resets " + humanize.RelTime(rl.ResetAt, m.now, "ago", "from now")
		}
	}

	return []string{
		row("Refresh", refresh),
		row("API quota", quota),
		row("Animation", m.animationState()),
		row("Theme", m.theme.Name),
	}
}

func (m Model) animationState() string {
	switch {
	case m.paused:
		return "PAUSED"
	case m.reducedMotion:
		return "REDUCED"
	default:
		return "ENABLED"
	}
}
