package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/five82/controldeck/internal/state"
)

// renderHeader draws the title, the page tabs and the clock on one line.
func (m Model) renderHeader() string {
	st := m.styles
	left := st.Title.Render("controldeck") + st.Muted.Render(" "+m.profileTitle()+" ")

	tabs := make([]string, 0, pageCount)
	for p := Page(0); p < pageCount; p++ {
		label := fmt.Sprintf("%d %s", p+1, p.Title())
		if p == m.page {
			tabs = append(tabs, st.TabActive.Render(label))
		} else {
			tabs = append(tabs, st.Tab.Render(label))
		}
	}
	left += strings.Join(tabs, "")

	right := st.Text.Render(m.now.Format("15:04:05"))
	return fill(left, right, m.width)
}

// renderStatusBar draws the sync badge and the freshness line.
func (m Model) renderStatusBar() string {
	s := m.snapshot
	st := m.styles

	left := st.SyncBadge(s.State).Render(strings.ToUpper(s.State.String()))
	if s.Fetching {
		left += " " + st.Accent.Render(m.spinnerFrame())
	}

	parts := []string{"updated " + ago(s.LastFetched, m.now)}
	if m.refreshEvery > 0 {
		parts = append(parts, "every "+m.refreshEvery.String())
	}
	if rl := s.RateLimit; rl.Limit > 0 {
		text := fmt.Sprintf("api %s/%s", count(rl.Remaining), count(rl.Limit))
		if rl.Low() {
			text = st.Warning.Render(text)
		}
		parts = append(parts, text)
	}
	if reason := s.Reason(); reason != "" && s.State != state.Fresh {
		parts = append(parts, st.Danger.Render(truncate(reason, 60)))
	}
	if !s.DeferredUntil.IsZero() {
		parts = append(parts, st.Warning.Render("refresh deferred until "+s.DeferredUntil.Local().Format("15:04:05")))
	} else if !s.RetryAfter.IsZero() && s.RetryAfter.After(m.now) {
		parts = append(parts, st.Warning.Render("retry "+humanize.RelTime(s.RetryAfter, m.now, "ago", "from now")))
	}
	if m.paused {
		parts = append(parts, st.Info.Render("paused"))
	}
	if m.notice != "" && m.now.Before(m.noticeUntil) {
		parts = append(parts, st.Accent.Render(m.notice))
	}
	left += " " + strings.Join(parts, st.Faint.Render(" · "))

	right := m.help.ShortHelpView(m.keys.ShortHelp())
	return st.StatusBar.Width(m.width).MaxWidth(m.width).Render(fill(left, right, m.width))
}

// spinnerFrame picks the spinner glyph from the animation clock so the
// spinner needs no tick messages of its own.
func (m Model) spinnerFrame() string {
	if m.reducedMotion {
		return "..."
	}
	s := spinner.Dot
	idx := int(m.animNow().Sub(m.start)/s.FPS) % len(s.Frames)
	return s.Frames[idx]
}

// fill places right at the far end of a width-wide line, dropping it when
// the line is too narrow.
func fill(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

// StatusLine is the one-line summary used by non-interactive output.
func StatusLine(s state.Snapshot, now time.Time) string {
	line := fmt.Sprintf("%s, updated %s", s.State, ago(s.LastFetched, now))
	if reason := s.Reason(); reason != "" {
		line += ": " + reason
	}
	return line
}
