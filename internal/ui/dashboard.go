package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/five82/controldeck/internal/github"
	"github.com/five82/controldeck/internal/state"
)

const profilePanelHeight = 9

// dashLayout sizes the dashboard panels. Narrow terminals drop the system
// and spotlight panels and stack profile over activity.
type dashLayout struct {
	compact      bool
	leftW        int
	rightW       int
	topH         int
	bottomH      int
	activityRows int
}

func (m Model) dashboardLayout() dashLayout {
	if !m.ready || m.width <= 0 {
		return dashLayout{}
	}
	h := m.bodyHeight()
	l := dashLayout{
		compact: m.width < LayoutCompactWidth,
		topH:    min(profilePanelHeight, h),
	}
	l.bottomH = h - l.topH
	if l.compact {
		l.leftW, l.rightW = m.width, m.width
	} else {
		l.leftW = m.width / 2
		l.rightW = m.width - l.leftW
	}
	// border top and bottom plus the panel title
	l.activityRows = max(l.bottomH-3, 0)
	return l
}

func (m Model) renderDashboard() string {
	l := m.dashboardLayout()
	profile := m.panel(m.profileTitle(), m.profileLines(l.leftW-4), l.leftW, l.topH)
	activity := m.panel(m.activityTitle(), m.activityLines(l.activityRows, l.rightW-4), l.rightW, l.bottomH)
	if l.compact {
		if l.bottomH < minActivity+3 {
			return profile
		}
		return lipgloss.JoinVertical(lipgloss.Left, profile, activity)
	}

	system := m.panel(m.systemTitle(), m.systemLines(l.rightW-4), l.rightW, l.topH)
	top := lipgloss.JoinHorizontal(lipgloss.Top, profile, system)
	if l.bottomH < minActivity+3 {
		return top
	}
	spot := m.panel("Spotlight", m.spotlightLines(l.bottomH-3, l.leftW-4), l.leftW, l.bottomH)
	bottom := lipgloss.JoinHorizontal(lipgloss.Top, spot, activity)
	return lipgloss.JoinVertical(lipgloss.Left, top, bottom)
}

// panel draws a bordered box of exactly w by h cells with a title line.
func (m Model) panel(title string, lines []string, w, h int) string {
	if w < 5 || h < 3 {
		return ""
	}
	innerW, innerH := w-4, h-2
	body := make([]string, 0, innerH)
	body = append(body, m.styles.Title.Render(truncate(title, innerW)))
	for _, line := range lines {
		if len(body) == innerH {
			break
		}
		body = append(body, line)
	}
	return m.styles.Panel.
		Width(w - 2).
		Height(innerH).
		MaxHeight(h).
		Render(strings.Join(body, "\n"))
}

func (m Model) profileTitle() string {
	login := m.snapshot.Profile.Login
	if login == "" {
		login = m.user
	}
	return "@" + login
}

func (m Model) profileLines(width int) []string {
	s := m.snapshot
	st := m.styles
	if !s.HasData() {
		switch s.State {
		case state.Unauthorized, state.Error:
			return []string{st.Danger.Render(truncate(s.Reason(), width))}
		default:
			return []string{st.Muted.Render("Waiting for the first fetch...")}
		}
	}

	var lines []string
	p := s.Profile
	if about := strings.TrimSpace(strings.Join(nonEmpty(p.Name, p.Bio), " · ")); about != "" {
		lines = append(lines, st.Text.Render(truncate(about, width)))
	}
	lines = append(lines,
		m.statRow(width, stat{"Stars", s.Stats.Stars}, stat{"Forks", s.Stats.Forks}, stat{"Watchers", s.Stats.Watchers}),
		m.statRow(width, stat{"Repos", s.Stats.Repos}, stat{"Followers", s.Stats.Followers}, stat{"Following", s.Stats.Following}),
	)
	if !p.CreatedAt.IsZero() {
		lines = append(lines, st.Muted.Render("Member since "+p.CreatedAt.Format("Jan 2006")))
	}
	if line := m.rateLine(); line != "" {
		lines = append(lines, line)
	}
	return lines
}

type stat struct {
	label string
	n     int
}

func (m Model) statRow(width int, stats ...stat) string {
	parts := make([]string, 0, len(stats))
	for _, s := range stats {
		parts = append(parts, m.styles.Muted.Render(s.label+" ")+m.styles.Accent.Bold(true).Render(count(s.n)))
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(strings.Join(parts, "   "))
}

func (m Model) rateLine() string {
	rl := m.snapshot.RateLimit
	if rl.Limit <= 0 {
		return ""
	}
	text := fmt.Sprintf("API %s/%s left", count(rl.Remaining), count(rl.Limit))
	if !rl.ResetAt.IsZero() && rl.ResetAt.After(m.now) {
		text += ", resets " + humanize.RelTime(rl.ResetAt, m.now, "ago", "from now")
	}
	if rl.Low() {
		return m.styles.Warning.Render(text)
	}
	return m.styles.Muted.Render(text)
}

func (m Model) systemTitle() string {
	if m.snapshot.HasSystem && m.snapshot.System.Hostname != "" {
		return "System · " + m.snapshot.System.Hostname
	}
	return "System"
}

func (m Model) systemLines(width int) []string {
	st := m.styles
	clock := st.Text.Render(m.now.Format("Mon 02 Jan 15:04:05"))
	if !m.snapshot.HasSystem {
		return []string{st.Muted.Render("sampling..."), clock}
	}
	sys := m.snapshot.System
	barW := max(width-18, 4)
	meter := func(label string, pct float64) string {
		style := st.Success
		switch {
		case pct >= 90:
			style = st.Danger
		case pct >= 70:
			style = st.Warning
		}
		return st.Muted.Render(padRight(label, 5)) + style.Render(bar(pct, barW)) + st.Text.Render(fmt.Sprintf(" %5.1f%%", pct))
	}

	return []string{
		st.Muted.Render(truncate(strings.TrimSpace(sys.OS+" "+sys.Kernel), width)),
		meter("CPU", sys.CPUPercent),
		meter("MEM", sys.MemPercent()),
		st.Muted.Render(truncate(fmt.Sprintf("%s / %s · %d cpus", humanize.IBytes(sys.MemUsed), humanize.IBytes(sys.MemTotal), sys.CPUs), width)),
		st.Muted.Render(truncate(fmt.Sprintf("load %.2f %.2f %.2f · up %s", sys.Load1, sys.Load5, sys.Load15, uptime(sys.Uptime)), width)),
		clock,
	}
}

func (m Model) spotlightLines(rows, width int) []string {
	st := m.styles
	if len(m.snapshot.Spotlight) == 0 {
		return []string{st.Muted.Render("No repositories yet")}
	}
	rows = min(rows, len(m.snapshot.Spotlight))
	lines := make([]string, 0, rows)
	for i, r := range m.snapshot.Spotlight[:rows] {
		stars := "★ " + count(r.Stars)
		nameW := max(width-len(stars)-16, 8)
		line := fmt.Sprintf("%2d. %s %s", i+1, padRight(truncate(r.Name, nameW), nameW), stars)
		lines = append(lines, st.Text.Render(line)+" "+st.Info.Render(truncate(r.Language, 12)))
	}
	return lines
}

func (m Model) activityTitle() string {
	if n := m.snapshot.NewEvents(); n > 0 {
		return fmt.Sprintf("Activity · %d new", n)
	}
	return "Activity"
}

func (m Model) activityLines(rows, width int) []string {
	events := m.snapshot.Events
	if len(events) == 0 {
		return []string{m.styles.Muted.Render("No recent activity")}
	}
	rows = min(rows, len(events))
	lines := make([]string, 0, rows)
	for _, ev := range events[:rows] {
		lines = append(lines, m.eventLine(ev, width))
	}
	return lines
}

// eventLine renders one feed entry, highlighted while it is fresh.
func (m Model) eventLine(ev github.Event, width int) string {
	line := fmt.Sprintf("%s %s %s %s %s",
		ev.Icon(),
		padRight(ago(ev.CreatedAt, m.now), 15),
		ev.Actor,
		ev.Verb(),
		ev.RepoName,
	)
	line = truncate(line, width)
	if m.glowing(ev.ID) {
		return m.novelStyle().Render(padRight(line, width))
	}
	return m.styles.Text.Render(line)
}

func (m Model) novelStyle() lipgloss.Style {
	if m.reducedMotion {
		return m.styles.Info.Bold(true)
	}
	phase := int(m.animNow().Sub(m.start)/(500*time.Millisecond)) % 2
	if phase == 0 {
		return m.styles.Glow
	}
	return m.styles.Accent.Bold(true)
}

// visibleEvents lists the events the current frame draws.
func (m Model) visibleEvents() []github.Event {
	events := m.snapshot.Events
	switch m.page {
	case PageDashboard:
		l := m.dashboardLayout()
		if l.bottomH < minActivity+3 {
			return nil
		}
		return events[:min(l.activityRows, len(events))]
	case PageActivity:
		if !m.ready {
			return nil
		}
		lo := min(m.activityView.YOffset, len(events))
		hi := min(lo+m.activityView.Height, len(events))
		return events[lo:hi]
	default:
		return nil
	}
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
