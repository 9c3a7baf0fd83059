package ui

import "strings"

// syncActivityView renders the whole feed into the viewport, one event per
// line, so the visible range is the viewport's line window.
func (m *Model) syncActivityView() {
	events := m.snapshot.Events
	if len(events) == 0 {
		m.activityView.SetContent(m.styles.Muted.Render("No recent activity"))
		return
	}
	lines := make([]string, 0, len(events))
	for _, ev := range events {
		lines = append(lines, m.eventLine(ev, m.width))
	}
	m.activityView.SetContent(strings.Join(lines, "\n"))
}

func (m Model) renderActivity() string {
	return m.activityView.View()
}
