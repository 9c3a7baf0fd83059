package ui

import (
	"strings"

	"github.com/five82/controldeck/internal/logtail"
)

func (m *Model) syncLogView() {
	switch {
	case m.logPath == "":
		m.logView.SetContent(m.styles.Muted.Render("Logging to a file is disabled"))
		return
	case m.logErr != nil:
		m.logView.SetContent(m.styles.Danger.Render("Cannot read " + m.logPath + ": " + m.logErr.Error()))
		return
	case len(m.logLines) == 0:
		m.logView.SetContent(m.styles.Muted.Render("No log output yet"))
		return
	}
	lines := make([]string, 0, len(m.logLines))
	for _, line := range m.logLines {
		line = truncate(line, m.width)
		lines = append(lines, m.styles.Severity(logtail.Classify(line)).Render(line))
	}
	m.logView.SetContent(strings.Join(lines, "\n"))
}

func (m Model) renderLogs() string {
	return m.logView.View()
}
