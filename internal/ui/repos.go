package ui

import (
	"fmt"
	"strings"

	"github.com/five82/controldeck/internal/github"
)

type repoColumn struct {
	title string
	width int
	right bool
	value func(Model, github.Repo) string
}

func (m Model) repoColumns() []repoColumn {
	cols := []repoColumn{
		{title: "Name", width: 28, value: func(_ Model, r github.Repo) string {
			if r.Fork {
				return r.Name + " (fork)"
			}
			return r.Name
		}},
		{title: "Language", width: 12, value: func(_ Model, r github.Repo) string { return r.Language }},
		{title: "Stars", width: 7, right: true, value: func(_ Model, r github.Repo) string { return count(r.Stars) }},
		{title: "Forks", width: 7, right: true, value: func(_ Model, r github.Repo) string { return count(r.Forks) }},
		{title: "Issues", width: 7, right: true, value: func(_ Model, r github.Repo) string { return count(r.OpenIssues) }},
		{title: "Pushed", width: 16, value: func(m Model, r github.Repo) string { return ago(r.PushedAt, m.now) }},
	}
	if m.width >= LayoutWideWidth {
		used := 0
		for _, c := range cols {
			used += c.width + 1
		}
		cols = append(cols, repoColumn{
			title: "Description",
			width: max(m.width-used-1, 10),
			value: func(_ Model, r github.Repo) string { return r.Description },
		})
	}
	return cols
}

// filteredRepos applies the filter box to the full repository list.
func (m Model) filteredRepos() []github.Repo {
	needle := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	if needle == "" {
		return m.snapshot.Repos
	}
	var out []github.Repo
	for _, r := range m.snapshot.Repos {
		hay := strings.ToLower(r.Name + " " + r.Language + " " + r.Description)
		if strings.Contains(hay, needle) {
			out = append(out, r)
		}
	}
	return out
}

func formatCell(c repoColumn, v string) string {
	v = truncate(v, c.width)
	if c.right {
		return fmt.Sprintf("%*s", c.width, v)
	}
	return padRight(v, c.width)
}

func (m *Model) syncReposView() {
	cols := m.repoColumns()
	repos := m.filteredRepos()
	if len(repos) == 0 {
		msg := "No repositories yet"
		if m.filter.Value() != "" {
			msg = fmt.Sprintf("No repositories match %q", m.filter.Value())
		}
		m.reposView.SetContent(m.styles.Muted.Render(msg))
		return
	}
	lines := make([]string, 0, len(repos))
	for _, r := range repos {
		cells := make([]string, 0, len(cols))
		for _, c := range cols {
			cells = append(cells, formatCell(c, c.value(*m, r)))
		}
		line := strings.Join(cells, " ")
		if r.Fork {
			lines = append(lines, m.styles.Muted.Render(line))
		} else {
			lines = append(lines, m.styles.Text.Render(line))
		}
	}
	m.reposView.SetContent(strings.Join(lines, "\n"))
}

func (m Model) renderRepos() string {
	cols := m.repoColumns()
	heads := make([]string, 0, len(cols))
	for _, c := range cols {
		heads = append(heads, formatCell(c, c.title))
	}
	var b strings.Builder
	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("  %d of %d", len(m.filteredRepos()), len(m.snapshot.Repos))))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Title.Render(strings.Join(heads, " ")))
	b.WriteString("\n")
	b.WriteString(m.reposView.View())
	return b.String()
}
