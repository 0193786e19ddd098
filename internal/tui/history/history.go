package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"abchart/internal/storage"
	charts "abchart/internal/table"
	"abchart/internal/tui/styles"
)

// Model browses stored sweeps. Enter opens the selected chart, esc goes
// back to the list.
type Model struct {
	Items []storage.SweepRecord
	Table table.Model

	// Selected is the record shown in detail, nil in list mode
	Selected *storage.SweepRecord

	Width  int
	Height int
}

func NewModel(items []storage.SweepRecord) Model {
	columns := []table.Column{
		{Title: "Time", Width: 20},
		{Title: "ID", Width: 10},
		{Title: "Chart", Width: 44},
		{Title: "Runs", Width: 6},
		{Title: "Peak req/s", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.ColorBorder).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.ColorPrimary)
	s.Selected = s.Selected.
		Foreground(styles.ColorText).
		Background(styles.ColorPrimary).
		Bold(false)
	t.SetStyles(s)

	m := Model{
		Items: items,
		Table: t,
	}
	m.Refresh()
	return m
}

func (m *Model) Refresh() {
	rows := make([]table.Row, len(m.Items))
	for i, item := range m.Items {
		rows[i] = table.Row{
			item.Timestamp.Format(time.DateTime),
			shortID(item.ID),
			item.Title,
			fmt.Sprintf("%d", item.Summary.Runs),
			fmt.Sprintf("%.2f", item.Summary.PeakRPS),
		}
	}
	m.Table.SetRows(rows)
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Table.SetHeight(max(3, msg.Height-8))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			m.Selected = nil
			return m, nil
		case "enter":
			if m.Selected != nil {
				m.Selected = nil
				return m, nil
			}
			if i := m.Table.Cursor(); i >= 0 && i < len(m.Items) {
				m.Selected = &m.Items[i]
			}
			return m, nil
		}
	}

	if m.Selected != nil {
		return m, nil
	}

	var cmd tea.Cmd
	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var s strings.Builder

	if m.Selected != nil {
		rec := m.Selected
		s.WriteString(styles.Title.Render(rec.Title))
		s.WriteString("\n")
		s.WriteString(styles.Subtle.Render(fmt.Sprintf("%s  %s  %s", rec.ID, rec.Timestamp.Format(time.DateTime), rec.Target)))
		s.WriteString("\n\n")
		s.WriteString(styles.Box.Render(strings.TrimRight(charts.Format(rec.Table()), "\n")))
		s.WriteString("\n")
		s.WriteString(styles.RenderKey("esc", "back") + "  " + styles.RenderKey("q", "quit"))
		return s.String()
	}

	if len(m.Items) == 0 {
		s.WriteString(styles.Subtle.Render("No stored sweeps yet. Run abchart with --history."))
		s.WriteString("\n")
		return s.String()
	}

	s.WriteString(styles.Box.Render(m.Table.View()))
	s.WriteString("\n")
	s.WriteString(styles.RenderKey("enter", "open") + "  " + styles.RenderKey("q", "quit"))
	return s.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
