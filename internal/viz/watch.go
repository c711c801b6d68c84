package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/scaling/internal/campaign"
	"github.com/san-kum/scaling/internal/store"
)

type tickMsg time.Time

type loadedMsg struct {
	table store.Table
	err   error
	at    time.Time
}

// Watch follows a results file while a campaign writes to it.
type Watch struct {
	store    *store.Store
	kind     campaign.Kind
	interval time.Duration
	total    int
	theme    Theme

	table   store.Table
	err     error
	updated time.Time
	styles  styles
}

// NewWatch builds the watch model. total is the number of points the
// campaign plans to record; zero hides the progress bar.
func NewWatch(s *store.Store, kind campaign.Kind, interval time.Duration, total int, theme Theme) Watch {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return Watch{
		store:    s,
		kind:     kind,
		interval: interval,
		total:    total,
		theme:    theme,
		table:    store.Table{},
		styles:   newStyles(theme),
	}
}

func (m Watch) Init() tea.Cmd { return m.load }

func (m Watch) load() tea.Msg {
	t, err := m.store.Load()
	return loadedMsg{table: t, err: err, at: time.Now()}
}

func (m Watch) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Watch) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.load
		}
	case tickMsg:
		return m, m.load
	case loadedMsg:
		// Keep the last good table on a failed read and show the error.
		m.err = msg.err
		if msg.err == nil {
			m.table = msg.table
		}
		m.updated = msg.at
		return m, m.tick()
	}
	return m, nil
}

func (m Watch) View() string {
	var b strings.Builder

	title := "STRONG SCALING"
	if m.kind == campaign.Weak {
		title = "WEAK SCALING"
	}
	b.WriteString(m.styles.title.Render(title) + "\n\n")

	b.WriteString(m.styles.label.Render("File") + m.store.Path() + "\n")
	points := fmt.Sprintf("%d", m.table.Len())
	if m.total > 0 {
		points = fmt.Sprintf("%d/%d %s", m.table.Len(), m.total, m.styles.ProgressBar(m.table.Len(), m.total, 20))
	}
	b.WriteString(m.styles.label.Render("Points") + points + "\n")
	if !m.updated.IsZero() {
		b.WriteString(m.styles.label.Render("Updated") + m.updated.Format(time.TimeOnly) + "\n")
	}
	if m.err != nil {
		b.WriteString(m.styles.poor.Render("error: "+m.err.Error()) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(renderTable(m.table, m.kind, m.styles) + "\n")
	if preview := Preview(m.table, m.kind, m.theme); preview != "" {
		b.WriteString("\n" + preview + "\n")
	}

	b.WriteString(m.styles.muted.Render(fmt.Sprintf("\nrefresh %s  R:Reload Q:Quit", m.interval)))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
