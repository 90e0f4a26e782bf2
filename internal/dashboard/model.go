// Package dashboard is an optional bubbletea TUI that shows a training run's
// live progress (spec §5 ADDED "dashboard"): iteration count, infoset
// count, and the last exploitability estimate. It never drives training
// itself — it only polls a snapshot function on a fixed tick, the same
// read-only-view role the teacher's internal/tui package plays over a poker
// table's state.
package dashboard

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Snapshot is the subset of a training run's state the dashboard renders.
// GapKnown distinguishes "no estimate yet" from a genuine zero gap.
type Snapshot struct {
	Game       string
	Iteration  uint64
	Total      uint64
	Infosets   int
	Gap        float64
	GapKnown   bool
	GapAsOf    uint64
}

// pollInterval is how often the dashboard redraws, independent of the
// driver's own (typically coarser) checkpoint/evaluate cadence.
const pollInterval = 500 * time.Millisecond

type tickMsg time.Time

// Model is a tea.Model that polls poll() on every tick and renders the
// result. Construct with NewModel and hand it to tea.NewProgram.
type Model struct {
	poll     func() Snapshot
	snapshot Snapshot
	quitting bool
	width    int
}

// NewModel builds a dashboard that calls poll for each redraw.
func NewModel(poll func() Snapshot) *Model {
	return &Model{poll: poll}
}

func (m *Model) Init() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case tickMsg:
		m.snapshot = m.poll()
		return m, tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
	}
	return m, nil
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	s := m.snapshot
	header := headerStyle.Render(fmt.Sprintf(" %s — MCCFR training ", s.Game))

	progress := fmt.Sprintf("%s %s", labelStyle.Render("iteration:"), valueStyle.Render(formatProgress(s.Iteration, s.Total)))
	infosets := fmt.Sprintf("%s %s", labelStyle.Render("infosets: "), valueStyle.Render(fmt.Sprintf("%d", s.Infosets)))
	gap := fmt.Sprintf("%s %s", labelStyle.Render("nash gap: "), renderGap(s))

	body := progress + "\n" + infosets + "\n" + gap
	help := helpStyle.Render("q to quit")

	return header + "\n\n" + boxStyle.Render(body) + "\n" + help
}

func formatProgress(iteration, total uint64) string {
	if total == 0 {
		return fmt.Sprintf("%d", iteration)
	}
	pct := float64(iteration) / float64(total) * 100
	return fmt.Sprintf("%d / %d (%.1f%%)", iteration, total, pct)
}

func renderGap(s Snapshot) string {
	if !s.GapKnown {
		return labelStyle.Render("not yet estimated")
	}
	text := fmt.Sprintf("%.6f (as of iteration %d)", s.Gap, s.GapAsOf)
	if s.Gap < 0.05 {
		return gapGoodStyle.Render(text)
	}
	return gapBadStyle.Render(text)
}
