package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// MonitorRow is one decoded meter reading shown by the live telegram
// monitor. It carries only display data; the monitor never reaches back
// into meter or telegram state.
type MonitorRow struct {
	Time    time.Time
	Bus     string
	Meter   string
	Driver  string
	Summary string
}

// monitorRowMsg and monitorErrMsg are the tea.Msg wrappers fed into the
// program from outside via MonitorFeed.
type monitorRowMsg MonitorRow
type monitorErrMsg struct{ err error }

// MonitorFeed is the producer side of the live telegram monitor: the
// daemon sends decoded readings here instead of printing them, and the
// Bubble Tea program drains them on its own event loop.
type MonitorFeed struct {
	rows chan MonitorRow
	errs chan error
}

// NewMonitorFeed creates a feed with a small buffer so a burst of
// telegrams from several buses doesn't block the daemon's dispatch loop.
func NewMonitorFeed() *MonitorFeed {
	return &MonitorFeed{
		rows: make(chan MonitorRow, 64),
		errs: make(chan error, 4),
	}
}

// Send delivers a row to the monitor, dropping it if the program isn't
// keeping up rather than blocking telegram processing.
func (f *MonitorFeed) Send(row MonitorRow) {
	select {
	case f.rows <- row:
	default:
	}
}

// SendError delivers a transient error (e.g. a dongle disconnect) to be
// shown in the monitor's status line.
func (f *MonitorFeed) SendError(err error) {
	select {
	case f.errs <- err:
	default:
	}
}

const monitorMaxRows = 200

// monitorModel is the Bubble Tea model for `run --ui`: a scrolling table
// of recent meter readings, one line per update, newest at the bottom.
type monitorModel struct {
	feed     *MonitorFeed
	rows     []MonitorRow
	lastErr  error
	width    int
	height   int
	quitting bool
}

func newMonitorModel(feed *MonitorFeed) monitorModel {
	w, h := GetTerminalSize()
	return monitorModel{feed: feed, width: w, height: h}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(waitForRow(m.feed), waitForErr(m.feed))
}

func waitForRow(feed *MonitorFeed) tea.Cmd {
	return func() tea.Msg {
		return monitorRowMsg(<-feed.rows)
	}
}

func waitForErr(feed *MonitorFeed) tea.Cmd {
	return func() tea.Msg {
		return monitorErrMsg{err: <-feed.errs}
	}
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	case monitorRowMsg:
		m.rows = append(m.rows, MonitorRow(msg))
		if len(m.rows) > monitorMaxRows {
			m.rows = m.rows[len(m.rows)-monitorMaxRows:]
		}
		return m, waitForRow(m.feed)
	case monitorErrMsg:
		m.lastErr = msg.err
		return m, waitForErr(m.feed)
	}
	return m, nil
}

func (m monitorModel) View() string {
	var b strings.Builder

	title := HeaderTitleStyle.Render("WMBUSD LIVE MONITOR")
	subtitle := HeaderCommandStyle.Render(fmt.Sprintf("%d readings  ·  q to quit", len(m.rows)))
	b.WriteString(lipgloss.JoinVertical(lipgloss.Left, title, subtitle))
	b.WriteString("\n")
	b.WriteString(RenderHorizontalDivider(minInt(m.width, MaxContentWidth), "─"))
	b.WriteString("\n")

	header := fmt.Sprintf("%-9s %-12s %-16s %-12s %s", "TIME", "BUS", "METER", "DRIVER", "READING")
	b.WriteString(StepPendingStyle.Render(header))
	b.WriteString("\n")

	visible := m.rows
	maxLines := m.height - 6
	if maxLines < 1 {
		maxLines = 10
	}
	if len(visible) > maxLines {
		visible = visible[len(visible)-maxLines:]
	}
	for _, row := range visible {
		line := fmt.Sprintf("%-9s %-12s %-16s %-12s %s",
			row.Time.Format("15:04:05"), truncate(row.Bus, 12), truncate(row.Meter, 16),
			truncate(row.Driver, 12), row.Summary)
		b.WriteString(ResultValueStyle.Render(line))
		b.WriteString("\n")
	}

	if m.lastErr != nil {
		b.WriteString("\n")
		b.WriteString(ErrorMessageStyle.Render("last error: " + m.lastErr.Error()))
		b.WriteString("\n")
	}

	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// RunMonitor blocks running the live telegram-monitor TUI until the user
// quits (q / ctrl+c / esc) or the feed's program is killed externally.
// The caller is expected to run this in its own goroutine and feed rows
// concurrently via feed.Send.
func RunMonitor(feed *MonitorFeed) error {
	p := tea.NewProgram(newMonitorModel(feed))
	_, err := p.Run()
	return err
}
