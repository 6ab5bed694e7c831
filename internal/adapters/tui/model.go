package tui

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kirillkom/startup-scout/internal/core/domain"
	"github.com/kirillkom/startup-scout/internal/core/ports"
	"github.com/kirillkom/startup-scout/internal/infrastructure/report"
	"github.com/kirillkom/startup-scout/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/startup-scout/internal/presentation"
)

const refreshInterval = 250 * time.Millisecond

const (
	focusQuery = iota
	focusPath
)

type Options struct {
	ExportDir string
	Baseline  domain.Baseline
	Now       func() time.Time
}

// settledMsg arrives when asynchronous work started by an event finishes.
type settledMsg struct{}

type refreshMsg time.Time

// Model renders one view flow in the terminal.
type Model struct {
	flow ports.ViewFlow
	opts Options

	query   textinput.Model
	path    textinput.Model
	message textinput.Model
	spinner spinner.Model
	focus   int

	status string
	err    string
	last   domain.ViewState
}

func New(flow ports.ViewFlow, opts Options) Model {
	if opts.Baseline == nil {
		opts.Baseline = domain.DefaultBaseline()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	query := textinput.New()
	query.Placeholder = "Company name"
	query.Prompt = "▶ "
	query.CharLimit = 200

	path := textinput.New()
	path.Placeholder = "/path/to/deck.pdf (optional)"
	path.Prompt = "  "

	message := textinput.New()
	message.Placeholder = presentation.ChatPlaceholder
	message.Prompt = "> "

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return Model{
		flow:    flow,
		opts:    opts,
		query:   query,
		path:    path,
		message: message,
		spinner: spin,
		last:    domain.ViewLanding,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, refresh())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case settledMsg:
		return m.sync(), nil
	case refreshMsg:
		return m.sync(), refresh()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m.updateInputs(msg)
}

// sync adjusts input focus after the flow changed state on its own, for
// example when an analysis finishes.
func (m Model) sync() Model {
	snap := m.flow.Snapshot()
	if snap.State == m.last {
		if snap.State == domain.ViewResult && !snap.Chat.Open && m.message.Focused() {
			m.message.Blur()
		}
		return m
	}
	m.last = snap.State

	switch snap.State {
	case domain.ViewIntake:
		m.query.SetValue(snap.CompanyQuery)
		m.query.CursorEnd()
		m.setFocus(focusQuery)
	default:
		m.query.Blur()
		m.path.Blur()
		m.message.Blur()
	}
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	m.err = ""

	snap := m.flow.Snapshot()
	switch snap.State {
	case domain.ViewLanding:
		return m.handleLandingKey(msg)
	case domain.ViewIntake:
		return m.handleIntakeKey(msg)
	case domain.ViewLoading:
		if msg.Type == tea.KeyEsc {
			m.fail(m.flow.Cancel())
			return m.sync(), nil
		}
		return m, nil
	case domain.ViewResult:
		if snap.Chat.Open {
			return m.handleChatKey(msg)
		}
		return m.handleResultKey(msg, snap)
	}
	return m, nil
}

func (m Model) handleLandingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.fail(m.flow.Start())
		return m.sync(), nil
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleIntakeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab":
		m.setFocus(1 - m.focus)
		return m, nil
	case "ctrl+l":
		return m.launch()
	case "enter":
		if m.focus == focusPath {
			return m.selectFile()
		}
		return m.launch()
	}
	return m.updateInputs(msg)
}

func (m Model) handleResultKey(msg tea.KeyMsg, snap domain.Snapshot) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "b":
		m.fail(m.flow.GoBack())
		return m.sync(), nil
	case "c":
		if m.fail(m.flow.OpenChat()) {
			return m, nil
		}
		m.message.Reset()
		return m, m.message.Focus()
	case "x":
		m.export(snap)
		return m, nil
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.fail(m.flow.CloseChat())
		m.message.Blur()
		return m, nil
	case tea.KeyEnter:
		text := m.message.Value()
		pending, err := m.flow.SendChat(text)
		if m.fail(err) {
			return m, nil
		}
		m.message.Reset()
		return m, waitFor(pending)
	}
	return m.updateInputs(msg)
}

func (m Model) launch() (tea.Model, tea.Cmd) {
	if m.fail(m.flow.EditQuery(m.query.Value())) {
		return m, nil
	}
	pending, err := m.flow.Launch()
	if m.fail(err) {
		return m, nil
	}
	m = m.sync()
	return m, tea.Batch(waitFor(pending), m.spinner.Tick)
}

func (m Model) selectFile() (tea.Model, tea.Cmd) {
	path := strings.TrimSpace(m.path.Value())
	if path == "" {
		m.err = "Enter a file path first."
		return m, nil
	}
	if m.fail(m.flow.EditQuery(m.query.Value())) {
		return m, nil
	}
	pending, err := m.flow.SelectFile(localfs.PathFile{Path: expandHome(path)})
	if m.fail(err) {
		return m, nil
	}
	m.setFocus(focusQuery)
	return m, waitFor(pending)
}

func (m *Model) export(snap domain.Snapshot) {
	view := presentation.BuildDashboard(snap.Result, m.opts.Baseline)
	now := m.opts.Now()
	dir := m.opts.ExportDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		m.err = fmt.Sprintf("Export failed: %v", err)
		return
	}

	target := filepath.Join(dir, report.Filename(view.CompanyName, now))
	file, err := os.Create(target)
	if err != nil {
		m.err = fmt.Sprintf("Export failed: %v", err)
		return
	}
	defer file.Close()

	if err := report.WriteDashboard(file, view, now); err != nil {
		m.err = fmt.Sprintf("Export failed: %v", err)
		return
	}
	m.status = "Exported to " + target
	slog.Info("tui_export_written", "path", target)
}

// fail records err for display and reports whether there was one.
func (m *Model) fail(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case domain.IsKind(err, domain.ErrEmptyQuery):
		m.err = "Please enter a company name."
	case domain.IsKind(err, domain.ErrInvalidTransition):
		m.err = "That action is not available right now."
	default:
		m.err = err.Error()
	}
	slog.Debug("tui_event_rejected", "error", err)
	return true
}

func (m *Model) setFocus(focus int) {
	m.focus = focus
	if focus == focusPath {
		m.query.Blur()
		m.path.Focus()
		return
	}
	m.path.Blur()
	m.query.Focus()
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds [3]tea.Cmd
	m.query, cmds[0] = m.query.Update(msg)
	m.path, cmds[1] = m.path.Update(msg)
	m.message, cmds[2] = m.message.Update(msg)
	return m, tea.Batch(cmds[:]...)
}

func waitFor(pending ports.Pending) tea.Cmd {
	return func() tea.Msg {
		<-pending
		return settledMsg{}
	}
}

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
