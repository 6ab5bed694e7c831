package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kirillkom/startup-scout/internal/core/domain"
	"github.com/kirillkom/startup-scout/internal/core/usecase"
	"github.com/kirillkom/startup-scout/internal/presentation"
)

type analyzerFake struct{}

func (analyzerFake) Analyze(context.Context, string) (*domain.AnalysisResult, error) {
	return &domain.AnalysisResult{
		Scores:      map[string]float64{domain.MetricOverall: 8, domain.MetricTeam: 9},
		Summary:     "Solid fundamentals.",
		CompanyInfo: domain.CompanyInfo{Name: "Acme"},
	}, nil
}

type chatFake struct{}

func (chatFake) Reply(context.Context, string, *domain.AnalysisResult) (string, error) {
	return "Team is strong.", nil
}

type ingestorFake struct{}

func (ingestorFake) Ingest(_ context.Context, file domain.FileHandle) (string, error) {
	return "text of " + file.Name(), nil
}

func newTestModel(t *testing.T, exportDir string) (Model, *usecase.ViewController) {
	t.Helper()
	flow := usecase.NewViewController(context.Background(), analyzerFake{}, ingestorFake{}, chatFake{}, usecase.ViewControllerOptions{})
	t.Cleanup(flow.Close)
	return New(flow, Options{ExportDir: exportDir}), flow
}

func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("expected tui.Model, got %T", next)
	}
	return model, cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

// settle runs the command returned for an asynchronous event and feeds its
// message back, skipping batched ticks.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command to wait on")
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	select {
	case msg := <-done:
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, c := range batch {
				if c == nil {
					continue
				}
				if inner := c(); inner != nil {
					if _, ok := inner.(settledMsg); ok {
						msg = inner
						break
					}
				}
			}
		}
		next, _ := m.Update(msg)
		return next.(Model)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for command")
	}
	return m
}

func TestModelLaunchesAndShowsDashboard(t *testing.T) {
	m, flow := newTestModel(t, t.TempDir())

	if !strings.Contains(m.View(), "Startup Scout") {
		t.Fatalf("expected landing view")
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if flow.Snapshot().State != domain.ViewIntake {
		t.Fatalf("enter should start intake, got %s", flow.Snapshot().State)
	}

	m = typeText(t, m, "Acme")
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = settle(t, m, cmd)

	if flow.Snapshot().State != domain.ViewResult {
		t.Fatalf("expected result state, got %s", flow.Snapshot().State)
	}
	view := m.View()
	for _, want := range []string{"Acme", "Executive Summary", "Solid fundamentals."} {
		if !strings.Contains(view, want) {
			t.Fatalf("result view missing %q", want)
		}
	}
}

func TestModelBlankLaunchShowsError(t *testing.T) {
	m, flow := newTestModel(t, t.TempDir())
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	if cmd != nil {
		t.Fatalf("blank launch should not start work")
	}
	if flow.Snapshot().State != domain.ViewIntake {
		t.Fatalf("blank launch must stay in intake")
	}
	if !strings.Contains(m.View(), "Please enter a company name.") {
		t.Fatalf("expected empty query message")
	}
}

func TestModelAttachesFileFromPath(t *testing.T) {
	dir := t.TempDir()
	deck := filepath.Join(dir, "deck.txt")
	if err := os.WriteFile(deck, []byte("pitch"), 0o600); err != nil {
		t.Fatalf("write deck: %v", err)
	}

	m, flow := newTestModel(t, dir)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, deck)
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = settle(t, m, cmd)

	snap := flow.Snapshot()
	if snap.ExtractedText != "text of deck.txt" {
		t.Fatalf("unexpected extracted text %q", snap.ExtractedText)
	}
	if !strings.Contains(m.View(), "Attached deck.txt") {
		t.Fatalf("expected attachment line in view")
	}
}

func TestModelChatAndExport(t *testing.T) {
	exportDir := t.TempDir()
	m, flow := newTestModel(t, exportDir)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = typeText(t, m, "Acme")
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = settle(t, m, cmd)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	if !flow.Snapshot().Chat.Open {
		t.Fatalf("c should open chat")
	}
	m = typeText(t, m, "Team?")
	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = settle(t, m, cmd)
	if !strings.Contains(m.View(), "Team is strong.") {
		t.Fatalf("expected assistant reply in chat panel")
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if flow.Snapshot().Chat.Open {
		t.Fatalf("esc should close chat")
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	entries, err := os.ReadDir(exportDir)
	if err != nil || len(entries) != 1 || !strings.HasSuffix(entries[0].Name(), ".xlsx") {
		t.Fatalf("expected one exported workbook, got %v (err=%v)", entries, err)
	}
	if !strings.Contains(m.View(), "Exported to") {
		t.Fatalf("expected export status")
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("b")})
	if flow.Snapshot().State != domain.ViewIntake {
		t.Fatalf("b should go back to intake")
	}
	if m.query.Value() != "Acme" {
		t.Fatalf("back should restore the query, got %q", m.query.Value())
	}
}

func TestScoreBarMarksBaseline(t *testing.T) {
	bar := scoreBar(presentation.MetricCard{ScorePercent: 50, BaselinePercent: 70})
	if !strings.Contains(bar, "|") {
		t.Fatalf("expected baseline marker in %q", bar)
	}
}
