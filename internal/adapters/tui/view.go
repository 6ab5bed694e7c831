package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kirillkom/startup-scout/internal/core/domain"
	"github.com/kirillkom/startup-scout/internal/presentation"
)

func (m Model) View() string {
	snap := m.flow.Snapshot()

	var body string
	switch snap.State {
	case domain.ViewLanding:
		body = m.landingView()
	case domain.ViewIntake:
		body = m.intakeView(snap)
	case domain.ViewLoading:
		body = m.loadingView(snap)
	case domain.ViewResult:
		body = m.resultView(snap)
	}

	var footer []string
	if m.err != "" {
		footer = append(footer, errorStyle.Render(m.err))
	}
	if m.status != "" {
		footer = append(footer, mutedStyle.Render(m.status))
	}
	if len(footer) == 0 {
		return body + "\n"
	}
	return body + "\n" + strings.Join(footer, "\n") + "\n"
}

func (m Model) landingView() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Startup Scout"),
		"Evaluate a startup across market, product, traction, risk and team.",
		"",
		mutedStyle.Render("enter: get started • q: quit"),
	)
}

func (m Model) intakeView(snap domain.Snapshot) string {
	lines := []string{
		titleStyle.Render("Which company should we scout?"),
	}
	if snap.Notice != "" {
		lines = append(lines, mutedStyle.Render(snap.Notice))
	}
	lines = append(lines, "", m.query.View(), m.path.View())

	switch {
	case snap.Ingesting:
		lines = append(lines, fmt.Sprintf("%s Reading %s...", m.spinner.View(), snap.FileName))
	case snap.UploadFailure != "":
		lines = append(lines, errorStyle.Render(snap.UploadFailure))
	case snap.FileName != "":
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("Attached %s (%d characters extracted)", snap.FileName, len([]rune(snap.ExtractedText)))))
	}

	lines = append(lines, "", mutedStyle.Render("tab: switch field • enter: launch or attach file • ctrl+l: launch • ctrl+c: quit"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) loadingView(snap domain.Snapshot) string {
	tip := presentation.LoadingTip(m.opts.Now().Sub(snap.LoadingSince))
	return lipgloss.JoinVertical(lipgloss.Left,
		fmt.Sprintf("%s Scouting %s...", m.spinner.View(), snap.CompanyQuery),
		"",
		boxStyle.Render(tip),
		"",
		mutedStyle.Render("esc: cancel"),
	)
}

func (m Model) resultView(snap domain.Snapshot) string {
	view := presentation.BuildDashboard(snap.Result, m.opts.Baseline)

	lines := []string{titleStyle.Render(view.CompanyName)}
	if view.Founders != "" {
		lines = append(lines, "Founders: "+view.Founders)
	}
	lines = append(lines, mutedStyle.Render("Logo: "+view.LogoURL), "")

	var info []string
	for _, row := range view.KeyInfo {
		info = append(info, labelStyle.Render(row.Label)+row.Value)
	}
	lines = append(lines, boxStyle.Render(strings.Join(info, "\n")), "")

	for _, card := range view.Metrics {
		score := presentation.FormatScore(card.Score)
		if card.Missing {
			score = "n/a"
		}
		lines = append(lines,
			fmt.Sprintf("%s %s %s (baseline %s)", labelStyle.Render(card.Label), scoreBar(card), score, presentation.FormatScore(card.Baseline)),
			mutedStyle.Render("  "+card.Justification),
		)
	}
	lines = append(lines, "", titleStyle.Render("Executive Summary"), boxStyle.Render(view.Summary))

	if snap.Chat.Open {
		lines = append(lines, "", m.chatView(snap.Chat))
	} else {
		lines = append(lines, "", mutedStyle.Render("c: chat • x: export xlsx • b: back • q: quit"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) chatView(chat domain.ChatSnapshot) string {
	panel := presentation.BuildChatPanel(chat)

	lines := []string{titleStyle.Render(panel.Title)}
	for _, line := range panel.Lines {
		speaker := scoutStyle.Render(line.Speaker + ":")
		if line.FromUser {
			speaker = userStyle.Render(line.Speaker + ":")
		}
		lines = append(lines, speaker+" "+line.Text)
	}
	if panel.Typing {
		lines = append(lines, mutedStyle.Render(m.spinner.View()+" "+presentation.ChatTypingNotice))
	}
	lines = append(lines, m.message.View(), mutedStyle.Render("enter: send • esc: close chat"))
	return boxStyle.Render(strings.Join(lines, "\n"))
}
