package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kirillkom/startup-scout/internal/presentation"
)

const (
	barWidth   = 30
	panelWidth = 72
)

var (
	accent = lipgloss.Color("63")
	muted  = lipgloss.Color("245")
	danger = lipgloss.Color("203")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	errorStyle   = lipgloss.NewStyle().Foreground(danger)
	labelStyle   = lipgloss.NewStyle().Bold(true).Width(16)
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(0, 1).Width(panelWidth)
	userStyle    = lipgloss.NewStyle().Foreground(accent).Bold(true)
	scoutStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	barFillStyle = lipgloss.NewStyle().Foreground(accent)
)

// scoreBar draws the score as a filled bar with the baseline marked by '|'.
func scoreBar(card presentation.MetricCard) string {
	filled := int(card.ScorePercent / 100 * barWidth)
	marker := int(card.BaselinePercent / 100 * barWidth)
	if marker >= barWidth {
		marker = barWidth - 1
	}

	var b strings.Builder
	for i := 0; i < barWidth; i++ {
		switch {
		case i == marker:
			b.WriteString("|")
		case i < filled:
			b.WriteString(barFillStyle.Render("█"))
		default:
			b.WriteString(mutedStyle.Render("░"))
		}
	}
	return b.String()
}
