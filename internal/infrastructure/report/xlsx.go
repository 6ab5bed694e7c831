package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/startup-scout/internal/presentation"
)

const (
	SheetName   = "Evaluation"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var metricHeader = []string{"Metric", "Score", "Baseline", "Score %", "Justification"}

// WriteDashboard renders the dashboard view as a single-sheet workbook.
func WriteDashboard(w io.Writer, view presentation.DashboardView, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	sheet := &sheetWriter{file: f}
	sheet.row(styles.title, view.CompanyName)
	sheet.row(0, "Logo", view.LogoURL)
	if view.Founders != "" {
		sheet.row(0, "Founders", view.Founders)
	}
	sheet.skip()

	sheet.row(styles.header, "Key Info")
	for _, info := range view.KeyInfo {
		sheet.row(0, info.Label, info.Value)
	}
	sheet.skip()

	header := make([]any, len(metricHeader))
	for i, h := range metricHeader {
		header[i] = h
	}
	sheet.row(styles.header, header...)
	for _, card := range view.Metrics {
		score := any(card.Score)
		if card.Missing {
			score = "n/a"
		}
		sheet.row(0, card.Label, score, card.Baseline, card.ScorePercent/100, card.Justification)
		sheet.style(4, 4, styles.percent)
	}
	sheet.skip()

	sheet.row(styles.header, "Executive Summary")
	sheet.row(styles.wrap, view.Summary)
	sheet.skip()
	sheet.row(0, "Generated", generatedAt.UTC().Format(time.RFC3339))

	if sheet.err != nil {
		return fmt.Errorf("write workbook cells: %w", sheet.err)
	}
	for col, width := range map[string]float64{"A": 22, "B": 14, "C": 12, "D": 12, "E": 80} {
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

type workbookStyles struct {
	title   int
	header  int
	percent int
	wrap    int
}

func newStyles(f *excelize.File) (workbookStyles, error) {
	var out workbookStyles
	var err error
	if out.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16, Color: "#7C3AED"}}); err != nil {
		return out, fmt.Errorf("title style: %w", err)
	}
	if out.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#7C3AED"}},
	}); err != nil {
		return out, fmt.Errorf("header style: %w", err)
	}
	if out.percent, err = f.NewStyle(&excelize.Style{NumFmt: 9}); err != nil {
		return out, fmt.Errorf("percent style: %w", err)
	}
	if out.wrap, err = f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}}); err != nil {
		return out, fmt.Errorf("wrap style: %w", err)
	}
	return out, nil
}

// sheetWriter appends rows and keeps the first error.
type sheetWriter struct {
	file *excelize.File
	next int
	err  error
}

func (s *sheetWriter) row(style int, values ...any) {
	s.next++
	for i, value := range values {
		cell := s.cell(i+1, s.next)
		if s.err != nil {
			return
		}
		s.err = s.file.SetCellValue(SheetName, cell, value)
	}
	if style != 0 {
		s.style(1, len(values), style)
	}
}

func (s *sheetWriter) style(fromCol, toCol, style int) {
	from := s.cell(fromCol, s.next)
	to := s.cell(toCol, s.next)
	if s.err != nil {
		return
	}
	s.err = s.file.SetCellStyle(SheetName, from, to, style)
}

func (s *sheetWriter) cell(col, row int) string {
	if s.err != nil {
		return ""
	}
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		s.err = err
	}
	return name
}

func (s *sheetWriter) skip() {
	s.next++
}

// Filename derives a download name such as acme-robotics-20261019-083000.xlsx.
func Filename(company string, at time.Time) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(company)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "evaluation"
	}
	return fmt.Sprintf("%s-%s.xlsx", slug, at.UTC().Format("20060102-150405"))
}
