package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/startup-scout/internal/core/domain"
	"github.com/kirillkom/startup-scout/internal/presentation"
)

func TestWriteDashboardProducesReadableWorkbook(t *testing.T) {
	view := presentation.BuildDashboard(&domain.AnalysisResult{
		Scores:         map[string]float64{domain.MetricOverall: 8, domain.MetricMarket: 7},
		Justifications: map[string]string{domain.MetricOverall: "Great team"},
		Summary:        "Payments infrastructure leader",
		CompanyInfo:    domain.CompanyInfo{Name: "Stripe", FundingStage: "Late"},
	}, domain.DefaultBaseline())

	var buf bytes.Buffer
	if err := WriteDashboard(&buf, view, time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("WriteDashboard() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	assertCell := func(cell, want string) {
		t.Helper()
		got, err := f.GetCellValue(SheetName, cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s) error = %v", cell, err)
		}
		if got != want {
			t.Fatalf("cell %s = %q, want %q", cell, got, want)
		}
	}

	// title, logo, blank, key info header, five key info rows, blank, metric header
	assertCell("A1", "Stripe")
	assertCell("B2", presentation.PlaceholderLogoURL)
	assertCell("A4", "Key Info")
	assertCell("A5", "Funding Stage")
	assertCell("B5", "Late")
	assertCell("A11", "Metric")
	assertCell("A12", "Overall")
	assertCell("B12", "8")
	assertCell("E12", "Great team")
	assertCell("A13", "Market")
	assertCell("E13", presentation.NoJustification)
	assertCell("B14", "n/a")
	assertCell("A19", "Executive Summary")
	assertCell("A20", "Payments infrastructure leader")
	assertCell("B22", "2026-10-19T09:00:00Z")
}

func TestFilename(t *testing.T) {
	at := time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)
	if got := Filename("Acme Robotics, Inc.", at); got != "acme-robotics-inc-20261019-083000.xlsx" {
		t.Fatalf("Filename() = %q", got)
	}
	if got := Filename("***", at); got != "evaluation-20261019-083000.xlsx" {
		t.Fatalf("Filename() fallback = %q", got)
	}
}
