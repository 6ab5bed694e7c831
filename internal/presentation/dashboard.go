// Package presentation turns controller snapshots into front-end neutral view
// models shared by the web page, the terminal client and the export.
package presentation

import (
	"math"
	"strconv"
	"strings"

	"github.com/kirillkom/startup-scout/internal/core/domain"
)

const (
	PlaceholderLogoURL = "https://via.placeholder.com/48?text=Logo"
	NoJustification    = "No justification provided."
	NoSummary          = "No summary available."
	defaultCompanyName = "Company"
)

type KeyInfo struct {
	Label string
	Value string
}

type MetricCard struct {
	Key             string
	Label           string
	Score           float64
	Baseline        float64
	ScorePercent    float64
	BaselinePercent float64
	Justification   string

	// Missing is set when the backend did not score this metric.
	Missing bool
	Wide    bool
}

type DashboardView struct {
	CompanyName string
	LogoURL     string
	Founders    string
	KeyInfo     []KeyInfo
	Metrics     []MetricCard
	Summary     string
}

// BuildDashboard renders a result against the comparison baseline. A nil
// result yields an empty dashboard with every fallback applied.
func BuildDashboard(result *domain.AnalysisResult, baseline domain.Baseline) DashboardView {
	if baseline == nil {
		baseline = domain.DefaultBaseline()
	}
	if result == nil {
		result = &domain.AnalysisResult{}
	}

	info := result.CompanyInfo
	view := DashboardView{
		CompanyName: firstNonEmpty(info.Name, defaultCompanyName),
		LogoURL:     firstNonEmpty(result.LogoURL, PlaceholderLogoURL),
		Founders:    info.Founders,
		KeyInfo: []KeyInfo{
			{Label: "Funding Stage", Value: info.FundingStage},
			{Label: "Funding Amount", Value: info.FundingAmount},
			{Label: "Growth Rate", Value: info.GrowthRate},
			{Label: "Product Stage", Value: info.ProductStage},
			{Label: "Competitors", Value: info.Competitors},
		},
		Summary: firstNonEmpty(result.Summary, NoSummary),
	}

	missing := make(map[string]bool, len(result.Missing))
	for _, key := range result.Missing {
		missing[key] = true
	}

	view.Metrics = make([]MetricCard, 0, len(domain.StandardMetrics))
	for _, metric := range domain.StandardMetrics {
		score := result.Score(metric.Key)
		avg := baseline[metric.Key]
		_, scored := result.Scores[metric.Key]
		view.Metrics = append(view.Metrics, MetricCard{
			Key:             metric.Key,
			Label:           metric.Label,
			Score:           score,
			Baseline:        avg,
			ScorePercent:    Percent(score),
			BaselinePercent: Percent(avg),
			Justification:   firstNonEmpty(result.Justifications[metric.Key], NoJustification),
			Missing:         missing[metric.Key] || !scored,
			Wide:            metric.Key == domain.MetricOverall,
		})
	}
	return view
}

// Percent maps a 0-10 score onto a bar width.
func Percent(score float64) float64 {
	if math.IsNaN(score) {
		return 0
	}
	return math.Min(math.Max(score/domain.MaxScore*100, 0), 100)
}

func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

func firstNonEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
