package domain

import (
	"encoding/json"
	"time"
)

const (
	MetricOverall  = "overall_score"
	MetricMarket   = "market_score"
	MetricProduct  = "product_score"
	MetricTraction = "traction_score"
	MetricRisk     = "risk_score"
	MetricTeam     = "team_score"
)

const (
	MinScore = 0.0
	MaxScore = 10.0
)

type Metric struct {
	Key   string
	Label string
}

// StandardMetrics lists the scored metrics in display order.
var StandardMetrics = []Metric{
	{Key: MetricOverall, Label: "Overall"},
	{Key: MetricMarket, Label: "Market"},
	{Key: MetricProduct, Label: "Product"},
	{Key: MetricTraction, Label: "Traction"},
	{Key: MetricRisk, Label: "Risk"},
	{Key: MetricTeam, Label: "Team"},
}

type CompanyInfo struct {
	Name          string `json:"company_name,omitempty"`
	Founders      string `json:"founder_name,omitempty"`
	FundingStage  string `json:"funding_stage,omitempty"`
	FundingAmount string `json:"funding_amount,omitempty"`
	GrowthRate    string `json:"growth_rate,omitempty"`
	ProductStage  string `json:"product_stage,omitempty"`
	Competitors   string `json:"competitors,omitempty"`
}

type AnalysisResult struct {
	Scores         map[string]float64 `json:"scores"`
	Justifications map[string]string  `json:"justifications"`
	Summary        string             `json:"summary"`
	CompanyInfo    CompanyInfo        `json:"company_info"`
	LogoURL        string             `json:"logo_url,omitempty"`

	// Missing names standard metrics the backend omitted; they score 0.
	Missing []string `json:"missing,omitempty"`

	// Raw is the result object exactly as the backend returned it.
	Raw json.RawMessage `json:"-"`
}

// Score returns the metric score, 0 when absent.
func (r *AnalysisResult) Score(metric string) float64 {
	if r == nil {
		return 0
	}
	return r.Scores[metric]
}

func (r *AnalysisResult) Clone() *AnalysisResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Scores = make(map[string]float64, len(r.Scores))
	for k, v := range r.Scores {
		out.Scores[k] = v
	}
	out.Justifications = make(map[string]string, len(r.Justifications))
	for k, v := range r.Justifications {
		out.Justifications[k] = v
	}
	out.Missing = append([]string(nil), r.Missing...)
	out.Raw = append(json.RawMessage(nil), r.Raw...)
	return &out
}

// Baseline holds the comparison score per metric.
type Baseline map[string]float64

func DefaultBaseline() Baseline {
	return Baseline{
		MetricOverall:  6,
		MetricMarket:   5,
		MetricProduct:  6,
		MetricTraction: 7,
		MetricRisk:     4,
		MetricTeam:     6,
	}
}

type EvaluationStatus string

const (
	EvaluationSucceeded EvaluationStatus = "succeeded"
	EvaluationFailed    EvaluationStatus = "failed"
	EvaluationCancelled EvaluationStatus = "cancelled"
)

// EvaluationRecord is the journal entry written when a launch settles.
type EvaluationRecord struct {
	ID           string           `json:"id"`
	SessionID    string           `json:"session_id"`
	CompanyQuery string           `json:"company_query"`
	Status       EvaluationStatus `json:"status"`
	OverallScore float64          `json:"overall_score"`
	Error        string           `json:"error,omitempty"`
	Duration     time.Duration    `json:"duration"`
	CreatedAt    time.Time        `json:"created_at"`
}
