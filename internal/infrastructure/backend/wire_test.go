package backend

import (
	"encoding/json"
	"testing"

	"github.com/kirillkom/startup-scout/internal/core/domain"
)

func TestDecodeAnalysisResultAcceptsBackendShapes(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		metric  string
		want    float64
		missing int
	}{
		{
			name:    "nested scores",
			raw:     `{"scores":{"overall_score":7,"market_score":8,"product_score":6,"traction_score":5,"risk_score":4,"team_score":9},"summary":"ok"}`,
			metric:  domain.MetricTeam,
			want:    9,
			missing: 0,
		},
		{
			name:    "top level scores",
			raw:     `{"overall_score":7.5,"summary":"ok"}`,
			metric:  domain.MetricOverall,
			want:    7.5,
			missing: 5,
		},
		{
			name:    "numeric strings",
			raw:     `{"scores":{"risk_score":" 3 "}}`,
			metric:  domain.MetricRisk,
			want:    3,
			missing: 5,
		},
		{
			name:    "clamped above range",
			raw:     `{"scores":{"market_score":42}}`,
			metric:  domain.MetricMarket,
			want:    10,
			missing: 5,
		},
		{
			name:    "stringified json",
			raw:     `"Here you go: {\"overall_score\": 5, \"summary\": \"fine\"}"`,
			metric:  domain.MetricOverall,
			want:    5,
			missing: 5,
		},
		{
			name:    "wrapped twice",
			raw:     `{"result":{"scores":{"traction_score":8}}}`,
			metric:  domain.MetricTraction,
			want:    8,
			missing: 5,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := DecodeAnalysisResult(json.RawMessage(tc.raw))
			if err != nil {
				t.Fatalf("DecodeAnalysisResult() error = %v", err)
			}
			if got := result.Score(tc.metric); got != tc.want {
				t.Fatalf("score %s = %v, want %v", tc.metric, got, tc.want)
			}
			if len(result.Missing) != tc.missing {
				t.Fatalf("missing = %v, want %d entries", result.Missing, tc.missing)
			}
		})
	}
}

func TestDecodeAnalysisResultRejectsUnusablePayloads(t *testing.T) {
	for _, raw := range []string{``, `null`, `[1,2]`, `{}`, `{"justifications":{"market_score":"big"}}`, `"no json here"`} {
		if _, err := DecodeAnalysisResult(json.RawMessage(raw)); !domain.IsKind(err, domain.ErrInvalidResponse) {
			t.Fatalf("payload %q: expected invalid response, got %v", raw, err)
		}
	}
}

func TestDecodeAnalysisResultReadsCompanyInfo(t *testing.T) {
	raw := `{
		"scores": {"overall_score": 8, "summary": "nested summary"},
		"justifications": {"overall_score": "Strong team", "market_score": null},
		"company_info": {"name": "Stripe", "founder_name": "Patrick Collison", "competitors": ["Adyen", "Square"], "funding_amount": 600000000}
	}`
	result, err := DecodeAnalysisResult(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("DecodeAnalysisResult() error = %v", err)
	}
	if result.Summary != "nested summary" {
		t.Fatalf("summary = %q", result.Summary)
	}
	if result.CompanyInfo.Name != "Stripe" || result.CompanyInfo.Founders != "Patrick Collison" {
		t.Fatalf("unexpected company info: %+v", result.CompanyInfo)
	}
	if result.CompanyInfo.Competitors != "Adyen, Square" {
		t.Fatalf("competitors = %q", result.CompanyInfo.Competitors)
	}
	if result.CompanyInfo.FundingAmount != "600000000" {
		t.Fatalf("funding amount = %q", result.CompanyInfo.FundingAmount)
	}
	if result.Justifications[domain.MetricOverall] != "Strong team" {
		t.Fatalf("unexpected justifications: %+v", result.Justifications)
	}
	if _, ok := result.Justifications[domain.MetricMarket]; ok {
		t.Fatalf("null justification should be dropped")
	}
}

func TestDecodeChatReply(t *testing.T) {
	reply, err := DecodeChatReply([]byte(`{"result":"Because of retention."}`))
	if err != nil || reply != "Because of retention." {
		t.Fatalf("reply = %q err = %v", reply, err)
	}
	if _, err := DecodeChatReply([]byte(`{"result":null}`)); !domain.IsKind(err, domain.ErrInvalidResponse) {
		t.Fatalf("expected invalid response, got %v", err)
	}
}

func TestChatContextPrefersRawResult(t *testing.T) {
	if got := string(ChatContext(nil)); got != `{}` {
		t.Fatalf("nil context = %s", got)
	}
	raw := json.RawMessage(`{"summary":"x"}`)
	if got := string(ChatContext(&domain.AnalysisResult{Raw: raw})); got != `{"summary":"x"}` {
		t.Fatalf("context = %s", got)
	}
}
