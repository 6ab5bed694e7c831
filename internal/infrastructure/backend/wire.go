package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kirillkom/startup-scout/internal/core/domain"
)

// AnalysisRequest is the analysis service payload. Content mirrors Message for
// backends that still read the legacy field.
type AnalysisRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message string          `json:"message"`
	Context json.RawMessage `json:"context"`
}

type ExtractRequest struct {
	Base64 string `json:"base64"`
}

type analysisEnvelope struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

type chatEnvelope struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

type extractEnvelope struct {
	Text *string `json:"text"`
}

// DecodeAnalysisEnvelope validates a `{"result": {...}}` response body.
func DecodeAnalysisEnvelope(body []byte) (*domain.AnalysisResult, error) {
	var env analysisEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, invalidResponse("decode analysis envelope", err)
	}
	if len(bytes.TrimSpace(env.Result)) == 0 && env.Error != "" {
		return nil, invalidResponse("analysis envelope", fmt.Errorf("backend error: %s", env.Error))
	}
	return DecodeAnalysisResult(env.Result)
}

// DecodeAnalysisResult turns the backend result object into a validated
// AnalysisResult. Scores may be nested under "scores" or sit at the top level;
// standard metrics the backend omitted score 0 and are listed in Missing.
func DecodeAnalysisResult(raw json.RawMessage) (*domain.AnalysisResult, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, invalidResponse("decode analysis result", fmt.Errorf("result is missing"))
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, invalidResponse("decode analysis result", err)
		}
		raw = json.RawMessage(ExtractJSONObject(text))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, invalidResponse("decode analysis result", fmt.Errorf("result is not an object: %w", err))
	}
	if inner, ok := fields["result"]; ok && len(fields) == 1 {
		return DecodeAnalysisResult(inner)
	}

	out := &domain.AnalysisResult{
		Scores:         make(map[string]float64),
		Justifications: make(map[string]string),
		Raw:            append(json.RawMessage(nil), raw...),
	}

	var nestedSummary string
	if nested, ok := objectField(fields, "scores"); ok {
		collectScores(nested, out.Scores)
		nestedSummary = textValue(nested["summary"])
	}
	collectScores(fields, out.Scores)

	out.Summary = textValue(fields["summary"])
	if out.Summary == "" {
		out.Summary = nestedSummary
	}

	if justifications, ok := objectField(fields, "justifications"); ok {
		for key, value := range justifications {
			if text := textValue(value); text != "" {
				out.Justifications[key] = text
			}
		}
	}

	info, ok := objectField(fields, "company_info")
	if !ok {
		info, _ = objectField(fields, "companyInfo")
	}
	out.CompanyInfo = domain.CompanyInfo{
		Name:          firstText(info, "company_name", "name"),
		Founders:      firstText(info, "founder_name", "founders"),
		FundingStage:  firstText(info, "funding_stage"),
		FundingAmount: firstText(info, "funding_amount"),
		GrowthRate:    firstText(info, "growth_rate"),
		ProductStage:  firstText(info, "product_stage"),
		Competitors:   firstText(info, "competitors"),
	}
	out.LogoURL = firstText(fields, "logo_url", "logoUrl")

	for _, metric := range domain.StandardMetrics {
		if _, ok := out.Scores[metric.Key]; !ok {
			out.Missing = append(out.Missing, metric.Key)
		}
	}
	if len(out.Missing) == len(domain.StandardMetrics) && out.Summary == "" {
		return nil, invalidResponse("decode analysis result", fmt.Errorf("result carries neither scores nor summary"))
	}
	return out, nil
}

// ChatContext is the analysis payload forwarded with follow-up questions.
func ChatContext(result *domain.AnalysisResult) json.RawMessage {
	if result == nil {
		return json.RawMessage(`{}`)
	}
	if len(result.Raw) > 0 {
		return result.Raw
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return raw
}

// DecodeChatReply validates a `{"result": "..."}` response body.
func DecodeChatReply(body []byte) (string, error) {
	var env chatEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", invalidResponse("decode chat envelope", err)
	}
	result := bytes.TrimSpace(env.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		if env.Error != "" {
			return "", invalidResponse("chat envelope", fmt.Errorf("backend error: %s", env.Error))
		}
		return "", invalidResponse("chat envelope", fmt.Errorf("result is missing"))
	}
	if text := textValue(result); text != "" {
		return text, nil
	}
	return string(result), nil
}

func DecodeExtractResponse(body []byte) (string, error) {
	var env extractEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", invalidResponse("decode extract response", err)
	}
	if env.Text == nil {
		return "", invalidResponse("extract response", fmt.Errorf("text is missing"))
	}
	return *env.Text, nil
}

// ExtractJSONObject returns the outermost {...} span of model output.
func ExtractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

func collectScores(fields map[string]json.RawMessage, scores map[string]float64) {
	for key, value := range fields {
		if !strings.HasSuffix(key, "_score") {
			continue
		}
		if _, seen := scores[key]; seen {
			continue
		}
		score, ok := scoreValue(value)
		if !ok {
			continue
		}
		scores[key] = score
	}
}

func scoreValue(raw json.RawMessage) (float64, bool) {
	var number float64
	if err := json.Unmarshal(raw, &number); err != nil {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return 0, false
		}
		number = parsed
	}
	if math.IsNaN(number) || math.IsInf(number, 0) {
		return 0, false
	}
	return math.Min(math.Max(number, domain.MinScore), domain.MaxScore), true
}

func objectField(fields map[string]json.RawMessage, key string) (map[string]json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok {
		return nil, false
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return nil, false
	}
	return out, true
}

func firstText(fields map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		if text := textValue(fields[key]); text != "" {
			return text
		}
	}
	return ""
}

func textValue(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err == nil {
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	var number json.Number
	if err := json.Unmarshal(raw, &number); err == nil {
		return number.String()
	}
	return ""
}

func invalidResponse(operation string, err error) error {
	return domain.WrapError(domain.ErrInvalidResponse, operation, err)
}
