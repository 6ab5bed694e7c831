package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const defaultMaxContextRunes = 24000

const analysisPromptTemplate = `You are a competent Analyst that scouts for startup companies. Evaluate %[1]s and return a JSON with 'result' object containing scores, justifications, and summary.
The 'result' object must hold numeric scores from 0 to 10 named overall_score, market_score, product_score, traction_score, risk_score and team_score, a 'justifications' object keyed by the same names, a 'summary' string and a 'company_info' object with company_name, founder_name, funding_stage, funding_amount, growth_rate, product_stage and competitors.
The company under evaluation is "%[1]s". The context may mention other companies; disregard any company whose name differs and evaluate "%[1]s" regardless of other names in context.
Use this context: %[2]s`

// ComposeAnalysisPrompt builds the analysis backend prompt for a company query
// and the optional extracted document text.
func ComposeAnalysisPrompt(companyQuery, contextText string, maxContextRunes int) string {
	if maxContextRunes <= 0 {
		maxContextRunes = defaultMaxContextRunes
	}
	return fmt.Sprintf(
		analysisPromptTemplate,
		companyName(companyQuery),
		truncateRunes(strings.TrimSpace(contextText), maxContextRunes),
	)
}

// companyName keeps the quoted company sentence well formed by turning double
// quotes in the query into single quotes.
func companyName(query string) string {
	return strings.ReplaceAll(strings.TrimSpace(query), `"`, "'")
}

func truncateRunes(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit])
}
