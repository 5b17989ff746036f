package insights

import (
	"fmt"
	"slices"
	"strings"

	"github.com/GregMSThompson/insights-backend/internal/dataset"
	"github.com/GregMSThompson/insights-backend/internal/dto"
	"github.com/GregMSThompson/insights-backend/internal/models"
)

const promptSampleRows = 50

type PromptInput struct {
	ReportType     models.ReportType
	AnalysisType   models.AnalysisType
	Context        string
	Table          *dataset.Table
	Classification dataset.Classification
	KeyMetrics     map[string]float64
}

var analysisFocus = map[models.AnalysisType]string{
	models.AnalysisSummary:         "Give a concise executive summary with the 3 most important insights and at most 2 recommendations.",
	models.AnalysisTrends:          "Focus on how the metrics change over time: growth, decline, seasonality and anomalies.",
	models.AnalysisRecommendations: "Focus on concrete, prioritized actions the marketing team can take next.",
	models.AnalysisComprehensive:   "Cover performance, trends, segment differences and prioritized recommendations in depth.",
}

// SystemPrompt is the fixed instruction sent with every analysis.
func SystemPrompt() string {
	return strings.Join([]string{
		"You are a senior marketing analyst.",
		"You receive a sample of a marketing dataset and return findings as JSON only, with no surrounding prose.",
		"The JSON object has these fields:",
		`  "summary": string, two to four sentences.`,
		`  "insights": array of {"title": string, "description": string, "impact": "low"|"medium"|"high", "metric": string}.`,
		`  "recommendations": array of {"title": string, "description": string, "priority": "low"|"medium"|"high", "effort": "low"|"medium"|"high", "expectedImpact": string}.`,
		`  "keyMetrics": array of {"name": snake_case string, "value": number}.`,
		"Only state numbers you can derive from the data provided.",
	}, "\n")
}

// BuildPrompt renders the user message for an analysis request.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Report type: %s\n", ReportLabel(in.ReportType))
	fmt.Fprintf(&b, "Analysis type: %s\n", in.AnalysisType)
	if focus, ok := analysisFocus[in.AnalysisType]; ok {
		fmt.Fprintf(&b, "Focus: %s\n", focus)
	}
	if ctx := strings.TrimSpace(in.Context); ctx != "" {
		fmt.Fprintf(&b, "Business context: %s\n", ctx)
	}

	c := in.Classification
	b.WriteString("\nColumns:\n")
	for _, h := range in.Table.Headers {
		fmt.Fprintf(&b, "- %s (%s)\n", h, c.Roles[h])
	}

	if len(in.KeyMetrics) > 0 {
		b.WriteString("\nComputed totals:\n")
		keys := make([]string, 0, len(in.KeyMetrics))
		for k := range in.KeyMetrics {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, formatNumber(in.KeyMetrics[k]))
		}
	}

	sample := in.Table.WithRows(in.Table.Rows[:min(promptSampleRows, len(in.Table.Rows))])
	fmt.Fprintf(&b, "\nData sample (%d of %d rows, CSV):\n", len(sample.Rows), len(in.Table.Rows))
	b.WriteString(dataset.FormatCSV(sample))

	return b.String()
}

// ResponseSchema describes the reply format for models that support
// constrained JSON output.
func ResponseSchema() *dto.VertexSchema {
	level := func() *dto.VertexSchema {
		return &dto.VertexSchema{Type: "string", Enum: []string{"low", "medium", "high"}}
	}
	str := func() *dto.VertexSchema { return &dto.VertexSchema{Type: "string"} }

	return &dto.VertexSchema{
		Type:     "object",
		Required: []string{"summary", "insights", "recommendations"},
		Properties: map[string]*dto.VertexSchema{
			"summary": str(),
			"insights": {
				Type: "array",
				Items: &dto.VertexSchema{
					Type:     "object",
					Required: []string{"title", "description", "impact"},
					Properties: map[string]*dto.VertexSchema{
						"title":       str(),
						"description": str(),
						"impact":      level(),
						"metric":      str(),
					},
				},
			},
			"recommendations": {
				Type: "array",
				Items: &dto.VertexSchema{
					Type:     "object",
					Required: []string{"title", "description", "priority", "effort"},
					Properties: map[string]*dto.VertexSchema{
						"title":          str(),
						"description":    str(),
						"priority":       level(),
						"effort":         level(),
						"expectedImpact": str(),
					},
				},
			},
			"keyMetrics": {
				Type: "array",
				Items: &dto.VertexSchema{
					Type:     "object",
					Required: []string{"name", "value"},
					Properties: map[string]*dto.VertexSchema{
						"name":  str(),
						"value": {Type: "number"},
					},
				},
			},
		},
	}
}
