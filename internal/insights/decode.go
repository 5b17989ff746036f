package insights

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/GregMSThompson/insights-backend/internal/dataset"
	"github.com/GregMSThompson/insights-backend/internal/models"
)

const (
	placeholderInsightTitle        = "Untitled insight"
	placeholderRecommendationTitle = "Untitled recommendation"
	placeholderDescription         = "No description provided."
)

var errNoJSON = errors.New("reply contains no JSON object")

// Generation is a validated model reply.
type Generation struct {
	Summary         string
	Insights        []models.Insight
	Recommendations []models.Recommendation
	KeyMetrics      map[string]float64
}

type generationPayload struct {
	Summary         string           `json:"summary"`
	Insights        []map[string]any `json:"insights"`
	Recommendations []map[string]any `json:"recommendations"`
	KeyMetrics      json.RawMessage  `json:"keyMetrics"`
}

// Decode extracts the JSON object from a free-text reply and validates it.
// A reply without a usable object, or without a summary, is an error and the
// caller should fall back to the deterministic analysis. Individual insights
// and recommendations are never rejected; missing or unknown fields are
// defaulted.
func Decode(text string) (*Generation, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return nil, err
	}

	var p generationPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	if strings.TrimSpace(p.Summary) == "" {
		return nil, errors.New("reply has no summary")
	}

	g := &Generation{
		Summary:         strings.TrimSpace(p.Summary),
		Insights:        make([]models.Insight, 0, len(p.Insights)),
		Recommendations: make([]models.Recommendation, 0, len(p.Recommendations)),
		KeyMetrics:      decodeKeyMetrics(p.KeyMetrics),
	}
	for _, item := range p.Insights {
		g.Insights = append(g.Insights, normalizeInsight(item))
	}
	for _, item := range p.Recommendations {
		g.Recommendations = append(g.Recommendations, normalizeRecommendation(item))
	}
	return g, nil
}

// extractJSON returns the first complete JSON object in text. Braces in the
// surrounding prose that do not open a valid object are skipped, and anything
// after the object is ignored.
func extractJSON(text string) (string, error) {
	for offset := 0; offset < len(text); {
		i := strings.IndexByte(text[offset:], '{')
		if i < 0 {
			break
		}
		start := offset + i
		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[start:])).Decode(&raw); err == nil {
			return string(raw), nil
		}
		offset = start + 1
	}
	return "", errNoJSON
}

// decodeKeyMetrics accepts either {"name": number} or
// [{"name": "...", "value": number}] and ignores anything non-numeric.
func decodeKeyMetrics(raw json.RawMessage) map[string]float64 {
	out := map[string]float64{}
	if len(raw) == 0 {
		return out
	}

	var asObject map[string]any
	if err := json.Unmarshal(raw, &asObject); err == nil {
		for k, v := range asObject {
			if f, ok := toFloat(v); ok && k != "" {
				out[k] = f
			}
		}
		return out
	}

	var asList []map[string]any
	if err := json.Unmarshal(raw, &asList); err == nil {
		for _, item := range asList {
			name := stringField(item, "name")
			if f, ok := toFloat(item["value"]); ok && name != "" {
				out[name] = f
			}
		}
	}
	return out
}

func normalizeInsight(item map[string]any) models.Insight {
	return models.Insight{
		Title:       orDefault(stringField(item, "title"), placeholderInsightTitle),
		Description: orDefault(stringField(item, "description"), placeholderDescription),
		Impact:      normalizeLevel(item["impact"]),
		Metric:      stringField(item, "metric"),
	}
}

func normalizeRecommendation(item map[string]any) models.Recommendation {
	return models.Recommendation{
		Title:          orDefault(stringField(item, "title"), placeholderRecommendationTitle),
		Description:    orDefault(stringField(item, "description"), placeholderDescription),
		Priority:       normalizeLevel(item["priority"]),
		Effort:         normalizeLevel(item["effort"]),
		ExpectedImpact: stringField(item, "expectedImpact"),
	}
}

func normalizeLevel(v any) models.Level {
	s, _ := v.(string)
	switch l := models.Level(strings.ToLower(strings.TrimSpace(s))); l {
	case models.LevelLow, models.LevelMedium, models.LevelHigh:
		return l
	}
	return models.LevelMedium
}

func stringField(item map[string]any, key string) string {
	s, _ := item[key].(string)
	return strings.TrimSpace(s)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case string:
		return dataset.ParseNumber(n)
	}
	return 0, false
}
