package insights

import (
	"strings"
	"testing"

	"github.com/GregMSThompson/insights-backend/internal/dataset"
	"github.com/GregMSThompson/insights-backend/internal/models"
)

const sampleCSV = `Date,Campaign,Clicks,Revenue,Notes
2024-01-01,Spring,10,"$1,000",a
2024-01-02,Summer,20,500,b
2024-01-03,Spring,30,250.5,c
2024-01-04,Summer,40,100,d
`

func classified(t *testing.T, text string) (*dataset.Table, dataset.Classification) {
	t.Helper()
	table, err := dataset.ParseCSV(text)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return table, dataset.Classify(table.Headers, table.Rows)
}

func TestKeyMetrics(t *testing.T) {
	table, c := classified(t, sampleCSV)

	got := KeyMetrics(table, c)
	want := map[string]float64{
		"total_rows":    4,
		"total_columns": 5,
		"total_clicks":  100,
		"total_revenue": 1850.5,
	}
	if len(got) != len(want) {
		t.Fatalf("metrics mismatch: %v", got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("%s: got %v want %v", k, got[k], v)
		}
	}
}

func TestKeyMetricsSkipsColumnsWithoutMetricKeyword(t *testing.T) {
	// "Score" is numeric by sampling but not a metric keyword.
	table, c := classified(t, "Score,Clicks\n1,2\n3,4\n")

	got := KeyMetrics(table, c)
	if _, ok := got["total_score"]; ok {
		t.Fatalf("unexpected total_score in %v", got)
	}
	if got["total_clicks"] != 6 {
		t.Fatalf("total_clicks mismatch: %v", got["total_clicks"])
	}
}

func TestMergeKeyMetricsGeneratedWins(t *testing.T) {
	got := MergeKeyMetrics(
		map[string]float64{"total_rows": 4, "total_clicks": 100},
		map[string]float64{"total_clicks": 99, "ctr": 0.05},
	)
	if got["total_clicks"] != 99 || got["total_rows"] != 4 || got["ctr"] != 0.05 {
		t.Fatalf("merge mismatch: %v", got)
	}
}

func TestSnake(t *testing.T) {
	cases := map[string]string{
		"Total Revenue ($)": "total_revenue",
		"CTR %":             "ctr",
		"clicks":            "clicks",
		"Cost-Per-Click":    "cost_per_click",
	}
	for in, want := range cases {
		if got := Snake(in); got != want {
			t.Fatalf("Snake(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDecodeValidReply(t *testing.T) {
	reply := "Here is the analysis:\n```json\n" + `{
  "summary": "Clicks grew steadily.",
  "insights": [
    {"title": "Growth", "description": "Clicks doubled.", "impact": "HIGH", "metric": "Clicks"},
    {"impact": "critical"},
    {"title": 5, "description": "", "impact": 3}
  ],
  "recommendations": [
    {"title": "Scale Spring", "description": "Raise budget.", "priority": "low", "effort": "huge"}
  ],
  "keyMetrics": [{"name": "ctr", "value": 0.05}, {"name": "bad", "value": "n/a"}, {"value": 1}]
}` + "\n```"

	g, err := Decode(reply)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if g.Summary != "Clicks grew steadily." {
		t.Fatalf("summary mismatch: %q", g.Summary)
	}
	if len(g.Insights) != 3 {
		t.Fatalf("expected every insight kept, got %d", len(g.Insights))
	}
	if g.Insights[0].Impact != models.LevelHigh {
		t.Fatalf("expected impact normalized to high, got %q", g.Insights[0].Impact)
	}
	for _, in := range g.Insights[1:] {
		if in.Impact != models.LevelMedium {
			t.Fatalf("expected unknown impact coerced to medium, got %q", in.Impact)
		}
		if in.Title != placeholderInsightTitle || in.Description != placeholderDescription {
			t.Fatalf("expected placeholders, got %+v", in)
		}
	}
	rec := g.Recommendations[0]
	if rec.Priority != models.LevelLow || rec.Effort != models.LevelMedium {
		t.Fatalf("recommendation levels mismatch: %+v", rec)
	}
	if len(g.KeyMetrics) != 1 || g.KeyMetrics["ctr"] != 0.05 {
		t.Fatalf("key metrics mismatch: %v", g.KeyMetrics)
	}
}

func TestDecodeKeyMetricsObject(t *testing.T) {
	g, err := Decode(`{"summary":"ok","keyMetrics":{"roas":3.2,"spend":"$1,200","label":"x"}}`)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if g.KeyMetrics["roas"] != 3.2 || g.KeyMetrics["spend"] != 1200 {
		t.Fatalf("key metrics mismatch: %v", g.KeyMetrics)
	}
	if _, ok := g.KeyMetrics["label"]; ok {
		t.Fatal("expected non-numeric metric dropped")
	}
}

func TestDecodeMalformed(t *testing.T) {
	replies := []string{
		"",
		"I could not analyze this data.",
		"{not json}",
		`{"summary": ""}`,
		`{"insights": []}`,
		`{"summary": "ok", "insights": "none"}`,
		"} backwards {",
	}
	for _, reply := range replies {
		if _, err := Decode(reply); err == nil {
			t.Fatalf("expected error for %q", reply)
		}
	}
}

func TestDecodeTakesFirstObject(t *testing.T) {
	replies := []string{
		`{"summary":"first"} Note: an alternative would be {"summary":"second"}`,
		`Using {braces} loosely: {"summary":"first"} then {"summary":"second"}`,
		"```json\n{\"summary\":\"first\",\"insights\":[{\"title\":\"a {b}\"}]}\n```\n}",
	}
	for _, reply := range replies {
		g, err := Decode(reply)
		if err != nil {
			t.Fatalf("Decode(%q) error: %v", reply, err)
		}
		if g.Summary != "first" {
			t.Fatalf("Decode(%q) summary = %q, want first", reply, g.Summary)
		}
	}
}

func TestGenerationResult(t *testing.T) {
	g := &Generation{Summary: "ok", KeyMetrics: map[string]float64{"total_rows": 10}}
	res := g.Result(map[string]float64{"total_rows": 4, "total_columns": 2})

	if res.Source != models.SourceGenerated {
		t.Fatalf("source mismatch: %s", res.Source)
	}
	if res.KeyMetrics["total_rows"] != 10 || res.KeyMetrics["total_columns"] != 2 {
		t.Fatalf("key metrics mismatch: %v", res.KeyMetrics)
	}
}

func TestFallback(t *testing.T) {
	table, c := classified(t, sampleCSV)

	res := Fallback(table, c, models.ReportCampaignPerformance)
	if res.Source != models.SourceFallback {
		t.Fatalf("source mismatch: %s", res.Source)
	}
	if !strings.Contains(res.Summary, "Analyzed 4 rows across 5 columns") {
		t.Fatalf("summary mismatch: %q", res.Summary)
	}
	if !strings.Contains(res.Summary, "2024-01-01 to 2024-01-04") {
		t.Fatalf("expected date span in summary: %q", res.Summary)
	}
	if res.KeyMetrics[MetricTotalRows] != 4 || res.KeyMetrics[MetricTotalColumns] != 5 {
		t.Fatalf("key metrics mismatch: %v", res.KeyMetrics)
	}
	if len(res.Recommendations) == 0 {
		t.Fatal("expected recommendations")
	}

	var titles []string
	for _, in := range res.Insights {
		titles = append(titles, in.Title)
	}
	joined := strings.Join(titles, "|")
	for _, want := range []string{"Clicks overview", "Clicks increased over the period", "Summer leads Clicks"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing insight %q in %v", want, titles)
		}
	}
}

func TestFallbackWithoutNumericColumns(t *testing.T) {
	table, c := classified(t, "Name,Note\na,x\nb,y\n")

	res := Fallback(table, c, models.ReportGeneral)
	if res.Summary == "" {
		t.Fatal("expected non-empty summary")
	}
	if len(res.Insights) != 1 || res.Insights[0].Title != "Dataset overview" {
		t.Fatalf("insights mismatch: %+v", res.Insights)
	}
	if res.KeyMetrics[MetricTotalRows] != 2 || res.KeyMetrics[MetricTotalColumns] != 2 {
		t.Fatalf("key metrics mismatch: %v", res.KeyMetrics)
	}
}

func TestDescribe(t *testing.T) {
	table, _ := classified(t, sampleCSV)

	s, ok := Describe(table, "Clicks")
	if !ok {
		t.Fatal("expected summary")
	}
	if s.Count != 4 || s.Sum != 100 || s.Mean != 25 || s.Median != 25 || s.Min != 10 || s.Max != 40 {
		t.Fatalf("summary mismatch: %+v", s)
	}
	if _, ok := Describe(table, "Notes"); ok {
		t.Fatal("expected no summary for text column")
	}
}

func TestBuildPrompt(t *testing.T) {
	table, c := classified(t, sampleCSV)

	prompt := BuildPrompt(PromptInput{
		ReportType:     models.ReportCampaignPerformance,
		AnalysisType:   models.AnalysisTrends,
		Context:        "Q1 launch",
		Table:          table,
		Classification: c,
		KeyMetrics:     KeyMetrics(table, c),
	})

	for _, want := range []string{
		"Report type: campaign performance",
		"Focus: Focus on how the metrics change over time",
		"Business context: Q1 launch",
		"- Clicks (numeric)",
		"- total_revenue: 1850.50",
		"Data sample (4 of 4 rows, CSV):",
		`2024-01-01,Spring,10,"$1,000",a`,
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildPromptSamplesRows(t *testing.T) {
	var b strings.Builder
	b.WriteString("Day,Sessions\n")
	for i := range 120 {
		b.WriteString("2024-01-01,")
		b.WriteString(strings.Repeat("1", 1+i%3))
		b.WriteString("\n")
	}
	table, c := classified(t, b.String())

	prompt := BuildPrompt(PromptInput{ReportType: models.ReportGeneral, AnalysisType: models.AnalysisSummary, Table: table, Classification: c})
	if !strings.Contains(prompt, "Data sample (50 of 120 rows, CSV):") {
		t.Fatalf("expected sampled rows in prompt")
	}
}

func TestResponseSchema(t *testing.T) {
	s := ResponseSchema()
	if s.Type != "object" || s.Properties["insights"].Items.Properties["impact"].Enum == nil {
		t.Fatalf("unexpected schema: %+v", s)
	}
}
