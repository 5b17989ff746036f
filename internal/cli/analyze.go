package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GregMSThompson/insights-backend/internal/charts"
	"github.com/GregMSThompson/insights-backend/internal/dataset"
	"github.com/GregMSThompson/insights-backend/internal/insights"
	"github.com/GregMSThompson/insights-backend/internal/models"
)

var (
	analyzeReportType string
	analyzeMetrics    []string
	analyzeCategories []string
	analyzeFrom       string
	analyzeTo         string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a local CSV or XLSX export",
	Long: `Analyze a local CSV or XLSX export with the deterministic engine and
print the summary, insights, key metrics and charts as JSON.

Examples:
  insightctl analyze campaigns.csv
  insightctl analyze traffic.xlsx --report-type traffic_analysis --metrics sessions,users`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeReportType, "report-type", "r", string(models.ReportGeneral), "report type")
	analyzeCmd.Flags().StringSliceVarP(&analyzeMetrics, "metrics", "m", nil, "keep only these metric columns")
	analyzeCmd.Flags().StringSliceVar(&analyzeCategories, "categories", nil, "keep rows whose first categorical value matches")
	analyzeCmd.Flags().StringVar(&analyzeFrom, "from", "", "first date to keep (YYYY-MM-DD)")
	analyzeCmd.Flags().StringVar(&analyzeTo, "to", "", "last date to keep (YYYY-MM-DD)")
}

type analyzeOutput struct {
	File            string                  `json:"file"`
	Rows            int                     `json:"rows"`
	Columns         int                     `json:"columns"`
	Classification  dataset.Classification  `json:"classification"`
	Summary         string                  `json:"summary"`
	Insights        []models.Insight        `json:"insights"`
	Recommendations []models.Recommendation `json:"recommendations"`
	KeyMetrics      map[string]float64      `json:"keyMetrics"`
	Charts          []charts.Descriptor     `json:"charts"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]
	reportType := models.ReportType(analyzeReportType)
	if !reportType.Valid() {
		return fmt.Errorf("unknown report type %q", analyzeReportType)
	}

	table, err := readTable(path)
	if err != nil {
		return err
	}

	spec := dataset.FilterSpec{Metrics: analyzeMetrics, Categories: analyzeCategories}
	if analyzeFrom != "" || analyzeTo != "" {
		spec.DateRange = &dataset.DateRange{Start: analyzeFrom, End: analyzeTo}
	}

	c := dataset.Classify(table.Headers, table.Rows)
	rows, err := dataset.Filter(table, c, spec)
	if err != nil {
		return err
	}
	filtered := table.WithRows(rows)
	focus := c.WithMetrics(spec.Metrics)

	result := insights.Fallback(filtered, focus, reportType)
	return writeJSON(cmd.OutOrStdout(), analyzeOutput{
		File:            filepath.Base(path),
		Rows:            len(filtered.Rows),
		Columns:         len(filtered.Headers),
		Classification:  focus,
		Summary:         result.Summary,
		Insights:        result.Insights,
		Recommendations: result.Recommendations,
		KeyMetrics:      result.KeyMetrics,
		Charts:          charts.Build(filtered.Headers, filtered.Rows, focus, string(reportType)),
	})
}

func readTable(path string) (*dataset.Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return dataset.ParseCSV(string(raw))
	case ".xlsx", ".xls":
		return dataset.ParseExcel(bytes.NewReader(raw))
	default:
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}
}
