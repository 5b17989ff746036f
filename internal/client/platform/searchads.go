package platformclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/GregMSThompson/insights-backend/internal/dto"
)

const (
	searchAdsService = "search_ads"
	searchAdsBaseURL = "https://googleads.googleapis.com/v17"
)

var (
	searchAdsMetrics    = []string{"impressions", "clicks", "cost_micros", "conversions"}
	searchAdsDimensions = []string{"segments.date", "campaign.name"}
)

// SearchAdsAdapter streams GAQL report rows from a Google Ads customer.
type SearchAdsAdapter struct {
	baseURL        string
	developerToken string
	req            requester
}

func NewSearchAdsAdapter(baseURL, developerToken string, limiter *rate.Limiter, client *http.Client) *SearchAdsAdapter {
	if baseURL == "" {
		baseURL = searchAdsBaseURL
	}
	return &SearchAdsAdapter{
		baseURL:        strings.TrimRight(baseURL, "/"),
		developerToken: developerToken,
		req:            newRequester(searchAdsService, limiter, client),
	}
}

type searchStreamBatch struct {
	Results   []map[string]any `json:"results"`
	FieldMask string           `json:"fieldMask"`
}

func (a *SearchAdsAdapter) Fetch(ctx context.Context, in dto.ProviderFetchRequest) (dto.ProviderFetchResult, error) {
	fields := searchAdsFields(in.Dimensions, in.Metrics)
	query := BuildGAQL(fields, in.StartDate, in.EndDate)

	customer := strings.ReplaceAll(in.AccountRef, "-", "")
	url := a.baseURL + "/customers/" + customer + "/googleAds:searchStream"
	headers := map[string]string{"developer-token": a.developerToken}

	var batches []searchStreamBatch
	if err := a.req.do(ctx, in.AccessToken, http.MethodPost, url, headers, map[string]string{"query": query}, &batches); err != nil {
		return dto.ProviderFetchResult{}, err
	}

	var result dto.ProviderFetchResult
	for _, f := range fields {
		result.Headers = append(result.Headers, searchAdsHeader(f))
	}
	for _, b := range batches {
		for _, r := range b.Results {
			row := make([]string, len(fields))
			for i, f := range fields {
				row[i] = searchAdsValue(r, f)
			}
			result.Rows = append(result.Rows, row)
		}
	}
	result.TotalRows = len(result.Rows)
	return result, nil
}

// BuildGAQL renders a campaign report query over an inclusive date range.
func BuildGAQL(fields []string, start, end string) string {
	return fmt.Sprintf("SELECT %s FROM campaign WHERE segments.date BETWEEN '%s' AND '%s' ORDER BY segments.date",
		strings.Join(fields, ", "), start, end)
}

func searchAdsFields(dimensions, metrics []string) []string {
	var fields []string
	for _, d := range orDefault(dimensions, searchAdsDimensions) {
		if d == "date" {
			d = "segments.date"
		}
		fields = append(fields, d)
	}
	for _, m := range orDefault(metrics, searchAdsMetrics) {
		if !strings.Contains(m, ".") {
			m = "metrics." + m
		}
		fields = append(fields, m)
	}
	return fields
}

// searchAdsHeader names a column after the last path segment; cost_micros
// becomes cost since values are converted to currency units.
func searchAdsHeader(field string) string {
	name := field[strings.LastIndex(field, ".")+1:]
	if field == "segments.date" {
		return "date"
	}
	if name == "cost_micros" {
		return "cost"
	}
	return name
}

// searchAdsValue walks the REST result, whose keys are lowerCamelCase.
func searchAdsValue(result map[string]any, field string) string {
	var cur any = result
	for _, part := range strings.Split(field, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = m[lowerCamel(part)]
	}

	var s string
	switch v := cur.(type) {
	case nil:
		return ""
	case string:
		s = v
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(v)
	default:
		s = fmt.Sprint(v)
	}

	if strings.HasSuffix(field, "cost_micros") {
		if micros, err := strconv.ParseFloat(s, 64); err == nil {
			return strconv.FormatFloat(micros/1e6, 'f', 2, 64)
		}
	}
	return s
}

func lowerCamel(s string) string {
	parts := strings.Split(s, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}
