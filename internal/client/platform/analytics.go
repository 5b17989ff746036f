package platformclient

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/GregMSThompson/insights-backend/internal/dto"
)

const (
	analyticsService = "analytics"
	analyticsBaseURL = "https://analyticsdata.googleapis.com/v1beta"
	analyticsLimit   = 10000
)

var (
	analyticsMetrics    = []string{"sessions", "totalUsers", "screenPageViews", "conversions", "bounceRate"}
	analyticsDimensions = []string{"date", "sessionDefaultChannelGroup"}
)

// AnalyticsAdapter runs GA4 Data API reports against a property.
type AnalyticsAdapter struct {
	baseURL string
	req     requester
}

func NewAnalyticsAdapter(baseURL string, limiter *rate.Limiter, client *http.Client) *AnalyticsAdapter {
	if baseURL == "" {
		baseURL = analyticsBaseURL
	}
	return &AnalyticsAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		req:     newRequester(analyticsService, limiter, client),
	}
}

type analyticsName struct {
	Name string `json:"name"`
}

type analyticsDateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type analyticsReportRequest struct {
	DateRanges []analyticsDateRange `json:"dateRanges"`
	Dimensions []analyticsName      `json:"dimensions"`
	Metrics    []analyticsName      `json:"metrics"`
	Limit      int                  `json:"limit"`
}

type analyticsValue struct {
	Value string `json:"value"`
}

type analyticsReportResponse struct {
	DimensionHeaders []analyticsName `json:"dimensionHeaders"`
	MetricHeaders    []analyticsName `json:"metricHeaders"`
	Rows             []struct {
		DimensionValues []analyticsValue `json:"dimensionValues"`
		MetricValues    []analyticsValue `json:"metricValues"`
	} `json:"rows"`
	RowCount int `json:"rowCount"`
}

func (a *AnalyticsAdapter) Fetch(ctx context.Context, in dto.ProviderFetchRequest) (dto.ProviderFetchResult, error) {
	body := analyticsReportRequest{
		DateRanges: []analyticsDateRange{{StartDate: in.StartDate, EndDate: in.EndDate}},
		Dimensions: names(orDefault(in.Dimensions, analyticsDimensions)),
		Metrics:    names(orDefault(in.Metrics, analyticsMetrics)),
		Limit:      analyticsLimit,
	}
	property := strings.TrimPrefix(in.AccountRef, "properties/")
	url := a.baseURL + "/properties/" + property + ":runReport"

	var resp analyticsReportResponse
	if err := a.req.do(ctx, in.AccessToken, http.MethodPost, url, nil, body, &resp); err != nil {
		return dto.ProviderFetchResult{}, err
	}

	var result dto.ProviderFetchResult
	for _, h := range resp.DimensionHeaders {
		result.Headers = append(result.Headers, h.Name)
	}
	for _, h := range resp.MetricHeaders {
		result.Headers = append(result.Headers, h.Name)
	}

	for _, r := range resp.Rows {
		row := make([]string, 0, len(result.Headers))
		for i, v := range r.DimensionValues {
			if i < len(resp.DimensionHeaders) && resp.DimensionHeaders[i].Name == "date" {
				row = append(row, isoDate(v.Value))
				continue
			}
			row = append(row, v.Value)
		}
		for _, v := range r.MetricValues {
			row = append(row, v.Value)
		}
		if len(row) == len(result.Headers) {
			result.Rows = append(result.Rows, row)
		}
	}

	result.TotalRows = resp.RowCount
	if result.TotalRows == 0 {
		result.TotalRows = len(result.Rows)
	}
	return result, nil
}

func names(values []string) []analyticsName {
	out := make([]analyticsName, len(values))
	for i, v := range values {
		out[i] = analyticsName{Name: v}
	}
	return out
}
