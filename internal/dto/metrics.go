package dto

// UnifiedMetricsRequest bounds the aggregation window. Dates are YYYY-MM-DD;
// empty dates default to the last 30 days.
type UnifiedMetricsRequest struct {
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}
