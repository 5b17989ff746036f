package dataset

import (
	"time"

	"github.com/GregMSThompson/insights-backend/internal/errs"
)

// DateRange bounds rows by the first date column. Either end may be empty.
type DateRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// NumericRange bounds rows by the first numeric column. Either end may be nil.
type NumericRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// FilterSpec describes row filters. A nil or empty field places no constraint.
// Metrics does not filter rows; it narrows the numeric columns charts and key
// metrics are computed over.
type FilterSpec struct {
	DateRange    *DateRange    `json:"dateRange,omitempty"`
	Metrics      []string      `json:"metrics,omitempty"`
	Categories   []string      `json:"categories,omitempty"`
	NumericRange *NumericRange `json:"numericRange,omitempty"`
}

type rowPredicate func(row []string) bool

// Filter returns the rows of t that pass every filter in spec. Rows whose
// filtered value is missing or unparseable are kept. The input table is not
// modified. An empty result is reported as an error.
func Filter(t *Table, c Classification, spec FilterSpec) ([][]string, error) {
	preds, err := predicates(t, c, spec)
	if err != nil {
		return nil, err
	}

	out := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if keep(row, preds) {
			out = append(out, row)
		}
	}
	if len(out) == 0 {
		return nil, errs.NewValidationErrorCode(errs.CodeNoRowsAfterFilter,
			"no rows match the selected filters",
			"Widen the date range or remove some filters.")
	}
	return out, nil
}

func keep(row []string, preds []rowPredicate) bool {
	for _, p := range preds {
		if !p(row) {
			return false
		}
	}
	return true
}

func predicates(t *Table, c Classification, spec FilterSpec) ([]rowPredicate, error) {
	var preds []rowPredicate

	if r := spec.DateRange; r != nil && (r.Start != "" || r.End != "") {
		start, end, err := parseRange(r)
		if err != nil {
			return nil, err
		}
		if h, ok := c.FirstDate(); ok {
			idx := t.Index(h)
			preds = append(preds, func(row []string) bool {
				d, ok := ParseDate(row[idx])
				if !ok {
					return true
				}
				return (start.IsZero() || !d.Before(start)) && (end.IsZero() || !d.After(end))
			})
		}
	}

	if len(spec.Categories) > 0 {
		if h, ok := c.FirstCategorical(); ok {
			idx := t.Index(h)
			set := make(map[string]struct{}, len(spec.Categories))
			for _, v := range spec.Categories {
				set[v] = struct{}{}
			}
			preds = append(preds, func(row []string) bool {
				if row[idx] == "" {
					return true
				}
				_, ok := set[row[idx]]
				return ok
			})
		}
	}

	if r := spec.NumericRange; r != nil && (r.Min != nil || r.Max != nil) {
		if h, ok := c.FirstNumeric(); ok {
			idx := t.Index(h)
			preds = append(preds, func(row []string) bool {
				v, ok := ParseNumber(row[idx])
				if !ok {
					return true
				}
				return (r.Min == nil || v >= *r.Min) && (r.Max == nil || v <= *r.Max)
			})
		}
	}

	return preds, nil
}

func parseRange(r *DateRange) (start, end time.Time, err error) {
	if r.Start != "" {
		var ok bool
		if start, ok = ParseDate(r.Start); !ok {
			return start, end, invalidRange("start date " + r.Start + " is not a valid date")
		}
	}
	if r.End != "" {
		var ok bool
		if end, ok = ParseDate(r.End); !ok {
			return start, end, invalidRange("end date " + r.End + " is not a valid date")
		}
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return start, end, invalidRange("start date is after end date")
	}
	return start, end, nil
}

func invalidRange(msg string) error {
	return errs.NewValidationErrorCode(errs.CodeInvalidDateRange, msg,
		"Use ISO dates (YYYY-MM-DD) with the start on or before the end.")
}
