package dataset

import (
	"strings"
)

// ColumnRole is the heuristic role assigned to a column.
type ColumnRole string

const (
	RoleDate         ColumnRole = "date"
	RoleNumeric      ColumnRole = "numeric"
	RoleCategorical  ColumnRole = "categorical"
	RoleUnclassified ColumnRole = "unclassified"
)

const (
	numericSampleSize       = 10
	numericParsePercent     = 70
	categoricalSampleSize   = 20
	categoricalUniqueMaxPct = 80
)

var (
	dateKeywords = []string{"date", "time", "day", "month", "year", "created", "updated", "timestamp"}

	numericKeywords = []string{
		"count", "total", "sum", "amount", "value", "price", "cost", "revenue", "sales",
		"clicks", "impressions", "views", "sessions", "users", "conversion", "rate",
		"ctr", "cpc", "cpm", "roas", "roi", "bounce", "duration", "pages", "goal",
	}

	categoricalKeywords = []string{
		"category", "type", "source", "medium", "campaign", "channel", "device", "browser",
		"country", "region", "city", "gender", "age", "segment", "status", "group",
		"class", "tag", "label",
	}
)

// Classification holds the role of every header plus the headers of each role
// in header order.
type Classification struct {
	Roles        map[string]ColumnRole `json:"roles"`
	Dates        []string              `json:"dates"`
	Numerics     []string              `json:"numerics"`
	Categoricals []string              `json:"categoricals"`
}

// FirstDate returns the first date column, if any.
func (c Classification) FirstDate() (string, bool) { return first(c.Dates) }

// FirstNumeric returns the first numeric column, if any.
func (c Classification) FirstNumeric() (string, bool) { return first(c.Numerics) }

// FirstCategorical returns the first categorical column, if any.
func (c Classification) FirstCategorical() (string, bool) { return first(c.Categoricals) }

// WithMetrics narrows the numeric columns to the named metrics. Unknown names
// are ignored; an empty list leaves the classification unchanged.
func (c Classification) WithMetrics(metrics []string) Classification {
	if len(metrics) == 0 {
		return c
	}
	var numerics []string
	for _, h := range c.Numerics {
		for _, m := range metrics {
			if strings.EqualFold(h, m) {
				numerics = append(numerics, h)
				break
			}
		}
	}
	c.Numerics = numerics
	return c
}

func first(s []string) (string, bool) {
	if len(s) == 0 {
		return "", false
	}
	return s[0], true
}

// Classify assigns each column a role. Checks run date, numeric, categorical
// and the first match wins.
func Classify(headers []string, rows [][]string) Classification {
	c := Classification{Roles: make(map[string]ColumnRole, len(headers))}
	for i, h := range headers {
		role := classifyColumn(h, column(rows, i))
		c.Roles[h] = role
		switch role {
		case RoleDate:
			c.Dates = append(c.Dates, h)
		case RoleNumeric:
			c.Numerics = append(c.Numerics, h)
		case RoleCategorical:
			c.Categoricals = append(c.Categoricals, h)
		}
	}
	return c
}

func classifyColumn(header string, values []string) ColumnRole {
	name := strings.ToLower(header)
	switch {
	case containsAny(name, dateKeywords):
		return RoleDate
	case containsAny(name, numericKeywords) || mostlyNumeric(values):
		return RoleNumeric
	case containsAny(name, categoricalKeywords) || repeats(values):
		return RoleCategorical
	default:
		return RoleUnclassified
	}
}

// IsMetricColumn reports whether a header names a metric by keyword.
func IsMetricColumn(header string) bool {
	return containsAny(strings.ToLower(header), numericKeywords)
}

func containsAny(name string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(name, k) {
			return true
		}
	}
	return false
}

func mostlyNumeric(values []string) bool {
	sample := values[:min(numericSampleSize, len(values))]
	if len(sample) == 0 {
		return false
	}
	parsed := 0
	for _, v := range sample {
		if _, ok := ParseNumber(v); ok {
			parsed++
		}
	}
	return parsed*100 >= numericParsePercent*len(sample)
}

func repeats(values []string) bool {
	sample := values[:min(categoricalSampleSize, len(values))]
	if len(sample) == 0 {
		return false
	}
	distinct := make(map[string]struct{}, len(sample))
	for _, v := range sample {
		distinct[v] = struct{}{}
	}
	n := len(distinct)
	return n > 1 && n*100 < categoricalUniqueMaxPct*len(sample)
}

func column(rows [][]string, i int) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if i < len(r) {
			out = append(out, r[i])
		}
	}
	return out
}

// Column returns the values of header in row order, or nil if t has no such
// column.
func (t *Table) Column(header string) []string {
	i := t.Index(header)
	if i < 0 {
		return nil
	}
	return column(t.Rows, i)
}
