package ga4

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
)

// ReportRequest is a report query. Its JSON form is the GA4 Data API wire
// format.
type ReportRequest struct {
	DateRanges      []DateRange       `json:"dateRanges,omitempty"`
	Dimensions      []Dimension       `json:"dimensions,omitempty"`
	Metrics         []Metric          `json:"metrics"`
	DimensionFilter *FilterExpression `json:"dimensionFilter,omitempty"`
	OrderBys        []OrderBy         `json:"orderBys,omitempty"`
	Limit           int64             `json:"limit,omitempty"`
}

// DateRange is a contiguous set of days. Dates are YYYY-MM-DD or relative
// values such as "today", "yesterday" or "NdaysAgo".
type DateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Dimension is a report dimension.
type Dimension struct {
	Name string `json:"name"`
}

// Metric is a report metric.
type Metric struct {
	Name string `json:"name"`
}

// FilterExpression combines dimension filters.
type FilterExpression struct {
	AndGroup      *FilterExpressionList `json:"andGroup,omitempty"`
	OrGroup       *FilterExpressionList `json:"orGroup,omitempty"`
	NotExpression *FilterExpression     `json:"notExpression,omitempty"`
	Filter        *Filter               `json:"filter,omitempty"`
}

// FilterExpressionList is a list of filter expressions.
type FilterExpressionList struct {
	Expressions []FilterExpression `json:"expressions"`
}

// Filter is a predicate on a single field.
type Filter struct {
	FieldName    string        `json:"fieldName"`
	StringFilter *StringFilter `json:"stringFilter,omitempty"`
	InListFilter *InListFilter `json:"inListFilter,omitempty"`
}

// String filter match types.
const (
	MatchExact      = "EXACT"
	MatchBeginsWith = "BEGINS_WITH"
	MatchEndsWith   = "ENDS_WITH"
	MatchContains   = "CONTAINS"
	MatchFullRegexp = "FULL_REGEXP"
)

// StringFilter matches a field against a string.
type StringFilter struct {
	MatchType     string `json:"matchType,omitempty"`
	Value         string `json:"value"`
	CaseSensitive bool   `json:"caseSensitive,omitempty"`
}

// InListFilter matches a field against a list of values.
type InListFilter struct {
	Values        []string `json:"values"`
	CaseSensitive bool     `json:"caseSensitive,omitempty"`
}

// OrderBy sorts the rows by a metric or a dimension.
type OrderBy struct {
	Metric    *MetricOrderBy    `json:"metric,omitempty"`
	Dimension *DimensionOrderBy `json:"dimension,omitempty"`
	Desc      bool              `json:"desc,omitempty"`
}

// MetricOrderBy sorts by metric values.
type MetricOrderBy struct {
	MetricName string `json:"metricName"`
}

// DimensionOrderBy sorts by dimension values.
type DimensionOrderBy struct {
	DimensionName string `json:"dimensionName"`
	OrderType     string `json:"orderType,omitempty"`
}

// MetricHeader describes a metric column of the result.
type MetricHeader struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Row holds the dimension and metric values of a result row, in the order of
// the headers.
type Row struct {
	DimensionValues []string `json:"dimensionValues"`
	MetricValues    []string `json:"metricValues"`
}

// ReportResult is the parsed response of a report call.
type ReportResult struct {
	RowCount         int64          `json:"rowCount"`
	DimensionHeaders []string       `json:"dimensionHeaders"`
	MetricHeaders    []MetricHeader `json:"metricHeaders"`
	Rows             []Row          `json:"rows"`

	// Raw is the response body as returned by the API.
	Raw json.RawMessage `json:"-"`
}

// Property is a GA4 property the credential has access to.
type Property struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Dimension returns the i-th dimension value, or def if there is none.
func (r Row) Dimension(i int, def string) string {
	if i < 0 || i >= len(r.DimensionValues) {
		return def
	}
	return r.DimensionValues[i]
}

// Metric returns the i-th metric value, or def if there is none.
func (r Row) Metric(i int, def string) string {
	if i < 0 || i >= len(r.MetricValues) {
		return def
	}
	return r.MetricValues[i]
}

// MetricFloat parses the i-th metric value as a float.
func (r Row) MetricFloat(i int) (float64, error) {
	v, err := strconv.ParseFloat(r.Metric(i, "0"), 64)
	return v, errors.Wrapf(err, "metric %d is not a number", i)
}

// MetricInt parses the i-th metric value as an integer.
func (r Row) MetricInt(i int) (int64, error) {
	v, err := strconv.ParseInt(r.Metric(i, "0"), 10, 64)
	return v, errors.Wrapf(err, "metric %d is not an integer", i)
}

// FirstMetric returns the first metric value of the first row, or def if the
// result has no rows.
func (r *ReportResult) FirstMetric(def string) string {
	if r == nil || len(r.Rows) == 0 {
		return def
	}
	return r.Rows[0].Metric(0, def)
}

func (r ReportRequest) toRunReportRequest() *analyticsdata.RunReportRequest {
	req := &analyticsdata.RunReportRequest{
		Dimensions:      toDimensions(r.Dimensions),
		Metrics:         toMetrics(r.Metrics),
		DimensionFilter: r.DimensionFilter.toAPI(),
		OrderBys:        toOrderBys(r.OrderBys),
		Limit:           r.Limit,
	}
	for _, dr := range r.DateRanges {
		req.DateRanges = append(req.DateRanges, &analyticsdata.DateRange{
			StartDate: dr.StartDate,
			EndDate:   dr.EndDate,
		})
	}
	return req
}

func (r ReportRequest) toRunRealtimeReportRequest() *analyticsdata.RunRealtimeReportRequest {
	return &analyticsdata.RunRealtimeReportRequest{
		Dimensions:      toDimensions(r.Dimensions),
		Metrics:         toMetrics(r.Metrics),
		DimensionFilter: r.DimensionFilter.toAPI(),
		OrderBys:        toOrderBys(r.OrderBys),
		Limit:           r.Limit,
	}
}

func toDimensions(dims []Dimension) []*analyticsdata.Dimension {
	var out []*analyticsdata.Dimension
	for _, d := range dims {
		out = append(out, &analyticsdata.Dimension{Name: d.Name})
	}
	return out
}

func toMetrics(metrics []Metric) []*analyticsdata.Metric {
	var out []*analyticsdata.Metric
	for _, m := range metrics {
		out = append(out, &analyticsdata.Metric{Name: m.Name})
	}
	return out
}

func toOrderBys(orderBys []OrderBy) []*analyticsdata.OrderBy {
	var out []*analyticsdata.OrderBy
	for _, o := range orderBys {
		ob := &analyticsdata.OrderBy{Desc: o.Desc}
		if o.Metric != nil {
			ob.Metric = &analyticsdata.MetricOrderBy{MetricName: o.Metric.MetricName}
		}
		if o.Dimension != nil {
			ob.Dimension = &analyticsdata.DimensionOrderBy{
				DimensionName: o.Dimension.DimensionName,
				OrderType:     o.Dimension.OrderType,
			}
		}
		out = append(out, ob)
	}
	return out
}

func (e *FilterExpression) toAPI() *analyticsdata.FilterExpression {
	if e == nil {
		return nil
	}
	out := &analyticsdata.FilterExpression{
		AndGroup:      e.AndGroup.toAPI(),
		OrGroup:       e.OrGroup.toAPI(),
		NotExpression: e.NotExpression.toAPI(),
	}
	if f := e.Filter; f != nil {
		out.Filter = &analyticsdata.Filter{FieldName: f.FieldName}
		if f.StringFilter != nil {
			out.Filter.StringFilter = &analyticsdata.StringFilter{
				MatchType:     f.StringFilter.MatchType,
				Value:         f.StringFilter.Value,
				CaseSensitive: f.StringFilter.CaseSensitive,
			}
		}
		if f.InListFilter != nil {
			out.Filter.InListFilter = &analyticsdata.InListFilter{
				Values:        f.InListFilter.Values,
				CaseSensitive: f.InListFilter.CaseSensitive,
			}
		}
	}
	return out
}

func (l *FilterExpressionList) toAPI() *analyticsdata.FilterExpressionList {
	if l == nil {
		return nil
	}
	out := &analyticsdata.FilterExpressionList{}
	for i := range l.Expressions {
		out.Expressions = append(out.Expressions, l.Expressions[i].toAPI())
	}
	return out
}

// newReportResult builds a result from the API response fields.
func newReportResult(rowCount int64, dims []*analyticsdata.DimensionHeader, metrics []*analyticsdata.MetricHeader, rows []*analyticsdata.Row) *ReportResult {
	result := &ReportResult{RowCount: rowCount}
	for _, h := range dims {
		result.DimensionHeaders = append(result.DimensionHeaders, h.Name)
	}
	for _, h := range metrics {
		result.MetricHeaders = append(result.MetricHeaders, MetricHeader{Name: h.Name, Type: h.Type})
	}
	for _, row := range rows {
		r := Row{}
		for _, v := range row.DimensionValues {
			r.DimensionValues = append(r.DimensionValues, v.Value)
		}
		for _, v := range row.MetricValues {
			r.MetricValues = append(r.MetricValues, v.Value)
		}
		result.Rows = append(result.Rows, r)
	}
	return result
}
