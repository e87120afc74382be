// Package export defines the destinations report rows can be sent to.
package export

import (
	"context"
	"time"

	"github.com/ga4tools/ga4report/internal/ga4"
)

// Exporter sends a report record to a destination.
type Exporter interface {
	Export(ctx context.Context, record Record) error
}

// Record is a report result ready for export.
type Record struct {
	RunID       string     `json:"runID"`
	Report      string     `json:"report"`
	PropertyID  string     `json:"propertyID"`
	GeneratedAt time.Time  `json:"generatedAt"`
	Headers     []string   `json:"headers"`
	Rows        [][]string `json:"rows"`
}

// NewRecord flattens a report result into a record. The headers are the
// dimension names followed by the metric names, and so are the row values.
func NewRecord(runID, report, propertyID string, generatedAt time.Time, result *ga4.ReportResult) Record {
	record := Record{
		RunID:       runID,
		Report:      report,
		PropertyID:  propertyID,
		GeneratedAt: generatedAt,
		Headers:     append([]string{}, result.DimensionHeaders...),
		Rows:        [][]string{},
	}
	for _, h := range result.MetricHeaders {
		record.Headers = append(record.Headers, h.Name)
	}
	for _, row := range result.Rows {
		values := append([]string{}, row.DimensionValues...)
		values = append(values, row.MetricValues...)
		record.Rows = append(record.Rows, values)
	}
	return record
}
