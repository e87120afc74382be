// Package sheets appends report records to a Google Sheet.
//
// Every record row is written as a new sheet row with the following values,
// in order:
//
// Generated At (RFC 3339), Report, Property ID, row values...
//
// Example
// 2024-03-01T12:00:00Z, geolocation, 123456, Taiwan, Taipei, 120
package sheets

import (
	"context"
	"time"

	"github.com/ga4tools/ga4report/internal/export"
	"github.com/ga4tools/ga4report/internal/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Exporter appends records to a Google Sheet.
type Exporter struct {
	client    *sheets.Service
	sheetsID  string
	sheetName string
}

// New initializes a connection to Google Sheets.
func New(ctx context.Context, sheetsID, sheetName string, opts ...option.ClientOption) (*Exporter, error) {
	if sheetsID == "" {
		return nil, errors.New("Google Sheet ID cannot be empty")
	}
	client, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "could not initialize Google Sheets client")
	}

	return &Exporter{
		client:    client,
		sheetsID:  sheetsID,
		sheetName: sheetName,
	}, nil
}

// Export appends the record rows after the last row of the sheet.
func (e *Exporter) Export(ctx context.Context, record export.Record) error {
	logger := util.LoggerFrom(ctx).WithFields(logrus.Fields{
		"sheetsID": e.sheetsID,
		"rows":     len(record.Rows),
	})
	if len(record.Rows) == 0 {
		logger.Debug("record has no rows, skipping Google Sheets export")
		return nil
	}

	values := make([][]interface{}, 0, len(record.Rows))
	for _, row := range record.Rows {
		cells := []interface{}{
			record.GeneratedAt.UTC().Format(time.RFC3339),
			record.Report,
			record.PropertyID,
		}
		for _, v := range row {
			cells = append(cells, v)
		}
		values = append(values, cells)
	}

	resp, err := e.client.Spreadsheets.Values.Append(e.sheetsID, e.writeRange(), &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return errors.Wrap(err, "unable to append data to sheet")
	}
	if resp.Updates != nil {
		logger = logger.WithField("updatedRange", resp.Updates.UpdatedRange)
	}
	logger.Debug("appended rows to Google Sheets")
	return nil
}

// writeRange returns the range the rows are appended to.
func (e *Exporter) writeRange() string {
	writeRange := "A1"
	if e.sheetName != "" {
		writeRange = e.sheetName + "!" + writeRange
	}
	return writeRange
}
