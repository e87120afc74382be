// Package report renders report results for people and dashboards.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ga4tools/ga4report/internal/diagnostics"
	"github.com/ga4tools/ga4report/internal/ga4"
	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// CityUsers is the number of active users in a city.
type CityUsers struct {
	Country     string `json:"country"`
	City        string `json:"city"`
	ActiveUsers int64  `json:"activeUsers"`
}

// NewUsersSet holds the values of the new users report. A value is "0" when
// its query failed or returned no rows.
type NewUsersSet struct {
	NewUsers        string
	FirstVisitUsers string
	FirstOpenUsers  string
}

// PrettyJSON indents a raw JSON document. Non-ASCII text is kept as is.
func PrettyJSON(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// ActiveUsersSummary returns the active users per day.
//
// The returned string has the format:
//
// - date: 2024-03-01, active users: 1,024
// - date: 2024-03-02, active users: 980
func ActiveUsersSummary(result *ga4.ReportResult) string {
	if len(result.Rows) == 0 {
		return "no active users in the date range"
	}
	lines := make([]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		lines = append(lines, fmt.Sprintf("- date: %s, active users: %s",
			formatDate(row.Dimension(0, "unknown date")), count(row.Metric(0, "0"))))
	}
	return strings.Join(lines, "\n")
}

// SessionDurationSummary returns the average session duration in seconds with
// two decimals.
//
// The returned string has the format:
//
// - average session duration: 125.40 seconds
func SessionDurationSummary(result *ga4.ReportResult) (string, error) {
	if len(result.Rows) == 0 {
		return "no session data in the date range", nil
	}
	seconds, err := result.Rows[0].MetricFloat(0)
	if err != nil {
		return "", errors.Wrap(err, "invalid session duration")
	}
	return printer.Sprintf("- average session duration: %.2f seconds", seconds), nil
}

// DeviceSummary returns the active users per device category.
//
// The returned string has the format:
//
// - device category: mobile, active users: 1,024
// - device category: desktop, active users: 980
func DeviceSummary(result *ga4.ReportResult) string {
	if len(result.Rows) == 0 {
		return "no device category data in the date range"
	}
	lines := make([]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		lines = append(lines, fmt.Sprintf("- device category: %s, active users: %s",
			row.Dimension(0, "unknown device"), count(row.Metric(0, "0"))))
	}
	return strings.Join(lines, "\n")
}

// GeolocationRows reshapes a country/city report. Counts that cannot be
// parsed are reported as 0.
func GeolocationRows(result *ga4.ReportResult) []CityUsers {
	rows := []CityUsers{}
	for _, row := range result.Rows {
		users, err := row.MetricInt(0)
		if err != nil {
			users = 0
		}
		rows = append(rows, CityUsers{
			Country:     row.Dimension(0, "unknown country"),
			City:        row.Dimension(1, "unknown city"),
			ActiveUsers: users,
		})
	}
	return rows
}

// GeolocationJSON returns the rows of GeolocationRows as an indented JSON
// array, the format read by the Grafana JSON data source.
func GeolocationJSON(result *ga4.ReportResult) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(GeolocationRows(result)); err != nil {
		return "", errors.Wrap(err, "failed to marshal geolocation rows")
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// NewUsersSummary returns the new users and first interaction counts.
func NewUsersSummary(set NewUsersSet) string {
	return fmt.Sprintf("- new users: %s\n- active users with first_visit: %s\n- active users with first_open: %s",
		count(set.NewUsers), count(set.FirstVisitUsers), count(set.FirstOpenUsers))
}

// RealtimeSummary returns the users active in the last 30 minutes.
func RealtimeSummary(result *ga4.ReportResult) string {
	if len(result.Rows) == 0 {
		return "no active users in the last 30 minutes"
	}
	return fmt.Sprintf("- active users in the last 30 minutes: %s", count(result.FirstMetric("0")))
}

// PropertiesSummary lists the accessible properties. The property matching
// configuredID is marked.
//
// The returned string has the format:
//
// found 2 properties:
// - property ID: 123456 | display name: Web <-- configured
// - property ID: 999 | display name: Other
func PropertiesSummary(properties []ga4.Property, configuredID string) string {
	if len(properties) == 0 {
		return "no accessible GA4 properties found"
	}
	report := fmt.Sprintf("found %d properties:", len(properties))
	for _, p := range properties {
		name := p.DisplayName
		if name == "" {
			name = "unknown"
		}
		report += fmt.Sprintf("\n- property ID: %s | display name: %s", p.ID, name)
		if configuredID != "" && p.ID == configuredID {
			report += " <-- configured"
		}
	}
	return report
}

// DiagnosisReport generates a human-readable report of the diagnosis.
//
// The returned string has the format:
//
// diagnosis: accessible
// service account:
// - project ID: my-project
// - client email: reporter@my-project.iam.gserviceaccount.com
// - token URI: https://oauth2.googleapis.com/token
// - private key ID: 0123abcd
// - private key format valid: yes
// properties:
// found 1 properties:
// - property ID: 123456 | display name: Web <-- configured
func DiagnosisReport(d *diagnostics.Diagnosis) string {
	report := fmt.Sprintf("diagnosis: %s\n", d.OverallResult)
	report += "service account:"
	if d.KeyErr != nil {
		report += fmt.Sprintf("\n- error reading key file: %v", d.KeyErr)
	} else {
		report += fmt.Sprintf("\n- project ID: %s\n- client email: %s\n- token URI: %s\n- private key ID: %s\n- private key format valid: %s",
			d.Key.ProjectID, d.Key.ClientEmail, d.Key.TokenURI, d.Key.PrivateKeyID, yesNo(d.Key.PEMHeader))
	}

	report += "\nproperties:\n"
	if d.PropertiesErr != nil {
		report += fmt.Sprintf("could not list properties: %v", d.PropertiesErr)
	} else {
		report += PropertiesSummary(d.Properties, d.PropertyID)
		if d.OverallResult == diagnostics.PropertyNotAccessible {
			report += fmt.Sprintf("\nconfigured property %s is not among the accessible properties, check the property ID", d.PropertyID)
		}
	}
	return report
}

// count formats an integer metric value with digit grouping. Values that are
// not integers are returned unchanged.
func count(value string) string {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return value
	}
	return printer.Sprintf("%d", n)
}

// formatDate turns a YYYYMMDD date value into YYYY-MM-DD. Other values are
// returned unchanged.
func formatDate(value string) string {
	t, err := time.Parse("20060102", value)
	if err != nil {
		return value
	}
	return t.Format("2006-01-02")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
