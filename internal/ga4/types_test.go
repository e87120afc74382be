package ga4_test

import (
	"encoding/json"
	"testing"

	"github.com/ga4tools/ga4report/internal/ga4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportRequestRoundTrip(t *testing.T) {
	req := ga4.GeolocationQuery()

	data, err := json.Marshal(req)
	require.NoError(t, err)

	decoded := ga4.ReportRequest{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, req, decoded)

	assert.JSONEq(t, `{
		"dateRanges": [{"startDate": "7daysAgo", "endDate": "today"}],
		"dimensions": [{"name": "country"}, {"name": "city"}],
		"metrics": [{"name": "activeUsers"}],
		"orderBys": [{"metric": {"metricName": "activeUsers"}, "desc": true}],
		"limit": 50
	}`, string(data))
}

func TestActiveUsersWireFormat(t *testing.T) {
	data, err := json.Marshal(ga4.ActiveUsersQuery())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"dateRanges": [{"startDate": "7daysAgo", "endDate": "today"}],
		"dimensions": [{"name": "date"}],
		"metrics": [{"name": "activeUsers"}]
	}`, string(data))
}

func TestEventFilterWireFormat(t *testing.T) {
	data, err := json.Marshal(ga4.EventActiveUsersQuery(ga4.EventFirstVisit))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"dateRanges": [{"startDate": "7daysAgo", "endDate": "today"}],
		"metrics": [{"name": "activeUsers"}],
		"dimensionFilter": {
			"filter": {
				"fieldName": "eventName",
				"stringFilter": {"matchType": "EXACT", "value": "first_visit"}
			}
		}
	}`, string(data))
}

func TestRowValues(t *testing.T) {
	row := ga4.Row{
		DimensionValues: []string{"Taiwan", "Taipei"},
		MetricValues:    []string{"42", "12.5", "n/a"},
	}

	tests := []struct {
		name      string
		fn        func() (interface{}, error)
		expected  interface{}
		shouldErr bool
	}{
		{
			name:     "int metric",
			fn:       func() (interface{}, error) { return row.MetricInt(0) },
			expected: int64(42),
		},
		{
			name:     "float metric",
			fn:       func() (interface{}, error) { return row.MetricFloat(1) },
			expected: 12.5,
		},
		{
			name:      "unparsable metric",
			fn:        func() (interface{}, error) { return row.MetricFloat(2) },
			shouldErr: true,
		},
		{
			name:     "missing metric defaults to zero",
			fn:       func() (interface{}, error) { return row.MetricInt(5) },
			expected: int64(0),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			value, err := test.fn()
			if test.shouldErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expected, value)
		})
	}

	assert.Equal(t, "Taipei", row.Dimension(1, "unknown"))
	assert.Equal(t, "unknown", row.Dimension(2, "unknown"))
}
