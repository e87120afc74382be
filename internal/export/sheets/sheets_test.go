package sheets_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ga4tools/ga4report/internal/export"
	"github.com/ga4tools/ga4report/internal/export/sheets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestNewEmptyID(t *testing.T) {
	_, err := sheets.New(context.Background(), "", "", option.WithHTTPClient(http.DefaultClient))
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	var (
		calls  int
		path   string
		query  string
		values [][]interface{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		path = r.URL.Path
		query = r.URL.RawQuery
		body := struct {
			Values [][]interface{} `json:"values"`
		}{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		values = body.Values
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"updates":{"updatedRange":"Reports!A2:F3"}}`)
	}))
	defer srv.Close()

	exporter, err := sheets.New(context.Background(), "sheet-123", "Reports",
		option.WithHTTPClient(srv.Client()), option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)

	record := export.Record{
		Report:      "device-category",
		PropertyID:  "123",
		GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Headers:     []string{"deviceCategory", "activeUsers"},
		Rows:        [][]string{{"mobile", "10"}, {"desktop", "4"}},
	}
	require.NoError(t, exporter.Export(context.Background(), record))

	assert.Equal(t, 1, calls)
	assert.True(t, strings.HasPrefix(path, "/v4/spreadsheets/sheet-123/values/"), path)
	assert.True(t, strings.HasSuffix(path, ":append"), path)
	assert.Contains(t, query, "valueInputOption=RAW")
	assert.Equal(t, [][]interface{}{
		{"2024-03-01T12:00:00Z", "device-category", "123", "mobile", "10"},
		{"2024-03-01T12:00:00Z", "device-category", "123", "desktop", "4"},
	}, values)

	// Records without rows are not sent.
	record.Rows = [][]string{}
	require.NoError(t, exporter.Export(context.Background(), record))
	assert.Equal(t, 1, calls)
}
