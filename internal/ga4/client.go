// Package ga4 is a client for the Google Analytics Data API reporting
// endpoints and the Admin API property listing.
package ga4

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ga4tools/ga4report/internal/credentials"
	"github.com/ga4tools/ga4report/internal/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	analyticsadmin "google.golang.org/api/analyticsadmin/v1beta"
	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
	"google.golang.org/api/option"
)

// Endpoint names used in errors and logs.
const (
	EndpointRunReport         = "runReport"
	EndpointRunRealtimeReport = "runRealtimeReport"
	EndpointListProperties    = "properties.list"
)

// Reporter runs report queries for a property.
type Reporter interface {
	RunReport(ctx context.Context, token *credentials.AccessToken, propertyID string, req ReportRequest) (*ReportResult, error)
	RunRealtimeReport(ctx context.Context, token *credentials.AccessToken, propertyID string, req ReportRequest) (*ReportResult, error)
	ListAccessibleProperties(ctx context.Context, token *credentials.AccessToken) ([]Property, error)
}

// Client is a wrapper for the Analytics Data and Analytics Admin packages.
//
// The client holds no token. Each call takes the token to use, so a single
// client may serve several tokens and concurrent calls.
type Client struct {
	httpClient    *http.Client
	dataEndpoint  string
	adminEndpoint string
}

// Option configures a Client.
type Option func(*Client)

// WithDataEndpoint overrides the Analytics Data API base URL.
func WithDataEndpoint(endpoint string) Option {
	return func(c *Client) { c.dataEndpoint = endpoint }
}

// WithAdminEndpoint overrides the Analytics Admin API base URL.
func WithAdminEndpoint(endpoint string) Option {
	return func(c *Client) { c.adminEndpoint = endpoint }
}

// WithHTTPClient sets the HTTP client that carries the authorized requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient initializes a client.
func NewClient(opts ...Option) *Client {
	c := &Client{httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunReport runs a report for the property.
//
// A response without rows is a valid, empty result. Non-200 responses are
// returned as *RequestFailedError. The call is never retried.
func (c *Client) RunReport(ctx context.Context, token *credentials.AccessToken, propertyID string, req ReportRequest) (*ReportResult, error) {
	if err := validate(token, propertyID, req); err != nil {
		return nil, err
	}

	logger := util.LoggerFrom(ctx).WithFields(logrus.Fields{
		"propertyID": propertyID,
		"endpoint":   EndpointRunReport,
		"metrics":    metricNames(req.Metrics),
	})
	svc, err := c.dataService(ctx, token)
	if err != nil {
		return nil, err
	}

	logger.Debug("querying Analytics Data API")
	resp, err := svc.Properties.RunReport(propertyName(propertyID), req.toRunReportRequest()).Context(ctx).Do()
	if err != nil {
		return nil, toRequestFailed(EndpointRunReport, err)
	}

	result := newReportResult(resp.RowCount, resp.DimensionHeaders, resp.MetricHeaders, resp.Rows)
	if result.Raw, err = json.Marshal(resp); err != nil {
		return nil, errors.Wrap(err, "failed to marshal response")
	}
	logger.WithField("rowCount", result.RowCount).Debug("finished report query")
	return result, nil
}

// RunRealtimeReport runs a realtime report for the property. Realtime reports
// cover the last minutes of activity and take no date range.
func (c *Client) RunRealtimeReport(ctx context.Context, token *credentials.AccessToken, propertyID string, req ReportRequest) (*ReportResult, error) {
	if err := validate(token, propertyID, req); err != nil {
		return nil, err
	}
	if len(req.DateRanges) != 0 {
		return nil, errors.Wrap(ErrInvalidRequest, "realtime reports do not accept date ranges")
	}

	logger := util.LoggerFrom(ctx).WithFields(logrus.Fields{
		"propertyID": propertyID,
		"endpoint":   EndpointRunRealtimeReport,
		"metrics":    metricNames(req.Metrics),
	})
	svc, err := c.dataService(ctx, token)
	if err != nil {
		return nil, err
	}

	logger.Debug("querying Analytics Data API")
	resp, err := svc.Properties.RunRealtimeReport(propertyName(propertyID), req.toRunRealtimeReportRequest()).Context(ctx).Do()
	if err != nil {
		return nil, toRequestFailed(EndpointRunRealtimeReport, err)
	}

	result := newReportResult(resp.RowCount, resp.DimensionHeaders, resp.MetricHeaders, resp.Rows)
	if result.Raw, err = json.Marshal(resp); err != nil {
		return nil, errors.Wrap(err, "failed to marshal response")
	}
	logger.WithField("rowCount", result.RowCount).Debug("finished realtime report query")
	return result, nil
}

// ListAccessibleProperties returns the properties the token can read, in the
// order the Admin API lists them.
func (c *Client) ListAccessibleProperties(ctx context.Context, token *credentials.AccessToken) ([]Property, error) {
	if token == nil || token.Value == "" {
		return nil, errors.Wrap(ErrInvalidRequest, "empty access token")
	}

	logger := util.LoggerFrom(ctx).WithField("endpoint", EndpointListProperties)
	svc, err := c.adminService(ctx, token)
	if err != nil {
		return nil, err
	}

	logger.Debug("querying Analytics Admin API")
	properties := []Property{}
	err = svc.Properties.List().Pages(ctx, func(page *analyticsadmin.GoogleAnalyticsAdminV1betaListPropertiesResponse) error {
		for _, p := range page.Properties {
			properties = append(properties, Property{
				ID:          idFromName(p.Name),
				DisplayName: p.DisplayName,
			})
		}
		return nil
	})
	if err != nil {
		return nil, toRequestFailed(EndpointListProperties, err)
	}

	logger.WithField("n", len(properties)).Debug("finished retrieving properties")
	return properties, nil
}

func (c *Client) dataService(ctx context.Context, token *credentials.AccessToken) (*analyticsdata.Service, error) {
	opts := []option.ClientOption{option.WithHTTPClient(c.authorizedClient(ctx, token))}
	if c.dataEndpoint != "" {
		opts = append(opts, option.WithEndpoint(c.dataEndpoint))
	}
	svc, err := analyticsdata.NewService(ctx, opts...)
	return svc, errors.Wrap(err, "could not initialize client for the Analytics Data API")
}

func (c *Client) adminService(ctx context.Context, token *credentials.AccessToken) (*analyticsadmin.Service, error) {
	opts := []option.ClientOption{option.WithHTTPClient(c.authorizedClient(ctx, token))}
	if c.adminEndpoint != "" {
		opts = append(opts, option.WithEndpoint(c.adminEndpoint))
	}
	svc, err := analyticsadmin.NewService(ctx, opts...)
	return svc, errors.Wrap(err, "could not initialize client for the Analytics Admin API")
}

// authorizedClient returns an HTTP client that sets the bearer token on every
// request.
func (c *Client) authorizedClient(ctx context.Context, token *credentials.AccessToken) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return oauth2.NewClient(ctx, token.TokenSource())
}

// validate checks the inputs of a report call.
func validate(token *credentials.AccessToken, propertyID string, req ReportRequest) error {
	if token == nil || token.Value == "" {
		return errors.Wrap(ErrInvalidRequest, "empty access token")
	}
	if propertyID == "" {
		return errors.Wrap(ErrInvalidRequest, "empty property ID")
	}
	if len(req.Metrics) == 0 {
		return errors.Wrap(ErrInvalidRequest, "at least one metric is required")
	}
	for i, m := range req.Metrics {
		if m.Name == "" {
			return errors.Wrapf(ErrInvalidRequest, "metric %d has no name", i)
		}
	}
	return nil
}

// propertyName returns the resource name properties/{propertyID}.
func propertyName(propertyID string) string {
	return "properties/" + strings.TrimPrefix(propertyID, "properties/")
}

// idFromName returns the ID from a resource name of the form
// properties/{propertyID}.
func idFromName(name string) string {
	return name[strings.LastIndex(name, "/")+1:]
}

func metricNames(metrics []Metric) []string {
	names := make([]string, 0, len(metrics))
	for _, m := range metrics {
		names = append(names, m.Name)
	}
	return names
}
