package mock

import (
	"context"

	"github.com/ga4tools/ga4report/internal/credentials"
	"github.com/ga4tools/ga4report/internal/ga4"
)

// Reporter represents a mock implementation of ga4.Reporter.
type Reporter struct {
	RunReportFn    func(ctx context.Context, token *credentials.AccessToken, propertyID string, req ga4.ReportRequest) (*ga4.ReportResult, error)
	RunReportCalls int

	RunRealtimeReportFn    func(ctx context.Context, token *credentials.AccessToken, propertyID string, req ga4.ReportRequest) (*ga4.ReportResult, error)
	RunRealtimeReportCalls int

	ListAccessiblePropertiesFn      func(ctx context.Context, token *credentials.AccessToken) ([]ga4.Property, error)
	ListAccessiblePropertiesInvoked bool
}

// RunReport invokes the mock implementation and counts the call.
func (r *Reporter) RunReport(ctx context.Context, token *credentials.AccessToken, propertyID string, req ga4.ReportRequest) (*ga4.ReportResult, error) {
	r.RunReportCalls++
	return r.RunReportFn(ctx, token, propertyID, req)
}

// RunRealtimeReport invokes the mock implementation and counts the call.
func (r *Reporter) RunRealtimeReport(ctx context.Context, token *credentials.AccessToken, propertyID string, req ga4.ReportRequest) (*ga4.ReportResult, error) {
	r.RunRealtimeReportCalls++
	return r.RunRealtimeReportFn(ctx, token, propertyID, req)
}

// ListAccessibleProperties invokes the mock implementation and marks the
// function as invoked.
func (r *Reporter) ListAccessibleProperties(ctx context.Context, token *credentials.AccessToken) ([]ga4.Property, error) {
	r.ListAccessiblePropertiesInvoked = true
	return r.ListAccessiblePropertiesFn(ctx, token)
}

// Authenticator records calls to an authentication function.
type Authenticator struct {
	Token *credentials.AccessToken
	Err   error
	Calls int
}

// Authenticate returns the configured token or error.
func (a *Authenticator) Authenticate(ctx context.Context, path string, scopes ...string) (*credentials.AccessToken, error) {
	a.Calls++
	return a.Token, a.Err
}
