// Package runner runs the built-in GA4 reports: it authenticates, issues the
// queries of a report, prints the results and hands them to the exporters.
package runner

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/ga4tools/ga4report/internal/credentials"
	"github.com/ga4tools/ga4report/internal/diagnostics"
	"github.com/ga4tools/ga4report/internal/export"
	"github.com/ga4tools/ga4report/internal/ga4"
	"github.com/ga4tools/ga4report/internal/util"
	"github.com/ga4tools/ga4report/pkg/config"
	"github.com/ga4tools/ga4report/pkg/report"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Report kinds.
const (
	ActiveUsers     = "active-users"
	SessionDuration = "session-duration"
	DeviceCategory  = "device-category"
	Geolocation     = "geolocation"
	NewUsers        = "new-users"
	Realtime        = "realtime"
	Diagnose        = "diagnose"
)

// Kinds lists the supported report kinds.
var Kinds = []string{ActiveUsers, SessionDuration, DeviceCategory, Geolocation, NewUsers, Realtime, Diagnose}

// ErrUnknownReport is returned for a report kind that is not supported.
var ErrUnknownReport = errors.New("unknown report")

// Runner runs reports for the configured property.
type Runner struct {
	cfg          *config.Config
	reporter     ga4.Reporter
	authenticate credentials.AuthenticateFunc
	exporters    []export.Exporter
	clock        clockwork.Clock
	out          io.Writer
	log          *logrus.Entry
	runID        string

	// token is reused by the queries of a run until it expires.
	token *credentials.AccessToken
}

// New returns a runner that authenticates with the service account key of
// the configuration and prints to standard output.
func New(cfg *config.Config, reporter ga4.Reporter) *Runner {
	logger := logrus.New()
	logger.SetOutput(ioutil.Discard)

	return &Runner{
		cfg:          cfg,
		reporter:     reporter,
		authenticate: credentials.Authenticate,
		clock:        clockwork.NewRealClock(),
		out:          os.Stdout,
		log:          logrus.NewEntry(logger),
		runID:        uuid.New().String(),
	}
}

// WithAuthenticator updates the function used to obtain tokens.
func (r *Runner) WithAuthenticator(fn credentials.AuthenticateFunc) *Runner {
	r.authenticate = fn
	return r
}

// WithExporters updates the exporters that receive the report results.
func (r *Runner) WithExporters(exporters ...export.Exporter) *Runner {
	r.exporters = exporters
	return r
}

// WithClock updates the clock used for token expiry and record timestamps.
func (r *Runner) WithClock(clock clockwork.Clock) *Runner {
	r.clock = clock
	return r
}

// WithOutput updates the writer the results are printed to.
func (r *Runner) WithOutput(out io.Writer) *Runner {
	r.out = out
	return r
}

// WithLogger updates the logger in the runner instance.
func (r *Runner) WithLogger(logger *logrus.Logger) *Runner {
	r.log = logrus.NewEntry(logger)
	return r
}

// RunID returns the identifier of the run, used in logs and exported records.
func (r *Runner) RunID() string {
	return r.runID
}

// Run runs the report of the given kind.
func (r *Runner) Run(ctx context.Context, kind string) error {
	logger := r.log.WithFields(logrus.Fields{
		"runID":      r.runID,
		"report":     kind,
		"propertyID": r.cfg.PropertyID,
	})
	ctx = util.ContextWithLogger(ctx, logger)

	switch kind {
	case ActiveUsers:
		return r.runActiveUsers(ctx)
	case SessionDuration:
		return r.runSingle(ctx, kind, ga4.AverageSessionDurationQuery(), true, report.SessionDurationSummary)
	case DeviceCategory:
		logger.Infof("using start date %s and end date %s to approximate all-time totals", ga4.AllTimeStartDate, ga4.Today)
		return r.runSingle(ctx, kind, ga4.DeviceCategoryAllTimeQuery(), true, noErr(report.DeviceSummary))
	case Geolocation:
		return r.runSingle(ctx, kind, ga4.GeolocationQuery(), false, report.GeolocationJSON)
	case NewUsers:
		return r.runNewUsers(ctx)
	case Realtime:
		return r.runRealtime(ctx)
	case Diagnose:
		return r.runDiagnose(ctx)
	}
	return errors.Wrapf(ErrUnknownReport, "%q", kind)
}

// accessToken returns the token of the run, authenticating when there is none
// yet or when it expired.
func (r *Runner) accessToken(ctx context.Context) (*credentials.AccessToken, error) {
	if !r.token.Expired(r.clock) {
		return r.token, nil
	}

	util.LoggerFrom(ctx).WithField("credentialsFile", r.cfg.CredentialsFile).Info("obtaining access token with service account key")
	token, err := r.authenticate(ctx, r.cfg.CredentialsFile, r.cfg.Scopes...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to authenticate")
	}
	util.LoggerFrom(ctx).Infof("access token obtained: %s", token.Redacted())
	r.token = token
	return token, nil
}

// runSingle runs a report made of a single query.
func (r *Runner) runSingle(ctx context.Context, kind string, query ga4.ReportRequest, printRaw bool, summarize func(*ga4.ReportResult) (string, error)) error {
	result, err := r.query(ctx, query, false)
	if err != nil {
		return err
	}
	return r.present(ctx, kind, result, printRaw, summarize)
}

func (r *Runner) runActiveUsers(ctx context.Context) error {
	result, err := r.query(ctx, ga4.ActiveUsersQuery(), false)
	if err != nil {
		if r.cfg.DiagnoseOnFailure {
			util.LoggerFrom(ctx).Warn("active users query failed, running diagnostics")
			d := diagnostics.Run(ctx, r.cfg.CredentialsFile, r.cfg.PropertyID, r.cfg.Scopes, r.authenticate, r.reporter)
			fmt.Fprintln(r.out, report.DiagnosisReport(d))
		}
		return err
	}
	return r.present(ctx, ActiveUsers, result, true, noErr(report.ActiveUsersSummary))
}

func (r *Runner) runRealtime(ctx context.Context) error {
	result, err := r.query(ctx, ga4.RealtimeActiveUsersQuery(), true)
	if err != nil {
		return err
	}
	return r.present(ctx, Realtime, result, true, noErr(report.RealtimeSummary))
}

// runNewUsers issues the new users and first interaction queries one after
// the other. A failed query counts as 0 and does not stop the others.
func (r *Runner) runNewUsers(ctx context.Context) error {
	queries := []struct {
		name  string
		query ga4.ReportRequest
	}{
		{name: "newUsers", query: ga4.NewUsersQuery()},
		{name: "firstVisitUsers", query: ga4.EventActiveUsersQuery(ga4.EventFirstVisit)},
		{name: "firstOpenUsers", query: ga4.EventActiveUsersQuery(ga4.EventFirstOpen)},
	}

	var (
		values []string
		errs   []error
	)
	for _, q := range queries {
		result, err := r.query(ctx, q.query, false)
		if err != nil {
			util.LoggerFrom(ctx).WithError(err).WithField("query", q.name).Warn("query failed, counting it as 0")
			errs = append(errs, err)
			values = append(values, "0")
			continue
		}
		values = append(values, result.FirstMetric("0"))
	}
	if len(errs) == len(queries) {
		return errors.Wrapf(errs[0], "all %d queries failed", len(queries))
	}

	set := report.NewUsersSet{NewUsers: values[0], FirstVisitUsers: values[1], FirstOpenUsers: values[2]}
	fmt.Fprintln(r.out, report.NewUsersSummary(set))

	record := export.Record{
		RunID:       r.runID,
		Report:      NewUsers,
		PropertyID:  r.cfg.PropertyID,
		GeneratedAt: r.clock.Now(),
		Headers:     []string{queries[0].name, queries[1].name, queries[2].name},
		Rows:        [][]string{values},
	}
	r.export(ctx, record)
	return nil
}

func (r *Runner) runDiagnose(ctx context.Context) error {
	d := diagnostics.Run(ctx, r.cfg.CredentialsFile, r.cfg.PropertyID, r.cfg.Scopes, r.authenticate, r.reporter)
	fmt.Fprintln(r.out, report.DiagnosisReport(d))
	if d.OverallResult == diagnostics.Failed || d.OverallResult == diagnostics.PropertyNotAccessible {
		return errors.Errorf("diagnostics found problems: %s", d.OverallResult)
	}
	return nil
}

// query runs a single query with the token of the run.
func (r *Runner) query(ctx context.Context, query ga4.ReportRequest, realtime bool) (*ga4.ReportResult, error) {
	token, err := r.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	util.LoggerFrom(ctx).Info("sending report request")
	var result *ga4.ReportResult
	if realtime {
		result, err = r.reporter.RunRealtimeReport(ctx, token, r.cfg.PropertyID, query)
	} else {
		result, err = r.reporter.RunReport(ctx, token, r.cfg.PropertyID, query)
	}
	if err != nil {
		return nil, errors.Wrap(err, "report query failed")
	}
	util.LoggerFrom(ctx).WithField("rowCount", result.RowCount).Info("report request succeeded")
	return result, nil
}

// present prints the result and exports it.
func (r *Runner) present(ctx context.Context, kind string, result *ga4.ReportResult, printRaw bool, summarize func(*ga4.ReportResult) (string, error)) error {
	if printRaw {
		fmt.Fprintln(r.out, report.PrettyJSON(result.Raw))
	}
	summary, err := summarize(result)
	if err != nil {
		return errors.Wrap(err, "failed to format result")
	}
	fmt.Fprintln(r.out, summary)

	r.export(ctx, export.NewRecord(r.runID, kind, r.cfg.PropertyID, r.clock.Now(), result))
	return nil
}

// export sends the record to every exporter. Export failures are logged and
// do not fail the report.
func (r *Runner) export(ctx context.Context, record export.Record) {
	for _, e := range r.exporters {
		if err := e.Export(ctx, record); err != nil {
			util.LoggerFrom(ctx).WithError(err).Warn("failed to export report")
		}
	}
}

func noErr(fn func(*ga4.ReportResult) string) func(*ga4.ReportResult) (string, error) {
	return func(result *ga4.ReportResult) (string, error) {
		return fn(result), nil
	}
}
