package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	stackdriver "github.com/TV4/logrus-stackdriver-formatter"
	"github.com/ga4tools/ga4report/internal/ga4"
	"github.com/ga4tools/ga4report/internal/runner"
	"github.com/ga4tools/ga4report/internal/util"
	"github.com/ga4tools/ga4report/pkg/config"
	format "github.com/logrusorgru/aurora"
	isatty "github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Exit codes.
const (
	exitOK          = 0
	exitFailed      = 1
	exitConfigError = 2
)

var (
	flConfigFile        string
	flCredentialsFile   string
	flPropertyID        string
	flReport            string
	flVerbosity         string
	flEnvFile           string
	flDiagnoseOnFailure bool
	flPubSubTopic       string
	flSheetID           string
	flSheetName         string
)

func init() {
	flag.StringVar(&flConfigFile, "config", "", "path to a YAML or JSON configuration file")
	flag.StringVar(&flCredentialsFile, "credentials", "", "path to the service account key file (default \""+config.DefaultCredentialsFile+"\")")
	flag.StringVar(&flPropertyID, "property", "", "GA4 property ID, overrides the "+config.PropertyIDEnv+" environment variable")
	flag.StringVar(&flReport, "report", runner.ActiveUsers, "report to run, one of: "+strings.Join(runner.Kinds, ", "))
	flag.StringVar(&flVerbosity, "verbosity", "info", "the logging level (e.g. debug)")
	flag.StringVar(&flEnvFile, "env-file", ".env", "file with environment variables to load if it exists")
	flag.BoolVar(&flDiagnoseOnFailure, "diagnose-on-failure", false, "run diagnostics when the active users report fails")
	flag.StringVar(&flPubSubTopic, "pubsub-topic", "", "export report rows to this topic (projects/{project}/topics/{topic})")
	flag.StringVar(&flSheetID, "sheet-id", "", "export report rows to this Google Sheets spreadsheet")
	flag.StringVar(&flSheetName, "sheet-name", "", "sheet of the spreadsheet to append rows to (default: first sheet)")
}

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	logger, err := newLogger(flVerbosity)
	if err != nil {
		fmt.Fprintln(os.Stderr, format.Red("invalid -verbosity:").Bold(), err)
		return exitConfigError
	}
	ctx := util.ContextWithLogger(context.Background(), logrus.NewEntry(logger))

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, format.Red(runner.Describe(err)).Bold())
		return exitConfigError
	}
	logger.WithFields(logrus.Fields{
		"propertyID":      cfg.PropertyID,
		"credentialsFile": cfg.CredentialsFile,
		"report":          flReport,
	}).Debug("configuration loaded")

	var opts []ga4.Option
	if cfg.DataEndpoint != "" {
		opts = append(opts, ga4.WithDataEndpoint(cfg.DataEndpoint))
	}
	if cfg.AdminEndpoint != "" {
		opts = append(opts, ga4.WithAdminEndpoint(cfg.AdminEndpoint))
	}
	client := ga4.NewClient(opts...)

	exporters, closeExporters, err := newExporters(ctx, cfg)
	if err != nil {
		logger.Debugf("exporter setup failed: %+v", err)
		fmt.Fprintln(os.Stderr, format.Red(runner.Describe(err)).Bold())
		return exitConfigError
	}
	defer closeExporters()

	r := runner.New(cfg, client).WithExporters(exporters...).WithLogger(logger)
	fmt.Fprintln(os.Stderr, format.Cyan(fmt.Sprintf("running %s report for property %s", flReport, cfg.PropertyID)))
	if err := r.Run(ctx, flReport); err != nil {
		logger.Debugf("report failed: %+v", err)
		fmt.Fprintln(os.Stderr, format.Red(runner.Describe(err)).Bold())
		return exitFailed
	}
	fmt.Fprintln(os.Stderr, format.Green("report finished").Bold())
	return exitOK
}

// newLogger returns a logger writing structured entries when the output is not
// a terminal, e.g. when running as a scheduled job.
func newLogger(verbosity string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if isatty.IsTerminal(os.Stderr.Fd()) {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(stackdriver.NewFormatter(stackdriver.WithService("ga4report")))
	}

	level, err := logrus.ParseLevel(verbosity)
	if err != nil {
		return nil, errors.Wrap(err, "invalid verbosity level")
	}
	logger.SetLevel(level)
	return logger, nil
}

// loadConfig builds the configuration from the configuration file, the
// environment and the flags, in increasing order of precedence.
func loadConfig() (*config.Config, error) {
	cfg := config.New()
	if flConfigFile != "" {
		data, err := ioutil.ReadFile(flConfigFile)
		if err != nil {
			return nil, errors.Wrap(err, "could not read configuration file")
		}
		ext := strings.ToLower(filepath.Ext(flConfigFile))
		cfg, err = config.Decode(data, ext == ".yaml" || ext == ".yml")
		if err != nil {
			return nil, err
		}
	}

	if flCredentialsFile != "" {
		cfg.CredentialsFile = flCredentialsFile
	}
	if flPropertyID != "" {
		cfg.PropertyID = flPropertyID
	}
	if flDiagnoseOnFailure {
		cfg.DiagnoseOnFailure = true
	}
	if flPubSubTopic != "" {
		cfg.Export.PubSubTopic = flPubSubTopic
	}
	if flSheetID != "" {
		cfg.Export.SheetID = flSheetID
	}
	if flSheetName != "" {
		cfg.Export.SheetName = flSheetName
	}

	if err := cfg.FromEnv(flEnvFile); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}
