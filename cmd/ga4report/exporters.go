package main

import (
	"context"

	"github.com/ga4tools/ga4report/internal/credentials"
	"github.com/ga4tools/ga4report/internal/export"
	"github.com/ga4tools/ga4report/internal/export/pubsub"
	"github.com/ga4tools/ga4report/internal/export/sheets"
	"github.com/ga4tools/ga4report/internal/util"
	"github.com/ga4tools/ga4report/pkg/config"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// newExporters initializes the exporters enabled in the configuration. The
// exporters authenticate with the same service account key as the reports.
//
// The returned function releases the exporters and must be called once the
// run finished.
func newExporters(ctx context.Context, cfg *config.Config) ([]export.Exporter, func(), error) {
	logger := util.LoggerFrom(ctx)
	var (
		exporters []export.Exporter
		closers   []func() error
	)
	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.WithError(err).Warn("failed to close exporter")
			}
		}
	}

	if cfg.Export == nil || (cfg.Export.PubSubTopic == "" && cfg.Export.SheetID == "") {
		return nil, closeAll, nil
	}
	if _, err := credentials.LoadKey(cfg.CredentialsFile); err != nil {
		return nil, closeAll, errors.Wrap(err, "could not load the service account key for the exporters")
	}
	opts := []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}

	if cfg.Export.PubSubTopic != "" {
		logger.WithField("topic", cfg.Export.PubSubTopic).Debug("exporting report rows to Pub/Sub")
		ps, err := pubsub.New(ctx, cfg.Export.PubSubTopic, opts...)
		if err != nil {
			return nil, closeAll, errors.Wrap(err, "failed to initialize Pub/Sub exporter")
		}
		exporters = append(exporters, ps)
		closers = append(closers, ps.Close)
	}

	if cfg.Export.SheetID != "" {
		logger.WithField("sheetsID", cfg.Export.SheetID).Debug("exporting report rows to Google Sheets")
		sh, err := sheets.New(ctx, cfg.Export.SheetID, cfg.Export.SheetName, opts...)
		if err != nil {
			closeAll()
			return nil, func() {}, errors.Wrap(err, "failed to initialize Google Sheets exporter")
		}
		exporters = append(exporters, sh)
	}
	return exporters, closeAll, nil
}
