package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ga4tools/ga4report/internal/credentials"
	"github.com/ga4tools/ga4report/internal/runner"
	"github.com/ga4tools/ga4report/pkg/config"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		verbosity string
		expected  logrus.Level
		shouldErr bool
	}{
		{name: "debug", verbosity: "debug", expected: logrus.DebugLevel},
		{name: "warning", verbosity: "warn", expected: logrus.WarnLevel},
		{name: "invalid", verbosity: "loud", shouldErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			logger, err := newLogger(test.verbosity)
			if test.shouldErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expected, logger.GetLevel())
		})
	}
}

func TestNewExporters(t *testing.T) {
	missingKey := filepath.Join(os.TempDir(), "ga4report-missing-key.json")

	tests := []struct {
		name   string
		export *config.Export
	}{
		{name: "pubsub", export: &config.Export{PubSubTopic: "projects/p/topics/t"}},
		{name: "sheets", export: &config.Export{SheetID: "sheet"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := config.WithValues(missingKey, "123456", test.export)
			exporters, closeAll, err := newExporters(context.Background(), cfg)
			defer closeAll()

			assert.Nil(t, exporters)
			assert.True(t, errors.Is(err, credentials.ErrCredentialNotFound), "got %v", err)
			assert.Contains(t, runner.Describe(err), "service account key file not found")
		})
	}

	t.Run("no export configured", func(t *testing.T) {
		cfg := config.WithValues(missingKey, "123456", nil)
		exporters, closeAll, err := newExporters(context.Background(), cfg)
		defer closeAll()

		assert.NoError(t, err)
		assert.Empty(t, exporters)
	})
}

func TestRunExitCodes(t *testing.T) {
	defer func(verbosity, credentials, property, topic, envFile string) {
		flVerbosity, flCredentialsFile, flPropertyID, flPubSubTopic, flEnvFile = verbosity, credentials, property, topic, envFile
	}(flVerbosity, flCredentialsFile, flPropertyID, flPubSubTopic, flEnvFile)

	tests := []struct {
		name      string
		verbosity string
		topic     string
		expected  int
	}{
		{
			name:      "invalid verbosity",
			verbosity: "loud",
			expected:  exitConfigError,
		},
		{
			name:      "exporter without key file",
			verbosity: "error",
			topic:     "projects/p/topics/t",
			expected:  exitConfigError,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			flVerbosity = test.verbosity
			flPubSubTopic = test.topic
			flCredentialsFile = filepath.Join(os.TempDir(), "ga4report-missing-key.json")
			flPropertyID = "123456"
			flEnvFile = ""

			assert.Equal(t, test.expected, run())
		})
	}
}
