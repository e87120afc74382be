package runner_test

import (
	"testing"

	"github.com/ga4tools/ga4report/internal/credentials"
	"github.com/ga4tools/ga4report/internal/ga4"
	"github.com/ga4tools/ga4report/internal/runner"
	"github.com/ga4tools/ga4report/pkg/config"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "no error",
			expected: "",
		},
		{
			name:     "missing property",
			err:      config.ErrMissingPropertyID,
			expected: "error: the GA4_PROPERTY_ID environment variable is not set, set it before running",
		},
		{
			name:     "credential not found",
			err:      errors.Wrap(errors.Wrapf(credentials.ErrCredentialNotFound, "%s", "key.json"), "failed to authenticate"),
			expected: "error: service account key file not found, check the credentials file path (failed to authenticate: key.json: credential file not found)",
		},
		{
			name:     "decoded error body",
			err:      errors.Wrap(&ga4.RequestFailedError{StatusCode: 403, Body: map[string]interface{}{"error": map[string]interface{}{"code": 403}}}, "report query failed"),
			expected: "request failed with status 403, error details:\n{\n  \"error\": {\n    \"code\": 403\n  }\n}",
		},
		{
			name:     "raw error body",
			err:      &ga4.RequestFailedError{StatusCode: 502, RawBody: "bad gateway", DecodeErr: ga4.ErrResponseDecode},
			expected: "request failed with status 502, could not parse error details: bad gateway",
		},
		{
			name:     "other error",
			err:      errors.New("connection reset"),
			expected: "error: connection reset",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, runner.Describe(test.err))
		})
	}
}
