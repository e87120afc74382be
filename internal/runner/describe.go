package runner

import (
	"fmt"

	"github.com/ga4tools/ga4report/internal/credentials"
	"github.com/ga4tools/ga4report/internal/ga4"
	"github.com/ga4tools/ga4report/pkg/config"
	"github.com/pkg/errors"
)

// Describe returns a message for the operator explaining the error.
func Describe(err error) string {
	var failed *ga4.RequestFailedError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, config.ErrMissingPropertyID):
		return fmt.Sprintf("error: the %s environment variable is not set, set it before running", config.PropertyIDEnv)
	case errors.Is(err, credentials.ErrCredentialNotFound):
		return fmt.Sprintf("error: service account key file not found, check the credentials file path (%v)", err)
	case errors.Is(err, credentials.ErrCredentialMalformed):
		return fmt.Sprintf("error: service account key file is invalid (%v)", err)
	case errors.Is(err, credentials.ErrAuthFailure):
		return fmt.Sprintf("error: could not obtain an access token, the key may be revoked or the clock skewed (%v)", err)
	case errors.Is(err, ga4.ErrInvalidRequest):
		return fmt.Sprintf("error: invalid report request (%v)", err)
	case errors.Is(err, ErrUnknownReport):
		return fmt.Sprintf("error: %v, supported reports are %v", err, Kinds)
	case errors.As(err, &failed):
		if failed.DecodeErr != nil {
			return fmt.Sprintf("request failed with status %d, could not parse error details: %s", failed.StatusCode, failed.RawBody)
		}
		return fmt.Sprintf("request failed with status %d, error details:\n%s", failed.StatusCode, failed.PrettyBody())
	}
	return fmt.Sprintf("error: %v", err)
}
