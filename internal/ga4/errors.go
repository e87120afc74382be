package ga4

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"google.golang.org/api/googleapi"
)

// Report errors.
var (
	// ErrInvalidRequest is returned when a call is rejected before reaching
	// the network.
	ErrInvalidRequest = errors.New("invalid report request")

	// ErrResponseDecode marks an error body that is not valid JSON.
	ErrResponseDecode = errors.New("could not decode response body")
)

// RequestFailedError is a non-200 response from the API.
type RequestFailedError struct {
	Endpoint   string
	StatusCode int

	// Body is the decoded error body. It is nil when the body is not JSON, in
	// which case DecodeErr is set and RawBody holds the text.
	Body      map[string]interface{}
	RawBody   string
	DecodeErr error
}

func (e *RequestFailedError) Error() string {
	msg := e.RawBody
	if e.Body != nil {
		if apiErr, ok := e.Body["error"].(map[string]interface{}); ok {
			if m, ok := apiErr["message"].(string); ok {
				msg = m
			}
		}
	}
	return fmt.Sprintf("%s failed with status %d: %s", e.Endpoint, e.StatusCode, msg)
}

// PrettyBody returns the error body indented, or the raw text when the body
// could not be decoded.
func (e *RequestFailedError) PrettyBody() string {
	if e.Body == nil {
		return e.RawBody
	}
	b, err := json.MarshalIndent(e.Body, "", "  ")
	if err != nil {
		return e.RawBody
	}
	return string(b)
}

// toRequestFailed converts an error returned by a generated API call. Errors
// that do not carry an HTTP response are wrapped as transport errors.
func toRequestFailed(endpoint string, err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return errors.Wrapf(err, "%s request failed", endpoint)
	}

	failed := &RequestFailedError{
		Endpoint:   endpoint,
		StatusCode: apiErr.Code,
		RawBody:    apiErr.Body,
	}
	body := map[string]interface{}{}
	if err := json.Unmarshal([]byte(apiErr.Body), &body); err != nil {
		failed.DecodeErr = errors.Wrap(ErrResponseDecode, err.Error())
	} else {
		failed.Body = body
	}
	return failed
}
