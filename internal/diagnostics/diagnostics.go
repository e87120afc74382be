// Package diagnostics helps operators find out why report queries fail.
//
// It re-reads the service account key, authenticates again and lists the
// properties the account can access, recording every failure instead of
// stopping at the first one.
package diagnostics

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"os"

	"github.com/ga4tools/ga4report/internal/credentials"
	"github.com/ga4tools/ga4report/internal/ga4"
	"github.com/ga4tools/ga4report/internal/util"
	"github.com/pkg/errors"
)

// Result is the overall outcome of a diagnosis.
type Result int32

// Possible diagnosis results.
const (
	Unknown      Result = 0
	Accessible   Result = 1
	NoProperties Result = 2
	Failed       Result = 3

	// PropertyNotAccessible means the account can read some properties but
	// not the configured one.
	PropertyNotAccessible Result = 4
)

func (r Result) String() string {
	switch r {
	case Accessible:
		return "accessible"
	case NoProperties:
		return "no properties"
	case Failed:
		return "failed"
	case PropertyNotAccessible:
		return "configured property not accessible"
	}
	return "unknown"
}

// KeySummary is the information of the service account key worth showing to
// an operator. The private key itself is never included.
type KeySummary struct {
	ProjectID    string
	ClientEmail  string
	TokenURI     string
	PrivateKeyID string
	PEMHeader    bool
}

// Diagnosis is the information gathered by Run.
type Diagnosis struct {
	OverallResult Result

	Key    *KeySummary
	KeyErr error

	// PropertyID is the configured property, ConfiguredFound reports whether
	// it is among Properties.
	PropertyID      string
	ConfiguredFound bool
	Properties      []ga4.Property
	PropertiesErr   error
}

// InspectKey reads the key file without validating it, so that partially
// broken files can still be summarized.
func InspectKey(path string) (*KeySummary, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(credentials.ErrCredentialNotFound, "%s", path)
		}
		return nil, errors.Wrapf(err, "could not read credential file %s", path)
	}

	key := &credentials.ServiceAccountKey{}
	if err := json.Unmarshal(data, key); err != nil {
		return nil, errors.Wrapf(credentials.ErrCredentialMalformed, "invalid JSON: %v", err)
	}
	return &KeySummary{
		ProjectID:    key.ProjectID,
		ClientEmail:  key.ClientEmail,
		TokenURI:     key.TokenURI,
		PrivateKeyID: key.PrivateKeyID,
		PEMHeader:    key.HasPEMHeader(),
	}, nil
}

// Run inspects the key at path, lists the properties it can access and
// checks the configured property is one of them.
func Run(ctx context.Context, path, propertyID string, scopes []string, authenticate credentials.AuthenticateFunc, reporter ga4.Reporter) *Diagnosis {
	logger := util.LoggerFrom(ctx).WithField("credentialsFile", path)
	d := &Diagnosis{PropertyID: propertyID}

	d.Key, d.KeyErr = InspectKey(path)
	if d.KeyErr != nil {
		logger.WithError(d.KeyErr).Debug("could not inspect service account key")
	}

	d.Properties, d.PropertiesErr = listProperties(ctx, path, scopes, authenticate, reporter)
	if d.PropertiesErr != nil {
		logger.WithError(d.PropertiesErr).Debug("could not list accessible properties")
	}
	for _, p := range d.Properties {
		if p.ID == propertyID {
			d.ConfiguredFound = true
		}
	}

	d.OverallResult = determineResult(d)
	return d
}

func listProperties(ctx context.Context, path string, scopes []string, authenticate credentials.AuthenticateFunc, reporter ga4.Reporter) ([]ga4.Property, error) {
	token, err := authenticate(ctx, path, scopes...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to authenticate")
	}
	properties, err := reporter.ListAccessibleProperties(ctx, token)
	return properties, errors.Wrap(err, "failed to list properties")
}

func determineResult(d *Diagnosis) Result {
	if d.KeyErr != nil || d.PropertiesErr != nil {
		return Failed
	}
	if len(d.Properties) == 0 {
		return NoProperties
	}
	if d.PropertyID != "" && !d.ConfiguredFound {
		return PropertyNotAccessible
	}
	return Accessible
}
