package config

import (
	"encoding/json"
	"os"
	"regexp"
	"strings"

	"github.com/ga4tools/ga4report/internal/credentials"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Defaults for a configuration that was not explicitly set.
const (
	DefaultCredentialsFile = "ga-service-account.json"
	ReadonlyScope          = credentials.ReadonlyScope

	// PropertyIDEnv is the environment variable holding the GA4 property ID.
	PropertyIDEnv = "GA4_PROPERTY_ID"
)

// ErrMissingPropertyID is returned when no GA4 property was configured.
var ErrMissingPropertyID = errors.New("GA4 property ID is not set")

var topicNameRe = regexp.MustCompile(`^projects/[^/]+/topics/[^/]+$`)

// Export is the optional destination for report rows.
type Export struct {
	PubSubTopic string `json:"pubsubTopic" yaml:"pubsubTopic"`
	SheetID     string `json:"sheetID"     yaml:"sheetID"`
	SheetName   string `json:"sheetName"   yaml:"sheetName"`
}

// Config contains the configuration for a reporting run.
type Config struct {
	CredentialsFile   string   `json:"credentialsFile"   yaml:"credentialsFile"`
	PropertyID        string   `json:"propertyID"        yaml:"propertyID"`
	Scopes            []string `json:"scopes"            yaml:"scopes"`
	DataEndpoint      string   `json:"dataEndpoint"      yaml:"dataEndpoint"`
	AdminEndpoint     string   `json:"adminEndpoint"     yaml:"adminEndpoint"`
	DiagnoseOnFailure bool     `json:"diagnoseOnFailure" yaml:"diagnoseOnFailure"`
	Export            *Export  `json:"export"            yaml:"export"`
}

// New returns a configuration with the default values set.
func New() *Config {
	return &Config{
		CredentialsFile: DefaultCredentialsFile,
		Scopes:          []string{ReadonlyScope},
		Export:          &Export{},
	}
}

// WithValues initializes a configuration with the given values.
func WithValues(credentialsFile, propertyID string, export *Export) *Config {
	cfg := New()
	if credentialsFile != "" {
		cfg.CredentialsFile = credentialsFile
	}
	cfg.PropertyID = propertyID
	if export != nil {
		cfg.Export = export
	}
	return cfg
}

// Decode returns the configuration struct based on the data provided in a
// configuration file.
func Decode(data []byte, yamlMode bool) (*Config, error) {
	config := New()

	if yamlMode {
		err := yaml.Unmarshal(data, config)
		if err != nil {
			return nil, errors.Wrap(err, "could not unmarshal data")
		}
	} else {
		err := json.Unmarshal(data, config)
		if err != nil {
			return nil, errors.Wrap(err, "could not unmarshal data")
		}
	}
	config.setDefaults()

	return config, nil
}

// FromEnv fills the fields that are still empty from the environment.
//
// A .env file in envFile is loaded first if it exists. Values already in the
// process environment take precedence over the file.
func (c *Config) FromEnv(envFile string) error {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return errors.Wrapf(err, "failed to load %s", envFile)
			}
		}
	}

	if c.PropertyID == "" {
		c.PropertyID = strings.TrimSpace(os.Getenv(PropertyIDEnv))
	}
	return nil
}

// Validate checks the configuration is usable for a run.
func (c *Config) Validate() error {
	if c.PropertyID == "" {
		return ErrMissingPropertyID
	}
	if c.CredentialsFile == "" {
		return errors.New("credentials file cannot be empty")
	}
	if len(c.Scopes) == 0 {
		return errors.New("at least one OAuth scope is required")
	}
	if c.Export != nil && c.Export.PubSubTopic != "" && !topicNameRe.MatchString(c.Export.PubSubTopic) {
		return errors.Errorf("invalid topic name %q, expected projects/{project}/topics/{topic}", c.Export.PubSubTopic)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.CredentialsFile == "" {
		c.CredentialsFile = DefaultCredentialsFile
	}
	if len(c.Scopes) == 0 {
		c.Scopes = []string{ReadonlyScope}
	}
	if c.Export == nil {
		c.Export = &Export{}
	}
}
