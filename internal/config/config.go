// Package config handles configuration for the passkeeper CLI,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the passkeeper CLI.
//
// Fields:
//   - DatabaseDriver: "sqlite" or "postgres".
//   - DatabaseDSN: database connection string for the selected driver.
//   - ImportWaitTimeout: how long an import waits for the sealed box to arrive.
//   - S3RootUser / S3RootPassword: credentials for the S3-compatible backend.
//   - S3Bucket / S3Region / S3BaseEndpoint: object storage settings.
//   - S3PollInterval: how often a remote import polls the bucket.
type Config struct {
	DatabaseDriver    string
	DatabaseDSN       string
	ImportWaitTimeout time.Duration
	S3RootUser        string
	S3RootPassword    string
	S3Bucket          string
	S3Region          string
	S3BaseEndpoint    string
	S3PollInterval    time.Duration
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: The S3 values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "passkeeper.db"
	c.ImportWaitTimeout = 5 * time.Minute
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "transfers"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.S3PollInterval = 3 * time.Second
}

// Load builds a Config by applying defaults and then overlaying values from
// an optional JSON file. Command-line flags are applied afterwards by the
// CLI layer. An empty jsonConfigFile skips the overlay.
func Load(jsonConfigFile string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, jsonConfigFile); err != nil {
		return nil, err
	}
	return cfg, nil
}
