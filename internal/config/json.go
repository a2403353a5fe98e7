package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/passkeeper/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "3s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	DatabaseDriver    string         `json:"database_driver"`
	DatabaseDSN       string         `json:"database_dsn"`
	ImportWaitTimeout timex.Duration `json:"import_wait_timeout"`
	S3RootUser        string         `json:"s3_root_user"`
	S3RootPassword    string         `json:"s3_root_password"`
	S3Bucket          string         `json:"s3_bucket"`
	S3Region          string         `json:"s3_region"`
	S3BaseEndpoint    string         `json:"s3_base_endpoint"`
	S3PollInterval    timex.Duration `json:"s3_poll_interval"`
}

// parseJson overlays configuration values from a JSON file onto the
// provided Config instance. Fields absent from the file keep their current
// values.
func parseJson(config *Config, jsonConfigFile string) error {

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("cannot read config file %s: %w", jsonConfigFile, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("cannot parse config file %s: %w", jsonConfigFile, err)
	}

	if c.DatabaseDriver != "" {
		config.DatabaseDriver = c.DatabaseDriver
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.ImportWaitTimeout.Duration > 0 {
		config.ImportWaitTimeout = time.Duration(c.ImportWaitTimeout.Duration)
	}
	if c.S3RootUser != "" {
		config.S3RootUser = c.S3RootUser
	}
	if c.S3RootPassword != "" {
		config.S3RootPassword = c.S3RootPassword
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
	if c.S3PollInterval.Duration > 0 {
		config.S3PollInterval = time.Duration(c.S3PollInterval.Duration)
	}

	return nil
}
