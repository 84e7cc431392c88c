// Package config provides configuration management for the sync.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file. Defaults come from `default` struct tags.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Log: logging level and format
//   - Database: staging database driver and connection details
//   - CRM: API host, key, connection id, retry and rate limit
//   - Sync: eligibility rules, gating, retention and watch interval
//   - Server: status server port and API key
//   - Storage: MinIO/S3 settings for pass reports
//   - Telemetry, Lock, Events: optional tracing, run lock and outcome events
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.CRM.BaseURL)
package config
