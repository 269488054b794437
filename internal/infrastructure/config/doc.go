// Package config handles loading and validating brokerstat configuration.
//
// This package manages:
//   - Built-in defaults for every setting
//   - Loading an optional YAML file
//   - Loading a local .env file into the environment
//   - Overriding with environment variables (SOL_HOST, SOL_PASS, BROKERSTAT_*)
//   - Validation of the merged result
//
// Security Considerations:
//   - The broker password should be set via SOL_PASS or a .env file, not the YAML file
//   - .env files should have restricted permissions (0600)
//
// Usage:
//
//	_ = config.LoadEnvFile(".env")
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg.Session.ClientName = "diag-01"
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
