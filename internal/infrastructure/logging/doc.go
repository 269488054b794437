// Package logging provides structured logging for brokerstat.
//
// It wraps log/slog with the handler selection, level parsing and default
// fields every component shares:
//
//   - Text output (default) for an operator watching a terminal
//   - JSON output for shipping to a log pipeline
//   - Default fields (service, version) on every record
//
// Configuration comes from the logging section of the YAML file:
//
//	logging:
//	  level: "debug"     # debug, info, warn, error
//	  format: "text"     # text, json
//	  output: "stdout"   # stdout, stderr
//
// The level is deliberately not exposed as a command-line flag.
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("msg count", "count", 3, "delta", 3)
//	sessionLog := logger.With("component", "session")
package logging
