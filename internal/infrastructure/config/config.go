package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for brokerstat.
// Values come from defaults, an optional YAML file, environment variables
// and finally command-line flags (applied by the caller).
type Config struct {
	Session       SessionConfig       `yaml:"session"`
	Subscriptions SubscriptionsConfig `yaml:"subscriptions"`
	Report        ReportConfig        `yaml:"report"`
	InfluxDB      InfluxDBConfig      `yaml:"influxdb"`
	History       HistoryConfig       `yaml:"history"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// SessionConfig contains the connection properties handed to the broker client.
type SessionConfig struct {
	// Host is "host", "host:port" or a full broker URL (tcp://, ssl://, ws://, wss://).
	Host string `yaml:"host"`
	TLS  bool   `yaml:"tls"`

	// VPN is the broker-side message namespace. It is sent as a "vpn:username"
	// prefix on the username.
	VPN      string `yaml:"vpn"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	ClientName       string `yaml:"client_name"`
	CompressionLevel int    `yaml:"compression_level"`

	// ConnectRetries is the number of additional initial connect attempts.
	ConnectRetries int           `yaml:"connect_retries"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// ReapplySubscriptions re-issues tracked subscriptions after every reconnect.
	ReapplySubscriptions bool `yaml:"reapply_subscriptions"`

	KeepAlive            time.Duration `yaml:"keep_alive"`
	ReconnectMaxInterval time.Duration `yaml:"reconnect_max_interval"`

	// QueueSize bounds the event and message queues.
	QueueSize int `yaml:"queue_size"`
}

// SubscriptionsConfig lists the topic patterns to subscribe to.
type SubscriptionsConfig struct {
	Topics  []string `yaml:"topics"`
	QoS     int      `yaml:"qos"`
	Confirm bool     `yaml:"confirm"`
}

// ReportConfig controls the reporting loop.
type ReportConfig struct {
	Interval time.Duration `yaml:"interval"`
	Count    int           `yaml:"count"`
}

// InfluxDBConfig contains InfluxDB connection settings for exporting reports.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// HistoryConfig contains the SQLite report history settings.
type HistoryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Environment variable names.
const (
	EnvHost     = "SOL_HOST"
	EnvPassword = "SOL_PASS"

	envPrefix = "BROKERSTAT_"
)

// Default topic patterns: one per message class (ticks and quotes).
const (
	DefaultTickTopic  = "TIC/v1/+/+/+/+"
	DefaultQuoteTopic = "QUO/v1/+/+/+/+"
)

// Validation limits.
const (
	maxCompressionLevel = 9
	maxQoS              = 2
)

// Load builds the configuration.
//
// The loading order is:
//  1. Default values
//  2. YAML file values (skipped when path is empty)
//  3. Environment variable overrides
//
// Validation is left to the caller so command-line flags can be applied first.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	return cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process
// environment. Variables already set are not overwritten. A missing file is
// not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			Host:                 "localhost:1883",
			VPN:                  "default",
			Username:             "brokerstat",
			Password:             "brokerstat",
			ClientName:           "brokerstat",
			CompressionLevel:     1,
			ConnectRetries:       1,
			ConnectTimeout:       3 * time.Second,
			ReapplySubscriptions: true,
			KeepAlive:            30 * time.Second,
			ReconnectMaxInterval: 30 * time.Second,
			QueueSize:            4096,
		},
		Subscriptions: SubscriptionsConfig{
			Topics:  []string{DefaultTickTopic, DefaultQuoteTopic},
			QoS:     0,
			Confirm: true,
		},
		Report: ReportConfig{
			Interval: 60 * time.Second,
			Count:    30,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		History: HistoryConfig{
			Path:        "./data/brokerstat.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "debug",
			Format: "text",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Broker host and password keep their historic SOL_ names; everything else
// follows BROKERSTAT_SECTION_KEY.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvHost); v != "" {
		cfg.Session.Host = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		cfg.Session.Password = v
	}

	if v := os.Getenv(envPrefix + "SESSION_VPN"); v != "" {
		cfg.Session.VPN = v
	}
	if v := os.Getenv(envPrefix + "SESSION_USERNAME"); v != "" {
		cfg.Session.Username = v
	}
	if v := os.Getenv(envPrefix + "SESSION_CLIENT_NAME"); v != "" {
		cfg.Session.ClientName = v
	}
	if v := os.Getenv(envPrefix + "SESSION_TLS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sSESSION_TLS: %w", envPrefix, err)
		}
		cfg.Session.TLS = b
	}

	if v := os.Getenv(envPrefix + "INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := os.Getenv(envPrefix + "HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}

	return nil
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Session.Host) == "" {
		errs = append(errs, "session.host is required (set SOL_HOST)")
	}
	if c.Session.ClientName == "" {
		errs = append(errs, "session.client_name is required")
	}
	if c.Session.CompressionLevel < 0 || c.Session.CompressionLevel > maxCompressionLevel {
		errs = append(errs, "session.compression_level must be between 0 and 9")
	}
	if c.Session.ConnectRetries < 0 {
		errs = append(errs, "session.connect_retries must not be negative")
	}
	if c.Session.ConnectTimeout <= 0 {
		errs = append(errs, "session.connect_timeout must be positive")
	}
	if c.Session.QueueSize < 1 {
		errs = append(errs, "session.queue_size must be at least 1")
	}

	if len(c.Subscriptions.Topics) == 0 {
		errs = append(errs, "subscriptions.topics must not be empty")
	}
	for i, topic := range c.Subscriptions.Topics {
		if strings.TrimSpace(topic) == "" {
			errs = append(errs, fmt.Sprintf("subscriptions.topics[%d] is empty", i))
		}
	}
	if c.Subscriptions.QoS < 0 || c.Subscriptions.QoS > maxQoS {
		errs = append(errs, "subscriptions.qos must be 0, 1, or 2")
	}

	if c.Report.Interval <= 0 {
		errs = append(errs, "report.interval must be positive")
	}
	if c.Report.Count < 0 {
		errs = append(errs, "report.count must not be negative")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.org and influxdb.bucket are required when influxdb is enabled")
		}
	}

	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, "history.path is required when history is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
