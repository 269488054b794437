// brokerstat is a diagnostic client for a pub/sub market-data broker.
//
// It connects, subscribes to the tick and quote wildcard topics and, once per
// reporting interval, logs how many messages and payload bytes arrived in
// total and since the previous report.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/brokerstat/internal/infrastructure/config"
	"github.com/nerrad567/brokerstat/internal/infrastructure/logging"
	"github.com/nerrad567/brokerstat/internal/infrastructure/mqtt"
	"github.com/nerrad567/brokerstat/internal/monitor"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx, os.Args[1:], os.Stdout)
	cancel()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

// run is the application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Cancelled on SIGINT/SIGTERM
//   - args: Command-line arguments without the program name
//   - stdout: Destination for --help and --version output, and for logs
//     unless logging.output is stderr
//
// Returns:
//   - error: nil on normal completion; see exitCode for the mapping
func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args, stdout)
	if err != nil {
		return err
	}
	if opts.help {
		return nil
	}
	if opts.version {
		fmt.Fprintf(stdout, "brokerstat %s (commit %s, built %s)\n", version, commit, date)
		return nil
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	log := newLogger(cfg.Logging, stdout)
	mqtt.RouteLibraryLogs(log.Logger)

	log.Info("starting brokerstat",
		"version", version,
		"commit", commit,
		"build_date", date,
		"host", cfg.Session.Host,
		"client_name", cfg.Session.ClientName,
		"compression_level", cfg.Session.CompressionLevel,
		"interval", cfg.Report.Interval,
		"intervals", cfg.Report.Count,
	)

	session, err := mqtt.NewSession(cfg.Session)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			log.Error("error closing session", "error", closeErr)
		}
	}()

	out, err := openSinks(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer out.Close()

	counters := monitor.NewCounters()

	// The drains start before connecting so connect failures are logged as
	// they happen.
	drainCtx, stopDrains := context.WithCancel(ctx)
	defer stopDrains()

	g, gctx := errgroup.WithContext(drainCtx)
	g.Go(func() error {
		return monitor.DrainEvents(gctx, session.Events(), log.With("component", "event-drain"))
	})
	g.Go(func() error {
		return monitor.DrainMessages(gctx, session.Messages(), counters, log.With("component", "message-drain"))
	})

	health := &monitor.Health{}
	connectSession(ctx, session, health, log)
	subscribeTopics(ctx, session, cfg.Subscriptions, health, log)
	log.Info("subscriptions complete",
		"accepted", health.Subscribed(),
		"requested", len(cfg.Subscriptions.Topics),
	)

	reporter := monitor.NewReporter(counters, cfg.Report.Interval, cfg.Report.Count,
		log.With("component", "reporter"), out.sinks...)
	reporter.SetHealthCheck(func(ctx context.Context) error {
		return healthCheck(ctx, session, out)
	})

	completed, runErr := reporter.Run(ctx)
	if errors.Is(runErr, context.Canceled) {
		log.Info("shutdown signal received", "completed_intervals", completed)
	}

	stopDrains()
	if err := g.Wait(); err != nil {
		log.Warn("drain loop ended with error", "error", err)
	}

	log.Info("brokerstat stopped",
		"completed_intervals", completed,
		"skipped_messages", counters.Skipped(),
		"dropped_messages", session.Messages().Dropped(),
		"dropped_events", session.Events().Dropped(),
	)

	return health.Err()
}

// loadConfig layers the env file, YAML file, environment and flags.
func loadConfig(opts options) (*config.Config, error) {
	if err := config.LoadEnvFile(opts.envFile); err != nil {
		return nil, fmt.Errorf("loading env file: %w", err)
	}

	path := opts.configPath
	if path == "" {
		path = os.Getenv(envConfigPath)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	opts.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger writes to stdout unless the config asks for stderr.
func newLogger(cfg config.LoggingConfig, stdout io.Writer) *logging.Logger {
	if strings.EqualFold(cfg.Output, "stderr") {
		return logging.New(cfg, version)
	}
	return logging.NewWithWriter(stdout, cfg, version)
}

// connectSession connects and records the outcome. A failure is logged and
// does not stop the run.
func connectSession(ctx context.Context, session *mqtt.Session, health *monitor.Health, log *logging.Logger) {
	err := session.Connect(ctx)
	health.RecordConnect(err)
	if err != nil {
		log.Error("connect failed", "error", err)
		return
	}
	log.Info("connected")
}

// subscribeTopics subscribes to every configured pattern and records each
// outcome. Failures are logged and do not stop the run.
func subscribeTopics(ctx context.Context, session *mqtt.Session, cfg config.SubscriptionsConfig, health *monitor.Health, log *logging.Logger) {
	qos := byte(cfg.QoS) // #nosec G115 -- validated to 0..2
	for _, topic := range cfg.Topics {
		err := session.Subscribe(ctx, topic, qos, cfg.Confirm)
		health.RecordSubscribe(topic, err)
		if err != nil {
			log.Warn("subscribe failed", "topic", topic, "error", err)
			continue
		}
		log.Info("subscribed", "topic", topic, "confirmed", cfg.Confirm)
	}
}

// exitCode maps run's error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return exitFailure
}
