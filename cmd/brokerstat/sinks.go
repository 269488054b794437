package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nerrad567/brokerstat/internal/infrastructure/config"
	"github.com/nerrad567/brokerstat/internal/infrastructure/database"
	"github.com/nerrad567/brokerstat/internal/infrastructure/influxdb"
	"github.com/nerrad567/brokerstat/internal/infrastructure/logging"
	"github.com/nerrad567/brokerstat/internal/monitor"
)

// exporters holds the report sinks opened from config and the clients
// behind them. history and influx are nil when disabled.
type exporters struct {
	sinks   []monitor.Sink
	history *database.DB
	influx  *influxdb.Client
	closers []func()
}

// Close releases everything that was opened, newest first.
func (e *exporters) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	e.closers = nil
}

// openSinks connects the optional report exporters named in cfg. On error
// anything already opened is closed again.
func openSinks(ctx context.Context, cfg *config.Config, log *logging.Logger) (*exporters, error) {
	e := &exporters{}

	if cfg.History.Enabled {
		db, err := database.Open(ctx, cfg.History)
		if err != nil {
			return nil, fmt.Errorf("opening history database: %w", err)
		}
		e.history = db
		e.closers = append(e.closers, func() {
			if err := db.Close(); err != nil {
				log.Error("error closing history database", "error", err)
			}
		})
		if err := db.Migrate(ctx); err != nil {
			e.Close()
			return nil, fmt.Errorf("running history migrations: %w", err)
		}

		runID := uuid.NewString()
		e.sinks = append(e.sinks, newHistorySink(db, runID, cfg.Session))
		log.Info("report history enabled", "path", db.Path(), "run_id", runID)
	}

	if cfg.InfluxDB.Enabled {
		client, err := influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		client.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		e.influx = client
		e.closers = append(e.closers, func() {
			if err := client.Close(); err != nil {
				log.Error("error closing InfluxDB", "error", err)
			}
		})
		e.sinks = append(e.sinks, newInfluxSink(client, cfg.Session))
		log.Info("InfluxDB export enabled", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	return e, nil
}

// healthChecker is anything the reporter can poll between intervals.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// healthCheck verifies the broker session and every enabled exporter.
//
// Returns:
//   - error: First failure, prefixed with the component name, or nil
func healthCheck(ctx context.Context, session healthChecker, e *exporters) error {
	if err := session.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if e.history != nil {
		if err := e.history.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}

	if e.influx != nil {
		if err := e.influx.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// reportStore is the part of database.DB the history sink needs.
type reportStore interface {
	InsertReport(ctx context.Context, r database.IntervalReport) error
}

// historySink appends every report to the SQLite history.
type historySink struct {
	store   reportStore
	runID   string
	session config.SessionConfig
}

func newHistorySink(store reportStore, runID string, session config.SessionConfig) *historySink {
	return &historySink{store: store, runID: runID, session: session}
}

func (s *historySink) Record(ctx context.Context, r monitor.Report) error {
	return s.store.InsertReport(ctx, database.IntervalReport{
		RunID:            s.runID,
		ClientName:       s.session.ClientName,
		Host:             s.session.Host,
		CompressionLevel: s.session.CompressionLevel,
		Interval:         r.Interval,
		Of:               r.Of,
		Count:            r.Count,
		Delta:            r.Delta,
		Size:             r.Size,
		SizeDelta:        r.SizeDelta,
		Skipped:          r.Skipped,
		ReportedAt:       r.Time,
	})
}

// throughputWriter is the part of influxdb.Client the InfluxDB sink needs.
type throughputWriter interface {
	WriteThroughput(t influxdb.Throughput) error
}

// influxSink exports every report as a throughput point.
type influxSink struct {
	writer  throughputWriter
	session config.SessionConfig
}

func newInfluxSink(writer throughputWriter, session config.SessionConfig) *influxSink {
	return &influxSink{writer: writer, session: session}
}

func (s *influxSink) Record(_ context.Context, r monitor.Report) error {
	return s.writer.WriteThroughput(influxdb.Throughput{
		ClientName:       s.session.ClientName,
		Host:             s.session.Host,
		CompressionLevel: s.session.CompressionLevel,
		Count:            r.Count,
		Delta:            r.Delta,
		Size:             r.Size,
		SizeDelta:        r.SizeDelta,
		Time:             r.Time,
	})
}
