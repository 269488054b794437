package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nerrad567/brokerstat/internal/infrastructure/config"
	"github.com/nerrad567/brokerstat/internal/infrastructure/database"
	"github.com/nerrad567/brokerstat/internal/infrastructure/influxdb"
	"github.com/nerrad567/brokerstat/internal/infrastructure/logging"
	"github.com/nerrad567/brokerstat/internal/monitor"
)

func testSession() config.SessionConfig {
	return config.SessionConfig{
		Host:             "broker.local:1883",
		ClientName:       "diag",
		CompressionLevel: 1,
	}
}

func testReport() monitor.Report {
	return monitor.Report{
		Snapshot: monitor.Snapshot{Count: 3, Delta: 3, Size: 60, SizeDelta: 60, Skipped: 1},
		Interval: 1,
		Of:       30,
		Time:     time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC),
	}
}

func TestHistorySink(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, config.HistoryConfig{Path: filepath.Join(t.TempDir(), "h.db"), BusyTimeout: 5})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // Test cleanup
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	sink := newHistorySink(db, "run-1", testSession())
	if err := sink.Record(ctx, testReport()); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	rows, err := db.RunReports(ctx, "run-1")
	if err != nil {
		t.Fatalf("RunReports() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("RunReports() returned %d rows, want 1", len(rows))
	}
	got := rows[0]
	if got.ClientName != "diag" || got.Host != "broker.local:1883" || got.Count != 3 || got.SizeDelta != 60 || got.Skipped != 1 || got.Of != 30 {
		t.Errorf("stored row = %+v", got)
	}
}

type fakeWriter struct {
	points []influxdb.Throughput
	err    error
}

func (w *fakeWriter) WriteThroughput(t influxdb.Throughput) error {
	w.points = append(w.points, t)
	return w.err
}

func TestInfluxSink(t *testing.T) {
	w := &fakeWriter{}
	sink := newInfluxSink(w, testSession())

	if err := sink.Record(context.Background(), testReport()); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if len(w.points) != 1 {
		t.Fatalf("wrote %d points, want 1", len(w.points))
	}
	p := w.points[0]
	if p.ClientName != "diag" || p.CompressionLevel != 1 || p.Count != 3 || p.Delta != 3 || p.Size != 60 || p.SizeDelta != 60 {
		t.Errorf("point = %+v", p)
	}
	if !p.Time.Equal(testReport().Time) {
		t.Errorf("point time = %v, want report time", p.Time)
	}
}

func TestInfluxSink_Error(t *testing.T) {
	w := &fakeWriter{err: influxdb.ErrNotConnected}
	sink := newInfluxSink(w, testSession())

	if err := sink.Record(context.Background(), testReport()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("Record() error = %v, want ErrNotConnected", err)
	}
}

func TestOpenSinks(t *testing.T) {
	t.Run("none enabled", func(t *testing.T) {
		out, err := openSinks(context.Background(), config.Default(), logging.Discard())
		if err != nil {
			t.Fatalf("openSinks() error = %v", err)
		}
		defer out.Close()
		if len(out.sinks) != 0 || out.history != nil || out.influx != nil {
			t.Errorf("openSinks() = %+v, want nothing opened", out)
		}
	})

	t.Run("history enabled", func(t *testing.T) {
		cfg := config.Default()
		cfg.History.Enabled = true
		cfg.History.Path = filepath.Join(t.TempDir(), "history.db")

		out, err := openSinks(context.Background(), cfg, logging.Discard())
		if err != nil {
			t.Fatalf("openSinks() error = %v", err)
		}
		defer out.Close()
		if len(out.sinks) != 1 || out.history == nil {
			t.Fatalf("openSinks() returned %d sinks, history %v", len(out.sinks), out.history)
		}
		if err := out.sinks[0].Record(context.Background(), testReport()); err != nil {
			t.Errorf("Record() error = %v", err)
		}
	})

	t.Run("influxdb enabled", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		cfg := config.Default()
		cfg.InfluxDB.Enabled = true
		cfg.InfluxDB.URL = srv.URL

		out, err := openSinks(context.Background(), cfg, logging.Discard())
		if err != nil {
			t.Fatalf("openSinks() error = %v", err)
		}
		defer out.Close()
		if len(out.sinks) != 1 || out.influx == nil {
			t.Fatalf("openSinks() returned %d sinks, influx %v", len(out.sinks), out.influx)
		}
	})

	t.Run("unreachable influxdb", func(t *testing.T) {
		cfg := config.Default()
		cfg.InfluxDB.Enabled = true
		cfg.InfluxDB.URL = "http://127.0.0.1:59999"

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := openSinks(ctx, cfg, logging.Discard()); err == nil {
			t.Error("openSinks() expected error for unreachable InfluxDB")
		}
	})
}

type fakeChecker struct{ err error }

func (c fakeChecker) HealthCheck(context.Context) error { return c.err }

func TestHealthCheck(t *testing.T) {
	var influxUp atomic.Bool
	influxUp.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if !influxUp.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.History.Enabled = true
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")
	cfg.InfluxDB.Enabled = true
	cfg.InfluxDB.URL = srv.URL

	ctx := context.Background()
	out, err := openSinks(ctx, cfg, logging.Discard())
	if err != nil {
		t.Fatalf("openSinks() error = %v", err)
	}
	defer out.Close()

	if err := healthCheck(ctx, fakeChecker{}, out); err != nil {
		t.Fatalf("healthCheck() error = %v, want nil", err)
	}
	if err := healthCheck(ctx, fakeChecker{}, &exporters{}); err != nil {
		t.Errorf("healthCheck() with no exporters error = %v, want nil", err)
	}

	sessionErr := errors.New("not connected")
	err = healthCheck(ctx, fakeChecker{err: sessionErr}, out)
	if !errors.Is(err, sessionErr) || !strings.HasPrefix(err.Error(), "mqtt: ") {
		t.Errorf("healthCheck() error = %v, want mqtt-prefixed session error", err)
	}

	influxUp.Store(false)
	err = healthCheck(ctx, fakeChecker{}, out)
	if err == nil || !strings.HasPrefix(err.Error(), "influxdb: ") {
		t.Errorf("healthCheck() error = %v, want influxdb failure", err)
	}

	if err := out.history.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	err = healthCheck(ctx, fakeChecker{}, out)
	if err == nil || !strings.HasPrefix(err.Error(), "database: ") {
		t.Errorf("healthCheck() error = %v, want database failure first", err)
	}
}
