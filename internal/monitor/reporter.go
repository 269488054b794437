package monitor

import (
	"context"
	"time"

	"github.com/nerrad567/brokerstat/internal/infrastructure/logging"
)

// Report is the outcome of one reporting interval.
type Report struct {
	Snapshot

	// Interval is the 1-based interval number and Of the planned total.
	Interval int
	Of       int

	Time time.Time
}

// Sink receives every Report after it has been logged.
type Sink interface {
	Record(ctx context.Context, r Report) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, r Report) error

// Record calls f.
func (f SinkFunc) Record(ctx context.Context, r Report) error {
	return f(ctx, r)
}

// Reporter periodically logs and exports throughput figures.
type Reporter struct {
	counters *Counters
	interval time.Duration
	count    int
	sinks    []Sink
	log      *logging.Logger

	// health, if set, is checked every interval and logged when failing.
	health func(ctx context.Context) error

	after func(time.Duration) <-chan time.Time
	now   func() time.Time
}

// NewReporter creates a reporter that runs count intervals of interval each.
func NewReporter(counters *Counters, interval time.Duration, count int, log *logging.Logger, sinks ...Sink) *Reporter {
	return &Reporter{
		counters: counters,
		interval: interval,
		count:    count,
		sinks:    sinks,
		log:      log,
		after:    time.After,
		now:      time.Now,
	}
}

// SetHealthCheck installs a check run once per interval. A failing check is
// logged as a warning; it does not stop the reporter.
func (r *Reporter) SetHealthCheck(check func(ctx context.Context) error) {
	r.health = check
}

// Run sleeps one interval, then rolls the counters and emits a report, count
// times in a row.
//
// Returns:
//   - int: number of completed intervals
//   - error: ctx.Err() if ctx ended the run early, nil otherwise
func (r *Reporter) Run(ctx context.Context) (int, error) {
	for i := 1; i <= r.count; i++ {
		select {
		case <-ctx.Done():
			return i - 1, ctx.Err()
		case <-r.after(r.interval):
		}

		rep := Report{
			Snapshot: r.counters.Roll(),
			Interval: i,
			Of:       r.count,
			Time:     r.now(),
		}
		r.emit(ctx, rep)
	}
	return r.count, nil
}

func (r *Reporter) emit(ctx context.Context, rep Report) {
	r.log.Info("msg count",
		"count", rep.Count,
		"delta", rep.Delta,
		"size", rep.Size,
		"size_delta", rep.SizeDelta,
		"interval", rep.Interval,
		"of", rep.Of,
	)

	if r.health != nil {
		if err := r.health(ctx); err != nil {
			r.log.Warn("session unhealthy", "error", err)
		}
	}

	for _, sink := range r.sinks {
		if err := sink.Record(ctx, rep); err != nil {
			r.log.Warn("report sink failed", "interval", rep.Interval, "error", err)
		}
	}
}
