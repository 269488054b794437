package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/brokerstat/internal/infrastructure/logging"
)

// immediate fires at once, so Run does not sleep.
func immediate(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

// never does not fire.
func never(time.Duration) <-chan time.Time {
	return nil
}

type recordingSink struct {
	reports []Report
	err     error
}

func (s *recordingSink) Record(_ context.Context, r Report) error {
	s.reports = append(s.reports, r)
	return s.err
}

func TestReporter_ReportsAndResetsWindow(t *testing.T) {
	counters := NewCounters()
	counters.Add(10)
	counters.Add(20)
	counters.Add(30)

	sink := &recordingSink{}
	log, buf := newTestLogger()
	r := NewReporter(counters, time.Minute, 2, log, sink)
	r.after = immediate

	n, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Run() completed %d intervals, want 2", n)
	}

	if len(sink.reports) != 2 {
		t.Fatalf("sink got %d reports, want 2", len(sink.reports))
	}
	first, second := sink.reports[0], sink.reports[1]
	if first.Snapshot != (Snapshot{Count: 3, Delta: 3, Size: 60, SizeDelta: 60}) {
		t.Errorf("first report = %+v", first.Snapshot)
	}
	if second.Snapshot != (Snapshot{Count: 3, Delta: 0, Size: 60, SizeDelta: 0}) {
		t.Errorf("second report = %+v", second.Snapshot)
	}
	if first.Interval != 1 || second.Interval != 2 || second.Of != 2 {
		t.Errorf("interval numbering = %d,%d of %d", first.Interval, second.Interval, second.Of)
	}

	if n := buf.count("msg count"); n != 2 {
		t.Errorf("logged %d report lines, want 2", n)
	}
	if buf.count("count=3 delta=3 size=60 size_delta=60") != 1 {
		t.Errorf("first report line missing, log:\n%s", buf.String())
	}
}

func TestReporter_CountsBetweenIntervals(t *testing.T) {
	counters := NewCounters()
	counters.Add(4)

	sink := &recordingSink{}
	between := SinkFunc(func(_ context.Context, r Report) error {
		if r.Interval == 1 {
			counters.Add(6)
		}
		return nil
	})

	r := NewReporter(counters, time.Minute, 2, logging.Discard(), sink, between)
	r.after = immediate

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	second := sink.reports[1].Snapshot
	want := Snapshot{Count: 2, Delta: 1, Size: 10, SizeDelta: 6}
	if second != want {
		t.Errorf("second report = %+v, want %+v", second, want)
	}
}

func TestReporter_ZeroCount(t *testing.T) {
	sink := &recordingSink{}
	r := NewReporter(NewCounters(), time.Minute, 0, logging.Discard(), sink)
	r.after = never

	n, err := r.Run(context.Background())
	if err != nil || n != 0 {
		t.Errorf("Run() = %d, %v; want 0, nil", n, err)
	}
	if len(sink.reports) != 0 {
		t.Errorf("sink got %d reports, want 0", len(sink.reports))
	}
}

func TestReporter_StopsOnCancel(t *testing.T) {
	r := NewReporter(NewCounters(), time.Minute, 30, logging.Discard())
	r.after = never

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := r.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if n != 0 {
		t.Errorf("Run() completed %d intervals, want 0", n)
	}
}

func TestReporter_SinkErrorIsLogged(t *testing.T) {
	failing := &recordingSink{err: errors.New("disk full")}
	healthy := &recordingSink{}

	log, buf := newTestLogger()
	r := NewReporter(NewCounters(), time.Minute, 1, log, failing, healthy)
	r.after = immediate

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(healthy.reports) != 1 {
		t.Errorf("healthy sink got %d reports, want 1", len(healthy.reports))
	}
	if buf.count("report sink failed") != 1 {
		t.Errorf("sink failure not logged, log:\n%s", buf.String())
	}
}

func TestReporter_HealthCheck(t *testing.T) {
	log, buf := newTestLogger()
	r := NewReporter(NewCounters(), time.Minute, 2, log)
	r.after = immediate
	r.SetHealthCheck(func(context.Context) error {
		return errors.New("not connected")
	})

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if n := buf.count("session unhealthy"); n != 2 {
		t.Errorf("logged %d health warnings, want 2", n)
	}
}

func TestReporter_UsesInterval(t *testing.T) {
	var got []time.Duration
	r := NewReporter(NewCounters(), 250*time.Millisecond, 1, logging.Discard())
	r.after = func(d time.Duration) <-chan time.Time {
		got = append(got, d)
		return immediate(d)
	}

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(got) != 1 || got[0] != 250*time.Millisecond {
		t.Errorf("after() called with %v, want [250ms]", got)
	}
}

// TestReporter_SkippedTakenAtRoll checks the skip count in a report is the
// one read together with the counters, not a later value.
func TestReporter_SkippedTakenAtRoll(t *testing.T) {
	counters := NewCounters()
	counters.Skip()

	sink := &recordingSink{}
	skipAfterFirst := SinkFunc(func(_ context.Context, r Report) error {
		if r.Interval == 1 {
			counters.Skip()
		}
		return nil
	})

	r := NewReporter(counters, time.Minute, 2, logging.Discard(), sink, skipAfterFirst)
	r.after = immediate

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := sink.reports[0].Skipped; got != 1 {
		t.Errorf("first report Skipped = %d, want 1", got)
	}
	if got := sink.reports[1].Skipped; got != 2 {
		t.Errorf("second report Skipped = %d, want 2", got)
	}
}
