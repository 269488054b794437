package monitor

import "sync/atomic"

// Counters holds the four throughput tallies shared between the message
// drain loop and the reporter.
//
// Cumulative values only grow. Windowed values grow between rolls and are
// reset by Roll, which the reporter calls once per interval.
//
// Thread Safety:
//   - All methods are lock-free and safe for concurrent use.
type Counters struct {
	count      atomic.Uint64
	countDelta atomic.Uint64
	size       atomic.Uint64
	sizeDelta  atomic.Uint64

	// skipped counts messages dropped because they carried no payload.
	skipped atomic.Uint64
}

// Snapshot is a point-in-time reading of Counters.
type Snapshot struct {
	Count     uint64
	Delta     uint64
	Size      uint64
	SizeDelta uint64

	// Skipped is cumulative, like Count.
	Skipped uint64
}

// NewCounters returns zeroed counters.
func NewCounters() *Counters {
	return &Counters{}
}

// Add records one message of n payload bytes.
func (c *Counters) Add(n int) {
	bytes := uint64(n) // #nosec G115 -- payload lengths are never negative
	c.count.Add(1)
	c.countDelta.Add(1)
	c.size.Add(bytes)
	c.sizeDelta.Add(bytes)
}

// Skip records a message that could not be counted.
func (c *Counters) Skip() {
	c.skipped.Add(1)
}

// Skipped returns the number of messages recorded by Skip.
func (c *Counters) Skipped() uint64 {
	return c.skipped.Load()
}

// Snapshot reads all four counters without resetting anything.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Count:     c.count.Load(),
		Delta:     c.countDelta.Load(),
		Size:      c.size.Load(),
		SizeDelta: c.sizeDelta.Load(),
		Skipped:   c.skipped.Load(),
	}
}

// Roll reads all four counters and resets the windowed pair.
//
// Each windowed counter is read and zeroed in a single atomic swap, so an
// increment racing with Roll lands either in this window or the next, never
// in neither.
func (c *Counters) Roll() Snapshot {
	return Snapshot{
		Count:     c.count.Load(),
		Delta:     c.countDelta.Swap(0),
		Size:      c.size.Load(),
		SizeDelta: c.sizeDelta.Swap(0),
		Skipped:   c.skipped.Load(),
	}
}
