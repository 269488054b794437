package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// measurementThroughput is the measurement every report is written to.
const measurementThroughput = "broker_throughput"

// Throughput is one reporting interval as exported to InfluxDB.
type Throughput struct {
	ClientName       string
	Host             string
	CompressionLevel int

	Count     uint64
	Delta     uint64
	Size      uint64
	SizeDelta uint64

	Time time.Time
}

// WriteThroughput queues one throughput point. The write is non-blocking;
// failures surface through the SetOnError callback.
//
// Returns:
//   - error: ErrNotConnected after Close
func (c *Client) WriteThroughput(t Throughput) error {
	if c.writeAPI == nil || c.closed.Load() {
		return ErrNotConnected
	}
	c.writeAPI.WritePoint(throughputPoint(t))
	return nil
}

func throughputPoint(t Throughput) *write.Point {
	ts := t.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	return write.NewPoint(
		measurementThroughput,
		map[string]string{
			"client_name":       t.ClientName,
			"host":              t.Host,
			"compression_level": strconv.Itoa(t.CompressionLevel),
		},
		map[string]interface{}{
			"count":      t.Count,
			"delta":      t.Delta,
			"size":       t.Size,
			"size_delta": t.SizeDelta,
		},
		ts,
	)
}
