package influxdb

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/brokerstat/internal/infrastructure/config"
)

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second

	defaultBatchSize     = 100
	defaultFlushInterval = 10 * time.Second
)

// Client exports throughput reports to InfluxDB v2.
//
// Points are batched by the library's non-blocking write API, so a report
// never waits on the network. All methods are safe for concurrent use.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI

	closed  atomic.Bool
	onError atomic.Pointer[func(error)]
}

// Connect pings the server at cfg.URL and starts a batched writer for
// cfg.Org and cfg.Bucket.
//
// Returns ErrDisabled when export is off and a wrapped ErrConnectionFailed
// when the ping fails.
func Connect(ctx context.Context, cfg config.InfluxDBConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, writeOptions(cfg))
	if err := ping(ctx, client, connectTimeout); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	c := &Client{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
	}
	go c.forwardWriteErrors(c.writeAPI.Errors())
	return c, nil
}

// writeOptions maps the batch settings onto client options. Unset or
// negative values fall back to the defaults; flush_interval is in seconds.
func writeOptions(cfg config.InfluxDBConfig) *influxdb2.Options {
	batchSize := uint(defaultBatchSize)
	if cfg.BatchSize > 0 {
		batchSize = uint(cfg.BatchSize)
	}
	flush := defaultFlushInterval
	if cfg.FlushInterval > 0 {
		flush = time.Duration(cfg.FlushInterval) * time.Second
	}

	return influxdb2.DefaultOptions().
		SetBatchSize(batchSize).
		SetFlushInterval(uint(flush.Milliseconds()))
}

func ping(ctx context.Context, client influxdb2.Client, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ok, err := client.Ping(pingCtx)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if !ok {
		return errors.New("server not ready")
	}
	return nil
}

func (c *Client) forwardWriteErrors(errs <-chan error) {
	for err := range errs {
		if fn := c.onError.Load(); fn != nil {
			(*fn)(err)
		}
	}
}

// SetOnError sets the callback for asynchronous write failures. A nil
// callback drops them.
func (c *Client) SetOnError(fn func(err error)) {
	if fn == nil {
		c.onError.Store(nil)
		return
	}
	c.onError.Store(&fn)
}

// HealthCheck pings the server. It returns ErrNotConnected after Close.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c == nil || c.client == nil || c.closed.Load() {
		return ErrNotConnected
	}
	if err := ping(ctx, c.client, pingTimeout); err != nil {
		return fmt.Errorf("influxdb health check: %w", err)
	}
	return nil
}

// Close flushes buffered points and releases the client. Later calls are
// no-ops.
func (c *Client) Close() error {
	if c == nil || c.client == nil || c.closed.Swap(true) {
		return nil
	}
	c.writeAPI.Flush()
	c.client.Close()
	return nil
}
