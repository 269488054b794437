package monitor

import (
	"bytes"
	"strings"
	"sync"

	"github.com/nerrad567/brokerstat/internal/infrastructure/config"
	"github.com/nerrad567/brokerstat/internal/infrastructure/logging"
)

// syncBuffer is a bytes.Buffer safe for the concurrent writes of a logger.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) count(substr string) int {
	return strings.Count(b.String(), substr)
}

func newTestLogger() (*logging.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return logging.NewWithWriter(buf, config.LoggingConfig{Level: "debug", Format: "text"}, "test"), buf
}
