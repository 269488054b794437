package monitor

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnhealthy indicates the session never reached a usable state.
var ErrUnhealthy = errors.New("monitor: session unhealthy")

// Health collects the outcome of connecting and subscribing so the process
// exit status can reflect it.
//
// The session is healthy when the connect succeeded and at least one of the
// attempted subscriptions was accepted.
type Health struct {
	mu sync.Mutex

	connectErr    error
	attempted     int
	subscribed    int
	subscribeErrs []error
}

// RecordConnect records the result of the initial connect.
func (h *Health) RecordConnect(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connectErr = err
}

// RecordSubscribe records the result of one subscription request.
func (h *Health) RecordSubscribe(topic string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.attempted++
	if err != nil {
		h.subscribeErrs = append(h.subscribeErrs, fmt.Errorf("%s: %w", topic, err))
		return
	}
	h.subscribed++
}

// Subscribed returns how many subscriptions were accepted.
func (h *Health) Subscribed() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.subscribed
}

// Err returns nil when healthy and an error wrapping ErrUnhealthy otherwise.
func (h *Health) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.connectErr != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, h.connectErr)
	}
	if h.attempted > 0 && h.subscribed == 0 {
		return fmt.Errorf("%w: no subscription accepted: %w", ErrUnhealthy, errors.Join(h.subscribeErrs...))
	}
	return nil
}
