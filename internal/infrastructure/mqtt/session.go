package mqtt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/brokerstat/internal/infrastructure/config"
)

// Session wraps paho.mqtt.golang as a queue-oriented broker session.
//
// Lifecycle callbacks from the library become Events on the event queue and
// delivered messages become Messages on the message queue. Callers drain the
// two queues from their own goroutines.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - When ReapplySubscriptions is set, tracked subscriptions are re-issued
//     on every reconnect.
type Session struct {
	client pahomqtt.Client
	cfg    config.SessionConfig

	events   *Queue[Event]
	messages *Queue[Message]

	// subscriptions tracks filters for re-subscription on reconnect.
	subscriptions map[string]byte
	subMu         sync.RWMutex

	connected atomic.Bool
	// everConnected distinguishes the first connect from reconnects.
	everConnected atomic.Bool
}

// clientFactory builds the underlying library client. Tests replace it.
type clientFactory func(opts *pahomqtt.ClientOptions) pahomqtt.Client

// NewSession builds a session from connection properties without connecting.
//
// Returns:
//   - *Session: Session ready for Connect
//   - error: If the properties cannot be turned into client options
func NewSession(cfg config.SessionConfig) (*Session, error) {
	return newSession(cfg, pahomqtt.NewClient)
}

func newSession(cfg config.SessionConfig, factory clientFactory) (*Session, error) {
	opts, err := buildClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:           cfg,
		events:        NewQueue[Event](cfg.QueueSize),
		messages:      NewQueue[Message](cfg.QueueSize),
		subscriptions: make(map[string]byte),
	}

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		s.handleConnect()
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		s.handleDisconnect(err)
	})
	opts.SetReconnectingHandler(func(_ pahomqtt.Client, _ *pahomqtt.ClientOptions) {
		s.events.Push(newEvent(EventReconnecting, ""))
	})

	s.client = factory(opts)
	return s, nil
}

// Connect performs the blocking initial connect.
//
// Up to 1+ConnectRetries attempts are made, each bounded by ConnectTimeout.
// Every failed attempt is also reported on the event queue.
//
// Returns:
//   - error: wraps ErrConnectionFailed if no attempt succeeded
func (s *Session) Connect(ctx context.Context) error {
	attempts := s.cfg.ConnectRetries + 1
	wait := s.cfg.ConnectTimeout + connectWaitGrace

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
		}

		lastErr = waitToken(ctx, s.client.Connect(), wait)
		if lastErr == nil {
			s.connected.Store(true)
			return nil
		}

		ev := newEvent(EventConnectFailed, fmt.Sprintf("attempt=%d/%d", attempt, attempts))
		ev.Err = lastErr
		s.events.Push(ev)
	}

	return fmt.Errorf("%w: %d attempt(s): %w", ErrConnectionFailed, attempts, lastErr)
}

// handleConnect is called by the library on every successful (re)connect.
func (s *Session) handleConnect() {
	s.connected.Store(true)

	if !s.everConnected.Swap(true) {
		s.events.Push(newEvent(EventUp, "connected"))
		return
	}

	s.events.Push(newEvent(EventUp, "reconnected"))
	if s.cfg.ReapplySubscriptions {
		s.restoreSubscriptions()
	}
}

// handleDisconnect is called by the library when the connection is lost.
func (s *Session) handleDisconnect(err error) {
	s.connected.Store(false)

	ev := newEvent(EventDown, "connection lost")
	ev.Err = err
	s.events.Push(ev)
}

// restoreSubscriptions re-issues all tracked subscriptions. It runs on the
// library's callback goroutine, so acknowledgements are awaited elsewhere.
func (s *Session) restoreSubscriptions() {
	s.subMu.RLock()
	defer s.subMu.RUnlock()

	for filter, qos := range s.subscriptions {
		token := s.client.Subscribe(filter, qos, s.handleMessage)
		go s.reportResubscribe(filter, token)
	}
}

// reportResubscribe pushes the outcome of a restored subscription. A failed
// filter stays tracked so the next reconnect tries it again.
func (s *Session) reportResubscribe(filter string, token pahomqtt.Token) {
	ev := newEvent(EventSubscribeOK, "resubscribed")
	if err := confirmSubscribe(context.Background(), token, filter); err != nil {
		ev = newEvent(EventSubscribeError, "resubscribe")
		ev.Err = err
	}
	ev.Topic = filter
	s.events.Push(ev)
}

// handleMessage moves a delivered message onto the message queue.
func (s *Session) handleMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	s.messages.Push(Message{
		Topic:      msg.Topic(),
		Payload:    msg.Payload(),
		QoS:        msg.Qos(),
		Retained:   msg.Retained(),
		Duplicate:  msg.Duplicate(),
		ReceivedAt: time.Now(),
	})
}

// Events returns the session event queue.
func (s *Session) Events() *Queue[Event] {
	return s.events
}

// Messages returns the delivered message queue.
func (s *Session) Messages() *Queue[Message] {
	return s.messages
}

// Close disconnects from the broker and closes both queues, waking any
// goroutine blocked in Receive.
func (s *Session) Close() error {
	if s.client == nil {
		return nil
	}

	// Also stops a reconnect loop in progress.
	if s.connected.Load() || s.everConnected.Load() {
		s.client.Disconnect(defaultDisconnectQuiesce)
	}
	s.connected.Store(false)

	s.events.Close()
	s.messages.Close()
	return nil
}

// HealthCheck reports whether the session is connected.
func (s *Session) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}

	if !s.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected returns the last known connection state.
func (s *Session) IsConnected() bool {
	return s.client != nil && s.connected.Load() && s.client.IsConnected()
}

// waitToken waits for a library token, the timeout, or ctx, whichever is first.
func waitToken(ctx context.Context, token pahomqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return fmt.Errorf("%w after %v", ErrTimeout, timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}
