package mqtt

import (
	"context"
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Subscribe registers interest in a topic pattern.
//
// The pattern may use MQTT ("+", "#") or SMF-style ("*", ">") wildcards; see
// ToFilter. Delivered messages land on the session's message queue.
//
// With confirm set, Subscribe blocks until the broker acknowledges the
// subscription and reports the outcome both as the returned error and as an
// event. Without confirm, the request is sent and Subscribe returns at once.
//
// Subscribe is attempted even if the session is not connected; the library
// then fails the request and the failure is returned.
//
// Parameters:
//   - ctx: Cancels the wait for the acknowledgement
//   - pattern: Topic pattern to subscribe to
//   - qos: Maximum QoS level for delivered messages (0, 1, or 2)
//   - confirm: Wait for broker acknowledgement
func (s *Session) Subscribe(ctx context.Context, pattern string, qos byte, confirm bool) error {
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	filter, err := ToFilter(pattern)
	if err != nil {
		return err
	}

	s.subMu.Lock()
	s.subscriptions[filter] = qos
	s.subMu.Unlock()

	token := s.client.Subscribe(filter, qos, s.handleMessage)
	if !confirm {
		return nil
	}

	if err := confirmSubscribe(ctx, token, filter); err != nil {
		return s.subscribeFailed(filter, err)
	}

	ev := newEvent(EventSubscribeOK, "")
	ev.Topic = filter
	s.events.Push(ev)
	return nil
}

// subscribeFailed untracks the filter, reports the failure and wraps err.
func (s *Session) subscribeFailed(filter string, err error) error {
	s.subMu.Lock()
	delete(s.subscriptions, filter)
	s.subMu.Unlock()

	ev := newEvent(EventSubscribeError, "")
	ev.Topic = filter
	ev.Err = err
	s.events.Push(ev)

	return fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, filter, err)
}

// confirmSubscribe waits for the SUBACK of filter and checks it was granted.
func confirmSubscribe(ctx context.Context, token pahomqtt.Token, filter string) error {
	if err := waitToken(ctx, token, defaultSubscribeTimeout); err != nil {
		return err
	}
	if code, rejected := rejectedCode(token, filter); rejected {
		return fmt.Errorf("broker returned code 0x%02x", code)
	}
	return nil
}

// resultToken is implemented by the library's subscribe token.
type resultToken interface {
	Result() map[string]byte
}

// rejectedCode reports whether the SUBACK rejected filter.
func rejectedCode(token any, filter string) (byte, bool) {
	rt, ok := token.(resultToken)
	if !ok {
		return 0, false
	}
	code, ok := rt.Result()[filter]
	if !ok {
		return 0, false
	}
	return code, code == subackFailure
}

// SubscriptionCount returns the number of tracked subscriptions.
func (s *Session) SubscriptionCount() int {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	return len(s.subscriptions)
}

// HasSubscription checks if a subscription exists for the exact filter.
func (s *Session) HasSubscription(filter string) bool {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	_, exists := s.subscriptions[filter]
	return exists
}
