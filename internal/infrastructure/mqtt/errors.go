package mqtt

import "errors"

// Domain-specific errors for broker session operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when the session is not connected.
	ErrNotConnected = errors.New("mqtt: session not connected")

	// ErrConnectionFailed is returned when every initial connect attempt fails.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrSubscribeFailed is returned when the broker rejects or never confirms a subscription.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrInvalidQoS is returned when an invalid QoS level is specified.
	// Valid QoS levels are 0, 1, or 2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic is returned when a topic pattern is empty or malformed.
	ErrInvalidTopic = errors.New("mqtt: invalid topic pattern")

	// ErrInvalidHost is returned when the broker address cannot be turned into a URL.
	ErrInvalidHost = errors.New("mqtt: invalid broker host")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("mqtt: operation timed out")

	// ErrQueueClosed is returned by Receive once a queue is closed and drained.
	ErrQueueClosed = errors.New("mqtt: queue closed")

	// ErrNoAttachment is returned when a delivered message carries no payload.
	ErrNoAttachment = errors.New("mqtt: message has no binary attachment")
)
