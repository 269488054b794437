package mqtt

import "time"

// Message is one delivered message placed on the message queue.
type Message struct {
	Topic      string
	Payload    []byte
	QoS        byte
	Retained   bool
	Duplicate  bool
	ReceivedAt time.Time
}

// BinaryAttachment returns the message payload. A message without payload
// bytes yields ErrNoAttachment.
func (m Message) BinaryAttachment() ([]byte, error) {
	if len(m.Payload) == 0 {
		return nil, ErrNoAttachment
	}
	return m.Payload, nil
}
