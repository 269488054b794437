package mqtt

import (
	"fmt"
	"time"
)

// EventType classifies session lifecycle events.
type EventType string

// Session lifecycle events.
const (
	EventUp             EventType = "up"
	EventDown           EventType = "down"
	EventReconnecting   EventType = "reconnecting"
	EventConnectFailed  EventType = "connect_failed"
	EventSubscribeOK    EventType = "subscribe_ok"
	EventSubscribeError EventType = "subscribe_error"
)

// Event is one session lifecycle record placed on the event queue.
type Event struct {
	Type  EventType
	Time  time.Time
	Info  string
	Topic string
	Err   error
}

// String renders the event for log output.
func (e Event) String() string {
	s := string(e.Type)
	if e.Topic != "" {
		s += " topic=" + e.Topic
	}
	if e.Info != "" {
		s += " " + e.Info
	}
	if e.Err != nil {
		s += fmt.Sprintf(" error=%q", e.Err.Error())
	}
	return s
}

func newEvent(t EventType, info string) Event {
	return Event{Type: t, Time: time.Now(), Info: info}
}
