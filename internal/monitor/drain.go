package monitor

import (
	"context"
	"errors"

	"github.com/nerrad567/brokerstat/internal/infrastructure/logging"
	"github.com/nerrad567/brokerstat/internal/infrastructure/mqtt"
)

// EventReceiver is the event side of a broker session.
type EventReceiver interface {
	Receive(ctx context.Context) (mqtt.Event, error)
}

// MessageReceiver is the message side of a broker session.
type MessageReceiver interface {
	Receive(ctx context.Context) (mqtt.Message, error)
}

// DrainEvents logs every event from rx until ctx is cancelled or the queue
// is closed. Receive errors are logged and the loop carries on.
func DrainEvents(ctx context.Context, rx EventReceiver, log *logging.Logger) error {
	for {
		ev, err := rx.Receive(ctx)
		switch {
		case err == nil:
			log.Info("session event", "event", ev.String())
		case errors.Is(err, mqtt.ErrQueueClosed):
			log.Debug("event queue closed")
			return nil
		case ctx.Err() == nil:
			log.Warn("recv event error", "error", err)
		}

		if ctx.Err() != nil {
			log.Debug("event drain stopped")
			return nil
		}
	}
}

// DrainMessages counts every message from rx into counters until ctx is
// cancelled or the queue is closed.
//
// A message without a binary attachment is logged and skipped. Receive
// errors are logged and the loop carries on.
func DrainMessages(ctx context.Context, rx MessageReceiver, counters *Counters, log *logging.Logger) error {
	for {
		msg, err := rx.Receive(ctx)
		switch {
		case err == nil:
			buf, attachErr := msg.BinaryAttachment()
			if attachErr != nil {
				counters.Skip()
				log.Warn("skipping message", "topic", msg.Topic, "error", attachErr)
				break
			}
			counters.Add(len(buf))
		case errors.Is(err, mqtt.ErrQueueClosed):
			log.Debug("message queue closed")
			return nil
		case ctx.Err() == nil:
			log.Warn("recv msg error", "error", err)
		}

		if ctx.Err() != nil {
			log.Debug("message drain stopped")
			return nil
		}
	}
}
