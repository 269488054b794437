// Package mqtt provides the broker session used by brokerstat.
//
// This package manages:
//   - Connection properties to client options (host, VPN, credentials, timeouts)
//   - A blocking initial connect with a bounded number of attempts
//   - Wildcard subscriptions, optionally confirmed by the broker
//   - Two bounded queues fed by the client library: session events and
//     delivered messages
//   - Re-subscription after reconnect
//
// # Architecture
//
// The wire protocol, reconnection and topic matching belong to
// github.com/eclipse/paho.mqtt.golang. This package only turns its callbacks
// into queue items so the caller can drain them at its own pace:
//
//	paho callbacks ──► Queue[Event]   ──► event drain goroutine
//	               └─► Queue[Message] ──► message drain goroutine
//
// Queue.Receive takes a context, so a drain goroutine blocked on an idle queue
// can always be stopped.
//
// # Usage
//
//	session, err := mqtt.NewSession(cfg.Session)
//	if err != nil {
//	    return err
//	}
//	defer session.Close()
//
//	if err := session.Connect(ctx); err != nil {
//	    log.Warn("connect", "error", err)
//	}
//	_ = session.Subscribe(ctx, "TIC/v1/*/*/*/*", 0, true)
//
//	msg, err := session.Messages().Receive(ctx)
package mqtt
