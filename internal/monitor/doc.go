// Package monitor turns a broker session into throughput statistics.
//
// Three loops cooperate through a shared Counters value and a context:
//
//   - DrainEvents logs every session lifecycle event.
//   - DrainMessages counts delivered messages and payload bytes.
//   - Reporter wakes once per interval, rolls the windowed counters and
//     hands a Report to the log and to any configured sinks.
//
// Cancelling the context passed to the drain loops is the stop signal. The
// queues' Receive honours the context, so a loop parked on an idle queue still
// stops promptly.
package monitor
