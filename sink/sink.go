// Package sink provides the bounded outbound queue owned by each
// connected session.
package sink

import (
	"context"
	"log/slog"
	"sync/atomic"

	"chatroom/domain/event"
)

// Sink buffers events between the broadcast engine and one session's
// write pump. Consume never blocks the broadcaster: when the queue is
// full the oldest unsent event is evicted to make room, and the drop
// is counted as a delivery failure.
//
// The channel is never closed. After a disconnect the write pump stops
// draining and late fan-out writes are discarded with the queue, which
// is what makes a broadcast racing a removal safe.
type Sink struct {
	events  chan event.Event
	dropped atomic.Uint64
	log     *slog.Logger
}

func New(log *slog.Logger, bufferSize int) *Sink {
	return &Sink{
		events: make(chan event.Event, bufferSize),
		log:    log,
	}
}

func (s *Sink) Consume(ctx context.Context, e event.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s.events <- e:
			return nil
		default:
		}

		// Queue full: evict the oldest queued event, then retry.
		select {
		case old := <-s.events:
			s.dropped.Add(1)
			s.log.Debug("outbound queue full, dropping oldest event", "event", old.EventType())
		default:
		}
	}
}

// Events is drained by the session's write pump.
func (s *Sink) Events() <-chan event.Event {
	return s.events
}

// Dropped reports how many events were evicted due to back-pressure.
func (s *Sink) Dropped() uint64 {
	return s.dropped.Load()
}
