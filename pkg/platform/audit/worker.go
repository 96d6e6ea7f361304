package audit

import (
	"context"
	"log/slog"
	"sync"
)

// Emitter decouples request handling from audit delivery. Emit enqueues onto
// a bounded inbox and never blocks; when the inbox is full the event is
// dropped and counted in the log. The worker drains the inbox to the
// configured publisher until the run context is cancelled.
type Emitter struct {
	publisher Publisher
	logger    *slog.Logger
	inbox     chan Event

	closeOnce sync.Once
	done      chan struct{}
}

func NewEmitter(publisher Publisher, logger *slog.Logger, buffer int) *Emitter {
	if buffer <= 0 {
		buffer = 256
	}
	return &Emitter{
		publisher: publisher,
		logger:    logger,
		inbox:     make(chan Event, buffer),
		done:      make(chan struct{}),
	}
}

// Emit enqueues an event for background delivery. Safe to call from any
// request goroutine; a full inbox drops the event rather than stalling the
// request path.
func (e *Emitter) Emit(event Event) {
	select {
	case e.inbox <- event:
	default:
		e.logger.Warn("audit inbox full, dropping event", "action", event.Action)
	}
}

// Run drains the inbox until ctx is cancelled, then flushes whatever is
// already queued. Publisher errors are logged and swallowed: audit delivery
// never fails a request.
func (e *Emitter) Run(ctx context.Context) {
	defer e.closeOnce.Do(func() { close(e.done) })
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case event := <-e.inbox:
					e.publish(event)
				default:
					return
				}
			}
		case event := <-e.inbox:
			e.publish(event)
		}
	}
}

// Done is closed once Run has returned and the final flush is complete.
func (e *Emitter) Done() <-chan struct{} { return e.done }

func (e *Emitter) publish(event Event) {
	if err := e.publisher.Publish(context.Background(), event); err != nil {
		e.logger.Error("failed to publish audit event",
			"error", err,
			"action", event.Action,
		)
	}
}
