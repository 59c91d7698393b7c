package mail

import (
	"context"

	"github.com/hararihq/prosperity/internal/logging"
)

// Dispatcher queues messages onto a buffered channel and delivers them from a
// single background worker, keeping SMTP latency out of the request path.
type Dispatcher struct {
	sender Sender
	queue  chan *Message
	logger logging.Logger
}

// NewDispatcher wraps sender with a queue of the given size.
func NewDispatcher(sender Sender, queueSize int, logger logging.Logger) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		queue:  make(chan *Message, queueSize),
		logger: logger,
	}
}

// Run delivers queued messages until ctx is cancelled, then drains whatever
// is already queued before returning.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case msg := <-d.queue:
			d.deliver(ctx, msg)
		case <-ctx.Done():
			for {
				select {
				case msg := <-d.queue:
					d.deliver(context.Background(), msg)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg *Message) {
	if err := d.sender.Send(ctx, msg); err != nil {
		d.logger.Error(ctx, "error sending email", "to", msg.To, "subject", msg.Subject, "error", err)
		return
	}
	d.logger.Debug(ctx, "email sent", "to", msg.To, "subject", msg.Subject)
}

// Enqueue hands a message to the worker without blocking. When the queue is
// full the message is dropped with a log line; welcome and verification mail
// is best-effort and must never stall a signup.
func (d *Dispatcher) Enqueue(ctx context.Context, msg *Message) {
	select {
	case d.queue <- msg:
	default:
		d.logger.Warn(ctx, "mail queue full, dropping message", "to", msg.To, "subject", msg.Subject)
	}
}

// SendSync delivers a message inline, bypassing the queue. Used for password
// reset, where the HTTP response claims the email is on its way.
func (d *Dispatcher) SendSync(ctx context.Context, msg *Message) error {
	return d.sender.Send(ctx, msg)
}
