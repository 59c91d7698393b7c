package mail

import (
	"context"

	"github.com/hararihq/prosperity/internal/logging"
)

// LogSender is the delivery backend when email is disabled: it logs the
// message instead of sending it, which keeps local development and CI free of
// SMTP dependencies while still exercising the full dispatch path.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(logger logging.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg *Message) error {
	s.logger.Info(ctx, "email delivery disabled", "to", msg.To, "subject", msg.Subject)
	return nil
}
