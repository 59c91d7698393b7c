// Package mail builds and delivers the transactional emails the server sends:
// the welcome message, email verification, and password reset. Delivery is
// decoupled from request handling through a small dispatcher; only the
// password-reset flow sends synchronously, because its response must not
// outrun the email.
package mail

import "context"

// Message is one outbound email, already rendered.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a single message. Implementations: SMTPSender for real
// delivery, LogSender when email is disabled.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}
