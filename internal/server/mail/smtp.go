package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/hararihq/prosperity/internal/server/config"
)

// SMTPSender delivers messages over SMTP with STARTTLS when the server
// offers it.
type SMTPSender struct {
	client *gomail.Client
	from   string
}

// NewSMTPSender builds a sender from the SMTP settings in cfg. Auth is used
// only when a username is configured, so a local relay works without
// credentials.
func NewSMTPSender(cfg *config.Config) (*SMTPSender, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.SMTPPort),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if cfg.SMTPUser != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.SMTPUser),
			gomail.WithPassword(cfg.SMTPPassword),
		)
	}

	client, err := gomail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating smtp client: %w", err)
	}
	return &SMTPSender{client: client, from: cfg.EmailFrom}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	m := gomail.NewMsg()
	if err := m.From(s.from); err != nil {
		return fmt.Errorf("error setting sender: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("error setting recipient: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)

	return s.client.DialAndSendWithContext(ctx, m)
}
