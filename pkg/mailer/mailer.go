// Package mailer sends transactional email over SMTP. When no SMTP host is
// configured the mailer is a no-op so that email-adjacent features degrade
// gracefully in development.
package mailer

import (
	"context"

	"github.com/caseshelf/caseshelf/pkg/config"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/wneessen/go-mail"
)

// Notifier sends a single message to a single recipient.
type Notifier interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// New returns an SMTP-backed Notifier, or a no-op one when cfg.SMTP.Host is
// empty.
func New(cfg *config.Config) Notifier {
	if cfg.SMTP.Host == "" {
		return &noopNotifier{}
	}
	return &smtpNotifier{cfg: cfg}
}

type smtpNotifier struct {
	cfg *config.Config
}

func (n *smtpNotifier) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(n.cfg.SMTP.From); err != nil {
		return errors.WithStack(err)
	}
	if err := msg.To(to); err != nil {
		return errors.WithStack(err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	opts := []mail.Option{
		mail.WithPort(n.cfg.SMTP.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if n.cfg.SMTP.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.cfg.SMTP.Username),
			mail.WithPassword(n.cfg.SMTP.Password),
		)
	}

	client, err := mail.NewClient(n.cfg.SMTP.Host, opts...)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

type noopNotifier struct{}

func (n *noopNotifier) Send(ctx context.Context, to, subject, _ string) error {
	log := logger.FromContext(ctx)
	log.Data(logger.Data{"to": to, "subject": subject}).Info("smtp not configured, dropping email")
	return nil
}
