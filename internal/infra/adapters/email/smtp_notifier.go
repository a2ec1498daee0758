package email

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/domain/model"
	"chitfund-backend/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*SMTPNotifier)(nil)

// dialer is the subset of *gomail.Dialer used to deliver messages.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPNotifier sends plain-text mail through an SMTP relay.
type SMTPNotifier struct {
	dialer dialer
	from   string
}

func NewSMTPNotifier(host string, port int, username, password, from string) *SMTPNotifier {
	return &SMTPNotifier{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *SMTPNotifier) Channel() string { return "email" }

func (s *SMTPNotifier) Notify(ctx context.Context, to model.Contact, msg adapter.Message) error {
	addr := strings.TrimSpace(to.Email)
	if addr == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	if to.Name != "" {
		m.SetAddressHeader("To", addr, to.Name)
	} else {
		m.SetHeader("To", addr)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("%w: smtp: %v", domain.ErrNotificationFailure, err)
	}
	return nil
}
