//go:build !integration

package email

import (
	"context"
	"errors"
	"testing"

	"gopkg.in/gomail.v2"

	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/domain/model"
	"chitfund-backend/internal/domain/ports/adapter"
)

type fakeDialer struct {
	msgs []*gomail.Message
	err  error
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	f.msgs = append(f.msgs, m...)
	return f.err
}

func TestSMTPNotifier_Notify(t *testing.T) {
	ctx := context.Background()

	t.Run("should send a plain text mail", func(t *testing.T) {
		fd := &fakeDialer{}
		n := &SMTPNotifier{dialer: fd, from: "noreply@chit.test"}
		err := n.Notify(ctx, model.Contact{Name: "Asha", Email: "asha@example.com"}, adapter.Message{Subject: "Payment received", Body: "Thanks"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(fd.msgs) != 1 {
			t.Fatalf("expected one message, got %d", len(fd.msgs))
		}
		if got := fd.msgs[0].GetHeader("Subject"); len(got) != 1 || got[0] != "Payment received" {
			t.Errorf("unexpected subject %v", got)
		}
	})

	t.Run("should skip contacts without email", func(t *testing.T) {
		fd := &fakeDialer{}
		n := &SMTPNotifier{dialer: fd, from: "noreply@chit.test"}
		if err := n.Notify(ctx, model.Contact{Name: "NoMail"}, adapter.Message{Body: "x"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(fd.msgs) != 0 {
			t.Errorf("expected no message, got %d", len(fd.msgs))
		}
	})

	t.Run("should wrap delivery failures", func(t *testing.T) {
		fd := &fakeDialer{err: errors.New("535 auth failed")}
		n := &SMTPNotifier{dialer: fd, from: "noreply@chit.test"}
		err := n.Notify(ctx, model.Contact{Email: "asha@example.com"}, adapter.Message{Body: "x"})
		if !errors.Is(err, domain.ErrNotificationFailure) {
			t.Errorf("expected ErrNotificationFailure, got %v", err)
		}
	})
}
