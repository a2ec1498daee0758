package telegram

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"chitfund-backend/internal/domain/model"
	"chitfund-backend/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*NoopNotifier)(nil)

// NoopNotifier logs messages instead of sending them. Used in dev and tests.
type NoopNotifier struct {
	mu   sync.Mutex
	log  *zerolog.Logger
	Sent []adapter.Message
}

func NewNoopNotifier(logger *zerolog.Logger) *NoopNotifier {
	return &NoopNotifier{log: logger}
}

func (n *NoopNotifier) Channel() string { return "noop" }

func (n *NoopNotifier) Notify(ctx context.Context, to model.Contact, msg adapter.Message) error {
	n.mu.Lock()
	n.Sent = append(n.Sent, msg)
	n.mu.Unlock()
	if n.log != nil {
		n.log.Debug().Str("to", to.Name).Str("subject", msg.Subject).Msg("noop notification")
	}
	return nil
}

func (n *NoopNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Sent)
}
