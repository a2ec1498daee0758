package adapter

import (
	"context"

	"chitfund-backend/internal/domain/model"
)

// Message is a plain-text notification.
type Message struct {
	Subject string
	Body    string
}

// Notifier delivers a message over one channel (email, telegram).
// Implementations return domain.ErrNotificationFailure-wrapped errors and
// skip contacts they cannot address.
type Notifier interface {
	Channel() string
	Notify(ctx context.Context, to model.Contact, msg Message) error
}
