// File: internal/usecase/notification_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"chitfund-backend/internal/domain/model"
	"chitfund-backend/internal/domain/ports/adapter"
	"chitfund-backend/internal/domain/ports/repository"
	"chitfund-backend/internal/infra/metrics"
	"chitfund-backend/internal/infra/worker"
)

// Compile-time check
var _ NotificationUseCase = (*notificationUC)(nil)

// NotificationUseCase tells users and merchants about payment events.
// Delivery is best effort and never fails the calling operation.
type NotificationUseCase interface {
	NotifyUser(ctx context.Context, userID string, msg adapter.Message)
	NotifyMerchant(ctx context.Context, merchantID string, msg adapter.Message)
}

const notifyTimeout = 30 * time.Second

type notificationUC struct {
	users     repository.UserRepository
	merchants repository.MerchantRepository
	notifiers []adapter.Notifier
	pool      *worker.Pool
	log       *zerolog.Logger
}

// NewNotificationUseCase fans messages out to every notifier. With a nil pool
// delivery runs inline.
func NewNotificationUseCase(users repository.UserRepository, merchants repository.MerchantRepository, notifiers []adapter.Notifier, pool *worker.Pool, logger *zerolog.Logger) *notificationUC {
	return &notificationUC{users: users, merchants: merchants, notifiers: notifiers, pool: pool, log: logger}
}

func (n *notificationUC) NotifyUser(ctx context.Context, userID string, msg adapter.Message) {
	n.dispatch(ctx, "user", userID, msg, func(ctx context.Context) (model.Contact, error) {
		u, err := n.users.FindByID(ctx, repository.NoTX, userID)
		if err != nil {
			return model.Contact{}, err
		}
		return u.Contact(), nil
	})
}

func (n *notificationUC) NotifyMerchant(ctx context.Context, merchantID string, msg adapter.Message) {
	n.dispatch(ctx, "merchant", merchantID, msg, func(ctx context.Context) (model.Contact, error) {
		m, err := n.merchants.FindByID(ctx, repository.NoTX, merchantID)
		if err != nil {
			return model.Contact{}, err
		}
		return m.Contact(), nil
	})
}

func (n *notificationUC) dispatch(ctx context.Context, kind, id string, msg adapter.Message, contact func(context.Context) (model.Contact, error)) {
	if len(n.notifiers) == 0 || id == "" {
		return
	}
	// The request context ends with the response; delivery must outlive it.
	task := func(_ context.Context) error {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		to, err := contact(dctx)
		if err != nil {
			n.log.Warn().Err(err).Str("recipient_kind", kind).Str("recipient_id", id).Msg("notification recipient lookup failed")
			return nil
		}
		return n.deliver(dctx, to, msg)
	}
	if n.pool == nil {
		_ = task(ctx)
		return
	}
	if err := n.pool.Submit(task); err != nil {
		metrics.IncNotification("queue", "dropped")
		n.log.Warn().Err(err).Str("recipient_kind", kind).Str("recipient_id", id).Msg("notification dropped")
	}
}

func (n *notificationUC) deliver(ctx context.Context, to model.Contact, msg adapter.Message) error {
	var errs []error
	for _, nt := range n.notifiers {
		if err := nt.Notify(ctx, to, msg); err != nil {
			metrics.IncNotification(nt.Channel(), "failed")
			n.log.Warn().Err(err).Str("channel", nt.Channel()).Str("subject", msg.Subject).Msg("notification failed")
			errs = append(errs, err)
			continue
		}
		metrics.IncNotification(nt.Channel(), "sent")
	}
	return errors.Join(errs...)
}
