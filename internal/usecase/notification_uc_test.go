//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"chitfund-backend/internal/domain/ports/adapter"
	"chitfund-backend/internal/infra/worker"
	"chitfund-backend/internal/usecase"
)

func TestNotificationUseCase(t *testing.T) {
	ctx := context.Background()
	msg := adapter.Message{Subject: "Installment received", Body: "Installment 2 of 12 received."}

	t.Run("should deliver to every channel inline without a pool", func(t *testing.T) {
		// --- Arrange ---
		env := newTestEnv()
		_, user, _ := env.seed(t, 3)
		email := &MockNotifier{Name: "email"}
		telegram := &MockNotifier{Name: "telegram"}
		uc := usecase.NewNotificationUseCase(env.users, env.merchants, []adapter.Notifier{email, telegram}, nil, newTestLogger())

		// --- Act ---
		uc.NotifyUser(ctx, user.ID, msg)

		// --- Assert ---
		if len(email.Targets) != 1 || len(telegram.Targets) != 1 {
			t.Fatalf("expected one delivery per channel, got %d/%d", len(email.Targets), len(telegram.Targets))
		}
		if email.Targets[0].Email != "asha@example.com" {
			t.Errorf("unexpected recipient %+v", email.Targets[0])
		}
	})

	t.Run("should keep delivering after a channel fails", func(t *testing.T) {
		env := newTestEnv()
		merchant, _, _ := env.seed(t, 3)
		broken := &MockNotifier{Name: "email", Err: errors.New("smtp down")}
		working := &MockNotifier{Name: "telegram"}
		uc := usecase.NewNotificationUseCase(env.users, env.merchants, []adapter.Notifier{broken, working}, nil, newTestLogger())

		uc.NotifyMerchant(ctx, merchant.ID, msg)

		if len(working.Targets) != 1 || working.Targets[0].Name != merchant.Name {
			t.Errorf("expected the working channel to deliver, got %+v", working.Targets)
		}
	})

	t.Run("should skip unknown recipients", func(t *testing.T) {
		env := newTestEnv()
		email := &MockNotifier{Name: "email"}
		uc := usecase.NewNotificationUseCase(env.users, env.merchants, []adapter.Notifier{email}, nil, newTestLogger())

		uc.NotifyUser(ctx, "ghost", msg)
		uc.NotifyMerchant(ctx, "", msg)

		if len(email.Targets) != 0 {
			t.Errorf("expected no deliveries, got %d", len(email.Targets))
		}
	})

	t.Run("should deliver through the worker pool after the request ends", func(t *testing.T) {
		// --- Arrange ---
		env := newTestEnv()
		_, user, _ := env.seed(t, 3)
		email := &MockNotifier{Name: "email"}
		pool := worker.NewPool("notify-test", 2, newTestLogger())
		pool.Start(context.Background())
		uc := usecase.NewNotificationUseCase(env.users, env.merchants, []adapter.Notifier{email}, pool, newTestLogger())
		reqCtx, cancel := context.WithCancel(ctx)

		// --- Act ---
		uc.NotifyUser(reqCtx, user.ID, msg)
		cancel()
		pool.Stop()

		// --- Assert ---
		if len(email.Targets) != 1 {
			t.Errorf("expected delivery despite the cancelled request, got %d", len(email.Targets))
		}
	})
}
