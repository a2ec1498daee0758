//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"

	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/domain/model"
	"chitfund-backend/internal/domain/ports/repository"
)

func seedPlan(t *testing.T, merchantID string, duration int) *model.Plan {
	t.Helper()
	plan, _ := model.NewPlan("plan-sub", merchantID, model.PlanDraft{Name: "Monthly 500", MonthlyAmount: 50000, DurationMonths: duration})
	if err := NewPostgresPlanRepo(testPool).Save(context.Background(), nil, plan); err != nil {
		t.Fatalf("seed plan: %v", err)
	}
	return plan
}

func TestPostgresSubscriptionRepo_Integration(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresSubscriptionRepo(testPool)
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("should reject a second membership for the same plan and user", func(t *testing.T) {
		cleanup(t)
		merchantID, userID := seedAccounts(t)
		plan := seedPlan(t, merchantID, 3)

		first, _ := model.NewSubscription("sub-1", plan.ID, userID, 50000, 3, now)
		if err := repo.Create(ctx, nil, first); err != nil {
			t.Fatalf("Create: %v", err)
		}
		second, _ := model.NewSubscription("sub-2", plan.ID, userID, 50000, 3, now)
		err := repo.Create(ctx, nil, second)

		if !errors.Is(err, domain.ErrDuplicateSubscription) {
			t.Errorf("expected ErrDuplicateSubscription, got %v", err)
		}
	})

	t.Run("should detect a stale version on update", func(t *testing.T) {
		cleanup(t)
		merchantID, userID := seedAccounts(t)
		plan := seedPlan(t, merchantID, 3)
		sub, _ := model.NewSubscription("sub-1", plan.ID, userID, 50000, 3, now)
		if err := repo.Create(ctx, nil, sub); err != nil {
			t.Fatalf("Create: %v", err)
		}

		// --- Arrange --- two readers of the same row
		a, _ := repo.FindByPlanAndUser(ctx, nil, plan.ID, userID)
		b, _ := repo.FindByPlanAndUser(ctx, nil, plan.ID, userID)

		// --- Act ---
		_ = a.RecordInstallment(50000, 3, now)
		errA := repo.Update(ctx, nil, a)
		_ = b.RecordInstallment(50000, 3, now)
		errB := repo.Update(ctx, nil, b)

		// --- Assert ---
		if errA != nil {
			t.Fatalf("first update: %v", errA)
		}
		if !errors.Is(errB, domain.ErrConcurrentUpdate) {
			t.Errorf("expected ErrConcurrentUpdate, got %v", errB)
		}
		stored, _ := repo.FindByPlanAndUser(ctx, nil, plan.ID, userID)
		if stored.InstallmentsPaid != 2 || stored.TotalPaid != 100000 || stored.Version != 1 {
			t.Errorf("unexpected stored state %+v", stored)
		}
	})

	t.Run("should persist withdrawal and settlement inside a transaction", func(t *testing.T) {
		cleanup(t)
		merchantID, userID := seedAccounts(t)
		plan := seedPlan(t, merchantID, 1)
		sub, _ := model.NewSubscription("sub-1", plan.ID, userID, 50000, 1, now)
		if err := repo.Create(ctx, nil, sub); err != nil {
			t.Fatalf("Create: %v", err)
		}

		tm := NewTxManager(testPool)
		err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			s, err := repo.FindByPlanAndUser(ctx, tx, plan.ID, userID)
			if err != nil {
				return err
			}
			if err := s.RequestWithdrawal(1, model.BankDetails{AccountHolder: "Asha", AccountNumber: "001", IFSC: "SBIN0001"}, "", now); err != nil {
				return err
			}
			if err := repo.Update(ctx, tx, s); err != nil {
				return err
			}
			if err := s.Settle(model.SettlementDetails{Amount: 50000, TransactionID: "UTR123", SettledAt: now, SettledBy: merchantID}); err != nil {
				return err
			}
			return repo.Update(ctx, tx, s)
		})
		if err != nil {
			t.Fatalf("WithTx: %v", err)
		}

		stored, _ := repo.FindByPlanAndUser(ctx, nil, plan.ID, userID)
		if stored.Status != model.SubscriptionStatusSettled || stored.Withdrawal == nil || stored.Settlement == nil {
			t.Fatalf("expected settled subscription, got %+v", stored)
		}
		if stored.Settlement.TransactionID != "UTR123" || stored.Withdrawal.BankDetails.IFSC != "SBIN0001" {
			t.Errorf("unexpected details %+v %+v", stored.Withdrawal, stored.Settlement)
		}

		byPlan, err := repo.ListByPlans(ctx, nil, []string{plan.ID})
		if err != nil || len(byPlan) != 1 {
			t.Errorf("expected one subscription by plan, got %d (%v)", len(byPlan), err)
		}
	})
}
