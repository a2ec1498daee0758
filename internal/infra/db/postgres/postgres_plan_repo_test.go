//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"

	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/domain/model"
)

func TestPostgresPlanRepo_Integration(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresPlanRepo(testPool)

	t.Run("should save, find and update a plan", func(t *testing.T) {
		cleanup(t)
		merchantID, _ := seedAccounts(t)

		// --- Arrange ---
		plan, err := model.NewPlan("plan-1", merchantID, model.PlanDraft{Name: "Gold 12", MonthlyAmount: 50000, DurationMonths: 12})
		if err != nil {
			t.Fatalf("NewPlan: %v", err)
		}

		// --- Act ---
		if err := repo.Save(ctx, nil, plan); err != nil {
			t.Fatalf("Save: %v", err)
		}
		_ = plan.Apply(model.PlanDraft{DurationMonths: 10})
		if err := repo.Save(ctx, nil, plan); err != nil {
			t.Fatalf("Save (update): %v", err)
		}
		found, err := repo.FindByID(ctx, nil, "plan-1")

		// --- Assert ---
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if found.DurationMonths != 10 || found.TotalAmount != 500000 {
			t.Errorf("expected updated plan, got %+v", found)
		}
	})

	t.Run("should search by keyword with pagination and count per merchant", func(t *testing.T) {
		cleanup(t)
		merchantID, _ := seedAccounts(t)
		for _, p := range []struct{ id, name string }{{"p-1", "Gold Saver"}, {"p-2", "Silver Saver"}, {"p-3", "Golden Years"}} {
			plan, _ := model.NewPlan(p.id, merchantID, model.PlanDraft{Name: p.name, MonthlyAmount: 1000, DurationMonths: 6})
			if err := repo.Save(ctx, nil, plan); err != nil {
				t.Fatalf("Save: %v", err)
			}
		}

		plans, total, err := repo.List(ctx, nil, model.PlanFilter{Keyword: "gold", Page: 1, Limit: 1})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if total != 2 || len(plans) != 1 {
			t.Errorf("expected 1 of 2 matches, got %d of %d", len(plans), total)
		}

		count, err := repo.CountByMerchant(ctx, nil, merchantID)
		if err != nil || count != 3 {
			t.Errorf("expected 3 plans for merchant, got %d (%v)", count, err)
		}
	})

	t.Run("should cascade subscriptions on delete", func(t *testing.T) {
		cleanup(t)
		merchantID, userID := seedAccounts(t)
		plan, _ := model.NewPlan("plan-del", merchantID, model.PlanDraft{Name: "Short", MonthlyAmount: 1000, DurationMonths: 3})
		if err := repo.Save(ctx, nil, plan); err != nil {
			t.Fatalf("Save: %v", err)
		}
		subs := NewPostgresSubscriptionRepo(testPool)
		sub, _ := model.NewSubscription("sub-del", plan.ID, userID, 1000, 3, plan.CreatedAt)
		if err := subs.Create(ctx, nil, sub); err != nil {
			t.Fatalf("Create: %v", err)
		}

		if err := repo.Delete(ctx, nil, plan.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}

		if _, err := subs.FindByPlanAndUser(ctx, nil, plan.ID, userID); !errors.Is(err, domain.ErrSubscriptionNotFound) {
			t.Errorf("expected subscription to be gone, got %v", err)
		}
		if err := repo.Delete(ctx, nil, plan.ID); !errors.Is(err, domain.ErrPlanNotFound) {
			t.Errorf("expected ErrPlanNotFound on second delete, got %v", err)
		}
	})
}
