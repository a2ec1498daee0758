//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"chitfund-backend/internal/domain/model"
)

func TestPostgresMerchantRepo_Integration(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresMerchantRepo(testPool)

	t.Run("should persist a queued downgrade", func(t *testing.T) {
		cleanup(t)
		merchantID, _ := seedAccounts(t)
		now := time.Now().UTC().Truncate(time.Microsecond)

		m, err := repo.FindByID(ctx, nil, merchantID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if err := m.ApplyRenewal(model.MerchantTierPremium, model.BillingCycleMonthly, now); err != nil {
			t.Fatalf("ApplyRenewal: %v", err)
		}
		if err := m.ApplyRenewal(model.MerchantTierStandard, model.BillingCycleMonthly, now); err != nil {
			t.Fatalf("ApplyRenewal: %v", err)
		}
		if err := repo.Save(ctx, nil, m); err != nil {
			t.Fatalf("Save: %v", err)
		}

		stored, err := repo.FindByID(ctx, nil, merchantID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if stored.Tier != model.MerchantTierPremium || stored.UpcomingTier != model.MerchantTierStandard {
			t.Errorf("expected Premium with Standard queued, got %s / %s", stored.Tier, stored.UpcomingTier)
		}
		if stored.TierSwitchAt == nil || stored.SubscriptionExpiresAt == nil {
			t.Fatal("expected switch and expiry dates")
		}
		if !stored.SubscriptionExpiresAt.Equal(now.AddDate(0, 0, 60)) {
			t.Errorf("expected expiry extended twice, got %v", stored.SubscriptionExpiresAt)
		}
	})
}
