package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"chitfund-backend/internal/config"
	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/domain/model"
	"chitfund-backend/internal/infra/api"
	pg "chitfund-backend/internal/infra/db/postgres"
	"chitfund-backend/internal/infra/logging"
	"chitfund-backend/internal/usecase"
)

const (
	demoMerchantID = "merchant-demo"
	demoUserID     = "user-demo"
)

// Seeds one active merchant, one user and a few plans, then prints bearer
// tokens for manual end-to-end testing.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	merchantRepo := pg.NewPostgresMerchantRepo(pool)
	userRepo := pg.NewPostgresUserRepo(pool)
	planRepo := pg.NewPostgresPlanRepo(pool)

	now := time.Now().UTC()
	if _, err := merchantRepo.FindByID(ctx, nil, demoMerchantID); errors.Is(err, domain.ErrMerchantNotFound) {
		m := &model.Merchant{
			ID: demoMerchantID, Name: "Demo Chits", Email: "merchant@example.com",
			KYCStatus: "verified", BankVerified: true,
			SubscriptionStatus: model.MerchantSubscriptionExpired,
			CreatedAt:          now, UpdatedAt: now,
		}
		if err := m.ApplyRenewal(model.MerchantTierStandard, model.BillingCycleYearly, now); err != nil {
			log.Fatalf("activate merchant: %v", err)
		}
		if err := merchantRepo.Save(ctx, nil, m); err != nil {
			log.Fatalf("save merchant: %v", err)
		}
		fmt.Printf("seeded merchant %s (%s, yearly)\n", m.ID, m.Tier)
	} else if err != nil {
		log.Fatalf("find merchant: %v", err)
	}

	if _, err := userRepo.FindByID(ctx, nil, demoUserID); errors.Is(err, domain.ErrUserNotFound) {
		u, err := model.NewUser(demoUserID, "Demo User", "user@example.com", "9000000000")
		if err != nil {
			log.Fatalf("new user: %v", err)
		}
		if err := userRepo.Save(ctx, nil, u); err != nil {
			log.Fatalf("save user: %v", err)
		}
		fmt.Printf("seeded user %s\n", u.ID)
	} else if err != nil {
		log.Fatalf("find user: %v", err)
	}

	planUC := usecase.NewPlanUseCase(planRepo, merchantRepo, logger)
	existing, err := planUC.ListByMerchant(ctx, demoMerchantID)
	if err != nil {
		log.Fatalf("list plans: %v", err)
	}
	if len(existing) > 0 {
		fmt.Printf("%d plans already present. No changes.\n", len(existing))
	} else {
		seed := []model.PlanDraft{
			{Name: "Starter 10", MonthlyAmount: 100000, DurationMonths: 10, ReturnType: "lump-sum"},
			{Name: "Gold 20", MonthlyAmount: 500000, DurationMonths: 20, ReturnType: "lump-sum"},
		}
		for _, d := range seed {
			p, err := planUC.Create(ctx, demoMerchantID, d)
			if err != nil {
				log.Fatalf("create plan %q: %v", d.Name, err)
			}
			fmt.Printf("seeded plan %s (id=%s, monthly=%s INR, months=%d)\n", p.Name, p.ID, model.MajorFromMinor(p.MonthlyAmount), p.DurationMonths)
		}
	}

	auth := api.NewAuthManager(cfg.Security.JWTSecret)
	for _, who := range []struct {
		id   string
		role api.Role
	}{{demoMerchantID, api.RoleMerchant}, {demoUserID, api.RoleUser}} {
		tok, err := auth.Mint(who.id, who.role, 24*time.Hour)
		if err != nil {
			log.Fatalf("mint token: %v", err)
		}
		fmt.Printf("%s token: %s\n", who.role, tok)
	}
	fmt.Println("Seeding complete.")
}
