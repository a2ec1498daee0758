// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"chitfund-backend/internal/config"
	"chitfund-backend/internal/domain/model"
	"chitfund-backend/internal/domain/ports/adapter"
	"chitfund-backend/internal/domain/ports/repository"
	"chitfund-backend/internal/infra/adapters/email"
	payAdapters "chitfund-backend/internal/infra/adapters/payment"
	"chitfund-backend/internal/infra/adapters/storage"
	tele "chitfund-backend/internal/infra/adapters/telegram"
	"chitfund-backend/internal/infra/api"
	"chitfund-backend/internal/infra/api/apiv1"
	pg "chitfund-backend/internal/infra/db/postgres"
	"chitfund-backend/internal/infra/logging"
	"chitfund-backend/internal/infra/metrics"
	red "chitfund-backend/internal/infra/redis"
	"chitfund-backend/internal/infra/sched"
	"chitfund-backend/internal/infra/security"
	"chitfund-backend/internal/infra/worker"
	"chitfund-backend/internal/usecase"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, no redaction)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 15*time.Second)

	checks := map[string]api.HealthCheck{
		"postgres": func(ctx context.Context) error { return pool.Ping(ctx) },
	}

	// ---- Repositories ----
	var planRepo repository.PlanRepository = pg.NewPostgresPlanRepo(pool)
	subRepo := pg.NewPostgresSubscriptionRepo(pool)
	payRepo := pg.NewPaymentRepo(pool)
	orderRepo := pg.NewPostgresOrderRepo(pool)
	userRepo := pg.NewPostgresUserRepo(pool)
	merchantRepo := pg.NewPostgresMerchantRepo(pool)
	txm := pg.NewTxManager(pool)

	// ---- Redis (optional: plan cache + order rate limit) ----
	var limiter api.Limiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		planRepo = pg.NewPlanRepoCacheDecorator(planRepo, redisClient, cfg.Redis.TTL, logger)
		limiter = red.NewRateLimiter(redisClient)
		checks["redis"] = redisClient.Ping
	} else {
		logger.Warn().Msg("redis.url not set; plan cache and order rate limiting disabled")
	}

	// ---- Secrets ----
	box, err := security.NewEncryptionService(cfg.Security.EncryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("encryption")
	}
	platform := adapter.Credentials{
		KeyID:     cfg.Payment.Razorpay.KeyID,
		KeySecret: cfg.Payment.Razorpay.KeySecret,
	}

	// ---- Gateway ----
	var gateway adapter.PaymentGateway
	switch cfg.Payment.Provider {
	case "noop":
		logger.Warn().Msg("payment.provider=noop; orders are not sent to a real gateway")
		gateway = payAdapters.NewNoopPaymentGateway()
	default:
		gateway = payAdapters.NewRazorpayGateway(cfg.Payment.Razorpay.BaseURL, cfg.Payment.Razorpay.Timeout)
	}

	// ---- Offline proof storage ----
	var proofs adapter.ProofStore
	if cfg.Storage.S3.Bucket != "" {
		s3store, err := storage.NewS3ProofStore(ctx, cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("s3 proof store")
		}
		proofs = s3store
	} else {
		logger.Warn().Msg("storage.s3.bucket not set; offline proofs are kept in memory")
		proofs = storage.NewMemoryProofStore()
	}

	// ---- Notifications ----
	notifiers := buildNotifiers(cfg, logger)
	notifyPool := worker.NewPool("notifications", cfg.Notification.Workers, logger)
	// The pool outlives the signal context so queued deliveries drain on Stop.
	notifyPool.Start(context.Background())
	defer notifyPool.Stop()

	// ---- Use cases ----
	notifyUC := usecase.NewNotificationUseCase(userRepo, merchantRepo, notifiers, notifyPool, logger)
	policy := model.NewCommissionPolicy(cfg.Commission.RateBps)
	orderUC := usecase.NewOrderUseCase(planRepo, merchantRepo, orderRepo, gateway, platform, box, policy, cfg.Payment.Currency, logger)
	subUC := usecase.NewSubscriptionUseCase(planRepo, subRepo, payRepo, orderRepo, userRepo, merchantRepo, platform, box, notifyUC, txm, logger)
	offlineUC := usecase.NewOfflinePaymentUseCase(planRepo, subRepo, payRepo, userRepo, merchantRepo, proofs, notifyUC, txm, cfg.Payment.Currency, logger)
	withdrawalUC := usecase.NewWithdrawalUseCase(planRepo, subRepo, notifyUC, txm, logger)
	planUC := usecase.NewPlanUseCase(planRepo, merchantRepo, logger)
	billingUC := usecase.NewMerchantBillingUseCase(merchantRepo, planRepo, payRepo, orderRepo, orderUC, platform, box, notifyUC, txm, logger)

	// ---- Billing sweep ----
	if cfg.Jobs.BillingSweepInterval > 0 {
		sweeper := sched.NewBillingSweeper(cfg.Jobs.BillingSweepInterval, billingUC, logger)
		go func() { _ = sweeper.Run(ctx) }()
	}

	// ---- HTTP ----
	srv := api.NewServer(cfg.HTTP.Port, cfg.HTTP.RequestTimeout, checks, logger)
	apiv1.RegisterAPIV1(srv.Router(), apiv1.NewServer(apiv1.Deps{
		Plans:         planUC,
		Orders:        orderUC,
		Subscriptions: subUC,
		Offline:       offlineUC,
		Withdrawals:   withdrawalUC,
		Billing:       billingUC,
		Auth:          api.NewAuthManager(cfg.Security.JWTSecret),
		Limiter:       limiter,
		OrderLimit:    cfg.HTTP.RateLimit,
		OrderWindow:   cfg.HTTP.RateWindow,
		Currency:      cfg.Payment.Currency,
	}, logger))

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	// ---- Graceful shutdown ----
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown requested")
	case err := <-errc:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	logger.Info().Str("version", version).Msg("stopped")
}

// buildNotifiers returns the configured channels, or a logging no-op when none is.
func buildNotifiers(cfg *config.Config, logger *zerolog.Logger) []adapter.Notifier {
	var out []adapter.Notifier
	smtp := cfg.Notification.SMTP
	if smtp.Host != "" {
		out = append(out, email.NewSMTPNotifier(smtp.Host, smtp.Port, smtp.Username, smtp.Password, smtp.From))
	}
	if tok := cfg.Notification.Telegram.Token; tok != "" {
		bot, err := tele.NewBotNotifier(tok)
		if err != nil {
			logger.Error().Err(err).Msg("telegram notifier disabled")
		} else {
			out = append(out, bot)
		}
	}
	if len(out) == 0 {
		logger.Warn().Msg("no notification channel configured; messages are only logged")
		out = append(out, tele.NewNoopNotifier(logger))
	}
	return out
}
