package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"chitfund-backend/internal/infra/metrics"
)

// Sweeper is the use case surface the billing sweep drives.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// BillingSweeper periodically expires lapsed merchant subscriptions and
// applies queued tier switches.
type BillingSweeper struct {
	interval time.Duration
	timeout  time.Duration
	uc       Sweeper
	log      *zerolog.Logger
}

func NewBillingSweeper(interval time.Duration, uc Sweeper, logger *zerolog.Logger) *BillingSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	compLog := logger.With().Str("component", "BillingSweeper").Logger()
	return &BillingSweeper{
		interval: interval,
		timeout:  time.Minute,
		uc:       uc,
		log:      &compLog,
	}
}

// Run sweeps once on start and then on every tick until ctx is done.
func (w *BillingSweeper) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting billing sweeper")
	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping billing sweeper")
			return ctx.Err()
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *BillingSweeper) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	n, err := w.uc.Sweep(runCtx)
	if err != nil {
		w.log.Error().Err(err).Msg("billing sweep failed")
	}
	if n > 0 {
		metrics.AddMerchantsRefreshed(n)
		w.log.Info().Int("count", n).Msg("merchant billing refreshed")
	}
}
