package sweeper

import (
	"context"
	"log/slog"
	"time"

	"sharpii-ledger/internal/metrics"
	"sharpii-ledger/internal/pkg/config"
	"sharpii-ledger/internal/usecase/commands"

	"github.com/robfig/cron/v3"
)

// Sweeper bounds the staleness the lazy expiry path leaves behind: accounts
// nobody touches still get their due batches retired, and holds abandoned by
// a crashed worker are force-released after the timeout. Each account is
// processed independently so one bad account cannot stall the pass.
type Sweeper struct {
	cmds commands.LedgerCommands
	cron *cron.Cron
	cfg  config.LedgerConfig
}

func New(cmds commands.LedgerCommands, cfg config.LedgerConfig) *Sweeper {
	return &Sweeper{
		cmds: cmds,
		cron: cron.New(),
		cfg:  cfg,
	}
}

func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc(s.cfg.SweepSchedule, func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	slog.Info("sweeper started", "schedule", s.cfg.SweepSchedule)
	return nil
}

func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("sweeper stopped")
}

// RunOnce executes one full sweep pass. Exported for the scheduler and for
// operational one-shot runs.
func (s *Sweeper) RunOnce(ctx context.Context) {
	s.sweepDueBatches(ctx)
	s.sweepStaleReservations(ctx)
}

func (s *Sweeper) sweepDueBatches(ctx context.Context) {
	start := time.Now()
	defer func() {
		metrics.SweepDuration.WithLabelValues("due_batches").Observe(time.Since(start).Seconds())
	}()

	accounts, err := s.cmds.DueAccounts(ctx, s.cfg.SweepPageSize)
	if err != nil {
		slog.Error("due batch scan failed", "error", err.Error())
		return
	}

	var retired int64
	for _, accountID := range accounts {
		n, err := s.cmds.ExpireDueBatches(ctx, accountID)
		if err != nil {
			slog.Error("failed to expire due batches",
				"account_id", accountID,
				"error", err.Error())
			continue
		}
		retired += n
	}
	if len(accounts) > 0 {
		slog.Info("due batch sweep finished",
			"accounts", len(accounts),
			"credits_retired", retired)
	}
}

func (s *Sweeper) sweepStaleReservations(ctx context.Context) {
	start := time.Now()
	defer func() {
		metrics.SweepDuration.WithLabelValues("stale_reservations").Observe(time.Since(start).Seconds())
	}()

	ids, err := s.cmds.StaleReservations(ctx, s.cfg.SweepPageSize)
	if err != nil {
		slog.Error("stale reservation scan failed", "error", err.Error())
		return
	}

	released := 0
	for _, id := range ids {
		if err := s.cmds.ReleaseTimedOut(ctx, id); err != nil {
			slog.Error("failed to release stale reservation",
				"reservation_id", id,
				"error", err.Error())
			continue
		}
		released++
	}
	if len(ids) > 0 {
		slog.Info("stale reservation sweep finished", "released", released)
	}
}
