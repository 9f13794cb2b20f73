// Package scheduler manages the three background goroutines that keep the
// platform consistent without operator action:
//  1. lifecycleLoop – flips upcoming games past kick-off to live.
//  2. sweepLoop     – settles pending bets on finished or cancelled games
//     that eager settlement missed (crash, partial run, multi
//     waiting on its last leg).
//  3. exposureLoop  – recomputes the liability snapshot and raises alerts.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/betwise-ng/betwise/internal/config"
	"github.com/betwise-ng/betwise/internal/service"
)

// ──────────────────────────────────────────────────────────────────────────────
// Scheduler
// ──────────────────────────────────────────────────────────────────────────────

// Scheduler wires together the services and runs the background loops.
// Call Start(ctx) once from main(); cancel the context to shut it down
// gracefully.
type Scheduler struct {
	settlementSvc *service.SettlementService
	exposureSvc   *service.ExposureService
	cfg           *config.Config
	logger        *slog.Logger
}

// NewScheduler creates a Scheduler.
func NewScheduler(
	settlementSvc *service.SettlementService,
	exposureSvc *service.ExposureService,
	cfg *config.Config,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		settlementSvc: settlementSvc,
		exposureSvc:   exposureSvc,
		cfg:           cfg,
		logger:        logger,
	}
}

// Start launches the background goroutines.  It returns immediately;
// all loops run until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.lifecycleLoop(ctx)
	go s.sweepLoop(ctx)
	go s.exposureLoop(ctx)
	s.logger.Info("scheduler started",
		"sweep_interval", s.cfg.Risk.SweepInterval,
		"snapshot_interval", s.cfg.Risk.SnapshotInterval)
}

// ──────────────────────────────────────────────────────────────────────────────
// lifecycleLoop
// ──────────────────────────────────────────────────────────────────────────────

// lifecycleLoop closes betting on games whose kick-off time has passed.
// Admission also checks kick-off directly, so this transition is cosmetic
// for correctness but keeps listings honest.
func (s *Scheduler) lifecycleLoop(ctx context.Context) {
	defer s.recoverAndLog("lifecycleLoop")

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("lifecycleLoop: shutting down")
			return
		case <-ticker.C:
			if err := s.settlementSvc.MarkLiveGames(ctx); err != nil {
				s.logger.Error("lifecycleLoop: MarkLiveGames", "err", err)
			}
		}
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// sweepLoop
// ──────────────────────────────────────────────────────────────────────────────

// sweepLoop periodically settles whatever pending bets remain on final games.
// Settlement is idempotent, so overlapping with an eager run is harmless.
func (s *Scheduler) sweepLoop(ctx context.Context) {
	defer s.recoverAndLog("sweepLoop")

	ticker := time.NewTicker(s.cfg.Risk.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweepLoop: shutting down")
			return
		case <-ticker.C:
			if err := s.settlementSvc.SweepUnsettled(ctx); err != nil {
				s.logger.Error("sweepLoop: SweepUnsettled", "err", err)
			}
		}
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// exposureLoop
// ──────────────────────────────────────────────────────────────────────────────

// exposureLoop refreshes the liability snapshot on a fixed cadence.  The
// snapshot is advisory; a failed tick is logged and the next one tries again.
func (s *Scheduler) exposureLoop(ctx context.Context) {
	defer s.recoverAndLog("exposureLoop")

	ticker := time.NewTicker(s.cfg.Risk.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("exposureLoop: shutting down")
			return
		case <-ticker.C:
			if _, err := s.exposureSvc.Snapshot(ctx); err != nil {
				s.logger.Error("exposureLoop: Snapshot", "err", err)
			}
		}
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Panic guard
// ──────────────────────────────────────────────────────────────────────────────

// recoverAndLog keeps a panicking loop from taking down the process.
func (s *Scheduler) recoverAndLog(loop string) {
	if r := recover(); r != nil {
		s.logger.Error("scheduler loop panicked", "loop", loop, "panic", r)
	}
}
