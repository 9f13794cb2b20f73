package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/betwise-ng/betwise/internal/config"
	"github.com/betwise-ng/betwise/internal/domain"
	"github.com/betwise-ng/betwise/internal/metrics"
	"github.com/betwise-ng/betwise/internal/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Interfaces injected into SettlementService to avoid import cycles
// ──────────────────────────────────────────────────────────────────────────────

// Broadcaster is the minimal interface SettlementService needs from the WS
// hub.  Implemented by ws.Hub.
type Broadcaster interface {
	BroadcastGameFinished(game *domain.Game)
	BroadcastGameCancelled(game *domain.Game)
	BroadcastBetSettled(bet *domain.Bet)
}

// ──────────────────────────────────────────────────────────────────────────────
// SettlementService
// ──────────────────────────────────────────────────────────────────────────────

// SettlementService owns result commitment and bet settlement.  Committing a
// result is one short transaction; each affected bet is then settled in its
// own transaction, so a crash mid-run leaves some bets pending and the rest
// settled, never a half-settled bet.  The periodic sweep finishes what an
// interrupted run left behind.
type SettlementService struct {
	db          *sqlx.DB
	gameRepo    *repository.GameRepository
	betRepo     *repository.BetRepository
	accountRepo *repository.AccountRepository
	cfg         *config.Config
	logger      *slog.Logger
	broadcaster Broadcaster // injected after WS Hub is built
}

// NewSettlementService creates a SettlementService.
func NewSettlementService(
	db *sqlx.DB,
	gameRepo *repository.GameRepository,
	betRepo *repository.BetRepository,
	accountRepo *repository.AccountRepository,
	cfg *config.Config,
	logger *slog.Logger,
) *SettlementService {
	return &SettlementService{
		db:          db,
		gameRepo:    gameRepo,
		betRepo:     betRepo,
		accountRepo: accountRepo,
		cfg:         cfg,
		logger:      logger,
	}
}

// SetBroadcaster injects the WS Hub dependency post-construction.
func (s *SettlementService) SetBroadcaster(b Broadcaster) { s.broadcaster = b }

// ──────────────────────────────────────────────────────────────────────────────
// SetResult — result commitment + eager settlement
// ──────────────────────────────────────────────────────────────────────────────

// SetResult commits the final result of a game and settles every pending bet
// that touches it.  The result transition is one-way: a repeated call returns
// ErrGameAlreadyFinished and changes nothing.
func (s *SettlementService) SetResult(ctx context.Context, gameID uuid.UUID, result domain.Outcome) error {
	if !result.IsValid() {
		return domain.ErrInvalidResult
	}
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return s.gameRepo.SetResult(ctx, tx, gameID, result)
	})
	if err != nil {
		return fmt.Errorf("settlement.SetResult %s: %w", gameID, err)
	}

	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return fmt.Errorf("settlement.SetResult %s: reload: %w", gameID, err)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastGameFinished(game)
	}

	return s.SettlePendingOn(ctx, gameID)
}

// CancelGame voids a game and refunds every pending bet that touches it.
// Accumulators holding a leg on the cancelled game are voided whole; the
// remaining legs are not re-priced.
func (s *SettlementService) CancelGame(ctx context.Context, gameID uuid.UUID) error {
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return s.gameRepo.Cancel(ctx, tx, gameID)
	})
	if err != nil {
		return fmt.Errorf("settlement.CancelGame %s: %w", gameID, err)
	}

	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return fmt.Errorf("settlement.CancelGame %s: reload: %w", gameID, err)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastGameCancelled(game)
	}

	return s.SettlePendingOn(ctx, gameID)
}

// ──────────────────────────────────────────────────────────────────────────────
// SettlePendingOn — per-bet settlement loop for one game
// ──────────────────────────────────────────────────────────────────────────────

// SettlePendingOn evaluates every pending bet carrying a leg on the given
// game.  Multi-leg bets whose other games are still running stay pending.
// One failing bet does not abort the others.
func (s *SettlementService) SettlePendingOn(ctx context.Context, gameID uuid.UUID) error {
	start := time.Now()
	defer func() { metrics.SettlementDuration.Observe(time.Since(start).Seconds()) }()

	bets, err := s.betRepo.GetPendingByGame(ctx, gameID)
	if err != nil {
		return fmt.Errorf("settlement.SettlePendingOn %s: fetch: %w", gameID, err)
	}

	var failed int
	for _, bet := range bets {
		if err := s.settleBet(ctx, bet.ID); err != nil {
			failed++
			s.logger.Error("bet settlement failed",
				"bet_id", bet.ID, "game_id", gameID, "error", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("settlement.SettlePendingOn %s: %d of %d bets failed", gameID, failed, len(bets))
	}
	return nil
}

// settleBet decides and settles a single bet in its own transaction.  The
// pending re-check under the row lock makes concurrent settlement runs
// idempotent: whoever locks first settles, everyone else sees not-pending
// and walks away.  Metrics and the WS notice fire only after the commit;
// a retried or failed attempt must not announce a payout that never landed.
func (s *SettlementService) settleBet(ctx context.Context, betID uuid.UUID) error {
	var settled *domain.Bet
	var entryKind domain.EntryKind

	err := withTxRetry(ctx, s.db, s.cfg.Risk.RetryAttempts, func(tx *sqlx.Tx) error {
		settled = nil
		entryKind = ""

		bet, err := s.betRepo.GetPendingForUpdate(ctx, tx, betID)
		if err != nil {
			if errors.Is(err, domain.ErrBetNotPending) {
				return nil // already settled by a concurrent run
			}
			return err
		}

		ids := make([]uuid.UUID, len(bet.Legs))
		for i, leg := range bet.Legs {
			ids[i] = leg.GameID
		}
		games, err := s.gameRepo.GetMany(ctx, ids)
		if err != nil {
			return err
		}

		decision := bet.Decide(games)
		if decision == domain.DecisionNotReady {
			return nil
		}

		var status domain.BetStatus
		switch decision {
		case domain.DecisionWon:
			status = domain.BetStatusWon
		case domain.DecisionLost:
			status = domain.BetStatusLost
		case domain.DecisionVoid:
			status = domain.BetStatusCancelled
		}
		amount := bet.SettlementAmount(decision)

		if err := s.betRepo.Settle(ctx, tx, bet.ID, status, amount); err != nil {
			return err
		}

		if amount.IsPositive() {
			if _, err := s.accountRepo.GetForUpdate(ctx, tx, bet.AccountID); err != nil {
				return err
			}
			newBalance, err := s.accountRepo.ApplyBalanceChange(ctx, tx, bet.AccountID, amount)
			if err != nil {
				return err
			}
			var entry domain.LedgerEntry
			if decision == domain.DecisionWon {
				entry = domain.NewWinEntry(bet.AccountID, bet.ID, ids[0], amount, newBalance,
					fmt.Sprintf("payout for bet %s", bet.ID))
			} else {
				entry = domain.NewRefundEntry(bet.AccountID, bet.ID, amount, newBalance,
					fmt.Sprintf("stake refund for voided bet %s", bet.ID))
			}
			if err := s.accountRepo.AppendLedger(ctx, tx, &entry); err != nil {
				return err
			}
			entryKind = entry.Kind
		}

		bet.Status = status
		bet.Payout = amount
		settled = bet
		return nil
	})
	if err != nil || settled == nil {
		return err
	}

	metrics.BetsSettled.WithLabelValues(string(settled.Status)).Inc()
	if entryKind != "" {
		metrics.LedgerEntries.WithLabelValues(string(entryKind)).Inc()
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastBetSettled(settled)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Sweep — called by the Scheduler every tick
// ──────────────────────────────────────────────────────────────────────────────

// SweepUnsettled finds finished or cancelled games that still carry pending
// bets and settles them.  This is the safety net behind eager settlement: an
// interrupted run, a crashed process, or a multi waiting on its last leg all
// converge here.
func (s *SettlementService) SweepUnsettled(ctx context.Context) error {
	games, err := s.gameRepo.GetUnsettledFinished(ctx)
	if err != nil {
		return fmt.Errorf("settlement.SweepUnsettled: fetch: %w", err)
	}
	for _, g := range games {
		if err := s.SettlePendingOn(ctx, g.ID); err != nil {
			s.logger.Error("sweep settlement failed", "game_id", g.ID, "error", err)
			// Continue: do not block other games because one failed.
		}
	}
	return nil
}

// MarkLiveGames flips upcoming games past kick-off to live, closing betting.
func (s *SettlementService) MarkLiveGames(ctx context.Context) error {
	n, err := s.gameRepo.MarkLive(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("settlement.MarkLiveGames: %w", err)
	}
	if n > 0 {
		s.logger.Info("games went live", "count", n)
	}
	return nil
}
