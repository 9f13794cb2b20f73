package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/betwise-ng/betwise/internal/config"
	"github.com/betwise-ng/betwise/internal/domain"
	"github.com/betwise-ng/betwise/internal/metrics"
	"github.com/betwise-ng/betwise/internal/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// AdmissionService
// ──────────────────────────────────────────────────────────────────────────────

// AdmissionService owns wager admission: every check and every money movement
// for placing a bet happens inside one PostgreSQL transaction, so a bet
// record exists if and only if its stake was deducted and its ledger entry
// written.
type AdmissionService struct {
	db          *sqlx.DB
	accountRepo *repository.AccountRepository
	betRepo     *repository.BetRepository
	gameRepo    *repository.GameRepository
	cfg         *config.Config
}

// NewAdmissionService creates an AdmissionService.
func NewAdmissionService(
	db *sqlx.DB,
	accountRepo *repository.AccountRepository,
	betRepo *repository.BetRepository,
	gameRepo *repository.GameRepository,
	cfg *config.Config,
) *AdmissionService {
	return &AdmissionService{
		db:          db,
		accountRepo: accountRepo,
		betRepo:     betRepo,
		gameRepo:    gameRepo,
		cfg:         cfg,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// PlaceBet
// ──────────────────────────────────────────────────────────────────────────────

// PlaceBet validates the request, freezes the current odds into the bet's
// legs, atomically deducts the stake, records the bet and its ledger entry,
// and bumps the account's weekly limit counters.  Checks run in a fixed
// order so a request failing several of them always reports the same error:
// game state first, then limits, then the loss-chasing guard, then balance.
func (s *AdmissionService) PlaceBet(ctx context.Context, req domain.PlaceBetRequest) (*domain.Bet, error) {
	// ── 1. Shape validation, no storage access ──────────────────────────────
	if err := req.ValidateShape(); err != nil {
		metrics.BetsRejected.WithLabelValues("shape").Inc()
		return nil, err
	}
	minStake := decimal.NewFromFloat(s.cfg.Betting.MinStake)
	if req.Stake.LessThan(minStake) {
		metrics.BetsRejected.WithLabelValues("shape").Inc()
		return nil, domain.ErrInvalidStake
	}
	if s.cfg.Betting.MaxStake > 0 {
		maxStake := decimal.NewFromFloat(s.cfg.Betting.MaxStake)
		if req.Stake.GreaterThan(maxStake) {
			metrics.BetsRejected.WithLabelValues("shape").Inc()
			return nil, domain.ErrInvalidStake
		}
	}

	var bet *domain.Bet
	err := withTxRetry(ctx, s.db, s.cfg.Risk.RetryAttempts, func(tx *sqlx.Tx) error {
		var txErr error
		bet, txErr = s.placeBetTx(ctx, tx, req)
		return txErr
	})
	if err != nil {
		if reason := rejectionReason(err); reason != "" {
			metrics.BetsRejected.WithLabelValues(reason).Inc()
		}
		return nil, err
	}

	metrics.BetsPlaced.WithLabelValues(string(bet.Type)).Inc()
	metrics.LedgerEntries.WithLabelValues(string(domain.EntryBet)).Inc()
	return bet, nil
}

// placeBetTx is the transactional body of PlaceBet.
func (s *AdmissionService) placeBetTx(ctx context.Context, tx *sqlx.Tx, req domain.PlaceBetRequest) (*domain.Bet, error) {
	now := time.Now().UTC()

	// ── 2. Lock the account row; all wallet movement serialises here ────────
	account, err := s.accountRepo.GetForUpdate(ctx, tx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("admission.PlaceBet: account: %w", err)
	}
	if !account.IsActive {
		return nil, domain.ErrAccountInactive
	}

	// ── 3. Game state: every leg's game must still be open for betting ──────
	ids := make([]uuid.UUID, len(req.Selections))
	for i, sel := range req.Selections {
		ids[i] = sel.GameID
	}
	games, err := s.gameRepo.GetManyForShare(ctx, tx, ids)
	if err != nil {
		return nil, fmt.Errorf("admission.PlaceBet: games: %w", err)
	}
	legs := make([]domain.Leg, len(req.Selections))
	for i, sel := range req.Selections {
		g := games[sel.GameID]
		if !g.IsBettable(now) {
			return nil, domain.ErrGameNotBettable
		}
		odds, ok := g.Odds.For(sel.Outcome)
		if !ok {
			return nil, domain.ErrOddsUnavailable
		}
		legs[i] = domain.Leg{GameID: sel.GameID, Outcome: sel.Outcome, Odds: odds}
	}

	// ── 4. Weekly limits; stale windows reset inside this transaction ───────
	limits, err := s.accountRepo.GetLimitsForUpdate(ctx, tx, req.AccountID,
		s.cfg.Betting.DefaultMaxWeeklyBets,
		decimal.NewFromFloat(s.cfg.Betting.DefaultMaxWeeklyStake))
	if err != nil {
		return nil, fmt.Errorf("admission.PlaceBet: limits: %w", err)
	}
	if limits.WindowExpired(now) {
		resetsAt := now.Add(domain.LimitWindow)
		if err := s.accountRepo.ResetLimitWindow(ctx, tx, req.AccountID, resetsAt); err != nil {
			return nil, fmt.Errorf("admission.PlaceBet: reset limits: %w", err)
		}
		limits.BetCount = 0
		limits.StakeTotal = decimal.Zero
		limits.ResetsAt = resetsAt
	}
	if !limits.Allows(req.Stake) {
		return nil, domain.ErrLimitExceeded
	}

	// ── 5. Balance: a stake equal to the full balance is still admissible.
	// Checked before the confirmation hook so a broke account hears
	// "insufficient funds" rather than being asked to confirm first. ────────
	if account.Balance.LessThan(req.Stake) {
		return nil, domain.ErrInsufficientFunds
	}

	// ── 6. Loss-chasing guard, waived by explicit confirmation ──────────────
	if !req.Confirmed {
		last, err := s.betRepo.GetLastSettled(ctx, tx, req.AccountID)
		if err != nil {
			return nil, fmt.Errorf("admission.PlaceBet: last settled: %w", err)
		}
		if domain.ChasesLoss(last, req.Stake) {
			return nil, domain.ErrRequiresConfirmation
		}
	}

	newBalance, err := s.accountRepo.ApplyBalanceChange(ctx, tx, req.AccountID, req.Stake.Neg())
	if err != nil {
		return nil, fmt.Errorf("admission.PlaceBet: deduct: %w", err)
	}

	// ── 7. Persist the bet with its frozen odds ─────────────────────────────
	bet := &domain.Bet{
		ID:        uuid.New(),
		AccountID: req.AccountID,
		Type:      req.Type,
		Stake:     req.Stake,
		TotalOdds: domain.TotalOddsOf(legs),
		Legs:      legs,
		Status:    domain.BetStatusPending,
		Payout:    decimal.Zero,
		PlacedAt:  now,
	}
	if err := s.betRepo.Create(ctx, tx, bet); err != nil {
		return nil, fmt.Errorf("admission.PlaceBet: create: %w", err)
	}

	// ── 8. Ledger entry carrying the authoritative balance_after ────────────
	entry := domain.NewBetEntry(req.AccountID, bet.ID, req.Stake, newBalance,
		fmt.Sprintf("stake for %s bet %s", bet.Type, bet.ID))
	if err := s.accountRepo.AppendLedger(ctx, tx, &entry); err != nil {
		return nil, fmt.Errorf("admission.PlaceBet: ledger: %w", err)
	}

	// ── 9. Count this bet against the current limit window ──────────────────
	if err := s.accountRepo.BumpLimitCounters(ctx, tx, req.AccountID, req.Stake); err != nil {
		return nil, fmt.Errorf("admission.PlaceBet: bump limits: %w", err)
	}

	return bet, nil
}

// rejectionReason maps admission errors to the metric label used for the
// rejection counter.  Unknown errors return "" and are not counted.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrRequiresConfirmation):
		return "confirmation"
	case domain.IsValidation(err):
		return "shape"
	case domain.IsNotFound(err):
		return "not_found"
	case domain.IsPrecondition(err):
		return "precondition"
	default:
		return ""
	}
}

// GetBet returns one bet, restricted to its owning account.
func (s *AdmissionService) GetBet(ctx context.Context, accountID, betID uuid.UUID) (*domain.Bet, error) {
	bet, err := s.betRepo.GetByID(ctx, betID)
	if err != nil {
		return nil, err
	}
	if bet.AccountID != accountID {
		return nil, domain.ErrBetNotFound
	}
	return bet, nil
}

// ListBets returns an account's bet history.
func (s *AdmissionService) ListBets(ctx context.Context, accountID uuid.UUID, status domain.BetStatus, limit, offset int) ([]*domain.Bet, error) {
	return s.betRepo.ListByAccount(ctx, accountID, status, limit, offset)
}
