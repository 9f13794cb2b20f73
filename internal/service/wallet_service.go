package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
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
// WalletService
// ──────────────────────────────────────────────────────────────────────────────

// WalletService owns wallet movement outside of betting: deposits,
// withdrawal requests and their review, privileged adjustments, and ledger
// reads.  Every balance change pairs with a ledger entry in one transaction.
type WalletService struct {
	db          *sqlx.DB
	accountRepo *repository.AccountRepository
	cfg         *config.Config
	logger      *slog.Logger
}

// NewWalletService creates a WalletService.
func NewWalletService(db *sqlx.DB, accountRepo *repository.AccountRepository, cfg *config.Config, logger *slog.Logger) *WalletService {
	return &WalletService{db: db, accountRepo: accountRepo, cfg: cfg, logger: logger}
}

// ──────────────────────────────────────────────────────────────────────────────
// TopUp
// ──────────────────────────────────────────────────────────────────────────────

// TopUp credits a deposit.  The payment reference is unique in the ledger, so
// a provider delivering the same callback twice credits the wallet exactly
// once: the second call returns the entry written by the first.
func (s *WalletService) TopUp(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, reference string) (*domain.LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	var entry domain.LedgerEntry
	err := withTxRetry(ctx, s.db, s.cfg.Risk.RetryAttempts, func(tx *sqlx.Tx) error {
		account, err := s.accountRepo.GetForUpdate(ctx, tx, accountID)
		if err != nil {
			return fmt.Errorf("wallet.TopUp: account: %w", err)
		}
		if !account.IsActive {
			return domain.ErrAccountInactive
		}
		newBalance, err := s.accountRepo.ApplyBalanceChange(ctx, tx, accountID, amount)
		if err != nil {
			return fmt.Errorf("wallet.TopUp: credit: %w", err)
		}
		entry = domain.NewTopupEntry(accountID, amount, newBalance, reference, "deposit")
		if err := s.accountRepo.AppendLedger(ctx, tx, &entry); err != nil {
			return err
		}
		return nil
	})
	if errors.Is(err, domain.ErrDuplicateReference) {
		existing, lookupErr := s.accountRepo.GetLedgerByReference(ctx, reference)
		if lookupErr != nil || existing == nil {
			return nil, fmt.Errorf("wallet.TopUp: duplicate lookup: %w", lookupErr)
		}
		return existing, nil
	}
	if err != nil {
		return nil, err
	}
	metrics.LedgerEntries.WithLabelValues(string(domain.EntryTopup)).Inc()
	return &entry, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Withdrawals
// ──────────────────────────────────────────────────────────────────────────────

// RequestWithdraw opens a pending withdrawal request.  The wallet is not
// debited until an operator approves; the balance check here only screens
// out hopeless requests early.  Checks and insert share one transaction
// with the account row locked, and the partial unique index on pending
// requests backstops the one-outstanding-request rule against races this
// lock does not cover.
func (s *WalletService) RequestWithdraw(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, note string) (*domain.WithdrawRequest, error) {
	if !amount.IsPositive() || amount.LessThan(decimal.NewFromFloat(s.cfg.Wallet.MinWithdraw)) {
		return nil, domain.ErrInvalidAmount
	}

	req := &domain.WithdrawRequest{
		ID:          uuid.New(),
		AccountID:   accountID,
		Amount:      amount,
		Status:      domain.WithdrawPending,
		Note:        note,
		RequestedAt: time.Now().UTC(),
	}
	err := withTxRetry(ctx, s.db, s.cfg.Risk.RetryAttempts, func(tx *sqlx.Tx) error {
		account, err := s.accountRepo.GetForUpdate(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if !account.IsActive {
			return domain.ErrAccountInactive
		}
		if account.Balance.LessThan(amount) {
			return domain.ErrInsufficientFunds
		}
		pending, err := s.accountRepo.HasPendingWithdraw(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if pending {
			return domain.ErrWithdrawPending
		}
		if s.cfg.Wallet.MaxDailyWithdraw > 0 {
			today, err := s.accountRepo.WithdrawnToday(ctx, tx, accountID)
			if err != nil {
				return err
			}
			dailyCap := decimal.NewFromFloat(s.cfg.Wallet.MaxDailyWithdraw)
			if today.Add(amount).GreaterThan(dailyCap) {
				return domain.ErrWithdrawLimitExceeded
			}
		}
		return s.accountRepo.CreateWithdrawRequest(ctx, tx, req)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// ReviewWithdraw decides a pending withdrawal request.  Approval debits the
// wallet and writes the ledger entry in the same transaction as the status
// flip; the balance is re-checked under the row lock because it may have
// shrunk since the request was made.  Rejection touches no money.
func (s *WalletService) ReviewWithdraw(ctx context.Context, requestID, reviewerID uuid.UUID, approve bool, note string) (*domain.WithdrawRequest, error) {
	req, err := s.accountRepo.GetWithdrawByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	status := domain.WithdrawRejected
	if approve {
		status = domain.WithdrawApproved
	}

	err = withTxRetry(ctx, s.db, s.cfg.Risk.RetryAttempts, func(tx *sqlx.Tx) error {
		if approve {
			account, err := s.accountRepo.GetForUpdate(ctx, tx, req.AccountID)
			if err != nil {
				return err
			}
			if account.Balance.LessThan(req.Amount) {
				return domain.ErrInsufficientFunds
			}
		}
		if err := s.accountRepo.DecideWithdraw(ctx, tx, requestID, status, reviewerID, note); err != nil {
			return err
		}
		if approve {
			newBalance, err := s.accountRepo.ApplyBalanceChange(ctx, tx, req.AccountID, req.Amount.Neg())
			if err != nil {
				return err
			}
			entry := domain.NewWithdrawalEntry(req.AccountID, req.Amount, newBalance,
				fmt.Sprintf("withdrawal %s approved", req.ID))
			if err := s.accountRepo.AppendLedger(ctx, tx, &entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if approve {
		metrics.LedgerEntries.WithLabelValues(string(domain.EntryWithdrawal)).Inc()
	}

	s.logger.Info("withdrawal reviewed",
		"request_id", requestID, "status", status, "reviewer", reviewerID)
	return s.accountRepo.GetWithdrawByID(ctx, requestID)
}

// ListWithdrawRequests returns withdrawal requests for back-office review.
func (s *WalletService) ListWithdrawRequests(ctx context.Context, status string, limit, offset int) ([]*domain.WithdrawRequest, error) {
	return s.accountRepo.GetWithdrawRequests(ctx, status, limit, offset)
}

// GetWithdraw returns a single withdrawal request owned by accountID.
// Requests belonging to other accounts report ErrWithdrawNotFound.
func (s *WalletService) GetWithdraw(ctx context.Context, accountID, requestID uuid.UUID) (*domain.WithdrawRequest, error) {
	req, err := s.accountRepo.GetWithdrawByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.AccountID != accountID {
		return nil, domain.ErrWithdrawNotFound
	}
	return req, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Admin adjustment
// ──────────────────────────────────────────────────────────────────────────────

// AdminAdjust applies a signed privileged balance change.  A description is
// mandatory; a debit may not take the balance below zero.
func (s *WalletService) AdminAdjust(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (*domain.LedgerEntry, error) {
	if description == "" {
		return nil, domain.ErrDescriptionRequired
	}
	if amount.IsZero() {
		return nil, domain.ErrInvalidAmount
	}

	var entry domain.LedgerEntry
	err := withTxRetry(ctx, s.db, s.cfg.Risk.RetryAttempts, func(tx *sqlx.Tx) error {
		account, err := s.accountRepo.GetForUpdate(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if amount.IsNegative() && account.Balance.Add(amount).IsNegative() {
			return domain.ErrInsufficientFunds
		}
		newBalance, err := s.accountRepo.ApplyBalanceChange(ctx, tx, accountID, amount)
		if err != nil {
			return err
		}
		entry = domain.NewAdminAdjustmentEntry(accountID, amount, newBalance, description)
		return s.accountRepo.AppendLedger(ctx, tx, &entry)
	})
	if err != nil {
		return nil, err
	}
	metrics.LedgerEntries.WithLabelValues(string(entry.Kind)).Inc()
	s.logger.Info("admin adjustment applied",
		"account_id", accountID, "amount", amount, "kind", entry.Kind)
	return &entry, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Reads & reconciliation
// ──────────────────────────────────────────────────────────────────────────────

// GetAccount returns an account with its cached balance.
func (s *WalletService) GetAccount(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	return s.accountRepo.GetByID(ctx, accountID)
}

// GetLedger returns paginated ledger history.
func (s *WalletService) GetLedger(ctx context.Context, accountID uuid.UUID, kind domain.EntryKind, limit, offset int) ([]*domain.LedgerEntry, error) {
	if kind != "" && !kind.IsValid() {
		return nil, domain.ErrInvalidEntryKind
	}
	return s.accountRepo.GetLedgerEntries(ctx, accountID, kind, limit, offset)
}

// GetSummary returns the per-kind ledger totals for an account.
func (s *WalletService) GetSummary(ctx context.Context, accountID uuid.UUID) ([]repository.KindTotal, error) {
	return s.accountRepo.GetLedgerSummary(ctx, accountID)
}

// Reconcile replays an account's full ledger and compares the result with
// the cached balance.  A mismatch means an invariant was broken somewhere
// and is reported as ErrLedgerMismatch, never silently repaired.
func (s *WalletService) Reconcile(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	entries, err := s.accountRepo.GetFullLedger(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	replayed, err := domain.ReplayBalance(decimal.Zero, entries)
	if err != nil {
		return replayed, err
	}
	if !replayed.Equal(account.Balance) {
		s.logger.Error("ledger reconciliation mismatch",
			"account_id", accountID, "cached", account.Balance, "replayed", replayed)
		return replayed, domain.ErrLedgerMismatch
	}
	return replayed, nil
}
