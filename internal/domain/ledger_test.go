package domain_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/betwise-ng/betwise/internal/domain"
)

// ── Sign conventions ──────────────────────────────────────────────────────────

func TestLedger_EntrySigns(t *testing.T) {
	acc := uuid.New()
	bet := uuid.New()
	game := uuid.New()
	hundred := decimal.NewFromInt(100)
	bal := decimal.NewFromInt(900)

	stake := domain.NewBetEntry(acc, bet, hundred, bal, "stake")
	if !stake.Amount.Equal(hundred.Neg()) {
		t.Errorf("bet entry amount = %s, want -100", stake.Amount)
	}
	if !stake.Kind.IsDebit() {
		t.Error("bet entry kind must be a debit")
	}

	win := domain.NewWinEntry(acc, bet, game, hundred, bal, "payout")
	if !win.Amount.Equal(hundred) {
		t.Errorf("win entry amount = %s, want 100", win.Amount)
	}

	wd := domain.NewWithdrawalEntry(acc, hundred, bal, "withdrawal")
	if !wd.Amount.Equal(hundred.Neg()) {
		t.Errorf("withdrawal entry amount = %s, want -100", wd.Amount)
	}

	refund := domain.NewRefundEntry(acc, bet, hundred, bal, "void refund")
	if !refund.Amount.Equal(hundred) {
		t.Errorf("refund entry amount = %s, want 100", refund.Amount)
	}
}

func TestLedger_AdminAdjustmentPicksKind(t *testing.T) {
	acc := uuid.New()
	bal := decimal.NewFromInt(50)

	credit := domain.NewAdminAdjustmentEntry(acc, decimal.NewFromInt(25), bal, "goodwill")
	if credit.Kind != domain.EntryAdminCredit {
		t.Errorf("positive adjustment kind = %s, want admin_credit", credit.Kind)
	}
	debit := domain.NewAdminAdjustmentEntry(acc, decimal.NewFromInt(-25), bal, "correction")
	if debit.Kind != domain.EntryAdminDebit {
		t.Errorf("negative adjustment kind = %s, want admin_debit", debit.Kind)
	}
}

func TestLedger_TopupReference(t *testing.T) {
	acc := uuid.New()
	e := domain.NewTopupEntry(acc, decimal.NewFromInt(500), decimal.NewFromInt(500), "tx_abc", "deposit")
	if e.Reference == nil || *e.Reference != "tx_abc" {
		t.Errorf("topup reference not carried: %v", e.Reference)
	}
	noRef := domain.NewTopupEntry(acc, decimal.NewFromInt(500), decimal.NewFromInt(1000), "", "deposit")
	if noRef.Reference != nil {
		t.Error("empty reference must stay nil, not empty string")
	}
}

// ── Replay / reconciliation ───────────────────────────────────────────────────

func TestReplayBalance_ConsistentChain(t *testing.T) {
	acc := uuid.New()
	bet := uuid.New()
	game := uuid.New()

	entries := []domain.LedgerEntry{
		domain.NewTopupEntry(acc, decimal.NewFromInt(1000), decimal.NewFromInt(1000), "tx_1", "deposit"),
		domain.NewBetEntry(acc, bet, decimal.NewFromInt(200), decimal.NewFromInt(800), "stake"),
		domain.NewWinEntry(acc, bet, game, decimal.NewFromInt(500), decimal.NewFromInt(1300), "payout"),
		domain.NewWithdrawalEntry(acc, decimal.NewFromInt(300), decimal.NewFromInt(1000), "withdrawal"),
	}
	final, err := domain.ReplayBalance(decimal.Zero, entries)
	if err != nil {
		t.Fatalf("ReplayBalance() error: %v", err)
	}
	if !final.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("replayed balance = %s, want 1000", final)
	}
}

func TestReplayBalance_DetectsMismatch(t *testing.T) {
	acc := uuid.New()
	entries := []domain.LedgerEntry{
		domain.NewTopupEntry(acc, decimal.NewFromInt(1000), decimal.NewFromInt(1000), "tx_1", "deposit"),
	}
	entries[0].BalanceAfter = decimal.NewFromInt(999)

	_, err := domain.ReplayBalance(decimal.Zero, entries)
	if !errors.Is(err, domain.ErrLedgerMismatch) {
		t.Errorf("ReplayBalance() error = %v, want ErrLedgerMismatch", err)
	}
}

// ── Error predicates ──────────────────────────────────────────────────────────

func TestErrorPredicates(t *testing.T) {
	if !domain.IsNotFound(domain.ErrBetNotFound) {
		t.Error("ErrBetNotFound should satisfy IsNotFound")
	}
	if domain.IsNotFound(domain.ErrInsufficientFunds) {
		t.Error("ErrInsufficientFunds should not satisfy IsNotFound")
	}
	if !domain.IsPrecondition(domain.ErrInsufficientFunds) {
		t.Error("ErrInsufficientFunds should satisfy IsPrecondition")
	}
	if !domain.IsValidation(domain.ErrInvalidStake) {
		t.Error("ErrInvalidStake should satisfy IsValidation")
	}
}
