package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// EntryKind — closed enum of ledger entry types
// ──────────────────────────────────────────────────────────────────────────────

// EntryKind enumerates the kinds of wallet ledger entries.  The set is closed:
// new kinds require a constructor below, which keeps sign conventions in one
// place instead of scattered switch-on-string sites.
type EntryKind string

const (
	EntryTopup       EntryKind = "topup"        // deposit credit
	EntryBet         EntryKind = "bet"          // stake debit
	EntryWin         EntryKind = "win"          // payout credit
	EntryRefund      EntryKind = "refund"       // stake returned (void/cancel)
	EntryWithdrawal  EntryKind = "withdrawal"   // approved withdrawal debit
	EntryAdminCredit EntryKind = "admin_credit" // privileged credit
	EntryAdminDebit  EntryKind = "admin_debit"  // privileged debit
)

// IsValid returns true for a recognised entry kind.
func (k EntryKind) IsValid() bool {
	switch k {
	case EntryTopup, EntryBet, EntryWin, EntryRefund, EntryWithdrawal,
		EntryAdminCredit, EntryAdminDebit:
		return true
	}
	return false
}

// IsDebit returns true for kinds whose amount is negative.
func (k EntryKind) IsDebit() bool {
	return k == EntryBet || k == EntryWithdrawal || k == EntryAdminDebit
}

// ──────────────────────────────────────────────────────────────────────────────
// LedgerEntry
// ──────────────────────────────────────────────────────────────────────────────

// LedgerEntry is an immutable audit record for one wallet balance change.
// Amount is signed: negative for debits, positive for credits.  BalanceAfter
// is the account balance immediately after the entry was applied; the wallet
// balance column is a cached projection that must always equal the initial
// balance plus the sum of the account's entry amounts.
type LedgerEntry struct {
	ID           uuid.UUID       `json:"id"            db:"id"`
	AccountID    uuid.UUID       `json:"account_id"    db:"account_id"`
	Kind         EntryKind       `json:"kind"          db:"kind"`
	Amount       decimal.Decimal `json:"amount"        db:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after" db:"balance_after"`
	BetID        *uuid.UUID      `json:"bet_id"        db:"bet_id"`
	GameID       *uuid.UUID      `json:"game_id"       db:"game_id"`
	// Reference is the external payment reference for deposits; unique when
	// set, making repeated provider callbacks idempotent.
	Reference   *string   `json:"reference"   db:"reference"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at"  db:"created_at"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Constructors — one per kind, each carrying only the fields relevant to it
// ──────────────────────────────────────────────────────────────────────────────

func newEntry(accountID uuid.UUID, kind EntryKind, amount, balanceAfter decimal.Decimal, desc string) LedgerEntry {
	return LedgerEntry{
		ID:           uuid.New(),
		AccountID:    accountID,
		Kind:         kind,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		Description:  desc,
		CreatedAt:    time.Now().UTC(),
	}
}

// NewTopupEntry records a deposit credit carrying the provider reference.
func NewTopupEntry(accountID uuid.UUID, amount, balanceAfter decimal.Decimal, reference, desc string) LedgerEntry {
	e := newEntry(accountID, EntryTopup, amount, balanceAfter, desc)
	if reference != "" {
		e.Reference = &reference
	}
	return e
}

// NewBetEntry records a stake debit.  The stake is passed positive and stored
// negative.
func NewBetEntry(accountID, betID uuid.UUID, stake, balanceAfter decimal.Decimal, desc string) LedgerEntry {
	e := newEntry(accountID, EntryBet, stake.Neg(), balanceAfter, desc)
	e.BetID = &betID
	return e
}

// NewWinEntry records a payout credit for a won bet.
func NewWinEntry(accountID, betID, gameID uuid.UUID, payout, balanceAfter decimal.Decimal, desc string) LedgerEntry {
	e := newEntry(accountID, EntryWin, payout, balanceAfter, desc)
	e.BetID = &betID
	e.GameID = &gameID
	return e
}

// NewRefundEntry records a stake returned for a voided or cancelled bet.
func NewRefundEntry(accountID, betID uuid.UUID, stake, balanceAfter decimal.Decimal, desc string) LedgerEntry {
	e := newEntry(accountID, EntryRefund, stake, balanceAfter, desc)
	e.BetID = &betID
	return e
}

// NewWithdrawalEntry records an approved withdrawal debit.  The amount is
// passed positive and stored negative.
func NewWithdrawalEntry(accountID uuid.UUID, amount, balanceAfter decimal.Decimal, desc string) LedgerEntry {
	return newEntry(accountID, EntryWithdrawal, amount.Neg(), balanceAfter, desc)
}

// NewAdminAdjustmentEntry records a privileged balance adjustment.  The signed
// amount picks the kind: positive → admin_credit, negative → admin_debit.
// Description is mandatory for adjustments and enforced by the wallet service.
func NewAdminAdjustmentEntry(accountID uuid.UUID, amount, balanceAfter decimal.Decimal, desc string) LedgerEntry {
	kind := EntryAdminCredit
	if amount.IsNegative() {
		kind = EntryAdminDebit
	}
	return newEntry(accountID, kind, amount, balanceAfter, desc)
}

// ──────────────────────────────────────────────────────────────────────────────
// Replay — reconstruct a balance from history
// ──────────────────────────────────────────────────────────────────────────────

// ReplayBalance folds a chronological slice of entries over an initial
// balance and returns the final balance.  It errors out if any entry's
// recorded BalanceAfter disagrees with the running total — the reconciliation
// check behind the "ledger is the source of truth" invariant.
func ReplayBalance(initial decimal.Decimal, entries []LedgerEntry) (decimal.Decimal, error) {
	balance := initial
	for _, e := range entries {
		balance = balance.Add(e.Amount)
		if !balance.Equal(e.BalanceAfter) {
			return balance, ErrLedgerMismatch
		}
	}
	return balance, nil
}
