package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Account
// ──────────────────────────────────────────────────────────────────────────────

// Account is the domain entity for a registered bettor.  The wallet balance
// is embedded directly on the account row; it is a cached projection over the
// ledger and is mutated only inside the same transaction as a ledger write.
type Account struct {
	ID        uuid.UUID       `json:"id"         db:"id"`
	Email     string          `json:"email"      db:"email"`
	Username  string          `json:"username"   db:"username"`
	Balance   decimal.Decimal `json:"balance"    db:"balance"`
	IsActive  bool            `json:"is_active"  db:"is_active"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Rolling weekly betting limits
// ──────────────────────────────────────────────────────────────────────────────

// BetLimits holds per-account rolling-window wagering limits.  A limit of
// zero means unlimited.  Counters accumulate within the window and reset the
// first time they are checked after ResetsAt has passed — the reset happens
// inside the admission transaction, never as a separate best-effort write.
type BetLimits struct {
	AccountID      uuid.UUID       `json:"account_id"       db:"account_id"`
	MaxWeeklyBets  int             `json:"max_weekly_bets"  db:"max_weekly_bets"`
	MaxWeeklyStake decimal.Decimal `json:"max_weekly_stake" db:"max_weekly_stake"`
	BetCount       int             `json:"bet_count"        db:"bet_count"`
	StakeTotal     decimal.Decimal `json:"stake_total"      db:"stake_total"`
	ResetsAt       time.Time       `json:"resets_at"        db:"resets_at"`
}

// LimitWindow is the length of the rolling limit window.
const LimitWindow = 7 * 24 * time.Hour

// WindowExpired reports whether the counters are stale and must be zeroed
// before checking.
func (l *BetLimits) WindowExpired(now time.Time) bool {
	return !now.Before(l.ResetsAt)
}

// Allows reports whether admitting one more bet with the given stake would
// stay within the configured limits.  Counters must already be current.
func (l *BetLimits) Allows(stake decimal.Decimal) bool {
	if l.MaxWeeklyBets > 0 && l.BetCount+1 > l.MaxWeeklyBets {
		return false
	}
	if l.MaxWeeklyStake.IsPositive() && l.StakeTotal.Add(stake).GreaterThan(l.MaxWeeklyStake) {
		return false
	}
	return true
}

// ──────────────────────────────────────────────────────────────────────────────
// Loss-chasing safeguard
// ──────────────────────────────────────────────────────────────────────────────

// LossChaseFactor is the multiplier over the last lost stake above which a
// new wager needs explicit confirmation.
var LossChaseFactor = decimal.NewFromInt(2)

// ChasesLoss reports whether a new stake trips the behavioural safeguard:
// the account's most recently settled bet was a loss and the new stake
// exceeds twice that lost stake.  lastSettled may be nil (no settled bets).
func ChasesLoss(lastSettled *Bet, stake decimal.Decimal) bool {
	if lastSettled == nil || lastSettled.Status != BetStatusLost {
		return false
	}
	return stake.GreaterThan(lastSettled.Stake.Mul(LossChaseFactor))
}

// ──────────────────────────────────────────────────────────────────────────────
// Withdrawals
// ──────────────────────────────────────────────────────────────────────────────

// WithdrawStatus represents the lifecycle of a withdrawal request.
type WithdrawStatus string

const (
	WithdrawPending  WithdrawStatus = "pending"
	WithdrawApproved WithdrawStatus = "approved"
	WithdrawRejected WithdrawStatus = "rejected"
)

// WithdrawRequest is submitted by an account that wants funds paid out.
// The wallet is only debited on admin approval; a rejected request leaves
// the wallet untouched.  At most one pending request per account.
type WithdrawRequest struct {
	ID          uuid.UUID       `json:"id"           db:"id"`
	AccountID   uuid.UUID       `json:"account_id"   db:"account_id"`
	Amount      decimal.Decimal `json:"amount"       db:"amount"`
	Status      WithdrawStatus  `json:"status"       db:"status"`
	Note        string          `json:"note"         db:"note"`
	ReviewedBy  *uuid.UUID      `json:"reviewed_by"  db:"reviewed_by"`
	ReviewNote  string          `json:"review_note"  db:"review_note"`
	RequestedAt time.Time       `json:"requested_at" db:"requested_at"`
	ReviewedAt  *time.Time      `json:"reviewed_at"  db:"reviewed_at"`
}
