package domain

import (
	"errors"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sentinel errors — compare with errors.Is()
// ──────────────────────────────────────────────────────────────────────────────

// Admission errors
var (
	// ErrInvalidStake is returned when the stake is zero or negative.
	ErrInvalidStake = errors.New("stake must be a positive amount")

	// ErrInvalidLegSet is returned when the selections are malformed: wrong
	// leg count for the bet type, duplicate games, or an unknown outcome.
	ErrInvalidLegSet = errors.New("invalid bet selections")

	// ErrGameNotBettable is returned when a referenced game is not upcoming
	// or its kick-off time has passed.
	ErrGameNotBettable = errors.New("betting is closed for this game")

	// ErrOddsUnavailable is returned when a game carries no usable odds for
	// the predicted outcome at admission time.
	ErrOddsUnavailable = errors.New("odds unavailable for the selected outcome")

	// ErrInsufficientFunds is returned when the wallet balance cannot cover
	// the stake or a withdrawal/debit amount.
	ErrInsufficientFunds = errors.New("insufficient wallet balance")

	// ErrLimitExceeded is returned when a configured weekly bet-count or
	// stake-amount limit would be breached.
	ErrLimitExceeded = errors.New("weekly betting limit exceeded")

	// ErrRequiresConfirmation is returned when the loss-chasing safeguard
	// trips; the caller may resubmit the same request with Confirmed set.
	ErrRequiresConfirmation = errors.New("stake requires explicit confirmation")
)

// Game errors
var (
	// ErrGameNotFound is returned when no game matches the given criteria.
	ErrGameNotFound = errors.New("game not found")

	// ErrGameAlreadyFinished is returned when trying to cancel or re-resolve
	// a game with a committed result.
	ErrGameAlreadyFinished = errors.New("game already has a result")

	// ErrGameAlreadyCancelled is returned when cancelling a cancelled game.
	ErrGameAlreadyCancelled = errors.New("game is already cancelled")

	// ErrInvalidOdds is returned when an upsert carries odds below 1.
	ErrInvalidOdds = errors.New("odds must be at least 1 for every outcome")

	// ErrMissingTeams is returned when a game upsert omits a team name.
	ErrMissingTeams = errors.New("home and away team are required")

	// ErrSameTeams is returned when a game names the same team twice.
	ErrSameTeams = errors.New("home and away team cannot be the same")

	// ErrInvalidGameStatus is returned for an unrecognized status filter.
	ErrInvalidGameStatus = errors.New("unknown game status")

	// ErrInvalidResult is returned when a declared result is not a valid outcome.
	ErrInvalidResult = errors.New("result must be home, away or draw")
)

// Bet errors
var (
	// ErrBetNotFound is returned when no bet matches the given criteria.
	ErrBetNotFound = errors.New("bet not found")

	// ErrBetNotPending is returned when settlement or refund is attempted on
	// a bet that already left the pending state.
	ErrBetNotPending = errors.New("bet is not pending")
)

// Account / wallet errors
var (
	// ErrAccountNotFound is returned when no account matches the given id.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountInactive is returned when a suspended account acts.
	ErrAccountInactive = errors.New("account is inactive")

	// ErrInvalidAmount is returned for a non-positive top-up or withdrawal.
	ErrInvalidAmount = errors.New("amount must be a positive amount")

	// ErrInvalidEntryKind is returned for an unrecognised ledger kind filter.
	ErrInvalidEntryKind = errors.New("unknown ledger entry kind")

	// ErrWithdrawPending is returned when an account already has an
	// outstanding withdrawal request.
	ErrWithdrawPending = errors.New("a withdrawal request is already pending")

	// ErrWithdrawLimitExceeded is returned when a request would push the
	// account past its daily withdrawal cap.
	ErrWithdrawLimitExceeded = errors.New("daily withdrawal limit exceeded")

	// ErrWithdrawNotPending is returned when reviewing a request that has
	// already been decided.
	ErrWithdrawNotPending = errors.New("withdrawal request is not pending")

	// ErrWithdrawNotFound is returned when no withdrawal request matches.
	ErrWithdrawNotFound = errors.New("withdrawal request not found")

	// ErrDescriptionRequired is returned when an admin adjustment omits its
	// mandatory human-readable description.
	ErrDescriptionRequired = errors.New("adjustment description is required")

	// ErrDuplicateReference is returned when a top-up carries a payment
	// reference that is already recorded; the original entry stands.
	ErrDuplicateReference = errors.New("payment reference already recorded")

	// ErrLedgerMismatch is returned by reconciliation when a recorded
	// balance_after disagrees with the replayed running balance.
	ErrLedgerMismatch = errors.New("ledger balance_after does not match replayed balance")
)

// ──────────────────────────────────────────────────────────────────────────────
// Helper predicates
// ──────────────────────────────────────────────────────────────────────────────

// notFoundErrors collects all "entity not found" sentinel errors so that
// IsNotFound stays in sync automatically.
var notFoundErrors = []error{
	ErrGameNotFound,
	ErrBetNotFound,
	ErrAccountNotFound,
	ErrWithdrawNotFound,
}

// IsNotFound returns true when err (or any error in its chain) is one of the
// domain "not found" errors.  Use this instead of comparing error values
// directly when translating domain errors to HTTP 404 responses.
func IsNotFound(err error) bool {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsPrecondition returns true for failures of a state or balance precondition:
// the request was well-formed but the world would not allow it.
func IsPrecondition(err error) bool {
	preconditionErrors := []error{
		ErrGameNotBettable,
		ErrInsufficientFunds,
		ErrLimitExceeded,
		ErrGameAlreadyFinished,
		ErrGameAlreadyCancelled,
		ErrBetNotPending,
		ErrWithdrawPending,
		ErrWithdrawLimitExceeded,
		ErrWithdrawNotPending,
		ErrAccountInactive,
	}
	for _, target := range preconditionErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsValidation returns true for malformed-input errors rejected before any
// storage access.
func IsValidation(err error) bool {
	validationErrors := []error{
		ErrInvalidStake,
		ErrInvalidLegSet,
		ErrOddsUnavailable,
		ErrInvalidOdds,
		ErrMissingTeams,
		ErrSameTeams,
		ErrInvalidGameStatus,
		ErrInvalidResult,
		ErrInvalidAmount,
		ErrInvalidEntryKind,
		ErrDescriptionRequired,
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
