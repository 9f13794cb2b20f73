package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Types & constants
// ──────────────────────────────────────────────────────────────────────────────

// BetStatus represents the current state of a user's bet.
type BetStatus string

const (
	BetStatusPending   BetStatus = "pending"   // awaiting results on one or more legs
	BetStatusWon       BetStatus = "won"       // every leg matched its game's result
	BetStatusLost      BetStatus = "lost"      // at least one leg missed
	BetStatusCancelled BetStatus = "cancelled" // voided; stake refunded
)

// BetType distinguishes a single-outcome wager from an accumulator.
type BetType string

const (
	BetTypeSingle BetType = "single" // exactly one leg
	BetTypeMulti  BetType = "multi"  // 2–10 legs, payout multiplies all leg odds
)

// MaxLegs is the maximum number of selections in an accumulator.
const MaxLegs = 10

// moneyPlaces is the decimal precision for odds products and payouts,
// matching the DECIMAL(18,2) wallet columns.
const moneyPlaces = 2

// ──────────────────────────────────────────────────────────────────────────────
// Leg
// ──────────────────────────────────────────────────────────────────────────────

// Leg is one outcome prediction within a bet, tied to one game.  Odds are
// read fresh from the game at admission time and frozen here forever.
type Leg struct {
	BetID   uuid.UUID       `json:"-"       db:"bet_id"`
	GameID  uuid.UUID       `json:"game_id" db:"game_id"`
	Outcome Outcome         `json:"outcome" db:"outcome"`
	Odds    decimal.Decimal `json:"odds"    db:"odds"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Bet
// ──────────────────────────────────────────────────────────────────────────────

// Bet represents a user wager over one or more game outcomes.  A single bet
// is simply a one-element leg list; there is no separate legacy shape.
type Bet struct {
	ID        uuid.UUID       `json:"id"         db:"id"`
	AccountID uuid.UUID       `json:"account_id" db:"account_id"`
	Type      BetType         `json:"type"       db:"bet_type"`
	Stake     decimal.Decimal `json:"stake"      db:"stake"`
	TotalOdds decimal.Decimal `json:"total_odds" db:"total_odds"`
	Legs      []Leg           `json:"legs"       db:"-"`
	Status    BetStatus       `json:"status"     db:"status"`
	Payout    decimal.Decimal `json:"payout"     db:"payout"`
	PlacedAt  time.Time       `json:"placed_at"  db:"placed_at"`
	SettledAt *time.Time      `json:"settled_at" db:"settled_at"`
}

// IsPending returns true while the bet can still be settled or refunded.
func (b *Bet) IsPending() bool {
	return b.Status == BetStatusPending
}

// PotentialPayout returns the amount the account receives if every leg wins.
func (b *Bet) PotentialPayout() decimal.Decimal {
	return b.Stake.Mul(b.TotalOdds).Round(moneyPlaces)
}

// TotalOddsOf multiplies the frozen odds of every leg and rounds to the fixed
// money precision.  The result is computed once at placement and never
// recomputed thereafter.
func TotalOddsOf(legs []Leg) decimal.Decimal {
	total := decimal.NewFromInt(1)
	for _, l := range legs {
		total = total.Mul(l.Odds)
	}
	return total.Round(moneyPlaces)
}

// ──────────────────────────────────────────────────────────────────────────────
// Settlement decision — pure, no I/O
// ──────────────────────────────────────────────────────────────────────────────

// SettlementDecision is the outcome of evaluating a bet against final games.
type SettlementDecision int

const (
	// DecisionNotReady means at least one leg's game has no result yet;
	// the bet stays pending until its last leg resolves.
	DecisionNotReady SettlementDecision = iota
	// DecisionWon means every leg matched its game's declared result.
	DecisionWon
	// DecisionLost means at least one leg missed.
	DecisionLost
	// DecisionVoid means the bet must be refunded: a leg's game was
	// cancelled, or the declared result has no odds recorded (data defect).
	DecisionVoid
)

// Decide evaluates the bet's legs against the given games (keyed by game ID).
// Games missing from the map count as unresolved.  Cancelled legs void the
// whole bet — re-pricing the remaining legs is deliberately not attempted.
func (b *Bet) Decide(games map[uuid.UUID]*Game) SettlementDecision {
	won := true
	for _, leg := range b.Legs {
		g, ok := games[leg.GameID]
		if !ok {
			return DecisionNotReady
		}
		switch g.Status {
		case GameStatusCancelled:
			return DecisionVoid
		case GameStatusFinished:
			// result check below
		default:
			return DecisionNotReady
		}
		if g.Result == nil {
			return DecisionNotReady
		}
		if _, hasOdds := g.Odds.For(*g.Result); !hasOdds {
			// Declared result has no recorded odds: refund rather than
			// guessing, never at the bettor's expense.
			return DecisionVoid
		}
		if leg.Outcome != *g.Result {
			won = false
		}
	}
	if won {
		return DecisionWon
	}
	return DecisionLost
}

// SettlementAmount returns the wallet credit for a decision: stake × totalOdds
// on a win, the original stake on a void, zero otherwise.
func (b *Bet) SettlementAmount(d SettlementDecision) decimal.Decimal {
	switch d {
	case DecisionWon:
		return b.PotentialPayout()
	case DecisionVoid:
		return b.Stake
	default:
		return decimal.Zero
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// PlaceBetRequest — value object used by AdmissionService
// ──────────────────────────────────────────────────────────────────────────────

// Selection is one requested pick.  Odds are NOT taken from the caller — the
// admission controller reads them fresh from the game inside its transaction.
type Selection struct {
	GameID  uuid.UUID `json:"game_id"`
	Outcome Outcome   `json:"outcome"`
}

// PlaceBetRequest carries the validated inputs for placing a bet.
type PlaceBetRequest struct {
	AccountID  uuid.UUID
	Type       BetType
	Stake      decimal.Decimal
	Selections []Selection
	// Confirmed acknowledges the loss-chasing safeguard: callers set it when
	// resubmitting after an ErrRequiresConfirmation rejection.
	Confirmed bool
}

// ValidateShape checks the request's stake, leg count, bet type, outcome
// values, and game distinctness.  Pure; storage-dependent checks happen later
// inside the admission transaction.
func (r PlaceBetRequest) ValidateShape() error {
	if !r.Stake.IsPositive() {
		return ErrInvalidStake
	}
	n := len(r.Selections)
	if n < 1 || n > MaxLegs {
		return ErrInvalidLegSet
	}
	switch r.Type {
	case BetTypeSingle:
		if n != 1 {
			return ErrInvalidLegSet
		}
	case BetTypeMulti:
		if n < 2 {
			return ErrInvalidLegSet
		}
	default:
		return ErrInvalidLegSet
	}
	seen := make(map[uuid.UUID]bool, n)
	for _, sel := range r.Selections {
		if !sel.Outcome.IsValid() {
			return ErrInvalidLegSet
		}
		if seen[sel.GameID] {
			return ErrInvalidLegSet
		}
		seen[sel.GameID] = true
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// BetResponse — API-safe view
// ──────────────────────────────────────────────────────────────────────────────

// BetResponse is the API-facing view of a bet.
type BetResponse struct {
	ID        uuid.UUID       `json:"id"`
	Type      BetType         `json:"type"`
	Stake     decimal.Decimal `json:"stake"`
	TotalOdds decimal.Decimal `json:"total_odds"`
	Legs      []Leg           `json:"legs"`
	Status    BetStatus       `json:"status"`
	Payout    decimal.Decimal `json:"payout"`
	PlacedAt  time.Time       `json:"placed_at"`
	SettledAt *time.Time      `json:"settled_at,omitempty"`
}

// ToResponse converts a Bet to its API response form.
func (b *Bet) ToResponse() BetResponse {
	return BetResponse{
		ID:        b.ID,
		Type:      b.Type,
		Stake:     b.Stake,
		TotalOdds: b.TotalOdds,
		Legs:      b.Legs,
		Status:    b.Status,
		Payout:    b.Payout,
		PlacedAt:  b.PlacedAt,
		SettledAt: b.SettledAt,
	}
}
