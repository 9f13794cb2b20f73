// Package domain defines the core business entities and types for the
// BetWise sports-wagering platform.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Types & constants
// ──────────────────────────────────────────────────────────────────────────────

// GameStatus represents the lifecycle state of a game (match).
type GameStatus string

const (
	GameStatusUpcoming  GameStatus = "upcoming"  // accepting bets until kick-off
	GameStatusLive      GameStatus = "live"      // in play; betting closed
	GameStatusFinished  GameStatus = "finished"  // result declared, settlement triggered
	GameStatusCancelled GameStatus = "cancelled" // voided; all pending bets refunded
)

// Outcome represents a match outcome a user can bet on.
type Outcome string

const (
	OutcomeHome Outcome = "home"
	OutcomeAway Outcome = "away"
	OutcomeDraw Outcome = "draw"
)

// IsValid returns true if the outcome is a recognised value.
func (o Outcome) IsValid() bool {
	return o == OutcomeHome || o == OutcomeAway || o == OutcomeDraw
}

// ──────────────────────────────────────────────────────────────────────────────
// Odds
// ──────────────────────────────────────────────────────────────────────────────

// Odds holds the decimal odds for the three possible outcomes of a game.
// Each value is ≥ 1 when present; a zero value means the bookmaker never
// recorded odds for that outcome (malformed historical data — settlement
// falls back to voiding affected bets rather than deciding them).
type Odds struct {
	Home decimal.Decimal `json:"home" db:"odds_home"`
	Away decimal.Decimal `json:"away" db:"odds_away"`
	Draw decimal.Decimal `json:"draw" db:"odds_draw"`
}

// For returns the odds for the given outcome and whether a usable value
// (≥ 1) is recorded for it.
func (o Odds) For(outcome Outcome) (decimal.Decimal, bool) {
	var v decimal.Decimal
	switch outcome {
	case OutcomeHome:
		v = o.Home
	case OutcomeAway:
		v = o.Away
	case OutcomeDraw:
		v = o.Draw
	default:
		return decimal.Zero, false
	}
	if v.LessThan(decimal.NewFromInt(1)) {
		return decimal.Zero, false
	}
	return v, true
}

// Valid returns true when all three outcomes carry odds ≥ 1.
func (o Odds) Valid() bool {
	_, h := o.For(OutcomeHome)
	_, a := o.For(OutcomeAway)
	_, d := o.For(OutcomeDraw)
	return h && a && d
}

// ──────────────────────────────────────────────────────────────────────────────
// Game
// ──────────────────────────────────────────────────────────────────────────────

// Game represents a single match between two teams.  Odds is embedded so
// its columns sit flat on the games row while the JSON view nests them.
type Game struct {
	ID       uuid.UUID `json:"id"        db:"id"`
	HomeTeam string    `json:"home_team" db:"home_team"`
	AwayTeam string    `json:"away_team" db:"away_team"`
	League   string    `json:"league"    db:"league"`
	Odds     `json:"odds"`
	Result    *Outcome   `json:"result"     db:"result"` // nil until finished
	Status    GameStatus `json:"status"     db:"status"`
	StartsAt  time.Time  `json:"starts_at"  db:"starts_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// IsBettable reports whether new wagers may still be admitted: the game must
// be upcoming and kick-off strictly in the future.  A bet arriving exactly at
// kick-off is rejected; a result declared at that same instant still settles.
func (g *Game) IsBettable(now time.Time) bool {
	return g.Status == GameStatusUpcoming && g.StartsAt.After(now)
}

// IsFinal reports whether the game can no longer change state.
func (g *Game) IsFinal() bool {
	return g.Status == GameStatusFinished || g.Status == GameStatusCancelled
}

// CanCancel reports whether the game may still be administratively voided.
// A game with a committed result is immutable.
func (g *Game) CanCancel() bool {
	return !g.IsFinal()
}

// ──────────────────────────────────────────────────────────────────────────────
// OddsChange — audit trail of odds revisions while a game is upcoming
// ──────────────────────────────────────────────────────────────────────────────

// OddsChange records one historical odds value for a game.  The current odds
// live on the Game row; the history is append-only and audit-only.
type OddsChange struct {
	ID        int64           `json:"id"         db:"id"`
	GameID    uuid.UUID       `json:"game_id"    db:"game_id"`
	Home      decimal.Decimal `json:"home"       db:"odds_home"`
	Away      decimal.Decimal `json:"away"       db:"odds_away"`
	Draw      decimal.Decimal `json:"draw"       db:"odds_draw"`
	ChangedAt time.Time       `json:"changed_at" db:"changed_at"`
}

// ──────────────────────────────────────────────────────────────────────────────
// UpsertGameRequest — value object used by GameService for feed ingestion
// ──────────────────────────────────────────────────────────────────────────────

// UpsertGameRequest carries the validated inputs for creating or updating a
// game from the external fixture feed.
type UpsertGameRequest struct {
	ID       *uuid.UUID // nil = create
	HomeTeam string
	AwayTeam string
	League   string
	Odds     Odds
	StartsAt time.Time
}
