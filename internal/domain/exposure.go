package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OutcomeExposure is the open liability carried on a single outcome of one
// game: how much would be paid out if that outcome materialises.
type OutcomeExposure struct {
	Outcome    Outcome         `json:"outcome"`
	BetCount   int             `json:"bet_count"`
	TotalStake decimal.Decimal `json:"total_stake"`
	Liability  decimal.Decimal `json:"liability"`
}

// GameExposure summarises liability across all outcomes of one game.
// WorstCase is the largest single-outcome liability: paying out more than
// that on this game alone is impossible.
type GameExposure struct {
	GameID    uuid.UUID         `json:"game_id"`
	HomeTeam  string            `json:"home_team"`
	AwayTeam  string            `json:"away_team"`
	StartsAt  time.Time         `json:"starts_at"`
	Outcomes  []OutcomeExposure `json:"outcomes"`
	WorstCase decimal.Decimal   `json:"worst_case"`
}

// ExposureReport is a point-in-time snapshot of platform liability built
// from pending bets only; settled and voided bets carry no exposure.
type ExposureReport struct {
	GeneratedAt    time.Time       `json:"generated_at"`
	TotalStake     decimal.Decimal `json:"total_stake"`
	TotalWorstCase decimal.Decimal `json:"total_worst_case"`
	Games          []GameExposure  `json:"games"`
}

// exposureKey identifies one accumulation bucket.
type exposureKey struct {
	gameID  uuid.UUID
	outcome Outcome
}

// BuildExposureReport aggregates the given pending bets into a liability
// report.  Each leg contributes stake × its own frozen odds to that
// game/outcome bucket, so per-game figures stay comparable across single
// and multi-leg bets instead of charging an accumulator's full payout to
// every game it touches.
func BuildExposureReport(bets []*Bet, games map[uuid.UUID]*Game, now time.Time) *ExposureReport {
	buckets := make(map[exposureKey]*OutcomeExposure)
	gameTotals := make(map[uuid.UUID]decimal.Decimal)
	totalStake := decimal.Zero

	for _, b := range bets {
		if b.Status != BetStatusPending {
			continue
		}
		totalStake = totalStake.Add(b.Stake)
		for _, leg := range b.Legs {
			key := exposureKey{gameID: leg.GameID, outcome: leg.Outcome}
			bucket, ok := buckets[key]
			if !ok {
				bucket = &OutcomeExposure{Outcome: leg.Outcome}
				buckets[key] = bucket
			}
			bucket.BetCount++
			bucket.TotalStake = bucket.TotalStake.Add(b.Stake)
			bucket.Liability = bucket.Liability.Add(b.Stake.Mul(leg.Odds))
			if _, seen := gameTotals[leg.GameID]; !seen {
				gameTotals[leg.GameID] = decimal.Zero
			}
		}
	}

	report := &ExposureReport{
		GeneratedAt: now,
		TotalStake:  totalStake,
		Games:       make([]GameExposure, 0, len(gameTotals)),
	}

	for gameID := range gameTotals {
		ge := GameExposure{GameID: gameID}
		if g, ok := games[gameID]; ok {
			ge.HomeTeam = g.HomeTeam
			ge.AwayTeam = g.AwayTeam
			ge.StartsAt = g.StartsAt
		}
		for _, outcome := range []Outcome{OutcomeHome, OutcomeDraw, OutcomeAway} {
			bucket, ok := buckets[exposureKey{gameID: gameID, outcome: outcome}]
			if !ok {
				continue
			}
			ge.Outcomes = append(ge.Outcomes, *bucket)
			if bucket.Liability.GreaterThan(ge.WorstCase) {
				ge.WorstCase = bucket.Liability
			}
		}
		report.TotalWorstCase = report.TotalWorstCase.Add(ge.WorstCase)
		report.Games = append(report.Games, ge)
	}

	// Riskiest games first.
	sort.Slice(report.Games, func(i, j int) bool {
		return report.Games[i].WorstCase.GreaterThan(report.Games[j].WorstCase)
	})
	return report
}
