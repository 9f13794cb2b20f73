package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/betwise-ng/betwise/internal/domain"
)

// ── Weekly limits ─────────────────────────────────────────────────────────────

func TestBetLimits_Allows(t *testing.T) {
	l := &domain.BetLimits{
		MaxWeeklyBets:  3,
		MaxWeeklyStake: decimal.NewFromInt(500),
		BetCount:       2,
		StakeTotal:     decimal.NewFromInt(400),
	}
	if !l.Allows(decimal.NewFromInt(100)) {
		t.Error("third bet at exactly the stake cap should be allowed")
	}
	if l.Allows(decimal.NewFromInt(101)) {
		t.Error("stake pushing the weekly total over the cap must be rejected")
	}

	l.BetCount = 3
	if l.Allows(decimal.NewFromInt(1)) {
		t.Error("fourth bet must be rejected by the count limit")
	}
}

func TestBetLimits_ZeroMeansUnlimited(t *testing.T) {
	l := &domain.BetLimits{
		BetCount:   1000,
		StakeTotal: decimal.NewFromInt(1_000_000),
	}
	if !l.Allows(decimal.NewFromInt(50_000)) {
		t.Error("zero limits must never reject")
	}
}

func TestBetLimits_SeededDefaultsBound(t *testing.T) {
	// Shape of a limits row created lazily for a first-time bettor: zero
	// counters, a fresh window, and the platform's default maximums.  The
	// defaults must bound admission exactly like operator-set limits.
	l := &domain.BetLimits{
		MaxWeeklyBets:  2,
		MaxWeeklyStake: decimal.NewFromInt(300),
		StakeTotal:     decimal.Zero,
		ResetsAt:       time.Now().UTC().Add(domain.LimitWindow),
	}

	if !l.Allows(decimal.NewFromInt(200)) {
		t.Fatal("first bet under the default caps should be allowed")
	}
	l.BetCount++
	l.StakeTotal = l.StakeTotal.Add(decimal.NewFromInt(200))

	if l.Allows(decimal.NewFromInt(150)) {
		t.Error("default stake cap must reject the overshooting second bet")
	}
	if !l.Allows(decimal.NewFromInt(100)) {
		t.Fatal("second bet at exactly the default stake cap should be allowed")
	}
	l.BetCount++
	l.StakeTotal = l.StakeTotal.Add(decimal.NewFromInt(100))

	if l.Allows(decimal.NewFromInt(1)) {
		t.Error("default count cap must reject the third bet")
	}
}

func TestBetLimits_WindowExpired(t *testing.T) {
	now := time.Now().UTC()
	l := &domain.BetLimits{ResetsAt: now}
	if !l.WindowExpired(now) {
		t.Error("window ending exactly now counts as expired")
	}
	l.ResetsAt = now.Add(time.Minute)
	if l.WindowExpired(now) {
		t.Error("window ending in the future is not expired")
	}
}

// ── Loss-chasing safeguard ────────────────────────────────────────────────────

func TestChasesLoss(t *testing.T) {
	lost := &domain.Bet{
		Status: domain.BetStatusLost,
		Stake:  decimal.NewFromInt(100),
	}
	if domain.ChasesLoss(nil, decimal.NewFromInt(1000)) {
		t.Error("no settled bets means no loss to chase")
	}
	if domain.ChasesLoss(lost, decimal.NewFromInt(200)) {
		t.Error("stake at exactly twice the lost stake does not trip the guard")
	}
	if !domain.ChasesLoss(lost, decimal.NewFromFloat(200.01)) {
		t.Error("stake above twice the lost stake must trip the guard")
	}

	won := &domain.Bet{
		Status: domain.BetStatusWon,
		Stake:  decimal.NewFromInt(100),
	}
	if domain.ChasesLoss(won, decimal.NewFromInt(1000)) {
		t.Error("a win before the new stake is not loss chasing")
	}
}
