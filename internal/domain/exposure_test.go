package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/betwise-ng/betwise/internal/domain"
)

func pendingSingle(gameID uuid.UUID, outcome domain.Outcome, stake, odds float64) *domain.Bet {
	o := decimal.NewFromFloat(odds)
	return &domain.Bet{
		ID:        uuid.New(),
		Type:      domain.BetTypeSingle,
		Stake:     decimal.NewFromFloat(stake),
		TotalOdds: o,
		Status:    domain.BetStatusPending,
		Legs:      []domain.Leg{{GameID: gameID, Outcome: outcome, Odds: o}},
	}
}

func TestBuildExposureReport_PerOutcomeLiability(t *testing.T) {
	gameID := uuid.New()
	games := map[uuid.UUID]*domain.Game{
		gameID: {ID: gameID, HomeTeam: "Lions", AwayTeam: "Sharks"},
	}
	bets := []*domain.Bet{
		pendingSingle(gameID, domain.OutcomeHome, 100, 2.0), // liability 200
		pendingSingle(gameID, domain.OutcomeHome, 50, 2.0),  // liability 100
		pendingSingle(gameID, domain.OutcomeAway, 40, 3.5),  // liability 140
	}

	report := domain.BuildExposureReport(bets, games, time.Now())

	if len(report.Games) != 1 {
		t.Fatalf("expected 1 game in report, got %d", len(report.Games))
	}
	game := report.Games[0]
	if !game.WorstCase.Equal(decimal.NewFromInt(300)) {
		t.Errorf("WorstCase = %s, want 300 (home side)", game.WorstCase)
	}
	if !report.TotalStake.Equal(decimal.NewFromInt(190)) {
		t.Errorf("TotalStake = %s, want 190", report.TotalStake)
	}
	if game.HomeTeam != "Lions" {
		t.Errorf("game teams not populated: %q", game.HomeTeam)
	}

	var home *domain.OutcomeExposure
	for i := range game.Outcomes {
		if game.Outcomes[i].Outcome == domain.OutcomeHome {
			home = &game.Outcomes[i]
		}
	}
	if home == nil {
		t.Fatal("home outcome bucket missing")
	}
	if home.BetCount != 2 {
		t.Errorf("home BetCount = %d, want 2", home.BetCount)
	}
	if !home.Liability.Equal(decimal.NewFromInt(300)) {
		t.Errorf("home Liability = %s, want 300", home.Liability)
	}
}

func TestBuildExposureReport_IgnoresSettledBets(t *testing.T) {
	gameID := uuid.New()
	won := pendingSingle(gameID, domain.OutcomeHome, 100, 2.0)
	won.Status = domain.BetStatusWon
	lost := pendingSingle(gameID, domain.OutcomeAway, 100, 2.0)
	lost.Status = domain.BetStatusLost

	report := domain.BuildExposureReport([]*domain.Bet{won, lost}, nil, time.Now())
	if len(report.Games) != 0 {
		t.Errorf("settled bets must carry no exposure, got %d games", len(report.Games))
	}
	if !report.TotalWorstCase.IsZero() {
		t.Errorf("TotalWorstCase = %s, want 0", report.TotalWorstCase)
	}
}

func TestBuildExposureReport_MultiLegChargesStakeTimesLegOdds(t *testing.T) {
	g1, g2 := uuid.New(), uuid.New()
	multi := &domain.Bet{
		ID:        uuid.New(),
		Type:      domain.BetTypeMulti,
		Stake:     decimal.NewFromInt(50),
		TotalOdds: decimal.NewFromFloat(6.0),
		Status:    domain.BetStatusPending,
		Legs: []domain.Leg{
			{GameID: g1, Outcome: domain.OutcomeHome, Odds: decimal.NewFromFloat(2.0)},
			{GameID: g2, Outcome: domain.OutcomeHome, Odds: decimal.NewFromFloat(3.0)},
		},
	}

	report := domain.BuildExposureReport([]*domain.Bet{multi}, nil, time.Now())
	if len(report.Games) != 2 {
		t.Fatalf("expected 2 games in report, got %d", len(report.Games))
	}
	// Each game carries stake × its own leg odds, not the accumulator's
	// full payout of 300.
	want := map[uuid.UUID]decimal.Decimal{
		g1: decimal.NewFromInt(100),
		g2: decimal.NewFromInt(150),
	}
	for _, g := range report.Games {
		if !g.WorstCase.Equal(want[g.GameID]) {
			t.Errorf("game %s WorstCase = %s, want %s", g.GameID, g.WorstCase, want[g.GameID])
		}
	}
	if !report.TotalWorstCase.Equal(decimal.NewFromInt(250)) {
		t.Errorf("TotalWorstCase = %s, want 250", report.TotalWorstCase)
	}
}

func TestBuildExposureReport_RiskiestGameFirst(t *testing.T) {
	small, big := uuid.New(), uuid.New()
	bets := []*domain.Bet{
		pendingSingle(small, domain.OutcomeHome, 10, 2.0),
		pendingSingle(big, domain.OutcomeHome, 1000, 2.0),
	}
	report := domain.BuildExposureReport(bets, nil, time.Now())
	if len(report.Games) != 2 {
		t.Fatalf("expected 2 games, got %d", len(report.Games))
	}
	if report.Games[0].GameID != big {
		t.Error("report should order games by descending worst case")
	}
}
