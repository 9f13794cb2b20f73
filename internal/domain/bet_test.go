package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/betwise-ng/betwise/internal/domain"
)

func fixedOdds(home, away, draw float64) domain.Odds {
	return domain.Odds{
		Home: decimal.NewFromFloat(home),
		Away: decimal.NewFromFloat(away),
		Draw: decimal.NewFromFloat(draw),
	}
}

func finishedGame(id uuid.UUID, result domain.Outcome, odds domain.Odds) *domain.Game {
	r := result
	return &domain.Game{
		ID:     id,
		Odds:   odds,
		Result: &r,
		Status: domain.GameStatusFinished,
	}
}

// ── Payout math ───────────────────────────────────────────────────────────────

func TestBet_PotentialPayout(t *testing.T) {
	b := &domain.Bet{
		Stake:     decimal.NewFromInt(100),
		TotalOdds: decimal.NewFromFloat(2.50),
	}
	want := decimal.NewFromInt(250)
	if !b.PotentialPayout().Equal(want) {
		t.Errorf("PotentialPayout() = %s, want %s", b.PotentialPayout(), want)
	}
}

func TestTotalOddsOf_MultipliesAndRounds(t *testing.T) {
	legs := []domain.Leg{
		{Odds: decimal.NewFromFloat(1.33)},
		{Odds: decimal.NewFromFloat(2.10)},
		{Odds: decimal.NewFromFloat(1.95)},
	}
	// 1.33 × 2.10 × 1.95 = 5.44635 → 5.45
	want := decimal.NewFromFloat(5.45)
	if got := domain.TotalOddsOf(legs); !got.Equal(want) {
		t.Errorf("TotalOddsOf() = %s, want %s", got, want)
	}
}

// ── Settlement decision ───────────────────────────────────────────────────────

func TestBet_Decide_SingleWin(t *testing.T) {
	gameID := uuid.New()
	b := &domain.Bet{
		Status: domain.BetStatusPending,
		Legs:   []domain.Leg{{GameID: gameID, Outcome: domain.OutcomeHome}},
	}
	games := map[uuid.UUID]*domain.Game{
		gameID: finishedGame(gameID, domain.OutcomeHome, fixedOdds(1.8, 4.2, 3.1)),
	}
	if d := b.Decide(games); d != domain.DecisionWon {
		t.Errorf("Decide() = %v, want DecisionWon", d)
	}
}

func TestBet_Decide_SingleLoss(t *testing.T) {
	gameID := uuid.New()
	b := &domain.Bet{
		Status: domain.BetStatusPending,
		Legs:   []domain.Leg{{GameID: gameID, Outcome: domain.OutcomeAway}},
	}
	games := map[uuid.UUID]*domain.Game{
		gameID: finishedGame(gameID, domain.OutcomeHome, fixedOdds(1.8, 4.2, 3.1)),
	}
	if d := b.Decide(games); d != domain.DecisionLost {
		t.Errorf("Decide() = %v, want DecisionLost", d)
	}
}

func TestBet_Decide_MultiWaitsForAllLegs(t *testing.T) {
	g1, g2 := uuid.New(), uuid.New()
	b := &domain.Bet{
		Status: domain.BetStatusPending,
		Type:   domain.BetTypeMulti,
		Legs: []domain.Leg{
			{GameID: g1, Outcome: domain.OutcomeHome},
			{GameID: g2, Outcome: domain.OutcomeDraw},
		},
	}
	games := map[uuid.UUID]*domain.Game{
		g1: finishedGame(g1, domain.OutcomeHome, fixedOdds(1.8, 4.2, 3.1)),
		g2: {ID: g2, Status: domain.GameStatusLive, Odds: fixedOdds(2.0, 3.0, 3.2)},
	}
	if d := b.Decide(games); d != domain.DecisionNotReady {
		t.Errorf("Decide() with one live leg = %v, want DecisionNotReady", d)
	}

	// A lost first leg still does not settle before the second leg ends.
	b.Legs[0].Outcome = domain.OutcomeAway
	if d := b.Decide(games); d != domain.DecisionNotReady {
		t.Errorf("Decide() with lost leg but live leg = %v, want DecisionNotReady", d)
	}
}

func TestBet_Decide_MultiOneMissLosesAll(t *testing.T) {
	g1, g2 := uuid.New(), uuid.New()
	b := &domain.Bet{
		Status: domain.BetStatusPending,
		Type:   domain.BetTypeMulti,
		Legs: []domain.Leg{
			{GameID: g1, Outcome: domain.OutcomeHome},
			{GameID: g2, Outcome: domain.OutcomeAway},
		},
	}
	games := map[uuid.UUID]*domain.Game{
		g1: finishedGame(g1, domain.OutcomeHome, fixedOdds(1.8, 4.2, 3.1)),
		g2: finishedGame(g2, domain.OutcomeDraw, fixedOdds(2.0, 3.0, 3.2)),
	}
	if d := b.Decide(games); d != domain.DecisionLost {
		t.Errorf("Decide() = %v, want DecisionLost", d)
	}
}

func TestBet_Decide_CancelledLegVoidsWholeBet(t *testing.T) {
	g1, g2 := uuid.New(), uuid.New()
	b := &domain.Bet{
		Status: domain.BetStatusPending,
		Type:   domain.BetTypeMulti,
		Legs: []domain.Leg{
			{GameID: g1, Outcome: domain.OutcomeAway}, // would have lost
			{GameID: g2, Outcome: domain.OutcomeHome},
		},
	}
	games := map[uuid.UUID]*domain.Game{
		g1: finishedGame(g1, domain.OutcomeHome, fixedOdds(1.8, 4.2, 3.1)),
		g2: {ID: g2, Status: domain.GameStatusCancelled, Odds: fixedOdds(2.0, 3.0, 3.2)},
	}
	if d := b.Decide(games); d != domain.DecisionVoid {
		t.Errorf("Decide() with cancelled leg = %v, want DecisionVoid", d)
	}
}

func TestBet_Decide_MissingOddsForResultVoids(t *testing.T) {
	gameID := uuid.New()
	// Draw odds were never recorded, and the game ended in a draw.
	odds := fixedOdds(1.8, 4.2, 0)
	b := &domain.Bet{
		Status: domain.BetStatusPending,
		Legs:   []domain.Leg{{GameID: gameID, Outcome: domain.OutcomeHome}},
	}
	games := map[uuid.UUID]*domain.Game{
		gameID: finishedGame(gameID, domain.OutcomeDraw, odds),
	}
	if d := b.Decide(games); d != domain.DecisionVoid {
		t.Errorf("Decide() with no odds for result = %v, want DecisionVoid", d)
	}
}

func TestBet_SettlementAmount(t *testing.T) {
	b := &domain.Bet{
		Stake:     decimal.NewFromInt(50),
		TotalOdds: decimal.NewFromFloat(3.40),
	}
	if got := b.SettlementAmount(domain.DecisionWon); !got.Equal(decimal.NewFromInt(170)) {
		t.Errorf("SettlementAmount(Won) = %s, want 170", got)
	}
	if got := b.SettlementAmount(domain.DecisionVoid); !got.Equal(decimal.NewFromInt(50)) {
		t.Errorf("SettlementAmount(Void) = %s, want 50", got)
	}
	if got := b.SettlementAmount(domain.DecisionLost); !got.IsZero() {
		t.Errorf("SettlementAmount(Lost) = %s, want 0", got)
	}
}

// ── Request shape validation ──────────────────────────────────────────────────

func TestPlaceBetRequest_ValidateShape(t *testing.T) {
	g1, g2 := uuid.New(), uuid.New()
	valid := domain.PlaceBetRequest{
		Type:  domain.BetTypeMulti,
		Stake: decimal.NewFromInt(20),
		Selections: []domain.Selection{
			{GameID: g1, Outcome: domain.OutcomeHome},
			{GameID: g2, Outcome: domain.OutcomeDraw},
		},
	}
	if err := valid.ValidateShape(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	cases := []struct {
		name    string
		mutate  func(*domain.PlaceBetRequest)
		wantErr error
	}{
		{
			name:    "zero stake",
			mutate:  func(r *domain.PlaceBetRequest) { r.Stake = decimal.Zero },
			wantErr: domain.ErrInvalidStake,
		},
		{
			name:    "negative stake",
			mutate:  func(r *domain.PlaceBetRequest) { r.Stake = decimal.NewFromInt(-5) },
			wantErr: domain.ErrInvalidStake,
		},
		{
			name:    "no selections",
			mutate:  func(r *domain.PlaceBetRequest) { r.Selections = nil },
			wantErr: domain.ErrInvalidLegSet,
		},
		{
			name: "single with two legs",
			mutate: func(r *domain.PlaceBetRequest) {
				r.Type = domain.BetTypeSingle
			},
			wantErr: domain.ErrInvalidLegSet,
		},
		{
			name: "multi with one leg",
			mutate: func(r *domain.PlaceBetRequest) {
				r.Selections = r.Selections[:1]
			},
			wantErr: domain.ErrInvalidLegSet,
		},
		{
			name: "duplicate game",
			mutate: func(r *domain.PlaceBetRequest) {
				r.Selections[1].GameID = r.Selections[0].GameID
			},
			wantErr: domain.ErrInvalidLegSet,
		},
		{
			name: "bad outcome",
			mutate: func(r *domain.PlaceBetRequest) {
				r.Selections[0].Outcome = domain.Outcome("both")
			},
			wantErr: domain.ErrInvalidLegSet,
		},
		{
			name: "too many legs",
			mutate: func(r *domain.PlaceBetRequest) {
				r.Selections = nil
				for i := 0; i < domain.MaxLegs+1; i++ {
					r.Selections = append(r.Selections, domain.Selection{
						GameID: uuid.New(), Outcome: domain.OutcomeHome,
					})
				}
			},
			wantErr: domain.ErrInvalidLegSet,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			req.Selections = append([]domain.Selection(nil), valid.Selections...)
			tc.mutate(&req)
			if err := req.ValidateShape(); err != tc.wantErr {
				t.Errorf("ValidateShape() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

// ── Admission boundary ────────────────────────────────────────────────────────

func TestGame_IsBettable_KickoffBoundary(t *testing.T) {
	now := time.Now().UTC()
	g := &domain.Game{Status: domain.GameStatusUpcoming, StartsAt: now}

	if g.IsBettable(now) {
		t.Error("a game starting exactly now must not be bettable")
	}
	g.StartsAt = now.Add(time.Second)
	if !g.IsBettable(now) {
		t.Error("a game starting in the future must be bettable")
	}
	g.Status = domain.GameStatusLive
	if g.IsBettable(now) {
		t.Error("a live game must not be bettable")
	}
}
