package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/betwise-ng/betwise/internal/domain"
)

// BetRepository handles all database operations for bets and their legs.
type BetRepository struct {
	db *sqlx.DB
}

// NewBetRepository creates a new BetRepository.
func NewBetRepository(db *sqlx.DB) *BetRepository {
	return &BetRepository{db: db}
}

// Create inserts a bet and its legs within an existing transaction.
func (r *BetRepository) Create(ctx context.Context, tx *sqlx.Tx, b *domain.Bet) error {
	query := `
		INSERT INTO bets
			(id, account_id, bet_type, stake, total_odds, status, payout, placed_at)
		VALUES
			(:id, :account_id, :bet_type, :stake, :total_odds, :status, :payout, :placed_at)`
	if _, err := tx.NamedExecContext(ctx, query, b); err != nil {
		return fmt.Errorf("bet_repo.Create: %w", err)
	}
	for i := range b.Legs {
		b.Legs[i].BetID = b.ID
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO bet_legs (bet_id, game_id, outcome, odds)
			VALUES (:bet_id, :game_id, :outcome, :odds)`,
			b.Legs[i])
		if err != nil {
			return fmt.Errorf("bet_repo.Create leg: %w", err)
		}
	}
	return nil
}

// GetByID fetches a bet with its legs.
func (r *BetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Bet, error) {
	var b domain.Bet
	err := r.db.GetContext(ctx, &b, `SELECT * FROM bets WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBetNotFound
		}
		return nil, fmt.Errorf("bet_repo.GetByID: %w", err)
	}
	if err := r.attachLegs(ctx, []*domain.Bet{&b}); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListByAccount returns paginated bets for an account, newest first, legs
// included.  status="" means all statuses.
func (r *BetRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, status domain.BetStatus, limit, offset int) ([]*domain.Bet, error) {
	var bets []*domain.Bet
	var err error
	if status != "" {
		err = r.db.SelectContext(ctx, &bets, `
			SELECT * FROM bets
			WHERE account_id = $1 AND status = $2
			ORDER BY placed_at DESC
			LIMIT $3 OFFSET $4`,
			accountID, status, limit, offset)
	} else {
		err = r.db.SelectContext(ctx, &bets, `
			SELECT * FROM bets
			WHERE account_id = $1
			ORDER BY placed_at DESC
			LIMIT $2 OFFSET $3`,
			accountID, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("bet_repo.ListByAccount: %w", err)
	}
	if err := r.attachLegs(ctx, bets); err != nil {
		return nil, err
	}
	return bets, nil
}

// GetPendingByGame returns every pending bet that carries a leg on the given
// game, legs included.  This is the settlement engine's work list after a
// result or cancellation lands.
func (r *BetRepository) GetPendingByGame(ctx context.Context, gameID uuid.UUID) ([]*domain.Bet, error) {
	var bets []*domain.Bet
	err := r.db.SelectContext(ctx, &bets, `
		SELECT DISTINCT b.*
		FROM bets b
		JOIN bet_legs l ON l.bet_id = b.id
		WHERE l.game_id = $1 AND b.status = 'pending'
		ORDER BY b.placed_at ASC`,
		gameID)
	if err != nil {
		return nil, fmt.Errorf("bet_repo.GetPendingByGame: %w", err)
	}
	if err := r.attachLegs(ctx, bets); err != nil {
		return nil, err
	}
	return bets, nil
}

// GetAllPending returns every pending bet with legs, for exposure reporting.
func (r *BetRepository) GetAllPending(ctx context.Context) ([]*domain.Bet, error) {
	var bets []*domain.Bet
	err := r.db.SelectContext(ctx, &bets,
		`SELECT * FROM bets WHERE status = 'pending' ORDER BY placed_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("bet_repo.GetAllPending: %w", err)
	}
	if err := r.attachLegs(ctx, bets); err != nil {
		return nil, err
	}
	return bets, nil
}

// GetPendingForUpdate re-reads a bet inside the settlement transaction with a
// row lock, returning ErrBetNotPending when another transaction settled it
// first.  This is the idempotence gate for concurrent settlement.
func (r *BetRepository) GetPendingForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*domain.Bet, error) {
	var b domain.Bet
	err := tx.GetContext(ctx, &b,
		`SELECT * FROM bets WHERE id = $1 AND status = 'pending' FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBetNotPending
		}
		return nil, fmt.Errorf("bet_repo.GetPendingForUpdate: %w", err)
	}
	var legs []domain.Leg
	err = tx.SelectContext(ctx, &legs,
		`SELECT * FROM bet_legs WHERE bet_id = $1 ORDER BY game_id`, id)
	if err != nil {
		return nil, fmt.Errorf("bet_repo.GetPendingForUpdate legs: %w", err)
	}
	b.Legs = legs
	return &b, nil
}

// Settle flips a pending bet to its terminal status and records the payout.
// The status guard makes the transition idempotent under concurrent sweeps.
func (r *BetRepository) Settle(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status domain.BetStatus, payout decimal.Decimal) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE bets
		SET status = $1, payout = $2, settled_at = now()
		WHERE id = $3 AND status = 'pending'`,
		string(status), payout, id)
	if err != nil {
		return fmt.Errorf("bet_repo.Settle: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrBetNotPending
	}
	return nil
}

// GetLastSettled returns the account's most recently settled bet, or nil when
// the account has none.  Read inside the admission transaction for the
// loss-chasing check.
func (r *BetRepository) GetLastSettled(ctx context.Context, tx *sqlx.Tx, accountID uuid.UUID) (*domain.Bet, error) {
	var b domain.Bet
	err := tx.GetContext(ctx, &b, `
		SELECT * FROM bets
		WHERE account_id = $1 AND status IN ('won', 'lost', 'cancelled')
		ORDER BY settled_at DESC
		LIMIT 1`,
		accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("bet_repo.GetLastSettled: %w", err)
	}
	return &b, nil
}

// FinanceTotals aggregates platform-wide money flow for the back-office
// dashboard.
type FinanceTotals struct {
	TotalBets    int             `db:"total_bets"    json:"total_bets"`
	PendingBets  int             `db:"pending_bets"  json:"pending_bets"`
	TotalStaked  decimal.Decimal `db:"total_staked"  json:"total_staked"`
	TotalPayout  decimal.Decimal `db:"total_payout"  json:"total_payout"`
	PendingStake decimal.Decimal `db:"pending_stake" json:"pending_stake"`
}

// GetFinanceTotals computes bet and payout totals over [from, to).
// A zero bound leaves that side open, so two zero times mean lifetime.
func (r *BetRepository) GetFinanceTotals(ctx context.Context, from, to time.Time) (*FinanceTotals, error) {
	var t FinanceTotals
	err := r.db.GetContext(ctx, &t, `
		SELECT
			COUNT(*)                                                    AS total_bets,
			COUNT(*) FILTER (WHERE status = 'pending')                  AS pending_bets,
			COALESCE(SUM(stake), 0)                                     AS total_staked,
			COALESCE(SUM(payout), 0)                                    AS total_payout,
			COALESCE(SUM(stake) FILTER (WHERE status = 'pending'), 0)   AS pending_stake
		FROM bets
		WHERE ($1::timestamptz IS NULL OR placed_at >= $1)
		  AND ($2::timestamptz IS NULL OR placed_at <  $2)`,
		nullableTime(from), nullableTime(to))
	if err != nil {
		return nil, fmt.Errorf("bet_repo.GetFinanceTotals: %w", err)
	}
	return &t, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// attachLegs loads legs for the given bets in one query and distributes them.
func (r *BetRepository) attachLegs(ctx context.Context, bets []*domain.Bet) error {
	if len(bets) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(bets))
	byID := make(map[uuid.UUID]*domain.Bet, len(bets))
	for i, b := range bets {
		ids[i] = b.ID
		byID[b.ID] = b
	}
	query, args, err := sqlx.In(`SELECT * FROM bet_legs WHERE bet_id IN (?) ORDER BY game_id`, ids)
	if err != nil {
		return fmt.Errorf("bet_repo.attachLegs in: %w", err)
	}
	var legs []domain.Leg
	if err := r.db.SelectContext(ctx, &legs, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("bet_repo.attachLegs: %w", err)
	}
	for _, l := range legs {
		if b, ok := byID[l.BetID]; ok {
			b.Legs = append(b.Legs, l)
		}
	}
	return nil
}
