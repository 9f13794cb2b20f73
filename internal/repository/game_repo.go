package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/betwise-ng/betwise/internal/domain"
)

// GameRepository handles all database operations for games and their odds
// history.
type GameRepository struct {
	db *sqlx.DB
}

// NewGameRepository creates a new GameRepository.
func NewGameRepository(db *sqlx.DB) *GameRepository {
	return &GameRepository{db: db}
}

// Create inserts a new game row.
func (r *GameRepository) Create(ctx context.Context, g *domain.Game) error {
	query := `
		INSERT INTO games
			(id, home_team, away_team, league, odds_home, odds_away, odds_draw, result, status, starts_at, created_at, updated_at)
		VALUES
			(:id, :home_team, :away_team, :league, :odds_home, :odds_away, :odds_draw, :result, :status, :starts_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, g); err != nil {
		return fmt.Errorf("game_repo.Create: %w", err)
	}
	return nil
}

// GetByID fetches a game by its primary key.
func (r *GameRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Game, error) {
	var g domain.Game
	err := r.db.GetContext(ctx, &g, `SELECT * FROM games WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrGameNotFound
		}
		return nil, fmt.Errorf("game_repo.GetByID: %w", err)
	}
	return &g, nil
}

// GetManyForShare fetches the given games inside the transaction with FOR
// SHARE locks, blocking a concurrent result commit until admission finishes.
// Returns ErrGameNotFound when any requested game is missing.
func (r *GameRepository) GetManyForShare(ctx context.Context, tx *sqlx.Tx, ids []uuid.UUID) (map[uuid.UUID]*domain.Game, error) {
	query, args, err := sqlx.In(`SELECT * FROM games WHERE id IN (?) FOR SHARE`, ids)
	if err != nil {
		return nil, fmt.Errorf("game_repo.GetManyForShare in: %w", err)
	}
	var games []*domain.Game
	if err := tx.SelectContext(ctx, &games, tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("game_repo.GetManyForShare: %w", err)
	}
	if len(games) != len(ids) {
		return nil, domain.ErrGameNotFound
	}
	out := make(map[uuid.UUID]*domain.Game, len(games))
	for _, g := range games {
		out[g.ID] = g
	}
	return out, nil
}

// GetMany fetches the given games without locking, for read-only evaluation.
func (r *GameRepository) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Game, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]*domain.Game{}, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM games WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("game_repo.GetMany in: %w", err)
	}
	var games []*domain.Game
	if err := r.db.SelectContext(ctx, &games, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("game_repo.GetMany: %w", err)
	}
	out := make(map[uuid.UUID]*domain.Game, len(games))
	for _, g := range games {
		out[g.ID] = g
	}
	return out, nil
}

// List returns paginated games filtered by status, soonest kick-off first.
// status="" means all statuses.
func (r *GameRepository) List(ctx context.Context, status domain.GameStatus, limit, offset int) ([]*domain.Game, error) {
	var games []*domain.Game
	var err error
	if status != "" {
		err = r.db.SelectContext(ctx, &games, `
			SELECT * FROM games
			WHERE status = $1
			ORDER BY starts_at ASC
			LIMIT $2 OFFSET $3`,
			status, limit, offset)
	} else {
		err = r.db.SelectContext(ctx, &games, `
			SELECT * FROM games
			ORDER BY starts_at ASC
			LIMIT $1 OFFSET $2`,
			limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("game_repo.List: %w", err)
	}
	return games, nil
}

// UpdateOdds replaces the current odds of an upcoming game and appends the
// previous values to the odds history.
func (r *GameRepository) UpdateOdds(ctx context.Context, g *domain.Game, odds domain.Odds) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("game_repo.UpdateOdds begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO odds_history (game_id, odds_home, odds_away, odds_draw, changed_at)
		SELECT id, odds_home, odds_away, odds_draw, now()
		FROM games WHERE id = $1`,
		g.ID)
	if err != nil {
		return fmt.Errorf("game_repo.UpdateOdds history: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE games
		SET odds_home = $1, odds_away = $2, odds_draw = $3, updated_at = now()
		WHERE id = $4 AND status = 'upcoming'`,
		odds.Home, odds.Away, odds.Draw, g.ID)
	if err != nil {
		return fmt.Errorf("game_repo.UpdateOdds update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrGameNotBettable
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("game_repo.UpdateOdds commit: %w", err)
	}
	return nil
}

// GetOddsHistory returns the recorded odds revisions for a game, oldest first.
func (r *GameRepository) GetOddsHistory(ctx context.Context, gameID uuid.UUID) ([]*domain.OddsChange, error) {
	var changes []*domain.OddsChange
	err := r.db.SelectContext(ctx, &changes, `
		SELECT * FROM odds_history
		WHERE game_id = $1
		ORDER BY changed_at ASC, id ASC`,
		gameID)
	if err != nil {
		return nil, fmt.Errorf("game_repo.GetOddsHistory: %w", err)
	}
	return changes, nil
}

// MarkLive flips upcoming games whose kick-off time has passed to live.
// Returns the number of games transitioned.
func (r *GameRepository) MarkLive(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE games
		SET status = 'live', updated_at = now()
		WHERE status = 'upcoming' AND starts_at <= $1`,
		now)
	if err != nil {
		return 0, fmt.Errorf("game_repo.MarkLive: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// SetResult commits the final result and flips the game to finished.  The
// status guard keeps the transition one-way: a game that is already finished
// or cancelled is reported as such instead of being overwritten.
func (r *GameRepository) SetResult(ctx context.Context, tx *sqlx.Tx, gameID uuid.UUID, result domain.Outcome) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE games
		SET status = 'finished', result = $1, updated_at = now()
		WHERE id = $2 AND status IN ('upcoming', 'live')`,
		string(result), gameID)
	if err != nil {
		return fmt.Errorf("game_repo.SetResult: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.finalStateError(ctx, tx, gameID)
	}
	return nil
}

// Cancel voids a game that has not finished.  Pending bets on it are refunded
// by the settlement engine in the same service call.
func (r *GameRepository) Cancel(ctx context.Context, tx *sqlx.Tx, gameID uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE games
		SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND status IN ('upcoming', 'live')`,
		gameID)
	if err != nil {
		return fmt.Errorf("game_repo.Cancel: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.finalStateError(ctx, tx, gameID)
	}
	return nil
}

// finalStateError translates a zero-rows transition into the precise domain
// error for the game's actual state.
func (r *GameRepository) finalStateError(ctx context.Context, tx *sqlx.Tx, gameID uuid.UUID) error {
	var status domain.GameStatus
	err := tx.GetContext(ctx, &status, `SELECT status FROM games WHERE id = $1`, gameID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrGameNotFound
		}
		return fmt.Errorf("game_repo.finalStateError: %w", err)
	}
	if status == domain.GameStatusCancelled {
		return domain.ErrGameAlreadyCancelled
	}
	return domain.ErrGameAlreadyFinished
}

// GetUnsettledFinished returns finished or cancelled games that still carry
// pending bets.  The settlement sweep uses this to catch games whose eager
// settlement was interrupted.
func (r *GameRepository) GetUnsettledFinished(ctx context.Context) ([]*domain.Game, error) {
	var games []*domain.Game
	err := r.db.SelectContext(ctx, &games, `
		SELECT DISTINCT g.*
		FROM games g
		JOIN bet_legs l ON l.game_id = g.id
		JOIN bets b     ON b.id = l.bet_id
		WHERE g.status IN ('finished', 'cancelled')
		  AND b.status = 'pending'
		ORDER BY g.starts_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("game_repo.GetUnsettledFinished: %w", err)
	}
	return games, nil
}
