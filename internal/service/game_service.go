package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/betwise-ng/betwise/internal/domain"
	"github.com/betwise-ng/betwise/internal/repository"
)

// OddsBroadcaster is the minimal interface GameService needs from the WS hub.
type OddsBroadcaster interface {
	BroadcastOddsUpdate(game *domain.Game)
}

// GameService owns fixture ingestion and game reads: creating games from the
// feed, revising odds while a game is upcoming, and serving game listings.
type GameService struct {
	db          *sqlx.DB
	gameRepo    *repository.GameRepository
	broadcaster OddsBroadcaster // injected after WS Hub is built
}

// NewGameService creates a GameService.
func NewGameService(db *sqlx.DB, gameRepo *repository.GameRepository) *GameService {
	return &GameService{db: db, gameRepo: gameRepo}
}

// SetBroadcaster injects the WS Hub dependency post-construction.
func (s *GameService) SetBroadcaster(b OddsBroadcaster) { s.broadcaster = b }

// UpsertGame creates a game or, when req.ID is set, revises an existing
// upcoming game's odds.  Odds revisions keep history and never touch bets
// already placed: their legs carry the odds frozen at admission.
func (s *GameService) UpsertGame(ctx context.Context, req domain.UpsertGameRequest) (*domain.Game, error) {
	if req.HomeTeam == "" || req.AwayTeam == "" {
		return nil, domain.ErrMissingTeams
	}
	if req.HomeTeam == req.AwayTeam {
		return nil, domain.ErrSameTeams
	}
	if !req.Odds.Valid() {
		return nil, domain.ErrInvalidOdds
	}

	if req.ID != nil {
		game, err := s.gameRepo.GetByID(ctx, *req.ID)
		if err != nil {
			return nil, err
		}
		if err := s.gameRepo.UpdateOdds(ctx, game, req.Odds); err != nil {
			return nil, err
		}
		game.Odds = req.Odds
		if s.broadcaster != nil {
			s.broadcaster.BroadcastOddsUpdate(game)
		}
		return game, nil
	}

	now := time.Now().UTC()
	if !req.StartsAt.After(now) {
		return nil, domain.ErrGameNotBettable
	}
	game := &domain.Game{
		ID:        uuid.New(),
		HomeTeam:  req.HomeTeam,
		AwayTeam:  req.AwayTeam,
		League:    req.League,
		Odds:      req.Odds,
		Status:    domain.GameStatusUpcoming,
		StartsAt:  req.StartsAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.gameRepo.Create(ctx, game); err != nil {
		return nil, fmt.Errorf("game.UpsertGame: %w", err)
	}
	return game, nil
}

// GetGame returns one game.
func (s *GameService) GetGame(ctx context.Context, id uuid.UUID) (*domain.Game, error) {
	return s.gameRepo.GetByID(ctx, id)
}

// ListGames returns paginated games filtered by status.
func (s *GameService) ListGames(ctx context.Context, status domain.GameStatus, limit, offset int) ([]*domain.Game, error) {
	if status != "" {
		switch status {
		case domain.GameStatusUpcoming, domain.GameStatusLive,
			domain.GameStatusFinished, domain.GameStatusCancelled:
		default:
			return nil, domain.ErrInvalidGameStatus
		}
	}
	return s.gameRepo.List(ctx, status, limit, offset)
}

// GetOddsHistory returns the odds revision trail for a game.
func (s *GameService) GetOddsHistory(ctx context.Context, gameID uuid.UUID) ([]*domain.OddsChange, error) {
	if _, err := s.gameRepo.GetByID(ctx, gameID); err != nil {
		return nil, err
	}
	return s.gameRepo.GetOddsHistory(ctx, gameID)
}
