package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/betwise-ng/betwise/internal/config"
	"github.com/betwise-ng/betwise/internal/domain"
	"github.com/betwise-ng/betwise/internal/metrics"
	"github.com/betwise-ng/betwise/internal/repository"
)

const (
	exposureSnapshotKey = "betwise:exposure:latest"
	riskAlertChannel    = "betwise:risk-alerts"
)

// RiskAlert is published on the Redis alert channel and broadcast to
// back-office WebSocket clients when a game's liability crosses the
// configured threshold.
type RiskAlert struct {
	GameID    string          `json:"game_id"`
	HomeTeam  string          `json:"home_team"`
	AwayTeam  string          `json:"away_team"`
	WorstCase decimal.Decimal `json:"worst_case"`
	Threshold decimal.Decimal `json:"threshold"`
	At        time.Time       `json:"at"`
}

// AlertBroadcaster is the minimal interface ExposureService needs from the
// WS hub.
type AlertBroadcaster interface {
	BroadcastRiskAlert(alert RiskAlert)
}

// ──────────────────────────────────────────────────────────────────────────────
// ExposureService
// ──────────────────────────────────────────────────────────────────────────────

// ExposureService computes point-in-time liability reports over pending bets.
// It is strictly read-only against PostgreSQL: the report is advisory and
// never blocks admission or settlement.  Snapshots are cached in Redis so the
// back-office reads a recent report without touching the database, and
// threshold breaches are published for external consumers.
type ExposureService struct {
	betRepo     *repository.BetRepository
	gameRepo    *repository.GameRepository
	rdb         *redis.Client
	cfg         *config.Config
	logger      *slog.Logger
	broadcaster AlertBroadcaster // injected after WS Hub is built
}

// NewExposureService creates an ExposureService.
func NewExposureService(
	betRepo *repository.BetRepository,
	gameRepo *repository.GameRepository,
	rdb *redis.Client,
	cfg *config.Config,
	logger *slog.Logger,
) *ExposureService {
	return &ExposureService{
		betRepo:  betRepo,
		gameRepo: gameRepo,
		rdb:      rdb,
		cfg:      cfg,
		logger:   logger,
	}
}

// SetBroadcaster injects the WS Hub dependency post-construction.
func (s *ExposureService) SetBroadcaster(b AlertBroadcaster) { s.broadcaster = b }

// Snapshot recomputes the exposure report from pending bets, caches it in
// Redis, updates the Prometheus gauges, and raises alerts for games whose
// worst case crosses the threshold.
func (s *ExposureService) Snapshot(ctx context.Context) (*domain.ExposureReport, error) {
	bets, err := s.betRepo.GetAllPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("exposure.Snapshot: bets: %w", err)
	}

	games, err := s.gameRepo.GetMany(ctx, uniqueGameIDs(bets))
	if err != nil {
		return nil, fmt.Errorf("exposure.Snapshot: games: %w", err)
	}

	report := domain.BuildExposureReport(bets, games, time.Now().UTC())

	metrics.ExposureWorstCase.Set(toFloat(report.TotalWorstCase))
	metrics.ExposurePendingStake.Set(toFloat(report.TotalStake))

	if err := s.store(ctx, report); err != nil {
		// Cache failure degrades reads, not correctness.
		s.logger.Warn("exposure snapshot cache write failed", "error", err)
	}
	s.alert(ctx, report)
	return report, nil
}

// Latest returns the most recent cached report, recomputing when the cache
// is empty or unreadable.
func (s *ExposureService) Latest(ctx context.Context) (*domain.ExposureReport, error) {
	raw, err := s.rdb.Get(ctx, exposureSnapshotKey).Bytes()
	if err == nil {
		var report domain.ExposureReport
		if jsonErr := json.Unmarshal(raw, &report); jsonErr == nil {
			return &report, nil
		}
	}
	return s.Snapshot(ctx)
}

func (s *ExposureService) store(ctx context.Context, report *domain.ExposureReport) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("exposure.store: marshal: %w", err)
	}
	if err := s.rdb.Set(ctx, exposureSnapshotKey, raw, s.cfg.Redis.SnapshotTTL).Err(); err != nil {
		return fmt.Errorf("exposure.store: set: %w", err)
	}
	return nil
}

// alert publishes a RiskAlert for every game over the threshold.
func (s *ExposureService) alert(ctx context.Context, report *domain.ExposureReport) {
	threshold := decimal.NewFromFloat(s.cfg.Risk.AlertThreshold)
	for _, g := range report.Games {
		if !g.WorstCase.GreaterThan(threshold) {
			continue
		}
		alert := RiskAlert{
			GameID:    g.GameID.String(),
			HomeTeam:  g.HomeTeam,
			AwayTeam:  g.AwayTeam,
			WorstCase: g.WorstCase,
			Threshold: threshold,
			At:        report.GeneratedAt,
		}
		s.logger.Warn("exposure threshold crossed",
			"game_id", alert.GameID, "worst_case", alert.WorstCase, "threshold", threshold)
		if raw, err := json.Marshal(alert); err == nil {
			if err := s.rdb.Publish(ctx, riskAlertChannel, raw).Err(); err != nil {
				s.logger.Warn("risk alert publish failed", "error", err)
			}
		}
		if s.broadcaster != nil {
			s.broadcaster.BroadcastRiskAlert(alert)
		}
	}
}

// uniqueGameIDs collects the distinct game ids across all bet legs.
func uniqueGameIDs(bets []*domain.Bet) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, b := range bets {
		for _, leg := range b.Legs {
			if !seen[leg.GameID] {
				seen[leg.GameID] = true
				ids = append(ids, leg.GameID)
			}
		}
	}
	return ids
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
