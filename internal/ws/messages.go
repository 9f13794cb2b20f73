// Package ws holds WebSocket message types and the Hub implementation.
// messages.go defines all message structs broadcast to connected clients.
package ws

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/betwise-ng/betwise/internal/domain"
)

// MsgType identifies the kind of WS message so clients can switch on it.
type MsgType string

const (
	MsgTypeOddsUpdate    MsgType = "odds_update"
	MsgTypeGameFinished  MsgType = "game_finished"
	MsgTypeGameCancelled MsgType = "game_cancelled"
	MsgTypeBetSettled    MsgType = "bet_settled"
	MsgTypeRiskAlert     MsgType = "risk_alert"
	MsgTypeError         MsgType = "error"
)

// ──────────────────────────────────────────────────────────────────────────────
// OddsUpdateMessage — broadcast when a game's odds are revised.
// ──────────────────────────────────────────────────────────────────────────────

// OddsUpdateMessage carries the new odds for an upcoming game.
type OddsUpdateMessage struct {
	Type      MsgType         `json:"type"`
	GameID    uuid.UUID       `json:"game_id"`
	HomeTeam  string          `json:"home_team"`
	AwayTeam  string          `json:"away_team"`
	Home      decimal.Decimal `json:"home"`
	Away      decimal.Decimal `json:"away"`
	Draw      decimal.Decimal `json:"draw"`
	StartsAt  time.Time       `json:"starts_at"`
	Timestamp time.Time       `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// GameFinishedMessage — broadcast when a result is committed.
// ──────────────────────────────────────────────────────────────────────────────

// GameFinishedMessage tells clients which outcome won.
type GameFinishedMessage struct {
	Type      MsgType        `json:"type"`
	GameID    uuid.UUID      `json:"game_id"`
	HomeTeam  string         `json:"home_team"`
	AwayTeam  string         `json:"away_team"`
	Result    domain.Outcome `json:"result"`
	Timestamp time.Time      `json:"timestamp"`
}

// GameCancelledMessage tells clients a game was voided; affected stakes are
// being refunded.
type GameCancelledMessage struct {
	Type      MsgType   `json:"type"`
	GameID    uuid.UUID `json:"game_id"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	Timestamp time.Time `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// BetSettledMessage — sent only to the owning account's connections.
// ──────────────────────────────────────────────────────────────────────────────

// BetSettledMessage notifies a bettor that one of their bets reached a
// terminal state.
type BetSettledMessage struct {
	Type      MsgType          `json:"type"`
	BetID     uuid.UUID        `json:"bet_id"`
	Status    domain.BetStatus `json:"status"`
	Payout    decimal.Decimal  `json:"payout"`
	Timestamp time.Time        `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// RiskAlertMessage — broadcast to back-office clients on threshold breach.
// ──────────────────────────────────────────────────────────────────────────────

// RiskAlertMessage mirrors the alert published on Redis for WS consumers.
type RiskAlertMessage struct {
	Type      MsgType         `json:"type"`
	GameID    string          `json:"game_id"`
	HomeTeam  string          `json:"home_team"`
	AwayTeam  string          `json:"away_team"`
	WorstCase decimal.Decimal `json:"worst_case"`
	Threshold decimal.Decimal `json:"threshold"`
	Timestamp time.Time       `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// ErrorMessage — sent to a single client on a non-fatal error.
// ──────────────────────────────────────────────────────────────────────────────

// ErrorMessage is sent directly to one client (not broadcast).
type ErrorMessage struct {
	Type    MsgType `json:"type"`
	Code    string  `json:"code"`
	Message string  `json:"message"`
}
