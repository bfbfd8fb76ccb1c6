package highlow

import (
	"time"

	"github.com/google/uuid"
)

// eventVersion e' la versione dello schema dei payload.
const eventVersion = 1

// Event e' il payload JSON pubblicato sul broker.
type Event struct {
	Event      string      `json:"event"`
	Version    int         `json:"version"`
	SessionID  string      `json:"session_id"`
	PlayerID   string      `json:"player_id"`
	Status     string      `json:"status"`
	Round      *RoundEvent `json:"round,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// RoundEvent porta gli importi che il ledger deve addebitare/accreditare.
type RoundEvent struct {
	RoundID     string `json:"round_id"`
	RoundNumber int    `json:"round_number"`
	Guess       string `json:"guess"`
	BetAmount   string `json:"bet_amount"`
	IsWin       bool   `json:"is_win"`
	WinAmount   string `json:"win_amount"`
}

func sessionEvent(key string, session Session, at time.Time) Event {
	return Event{
		Event:      key,
		Version:    eventVersion,
		SessionID:  session.ID.String(),
		PlayerID:   session.PlayerID.String(),
		Status:     session.Status.String(),
		OccurredAt: at,
	}
}

func roundEvent(playerID uuid.UUID, round Round) Event {
	return Event{
		Event:     EventRoundResolved,
		Version:   eventVersion,
		SessionID: round.SessionID.String(),
		PlayerID:  playerID.String(),
		Status:    StatusActive.String(),
		Round: &RoundEvent{
			RoundID:     round.ID.String(),
			RoundNumber: round.Number,
			Guess:       round.Guess.String(),
			BetAmount:   round.BetAmount.StringFixed(MoneyScale),
			IsWin:       round.IsWin,
			WinAmount:   round.WinAmount.StringFixed(MoneyScale),
		},
		OccurredAt: round.InsertedAt,
	}
}
