package highlow

import (
	"context"
	"fmt"
	"time"

	"HighLow/service/game/internal/cards"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Contratti e modelli del dominio "highlow".
// Espongono cosa serve al resto dell'app senza dettagli di DB/gRPC.

// Status e' lo stato di una sessione. Da uno stato terminale non si esce.
type Status uint8

const (
	StatusActive Status = iota + 1
	StatusTerminated
	StatusTimeout
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "ACTIVE"
	case StatusTerminated:
		return "TERMINATED"
	case StatusTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// Terminal riporta se lo stato non ammette altri round.
func (s Status) Terminal() bool {
	return s == StatusTerminated || s == StatusTimeout
}

// ParseStatus converte il valore persistito nello stato.
func ParseStatus(value string) (Status, error) {
	switch value {
	case "ACTIVE":
		return StatusActive, nil
	case "TERMINATED":
		return StatusTerminated, nil
	case "TIMEOUT":
		return StatusTimeout, nil
	default:
		return 0, fmt.Errorf("unknown status %q", value)
	}
}

// Guess e' la previsione del giocatore sulla prossima carta.
type Guess uint8

const (
	GuessHigher Guess = iota + 1
	GuessLower
	GuessEqual
)

// Valid riporta se la previsione e' una delle tre ammesse.
func (g Guess) Valid() bool {
	return g >= GuessHigher && g <= GuessEqual
}

func (g Guess) String() string {
	switch g {
	case GuessHigher:
		return "HIGHER"
	case GuessLower:
		return "LOWER"
	case GuessEqual:
		return "EQUAL"
	default:
		return "UNKNOWN"
	}
}

// ParseGuess converte il nome persistito nella previsione.
func ParseGuess(value string) (Guess, error) {
	switch value {
	case "HIGHER":
		return GuessHigher, nil
	case "LOWER":
		return GuessLower, nil
	case "EQUAL":
		return GuessEqual, nil
	default:
		return 0, fmt.Errorf("unknown guess %q", value)
	}
}

// Session rappresenta una partita aperta da un giocatore.
// CurrentCard coincide con StartCard o con la NewCard dell'ultimo round.
type Session struct {
	ID          uuid.UUID
	PlayerID    uuid.UUID
	StartCard   cards.Card
	CurrentCard cards.Card
	Status      Status
	InsertedAt  time.Time
	ModifiedAt  time.Time
}

// Round e' una riga dello storico: scritta una volta, mai modificata.
type Round struct {
	ID           uuid.UUID
	SessionID    uuid.UUID
	Number       int
	PreviousCard cards.Card
	NewCard      cards.Card
	Guess        Guess
	BetAmount    decimal.Decimal
	IsWin        bool
	WinAmount    decimal.Decimal
	InsertedAt   time.Time
	ModifiedAt   time.Time
}

// Snapshot e' la vista coerente di una sessione con il numero di round giocati.
type Snapshot struct {
	Session
	RoundCount int
}

// Store e' il Persistence Gateway usato dal Service.
type Store interface {
	InsertSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, id uuid.UUID) (Session, error)
	ListRounds(ctx context.Context, sessionID uuid.UUID) ([]Round, error)
	// Snapshot legge sessione e numero di round in modo coerente, senza
	// bloccare la sessione per le unita' di lavoro concorrenti.
	Snapshot(ctx context.Context, id uuid.UUID) (Snapshot, error)
	// InSession esegue fn come unita' atomica rispetto alle altre chiamate
	// sulla stessa sessione. Ritorna ErrSessionNotFound se la sessione non
	// esiste. Le implementazioni ottimistiche possono rieseguire fn: fn non
	// deve avere effetti fuori da tx.
	InSession(ctx context.Context, id uuid.UUID, fn func(tx SessionTx) error) error
}

// SessionTx e' la vista di una sessione dentro InSession.
// Le scritture diventano visibili solo se fn ritorna nil.
type SessionTx interface {
	Session() Session
	RoundCount(ctx context.Context) (int, error)
	InsertRound(ctx context.Context, round Round) error
	UpdateSession(ctx context.Context, session Session) error
}

// EventPublisher pubblica gli eventi di dominio dopo il commit.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}
