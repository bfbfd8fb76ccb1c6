// Package highlowv1 contiene il contratto gRPC del game-svc HighLow.
//
// I messaggi sono struct Go serializzate con il codec JSON di pkg/grpcx:
// i client devono usare grpc.CallContentSubtype(grpcx.JSONCodecName),
// cosa che NewHighLowServiceClient fa in automatico.
package highlowv1

// Suit e' il seme di una carta sul wire.
type Suit string

const (
	SuitUnspecified Suit = ""
	SuitHearts      Suit = "HEARTS"
	SuitDiamonds    Suit = "DIAMONDS"
	SuitClubs       Suit = "CLUBS"
	SuitSpades      Suit = "SPADES"
)

// Guess e' la previsione del giocatore sulla prossima carta.
type Guess string

const (
	GuessUnspecified Guess = ""
	GuessHigher      Guess = "HIGHER"
	GuessLower       Guess = "LOWER"
	GuessEqual       Guess = "EQUAL"
)

// SessionStatus e' lo stato di una sessione sul wire.
type SessionStatus string

const (
	SessionStatusUnspecified SessionStatus = ""
	SessionStatusActive      SessionStatus = "ACTIVE"
	SessionStatusTerminated  SessionStatus = "TERMINATED"
	SessionStatusTimeout     SessionStatus = "TIMEOUT"
)

type StartSessionRequest struct {
	PlayerId string `json:"player_id,omitempty"`
}

type StartSessionResponse struct {
	SessionId      string `json:"session_id"`
	StartCardValue int32  `json:"start_card_value"`
	StartCardSuit  Suit   `json:"start_card_suit"`
}

type StartRoundRequest struct {
	SessionId string `json:"session_id"`
	// BetAmount e' un decimale positivo con al massimo 2 cifre frazionarie, es. "10.50".
	BetAmount string `json:"bet_amount"`
	Guess     Guess  `json:"guess"`
}

type StartRoundResponse struct {
	IsWin             bool   `json:"is_win"`
	WinAmount         string `json:"win_amount"`
	PreviousCardValue int32  `json:"previous_card_value"`
	PreviousCardSuit  Suit   `json:"previous_card_suit"`
	NewCardValue      int32  `json:"new_card_value"`
	NewCardSuit       Suit   `json:"new_card_suit"`
	RoundNumber       int32  `json:"round_number"`
}

type EndSessionRequest struct {
	SessionId string `json:"session_id"`
}

type EndSessionResponse struct {
	SessionId string        `json:"session_id"`
	Status    SessionStatus `json:"status"`
}

type TimeoutSessionRequest struct {
	SessionId string `json:"session_id"`
}

type TimeoutSessionResponse struct {
	SessionId string        `json:"session_id"`
	Status    SessionStatus `json:"status"`
}

type GetSessionRequest struct {
	SessionId string `json:"session_id"`
}

// Session e' lo snapshot di una sessione.
type Session struct {
	SessionId        string        `json:"session_id"`
	PlayerId         string        `json:"player_id"`
	Status           SessionStatus `json:"status"`
	StartCardValue   int32         `json:"start_card_value"`
	StartCardSuit    Suit          `json:"start_card_suit"`
	CurrentCardValue int32         `json:"current_card_value"`
	CurrentCardSuit  Suit          `json:"current_card_suit"`
	RoundCount       int32         `json:"round_count"`
	InsertedAtUnix   int64         `json:"inserted_at_unix"`
	ModifiedAtUnix   int64         `json:"modified_at_unix"`
}

type GetSessionResponse struct {
	Session *Session `json:"session"`
}

type ListRoundsRequest struct {
	SessionId string `json:"session_id"`
}

// Round e' una riga dello storico round di una sessione.
type Round struct {
	RoundId           string `json:"round_id"`
	RoundNumber       int32  `json:"round_number"`
	PreviousCardValue int32  `json:"previous_card_value"`
	PreviousCardSuit  Suit   `json:"previous_card_suit"`
	NewCardValue      int32  `json:"new_card_value"`
	NewCardSuit       Suit   `json:"new_card_suit"`
	Guess             Guess  `json:"guess"`
	BetAmount         string `json:"bet_amount"`
	IsWin             bool   `json:"is_win"`
	WinAmount         string `json:"win_amount"`
	InsertedAtUnix    int64  `json:"inserted_at_unix"`
}

type ListRoundsResponse struct {
	Rounds []*Round `json:"rounds"`
}
