package highlow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"HighLow/service/game/internal/cards"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// RedisStore salva ogni sessione in un hash e lo storico in una lista.
// La concorrenza e' ottimistica: WATCH sulla sessione e scritture in
// MULTI/EXEC. Se un'altra chiamata modifica la sessione nel frattempo
// l'unita' di lavoro viene rieseguita da capo, con una nuova lettura.
type RedisStore struct {
	client     *redis.Client
	maxRetries int
}

// NewRedisStore collega lo store a un client Redis.
func NewRedisStore(client *redis.Client, maxRetries int) *RedisStore {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &RedisStore{client: client, maxRetries: maxRetries}
}

// Le chiavi condividono l'hash tag {id} per restare sullo stesso slot in cluster.
func sessionKey(id uuid.UUID) string {
	return "highlow:session:{" + id.String() + "}"
}

func roundsKey(id uuid.UUID) string {
	return sessionKey(id) + ":rounds"
}

// InsertSession scrive l'hash della nuova sessione in un'unica MULTI/EXEC.
func (r *RedisStore) InsertSession(ctx context.Context, session Session) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, sessionKey(session.ID), sessionFields(session))
		return nil
	})
	if err != nil {
		slog.Error("errore insert sessione redis", "error", err, "session_id", session.ID)
	}
	return err
}

// GetSession legge l'hash della sessione.
func (r *RedisStore) GetSession(ctx context.Context, id uuid.UUID) (Session, error) {
	fields, err := r.client.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		slog.Error("errore lettura sessione redis", "error", err, "session_id", id)
		return Session{}, err
	}
	return decodeSession(id, fields)
}

// Snapshot legge hash e lunghezza dello storico nella stessa MULTI/EXEC,
// senza WATCH: non entra in conflitto con le unita' di lavoro.
func (r *RedisStore) Snapshot(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	var (
		fields *redis.MapStringStringCmd
		count  *redis.IntCmd
	)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		fields = pipe.HGetAll(ctx, sessionKey(id))
		count = pipe.LLen(ctx, roundsKey(id))
		return nil
	})
	if err != nil {
		slog.Error("errore lettura snapshot redis", "error", err, "session_id", id)
		return Snapshot{}, err
	}
	session, err := decodeSession(id, fields.Val())
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Session: session, RoundCount: int(count.Val())}, nil
}

// ListRounds ritorna lo storico nell'ordine di inserimento, cioe' per numero.
func (r *RedisStore) ListRounds(ctx context.Context, sessionID uuid.UUID) ([]Round, error) {
	exists, err := r.client.Exists(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrSessionNotFound
	}

	raw, err := r.client.LRange(ctx, roundsKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	rounds := make([]Round, 0, len(raw))
	for _, item := range raw {
		round, err := decodeRound([]byte(item))
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, round)
	}
	return rounds, nil
}

// InSession esegue fn sotto WATCH. Su conflitto riprova fino a maxRetries
// volte, poi ritorna ErrConcurrentUpdate.
func (r *RedisStore) InSession(ctx context.Context, id uuid.UUID, fn func(tx SessionTx) error) error {
	sKey, rKey := sessionKey(id), roundsKey(id)

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			fields, err := tx.HGetAll(ctx, sKey).Result()
			if err != nil {
				return err
			}
			session, err := decodeSession(id, fields)
			if err != nil {
				return err
			}

			staged := &redisTx{tx: tx, roundsKey: rKey, session: session, count: -1}
			if err := fn(staged); err != nil {
				return err
			}
			if staged.round == nil && !staged.dirty {
				return nil
			}

			var roundJSON []byte
			if staged.round != nil {
				if roundJSON, err = encodeRound(*staged.round); err != nil {
					return err
				}
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if roundJSON != nil {
					pipe.RPush(ctx, rKey, roundJSON)
				}
				if staged.dirty {
					pipe.HSet(ctx, sKey, sessionFields(staged.session))
				}
				return nil
			})
			return err
		}, sKey, rKey)

		if errors.Is(err, redis.TxFailedErr) {
			slog.Debug("conflitto ottimistico sessione, retry", "session_id", id, "attempt", attempt+1)
			continue
		}
		return err
	}
	return ErrConcurrentUpdate
}

type redisTx struct {
	tx        *redis.Tx
	roundsKey string
	session   Session
	dirty     bool
	count     int64
	round     *Round
}

func (t *redisTx) Session() Session {
	return t.session
}

func (t *redisTx) RoundCount(ctx context.Context) (int, error) {
	if t.count < 0 {
		n, err := t.tx.LLen(ctx, t.roundsKey).Result()
		if err != nil {
			return 0, err
		}
		t.count = n
	}
	return int(t.count), nil
}

func (t *redisTx) InsertRound(ctx context.Context, round Round) error {
	if t.round != nil {
		return fmt.Errorf("round already staged for session %s", t.session.ID)
	}
	count, err := t.RoundCount(ctx)
	if err != nil {
		return err
	}
	if round.Number != count+1 {
		return fmt.Errorf("round number %d out of sequence for session %s", round.Number, t.session.ID)
	}
	t.round = &round
	return nil
}

func (t *redisTx) UpdateSession(_ context.Context, session Session) error {
	if session.ID != t.session.ID {
		return fmt.Errorf("session id mismatch: %s != %s", session.ID, t.session.ID)
	}
	t.session = session
	t.dirty = true
	return nil
}

func sessionFields(s Session) map[string]any {
	return map[string]any{
		"player_id":     s.PlayerID.String(),
		"start_value":   int(s.StartCard.Value),
		"start_suit":    s.StartCard.Suit.String(),
		"current_value": int(s.CurrentCard.Value),
		"current_suit":  s.CurrentCard.Suit.String(),
		"status":        s.Status.String(),
		"inserted_at":   s.InsertedAt.UTC().Format(time.RFC3339Nano),
		"modified_at":   s.ModifiedAt.UTC().Format(time.RFC3339Nano),
	}
}

func decodeSession(id uuid.UUID, fields map[string]string) (Session, error) {
	if len(fields) == 0 {
		return Session{}, ErrSessionNotFound
	}

	var (
		s   = Session{ID: id}
		err error
	)
	if s.PlayerID, err = uuid.Parse(fields["player_id"]); err != nil {
		return Session{}, fmt.Errorf("decode player_id: %w", err)
	}
	if s.StartCard, err = decodeCard(fields["start_value"], fields["start_suit"]); err != nil {
		return Session{}, err
	}
	if s.CurrentCard, err = decodeCard(fields["current_value"], fields["current_suit"]); err != nil {
		return Session{}, err
	}
	if s.Status, err = ParseStatus(fields["status"]); err != nil {
		return Session{}, err
	}
	if s.InsertedAt, err = time.Parse(time.RFC3339Nano, fields["inserted_at"]); err != nil {
		return Session{}, fmt.Errorf("decode inserted_at: %w", err)
	}
	if s.ModifiedAt, err = time.Parse(time.RFC3339Nano, fields["modified_at"]); err != nil {
		return Session{}, fmt.Errorf("decode modified_at: %w", err)
	}
	return s, nil
}

func decodeCard(value, suitName string) (cards.Card, error) {
	v, err := strconv.ParseUint(value, 10, 8)
	if err != nil {
		return cards.Card{}, fmt.Errorf("decode card value: %w", err)
	}
	suit, err := cards.ParseSuit(suitName)
	if err != nil {
		return cards.Card{}, err
	}
	return cards.New(uint8(v), suit)
}

// redisRound e' la forma JSON di un round nella lista.
type redisRound struct {
	ID            string          `json:"id"`
	SessionID     string          `json:"game_session_id"`
	Number        int             `json:"round_number"`
	PreviousValue uint8           `json:"previous_card_value"`
	PreviousSuit  string          `json:"previous_card_suit"`
	NewValue      uint8           `json:"new_card_value"`
	NewSuit       string          `json:"new_card_suit"`
	Guess         string          `json:"guess"`
	BetAmount     decimal.Decimal `json:"bet_amount"`
	IsWin         bool            `json:"is_win"`
	WinAmount     decimal.Decimal `json:"win_amount"`
	InsertedAt    time.Time       `json:"inserted_at"`
	ModifiedAt    time.Time       `json:"modified_at"`
}

func encodeRound(r Round) ([]byte, error) {
	return json.Marshal(redisRound{
		ID:            r.ID.String(),
		SessionID:     r.SessionID.String(),
		Number:        r.Number,
		PreviousValue: r.PreviousCard.Value,
		PreviousSuit:  r.PreviousCard.Suit.String(),
		NewValue:      r.NewCard.Value,
		NewSuit:       r.NewCard.Suit.String(),
		Guess:         r.Guess.String(),
		BetAmount:     r.BetAmount,
		IsWin:         r.IsWin,
		WinAmount:     r.WinAmount,
		InsertedAt:    r.InsertedAt,
		ModifiedAt:    r.ModifiedAt,
	})
}

func decodeRound(data []byte) (Round, error) {
	var raw redisRound
	if err := json.Unmarshal(data, &raw); err != nil {
		return Round{}, fmt.Errorf("decode round: %w", err)
	}

	var (
		r   = Round{Number: raw.Number, BetAmount: raw.BetAmount, IsWin: raw.IsWin, WinAmount: raw.WinAmount, InsertedAt: raw.InsertedAt, ModifiedAt: raw.ModifiedAt}
		err error
	)
	if r.ID, err = uuid.Parse(raw.ID); err != nil {
		return Round{}, fmt.Errorf("decode round id: %w", err)
	}
	if r.SessionID, err = uuid.Parse(raw.SessionID); err != nil {
		return Round{}, fmt.Errorf("decode round session id: %w", err)
	}
	if r.PreviousCard, err = decodeCard(strconv.Itoa(int(raw.PreviousValue)), raw.PreviousSuit); err != nil {
		return Round{}, err
	}
	if r.NewCard, err = decodeCard(strconv.Itoa(int(raw.NewValue)), raw.NewSuit); err != nil {
		return Round{}, err
	}
	if r.Guess, err = ParseGuess(raw.Guess); err != nil {
		return Round{}, err
	}
	return r, nil
}
