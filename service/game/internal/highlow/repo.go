package highlow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"HighLow/service/game/internal/cards"
	"github.com/google/uuid"
)

// Accesso dati delle sessioni su Postgres (persistence layer).
// Qui restano le query SQL e la traduzione in tipi di dominio.
type PGStore struct {
	db *sql.DB
}

// NewPGStore collega lo store a una connessione SQL.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const sessionColumns = `
id, player_id,
start_card_value, start_card_suit,
current_card_value, current_card_suit,
status, inserted_at, modified_at`

const roundColumns = `
id, game_session_id, round_number,
previous_card_value, previous_card_suit,
new_card_value, new_card_suit,
guess, bet_amount, is_win, win_amount,
inserted_at, modified_at`

// rowScanner copre *sql.Row e *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// InsertSession inserisce una nuova sessione.
func (r *PGStore) InsertSession(ctx context.Context, session Session) error {
	const query = `
INSERT INTO game_sessions (` + sessionColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.PlayerID,
		session.StartCard.Value,
		session.StartCard.Suit.String(),
		session.CurrentCard.Value,
		session.CurrentCard.Suit.String(),
		session.Status.String(),
		session.InsertedAt,
		session.ModifiedAt,
	)
	if err != nil {
		slog.Error("errore insert sessione", "error", err, "session_id", session.ID)
	}
	return err
}

// GetSession carica la sessione per id.
func (r *PGStore) GetSession(ctx context.Context, id uuid.UUID) (Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM game_sessions WHERE id = $1`

	session, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		slog.Error("errore lettura sessione", "error", err, "session_id", id)
		return Session{}, err
	}
	return session, nil
}

// Snapshot legge sessione e conteggio round in una sola query, senza FOR UPDATE.
// Un singolo statement vede un'unica fotografia del DB.
func (r *PGStore) Snapshot(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	const query = `
SELECT ` + sessionColumns + `,
(SELECT COUNT(*) FROM game_rounds WHERE game_session_id = s.id)
FROM game_sessions s
WHERE s.id = $1`

	var count int
	session, err := scanSession(countScanner{row: r.db.QueryRowContext(ctx, query, id), count: &count})
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrSessionNotFound
	}
	if err != nil {
		slog.Error("errore lettura snapshot sessione", "error", err, "session_id", id)
		return Snapshot{}, err
	}
	return Snapshot{Session: session, RoundCount: count}, nil
}

// ListRounds ritorna lo storico ordinato per round_number.
func (r *PGStore) ListRounds(ctx context.Context, sessionID uuid.UUID) ([]Round, error) {
	const exists = `SELECT 1 FROM game_sessions WHERE id = $1`
	var one int
	if err := r.db.QueryRowContext(ctx, exists, sessionID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	const query = `
SELECT ` + roundColumns + `
FROM game_rounds
WHERE game_session_id = $1
ORDER BY round_number ASC`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rounds []Round
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, round)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rounds, nil
}

// InSession apre una transazione e blocca la riga della sessione con
// SELECT ... FOR UPDATE: le chiamate concorrenti sulla stessa sessione si
// accodano, quelle su sessioni diverse no.
func (r *PGStore) InSession(ctx context.Context, id uuid.UUID, fn func(tx SessionTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const query = `SELECT ` + sessionColumns + ` FROM game_sessions WHERE id = $1 FOR UPDATE`
	session, err := scanSession(tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}

	if err := fn(&pgTx{tx: tx, session: session}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		slog.Error("errore commit sessione", "error", err, "session_id", id)
		return err
	}
	committed = true
	return nil
}

type pgTx struct {
	tx      *sql.Tx
	session Session
}

func (t *pgTx) Session() Session {
	return t.session
}

func (t *pgTx) RoundCount(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM game_rounds WHERE game_session_id = $1`
	var count int
	if err := t.tx.QueryRowContext(ctx, query, t.session.ID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (t *pgTx) InsertRound(ctx context.Context, round Round) error {
	const query = `
INSERT INTO game_rounds (` + roundColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`

	_, err := t.tx.ExecContext(ctx, query,
		round.ID,
		round.SessionID,
		round.Number,
		round.PreviousCard.Value,
		round.PreviousCard.Suit.String(),
		round.NewCard.Value,
		round.NewCard.Suit.String(),
		round.Guess.String(),
		round.BetAmount,
		round.IsWin,
		round.WinAmount,
		round.InsertedAt,
		round.ModifiedAt,
	)
	if err != nil {
		slog.Error("errore insert round", "error", err, "session_id", round.SessionID, "round_number", round.Number)
	}
	return err
}

func (t *pgTx) UpdateSession(ctx context.Context, session Session) error {
	const query = `
UPDATE game_sessions
SET current_card_value = $2,
    current_card_suit = $3,
    status = $4,
    modified_at = $5
WHERE id = $1`

	res, err := t.tx.ExecContext(ctx, query,
		session.ID,
		session.CurrentCard.Value,
		session.CurrentCard.Suit.String(),
		session.Status.String(),
		session.ModifiedAt,
	)
	if err != nil {
		slog.Error("errore update sessione", "error", err, "session_id", session.ID)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("update session %s: %d rows affected", session.ID, n)
	}
	return nil
}

// countScanner accoda una colonna di conteggio alle colonne della sessione.
type countScanner struct {
	row   rowScanner
	count *int
}

func (c countScanner) Scan(dest ...any) error {
	return c.row.Scan(append(dest, c.count)...)
}

func scanSession(row rowScanner) (Session, error) {
	var (
		s                      Session
		startValue, curValue   int16
		startSuit, curSuit, st string
	)
	if err := row.Scan(
		&s.ID, &s.PlayerID,
		&startValue, &startSuit,
		&curValue, &curSuit,
		&st, &s.InsertedAt, &s.ModifiedAt,
	); err != nil {
		return Session{}, err
	}

	var err error
	if s.StartCard, err = parseCard(startValue, startSuit); err != nil {
		return Session{}, err
	}
	if s.CurrentCard, err = parseCard(curValue, curSuit); err != nil {
		return Session{}, err
	}
	if s.Status, err = ParseStatus(st); err != nil {
		return Session{}, err
	}
	return s, nil
}

func scanRound(row rowScanner) (Round, error) {
	var (
		r                 Round
		prevValue, nValue int16
		prevSuit, nSuit   string
		guess             string
	)
	if err := row.Scan(
		&r.ID, &r.SessionID, &r.Number,
		&prevValue, &prevSuit,
		&nValue, &nSuit,
		&guess, &r.BetAmount, &r.IsWin, &r.WinAmount,
		&r.InsertedAt, &r.ModifiedAt,
	); err != nil {
		return Round{}, err
	}

	var err error
	if r.PreviousCard, err = parseCard(prevValue, prevSuit); err != nil {
		return Round{}, err
	}
	if r.NewCard, err = parseCard(nValue, nSuit); err != nil {
		return Round{}, err
	}
	if r.Guess, err = ParseGuess(guess); err != nil {
		return Round{}, err
	}
	return r, nil
}

// parseCard ricostruisce una carta persistita validandone il dominio.
func parseCard(value int16, suitName string) (cards.Card, error) {
	suit, err := cards.ParseSuit(suitName)
	if err != nil {
		return cards.Card{}, err
	}
	if value < 0 || value > 255 {
		return cards.Card{}, fmt.Errorf("%w: value=%d", cards.ErrInvalidCard, value)
	}
	return cards.New(uint8(value), suit)
}
