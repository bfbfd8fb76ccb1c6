package highlow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"HighLow/service/game/internal/cards"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Routing key degli eventi pubblicati per il ledger esterno.
const (
	EventSessionStarted = "highlow.session.started"
	EventRoundResolved  = "highlow.round.resolved"
	EventSessionEnded   = "highlow.session.ended"
	EventSessionTimeout = "highlow.session.timeout"
)

const tracerName = "HighLow/service/game/highlow"

// Service applica la macchina a stati della sessione usando lo store.
// Non fa retry sugli errori di persistenza: rieseguire significherebbe
// estrarre di nuovo la carta. Il retry, se serve, e' del chiamante.
type Service struct {
	logger *slog.Logger
	store  Store
	deck   cards.Generator
	events EventPublisher
	tracer trace.Tracer
	now    func() time.Time
}

// NewService crea il servizio di dominio. events puo' essere nil.
func NewService(logger *slog.Logger, store Store, deck cards.Generator, events EventPublisher) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		logger: logger,
		store:  store,
		deck:   deck,
		events: events,
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
	}
}

// StartSession apre una sessione ACTIVE con una carta appena estratta.
func (s *Service) StartSession(ctx context.Context, playerID uuid.UUID) (Session, error) {
	ctx, span := s.tracer.Start(ctx, "highlow.StartSession",
		trace.WithAttributes(attribute.String("player_id", playerID.String())))
	defer span.End()

	if playerID == uuid.Nil {
		return Session{}, s.fail(span, "StartSession", uuid.Nil, fmt.Errorf("%w: player_id is required", ErrInvalidInput))
	}

	card, err := s.draw()
	if err != nil {
		return Session{}, s.fail(span, "StartSession", uuid.Nil, err)
	}

	now := s.now().UTC()
	session := Session{
		ID:          uuid.New(),
		PlayerID:    playerID,
		StartCard:   card,
		CurrentCard: card,
		Status:      StatusActive,
		InsertedAt:  now,
		ModifiedAt:  now,
	}
	if err := s.store.InsertSession(ctx, session); err != nil {
		return Session{}, s.fail(span, "StartSession", session.ID, err)
	}

	span.SetAttributes(attribute.String("session_id", session.ID.String()))
	s.logger.Info("sessione avviata", "session_id", session.ID, "player_id", playerID, "start_card", card.String())
	s.publish(ctx, EventSessionStarted, sessionEvent(EventSessionStarted, session, now))
	return session, nil
}

// StartRound risolve un round sulla carta corrente e lo accoda allo storico.
// Numerazione del round, inserimento e aggiornamento della carta corrente
// avvengono nella stessa unita' atomica dello store.
func (s *Service) StartRound(ctx context.Context, sessionID uuid.UUID, bet decimal.Decimal, guess Guess) (Round, error) {
	ctx, span := s.tracer.Start(ctx, "highlow.StartRound",
		trace.WithAttributes(attribute.String("session_id", sessionID.String()), attribute.String("guess", guess.String())))
	defer span.End()

	if !guess.Valid() {
		return Round{}, s.fail(span, "StartRound", sessionID, fmt.Errorf("%w: unknown guess", ErrInvalidInput))
	}
	if !ValidBet(bet) {
		return Round{}, s.fail(span, "StartRound", sessionID, fmt.Errorf("%w: bet_amount must be positive with at most %d decimals", ErrInvalidInput, MoneyScale))
	}

	var (
		round    Round
		playerID uuid.UUID
	)
	err := s.store.InSession(ctx, sessionID, func(tx SessionTx) error {
		session := tx.Session()
		if session.Status != StatusActive {
			return ErrSessionNotActive
		}

		count, err := tx.RoundCount(ctx)
		if err != nil {
			return err
		}

		next, err := s.draw()
		if err != nil {
			return err
		}

		outcome := Resolve(session.CurrentCard, next, guess, bet)
		now := s.now().UTC()
		round = Round{
			ID:           uuid.New(),
			SessionID:    session.ID,
			Number:       count + 1,
			PreviousCard: outcome.PreviousCard,
			NewCard:      outcome.NewCard,
			Guess:        guess,
			BetAmount:    bet,
			IsWin:        outcome.IsWin,
			WinAmount:    outcome.WinAmount,
			InsertedAt:   now,
			ModifiedAt:   now,
		}
		if err := tx.InsertRound(ctx, round); err != nil {
			return err
		}

		session.CurrentCard = next
		session.ModifiedAt = now
		playerID = session.PlayerID
		return tx.UpdateSession(ctx, session)
	})
	if err != nil {
		return Round{}, s.fail(span, "StartRound", sessionID, err)
	}

	span.SetAttributes(attribute.Int("round_number", round.Number), attribute.Bool("is_win", round.IsWin))
	s.logger.Info("round risolto",
		"session_id", sessionID,
		"round_number", round.Number,
		"previous_card", round.PreviousCard.String(),
		"new_card", round.NewCard.String(),
		"guess", guess.String(),
		"is_win", round.IsWin,
		"win_amount", round.WinAmount.StringFixed(MoneyScale),
	)
	s.publish(ctx, EventRoundResolved, roundEvent(playerID, round))
	return round, nil
}

// EndSession chiude la sessione su richiesta del giocatore.
func (s *Service) EndSession(ctx context.Context, sessionID uuid.UUID) (Session, error) {
	return s.terminate(ctx, "EndSession", sessionID, StatusTerminated, EventSessionEnded)
}

// TimeoutSession chiude la sessione per inattivita'.
func (s *Service) TimeoutSession(ctx context.Context, sessionID uuid.UUID) (Session, error) {
	return s.terminate(ctx, "TimeoutSession", sessionID, StatusTimeout, EventSessionTimeout)
}

// terminate porta una sessione ACTIVE nello stato terminale indicato.
// Una seconda chiamata fallisce con ErrSessionNotActive.
func (s *Service) terminate(ctx context.Context, op string, sessionID uuid.UUID, to Status, eventKey string) (Session, error) {
	ctx, span := s.tracer.Start(ctx, "highlow."+op,
		trace.WithAttributes(attribute.String("session_id", sessionID.String())))
	defer span.End()

	var updated Session
	err := s.store.InSession(ctx, sessionID, func(tx SessionTx) error {
		session := tx.Session()
		if session.Status != StatusActive {
			return ErrSessionNotActive
		}
		session.Status = to
		session.ModifiedAt = s.now().UTC()
		updated = session
		return tx.UpdateSession(ctx, session)
	})
	if err != nil {
		return Session{}, s.fail(span, op, sessionID, err)
	}

	s.logger.Info("sessione chiusa", "session_id", sessionID, "status", to.String())
	s.publish(ctx, eventKey, sessionEvent(eventKey, updated, updated.ModifiedAt))
	return updated, nil
}

// GetSession ritorna uno snapshot coerente di sessione e numero di round.
// E' una lettura: non prende il lock della sessione.
func (s *Service) GetSession(ctx context.Context, sessionID uuid.UUID) (Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "highlow.GetSession",
		trace.WithAttributes(attribute.String("session_id", sessionID.String())))
	defer span.End()

	snap, err := s.store.Snapshot(ctx, sessionID)
	if err != nil {
		return Snapshot{}, s.fail(span, "GetSession", sessionID, err)
	}
	return snap, nil
}

// ListRounds ritorna lo storico ordinato per numero di round.
func (s *Service) ListRounds(ctx context.Context, sessionID uuid.UUID) (Session, []Round, error) {
	ctx, span := s.tracer.Start(ctx, "highlow.ListRounds",
		trace.WithAttributes(attribute.String("session_id", sessionID.String())))
	defer span.End()

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return Session{}, nil, s.fail(span, "ListRounds", sessionID, err)
	}
	rounds, err := s.store.ListRounds(ctx, sessionID)
	if err != nil {
		return Session{}, nil, s.fail(span, "ListRounds", sessionID, err)
	}
	return session, rounds, nil
}

func (s *Service) draw() (cards.Card, error) {
	card, err := s.deck.Draw()
	if err != nil {
		return cards.Card{}, fmt.Errorf("%w: %w", ErrCardDraw, err)
	}
	return card, nil
}

// fail classifica l'errore, lo registra sullo span e lo logga una volta.
func (s *Service) fail(span trace.Span, op string, sessionID uuid.UUID, err error) error {
	err = classify(err)
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())

	switch {
	case errors.Is(err, ErrPersistence), errors.Is(err, ErrCardDraw):
		s.logger.Error("operazione fallita", "op", op, "session_id", sessionID, "error", err)
	default:
		s.logger.Warn("operazione rifiutata", "op", op, "session_id", sessionID, "error", err)
	}
	return err
}

// publish invia l'evento dopo il commit. Lo stato e' gia' persistito:
// un errore qui viene loggato e non annulla l'operazione.
func (s *Service) publish(ctx context.Context, key string, payload Event) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishJSON(ctx, key, payload); err != nil {
		s.logger.Warn("pubblicazione evento fallita", "event", key, "session_id", payload.SessionID, "error", err)
	}
}
