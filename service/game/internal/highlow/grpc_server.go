package highlow

import (
	"context"
	"errors"
	"strings"

	"HighLow/pkg/grpcx"
	highlowv1 "HighLow/proto/highlow/v1"
	"HighLow/service/game/internal/cards"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Engine e' cio' che il handler gRPC usa del dominio.
type Engine interface {
	StartSession(ctx context.Context, playerID uuid.UUID) (Session, error)
	StartRound(ctx context.Context, sessionID uuid.UUID, bet decimal.Decimal, guess Guess) (Round, error)
	EndSession(ctx context.Context, sessionID uuid.UUID) (Session, error)
	TimeoutSession(ctx context.Context, sessionID uuid.UUID) (Session, error)
	GetSession(ctx context.Context, sessionID uuid.UUID) (Snapshot, error)
	ListRounds(ctx context.Context, sessionID uuid.UUID) (Session, []Round, error)
}

// GRPCServer espone il handler gRPC per il game-svc.
// Qui si validano le request, si leggono le metadata e si mappano gli errori.
type GRPCServer struct {
	highlowv1.UnimplementedHighLowServiceServer
	engine Engine
}

// NewGRPCServer crea il server gRPC con il dominio.
func NewGRPCServer(engine Engine) *GRPCServer {
	return &GRPCServer{engine: engine}
}

// StartSession apre una sessione per il player della request o delle metadata.
func (s *GRPCServer) StartSession(ctx context.Context, req *highlowv1.StartSessionRequest) (*highlowv1.StartSessionResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	callerID, hasCaller, err := playerIDFromContext(ctx)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}

	playerID := callerID
	if strings.TrimSpace(req.PlayerId) != "" {
		parsed, err := uuid.Parse(strings.TrimSpace(req.PlayerId))
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, "player_id must be a valid UUID")
		}
		if hasCaller && parsed != callerID {
			return nil, status.Error(codes.PermissionDenied, "player_id does not match caller")
		}
		playerID = parsed
	}
	if playerID == uuid.Nil {
		return nil, status.Error(codes.InvalidArgument, "player_id is required")
	}

	session, err := s.engine.StartSession(ctx, playerID)
	if err != nil {
		return nil, toStatus(err)
	}

	return &highlowv1.StartSessionResponse{
		SessionId:      session.ID.String(),
		StartCardValue: int32(session.StartCard.Value),
		StartCardSuit:  suitToPB(session.StartCard.Suit),
	}, nil
}

// StartRound valida puntata e previsione e risolve un round.
func (s *GRPCServer) StartRound(ctx context.Context, req *highlowv1.StartRoundRequest) (*highlowv1.StartRoundResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	sessionID, err := parseSessionID(req.SessionId)
	if err != nil {
		return nil, err
	}
	bet, err := decimal.NewFromString(strings.TrimSpace(req.BetAmount))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "bet_amount must be a decimal")
	}
	if !ValidBet(bet) {
		return nil, status.Error(codes.InvalidArgument, "bet_amount must be positive with at most 2 decimals")
	}
	guess, ok := guessFromPB(req.Guess)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "guess must be HIGHER, LOWER or EQUAL")
	}
	if err := s.authorize(ctx, sessionID); err != nil {
		return nil, err
	}

	round, err := s.engine.StartRound(ctx, sessionID, bet, guess)
	if err != nil {
		return nil, toStatus(err)
	}

	return &highlowv1.StartRoundResponse{
		IsWin:             round.IsWin,
		WinAmount:         round.WinAmount.StringFixed(MoneyScale),
		PreviousCardValue: int32(round.PreviousCard.Value),
		PreviousCardSuit:  suitToPB(round.PreviousCard.Suit),
		NewCardValue:      int32(round.NewCard.Value),
		NewCardSuit:       suitToPB(round.NewCard.Suit),
		RoundNumber:       int32(round.Number),
	}, nil
}

// EndSession chiude la sessione su richiesta del giocatore.
func (s *GRPCServer) EndSession(ctx context.Context, req *highlowv1.EndSessionRequest) (*highlowv1.EndSessionResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	sessionID, err := parseSessionID(req.SessionId)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, sessionID); err != nil {
		return nil, err
	}

	session, err := s.engine.EndSession(ctx, sessionID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &highlowv1.EndSessionResponse{SessionId: session.ID.String(), Status: statusToPB(session.Status)}, nil
}

// TimeoutSession chiude la sessione per inattivita'.
func (s *GRPCServer) TimeoutSession(ctx context.Context, req *highlowv1.TimeoutSessionRequest) (*highlowv1.TimeoutSessionResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	sessionID, err := parseSessionID(req.SessionId)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, sessionID); err != nil {
		return nil, err
	}

	session, err := s.engine.TimeoutSession(ctx, sessionID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &highlowv1.TimeoutSessionResponse{SessionId: session.ID.String(), Status: statusToPB(session.Status)}, nil
}

// GetSession ritorna lo snapshot della sessione.
func (s *GRPCServer) GetSession(ctx context.Context, req *highlowv1.GetSessionRequest) (*highlowv1.GetSessionResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	sessionID, err := parseSessionID(req.SessionId)
	if err != nil {
		return nil, err
	}

	snap, err := s.engine.GetSession(ctx, sessionID)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := checkOwner(ctx, snap.PlayerID); err != nil {
		return nil, err
	}

	return &highlowv1.GetSessionResponse{Session: &highlowv1.Session{
		SessionId:        snap.ID.String(),
		PlayerId:         snap.PlayerID.String(),
		Status:           statusToPB(snap.Status),
		StartCardValue:   int32(snap.StartCard.Value),
		StartCardSuit:    suitToPB(snap.StartCard.Suit),
		CurrentCardValue: int32(snap.CurrentCard.Value),
		CurrentCardSuit:  suitToPB(snap.CurrentCard.Suit),
		RoundCount:       int32(snap.RoundCount),
		InsertedAtUnix:   snap.InsertedAt.Unix(),
		ModifiedAtUnix:   snap.ModifiedAt.Unix(),
	}}, nil
}

// ListRounds ritorna lo storico dei round.
func (s *GRPCServer) ListRounds(ctx context.Context, req *highlowv1.ListRoundsRequest) (*highlowv1.ListRoundsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	sessionID, err := parseSessionID(req.SessionId)
	if err != nil {
		return nil, err
	}

	session, rounds, err := s.engine.ListRounds(ctx, sessionID)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := checkOwner(ctx, session.PlayerID); err != nil {
		return nil, err
	}

	out := make([]*highlowv1.Round, 0, len(rounds))
	for _, round := range rounds {
		out = append(out, &highlowv1.Round{
			RoundId:           round.ID.String(),
			RoundNumber:       int32(round.Number),
			PreviousCardValue: int32(round.PreviousCard.Value),
			PreviousCardSuit:  suitToPB(round.PreviousCard.Suit),
			NewCardValue:      int32(round.NewCard.Value),
			NewCardSuit:       suitToPB(round.NewCard.Suit),
			Guess:             guessToPB(round.Guess),
			BetAmount:         round.BetAmount.StringFixed(MoneyScale),
			IsWin:             round.IsWin,
			WinAmount:         round.WinAmount.StringFixed(MoneyScale),
			InsertedAtUnix:    round.InsertedAt.Unix(),
		})
	}
	return &highlowv1.ListRoundsResponse{Rounds: out}, nil
}

// authorize verifica che il player delle metadata, se presente, sia il
// proprietario della sessione. Il proprietario e' immutabile, quindi la
// lettura fuori dall'unita' atomica non apre race.
func (s *GRPCServer) authorize(ctx context.Context, sessionID uuid.UUID) error {
	if _, ok, err := playerIDFromContext(ctx); err != nil {
		return status.Error(codes.Unauthenticated, err.Error())
	} else if !ok {
		return nil
	}
	snap, err := s.engine.GetSession(ctx, sessionID)
	if err != nil {
		return toStatus(err)
	}
	return checkOwner(ctx, snap.PlayerID)
}

func checkOwner(ctx context.Context, owner uuid.UUID) error {
	callerID, ok, err := playerIDFromContext(ctx)
	if err != nil {
		return status.Error(codes.Unauthenticated, err.Error())
	}
	if ok && callerID != owner {
		return status.Error(codes.PermissionDenied, "session belongs to another player")
	}
	return nil
}

// playerIDFromContext prova prima dalle metadata gRPC, poi dal context locale.
// ok=false se il chiamante non ha passato alcuna identita'.
func playerIDFromContext(ctx context.Context) (uuid.UUID, bool, error) {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(grpcx.PlayerIDMetadataKey); len(values) > 0 {
			parsed, err := uuid.Parse(strings.TrimSpace(values[0]))
			if err != nil {
				return uuid.Nil, false, errors.New("player_id metadata must be a valid UUID")
			}
			return parsed, true, nil
		}
	}

	value, ok := ctx.Value(grpcx.ContextPlayerIDKey).(string)
	if !ok || strings.TrimSpace(value) == "" {
		return uuid.Nil, false, nil
	}
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil, false, errors.New("player_id must be a valid UUID")
	}
	return parsed, true, nil
}

func parseSessionID(raw string) (uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return uuid.Nil, status.Error(codes.InvalidArgument, "session_id is required")
	}
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, status.Error(codes.InvalidArgument, "session_id must be a valid UUID")
	}
	return id, nil
}

// toStatus mappa gli errori di dominio in codici gRPC.
func toStatus(err error) error {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return status.Error(codes.NotFound, "session not found")
	case errors.Is(err, ErrSessionNotActive):
		return status.Error(codes.FailedPrecondition, "session not active")
	case errors.Is(err, ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrConcurrentUpdate):
		return status.Error(codes.Aborted, "concurrent update on session, retry")
	case errors.Is(err, ErrPersistence):
		return status.Error(codes.Unavailable, "storage unavailable")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func suitToPB(s cards.Suit) highlowv1.Suit {
	switch s {
	case cards.Hearts:
		return highlowv1.SuitHearts
	case cards.Diamonds:
		return highlowv1.SuitDiamonds
	case cards.Clubs:
		return highlowv1.SuitClubs
	case cards.Spades:
		return highlowv1.SuitSpades
	default:
		return highlowv1.SuitUnspecified
	}
}

func statusToPB(s Status) highlowv1.SessionStatus {
	switch s {
	case StatusActive:
		return highlowv1.SessionStatusActive
	case StatusTerminated:
		return highlowv1.SessionStatusTerminated
	case StatusTimeout:
		return highlowv1.SessionStatusTimeout
	default:
		return highlowv1.SessionStatusUnspecified
	}
}

func guessToPB(g Guess) highlowv1.Guess {
	switch g {
	case GuessHigher:
		return highlowv1.GuessHigher
	case GuessLower:
		return highlowv1.GuessLower
	case GuessEqual:
		return highlowv1.GuessEqual
	default:
		return highlowv1.GuessUnspecified
	}
}

// guessFromPB rifiuta ogni valore fuori dall'enum chiuso.
func guessFromPB(g highlowv1.Guess) (Guess, bool) {
	switch g {
	case highlowv1.GuessHigher:
		return GuessHigher, true
	case highlowv1.GuessLower:
		return GuessLower, true
	case highlowv1.GuessEqual:
		return GuessEqual, true
	default:
		return 0, false
	}
}
