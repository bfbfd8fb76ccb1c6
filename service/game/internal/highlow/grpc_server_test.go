package highlow

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"HighLow/pkg/grpcx"
	highlowv1 "HighLow/proto/highlow/v1"
	"HighLow/service/game/internal/cards"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

// fakeEngine simula il layer dominio per testare il handler gRPC.
type fakeEngine struct {
	session    Session
	round      Round
	snapshot   Snapshot
	rounds     []Round
	err        error
	lastBet    decimal.Decimal
	lastGuess  Guess
	lastPlayer uuid.UUID
	roundCalls int
}

func (f *fakeEngine) StartSession(_ context.Context, playerID uuid.UUID) (Session, error) {
	f.lastPlayer = playerID
	return f.session, f.err
}

func (f *fakeEngine) StartRound(_ context.Context, _ uuid.UUID, bet decimal.Decimal, guess Guess) (Round, error) {
	f.roundCalls++
	f.lastBet = bet
	f.lastGuess = guess
	return f.round, f.err
}

func (f *fakeEngine) EndSession(_ context.Context, _ uuid.UUID) (Session, error) {
	return f.session, f.err
}

func (f *fakeEngine) TimeoutSession(_ context.Context, _ uuid.UUID) (Session, error) {
	return f.session, f.err
}

func (f *fakeEngine) GetSession(_ context.Context, _ uuid.UUID) (Snapshot, error) {
	return f.snapshot, f.err
}

func (f *fakeEngine) ListRounds(_ context.Context, _ uuid.UUID) (Session, []Round, error) {
	return f.session, f.rounds, f.err
}

func withPlayer(playerID uuid.UUID) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs(grpcx.PlayerIDMetadataKey, playerID.String()))
}

// Verifica mapping OK e conversione a risposta gRPC.
func TestStartSessionOK(t *testing.T) {
	playerID := uuid.New()
	engine := &fakeEngine{session: Session{
		ID:        uuid.New(),
		PlayerID:  playerID,
		StartCard: cards.Card{Value: 7, Suit: cards.Hearts},
		Status:    StatusActive,
	}}
	server := NewGRPCServer(engine)

	resp, err := server.StartSession(withPlayer(playerID), &highlowv1.StartSessionRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.SessionId != engine.session.ID.String() {
		t.Fatalf("unexpected session_id %s", resp.SessionId)
	}
	if resp.StartCardValue != 7 || resp.StartCardSuit != highlowv1.SuitHearts {
		t.Fatalf("unexpected start card %d %s", resp.StartCardValue, resp.StartCardSuit)
	}
	if engine.lastPlayer != playerID {
		t.Fatalf("expected player from metadata")
	}
}

// player_id in request diverso dal chiamante: PermissionDenied.
func TestStartSessionPlayerMismatch(t *testing.T) {
	server := NewGRPCServer(&fakeEngine{})

	_, err := server.StartSession(withPlayer(uuid.New()), &highlowv1.StartSessionRequest{PlayerId: uuid.NewString()})
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected PermissionDenied, got %v", err)
	}
}

func TestStartSessionMissingPlayer(t *testing.T) {
	server := NewGRPCServer(&fakeEngine{})

	_, err := server.StartSession(context.Background(), &highlowv1.StartSessionRequest{})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

// Validazione della request prima di arrivare al dominio.
func TestStartRoundInvalidArguments(t *testing.T) {
	cases := []struct {
		name string
		req  *highlowv1.StartRoundRequest
	}{
		{"nil request", nil},
		{"missing session", &highlowv1.StartRoundRequest{BetAmount: "10", Guess: highlowv1.GuessHigher}},
		{"bad session", &highlowv1.StartRoundRequest{SessionId: "nope", BetAmount: "10", Guess: highlowv1.GuessHigher}},
		{"bad bet", &highlowv1.StartRoundRequest{SessionId: uuid.NewString(), BetAmount: "ten", Guess: highlowv1.GuessHigher}},
		{"zero bet", &highlowv1.StartRoundRequest{SessionId: uuid.NewString(), BetAmount: "0", Guess: highlowv1.GuessHigher}},
		{"negative bet", &highlowv1.StartRoundRequest{SessionId: uuid.NewString(), BetAmount: "-1", Guess: highlowv1.GuessLower}},
		{"missing guess", &highlowv1.StartRoundRequest{SessionId: uuid.NewString(), BetAmount: "10"}},
		{"unknown guess", &highlowv1.StartRoundRequest{SessionId: uuid.NewString(), BetAmount: "10", Guess: "SIDEWAYS"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := &fakeEngine{}
			server := NewGRPCServer(engine)
			_, err := server.StartRound(context.Background(), tc.req)
			if status.Code(err) != codes.InvalidArgument {
				t.Fatalf("expected InvalidArgument, got %v", err)
			}
			if engine.roundCalls != 0 {
				t.Fatalf("engine must not be called on invalid input")
			}
		})
	}
}

func TestStartRoundOK(t *testing.T) {
	engine := &fakeEngine{round: Round{
		Number:       3,
		PreviousCard: cards.Card{Value: 7, Suit: cards.Hearts},
		NewCard:      cards.Card{Value: 10, Suit: cards.Clubs},
		IsWin:        true,
		WinAmount:    decimal.NewFromInt(20),
	}}
	server := NewGRPCServer(engine)

	resp, err := server.StartRound(context.Background(), &highlowv1.StartRoundRequest{
		SessionId: uuid.NewString(),
		BetAmount: "10.00",
		Guess:     highlowv1.GuessHigher,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.IsWin || resp.WinAmount != "20.00" || resp.RoundNumber != 3 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.NewCardValue != 10 || resp.NewCardSuit != highlowv1.SuitClubs {
		t.Fatalf("unexpected new card: %+v", resp)
	}
	if engine.lastGuess != GuessHigher || !engine.lastBet.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected args passed to engine: %s %s", engine.lastBet, engine.lastGuess)
	}
}

// Il chiamante non proprietario non puo' giocare sulla sessione.
func TestStartRoundWrongOwner(t *testing.T) {
	engine := &fakeEngine{snapshot: Snapshot{Session: Session{PlayerID: uuid.New()}}}
	server := NewGRPCServer(engine)

	_, err := server.StartRound(withPlayer(uuid.New()), &highlowv1.StartRoundRequest{
		SessionId: uuid.NewString(),
		BetAmount: "1",
		Guess:     highlowv1.GuessLower,
	})
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected PermissionDenied, got %v", err)
	}
	if engine.roundCalls != 0 {
		t.Fatalf("engine must not be called for another player's session")
	}
}

// Mapping degli errori di dominio in codici gRPC.
func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
	}{
		{ErrSessionNotFound, codes.NotFound},
		{ErrSessionNotActive, codes.FailedPrecondition},
		{fmt.Errorf("%w: bad bet", ErrInvalidInput), codes.InvalidArgument},
		{ErrConcurrentUpdate, codes.Aborted},
		{fmt.Errorf("%w: %w", ErrPersistence, errors.New("db down")), codes.Unavailable},
		{ErrCardDraw, codes.Internal},
	}
	for _, tc := range cases {
		t.Run(tc.code.String(), func(t *testing.T) {
			server := NewGRPCServer(&fakeEngine{err: tc.err})
			_, err := server.EndSession(context.Background(), &highlowv1.EndSessionRequest{SessionId: uuid.NewString()})
			if status.Code(err) != tc.code {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

// dialBufconn avvia il server reale su bufconn e ritorna un client.
func dialBufconn(t *testing.T, service *Service) highlowv1.HighLowServiceClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	highlowv1.RegisterHighLowServiceServer(server, NewGRPCServer(service))
	go func() {
		_ = server.Serve(lis)
	}()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial bufconn: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return highlowv1.NewHighLowServiceClient(conn)
}

// Giro completo sul wire con codec JSON e store in memoria.
func TestGRPCEndToEnd(t *testing.T) {
	deck := newScriptedDeck(mustCard(t, 7, cards.Hearts), mustCard(t, 10, cards.Clubs), mustCard(t, 10, cards.Spades))
	service, _ := newTestService(deck, nil)
	client := dialBufconn(t, service)

	playerID := uuid.New()
	ctx := metadata.AppendToOutgoingContext(context.Background(), grpcx.PlayerIDMetadataKey, playerID.String())

	started, err := client.StartSession(ctx, &highlowv1.StartSessionRequest{})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if started.StartCardValue != 7 || started.StartCardSuit != highlowv1.SuitHearts {
		t.Fatalf("unexpected start card: %+v", started)
	}

	first, err := client.StartRound(ctx, &highlowv1.StartRoundRequest{SessionId: started.SessionId, BetAmount: "10", Guess: highlowv1.GuessHigher})
	if err != nil {
		t.Fatalf("StartRound 1: %v", err)
	}
	if !first.IsWin || first.WinAmount != "20.00" || first.RoundNumber != 1 {
		t.Fatalf("unexpected round 1: %+v", first)
	}

	second, err := client.StartRound(ctx, &highlowv1.StartRoundRequest{SessionId: started.SessionId, BetAmount: "5", Guess: highlowv1.GuessEqual})
	if err != nil {
		t.Fatalf("StartRound 2: %v", err)
	}
	if !second.IsWin || second.WinAmount != "50.00" || second.RoundNumber != 2 {
		t.Fatalf("unexpected round 2: %+v", second)
	}
	if second.PreviousCardValue != 10 || second.PreviousCardSuit != highlowv1.SuitClubs {
		t.Fatalf("round 2 must start from round 1 new card: %+v", second)
	}

	history, err := client.ListRounds(ctx, &highlowv1.ListRoundsRequest{SessionId: started.SessionId})
	if err != nil {
		t.Fatalf("ListRounds: %v", err)
	}
	if len(history.Rounds) != 2 || history.Rounds[1].Guess != highlowv1.GuessEqual {
		t.Fatalf("unexpected history: %+v", history.Rounds)
	}

	ended, err := client.EndSession(ctx, &highlowv1.EndSessionRequest{SessionId: started.SessionId})
	if err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	if ended.Status != highlowv1.SessionStatusTerminated {
		t.Fatalf("expected TERMINATED, got %s", ended.Status)
	}

	_, err = client.StartRound(ctx, &highlowv1.StartRoundRequest{SessionId: started.SessionId, BetAmount: "5", Guess: highlowv1.GuessLower})
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("expected FailedPrecondition after end, got %v", err)
	}

	snap, err := client.GetSession(ctx, &highlowv1.GetSessionRequest{SessionId: started.SessionId})
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if snap.Session.RoundCount != 2 || snap.Session.CurrentCardValue != 10 || snap.Session.CurrentCardSuit != highlowv1.SuitSpades {
		t.Fatalf("unexpected snapshot: %+v", snap.Session)
	}

	_, err = client.TimeoutSession(context.Background(), &highlowv1.TimeoutSessionRequest{SessionId: uuid.NewString()})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound for unknown session, got %v", err)
	}
}
