package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"HighLow/pkg/grpcx"
	highlowv1 "HighLow/proto/highlow/v1"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 1) Carica env per l'indirizzo del game-svc.
	envPath := os.Getenv("GO_DOTENV_PATH")
	if envPath == "" {
		envPath = "service/game/.env"
	}
	if err := godotenv.Overload(envPath); err != nil {
		logger.Warn("impossibile caricare .env", "path", envPath, "error", err)
	}

	addr := flag.String("addr", envOr("GAME_GRPC_ADDR", "localhost:50061"), "indirizzo gRPC del game-svc")
	rounds := flag.Int("rounds", 3, "round da giocare")
	bet := flag.String("bet", "1.00", "puntata per round")
	guess := flag.String("guess", string(highlowv1.GuessHigher), "HIGHER, LOWER o EQUAL")
	flag.Parse()

	// 2) Player da PLAYER_ID o generato al volo.
	playerID := os.Getenv("PLAYER_ID")
	if playerID == "" {
		playerID = uuid.NewString()
	}

	conn, err := grpc.NewClient(*addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		logger.Error("grpc dial failed", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 3) Attende che il servizio sia SERVING.
	if err := waitForHealth(ctx, conn); err != nil {
		logger.Error("game-svc non disponibile", "error", err)
		os.Exit(1)
	}

	// 4) Gioca una sessione e stampa il risultato.
	ctx = metadata.AppendToOutgoingContext(ctx, grpcx.PlayerIDMetadataKey, playerID)
	client := highlowv1.NewHighLowServiceClient(conn)

	started, err := client.StartSession(ctx, &highlowv1.StartSessionRequest{})
	if err != nil {
		logger.Error("start session fallita", "error", err)
		os.Exit(1)
	}
	fmt.Printf("session_id=%s start_card=%d/%s\n", started.SessionId, started.StartCardValue, started.StartCardSuit)

	for i := 0; i < *rounds; i++ {
		resp, err := client.StartRound(ctx, &highlowv1.StartRoundRequest{
			SessionId: started.SessionId,
			BetAmount: *bet,
			Guess:     highlowv1.Guess(*guess),
		})
		if err != nil {
			logger.Error("round fallito", "round", i+1, "error", err)
			os.Exit(1)
		}
		fmt.Printf("round=%d %d/%s -> %d/%s win=%v amount=%s\n",
			resp.RoundNumber, resp.PreviousCardValue, resp.PreviousCardSuit,
			resp.NewCardValue, resp.NewCardSuit, resp.IsWin, resp.WinAmount)
	}

	ended, err := client.EndSession(ctx, &highlowv1.EndSessionRequest{SessionId: started.SessionId})
	if err != nil {
		logger.Error("end session fallita", "error", err)
		os.Exit(1)
	}
	fmt.Printf("session_id=%s status=%s\n", ended.SessionId, ended.Status)
}

// waitForHealth riprova l'health check con backoff finche' il contesto scade.
func waitForHealth(ctx context.Context, conn *grpc.ClientConn) error {
	client := healthpb.NewHealthClient(conn)
	backoff := 200 * time.Millisecond
	for {
		callCtx, cancel := context.WithTimeout(ctx, time.Second)
		resp, err := client.Check(callCtx, &healthpb.HealthCheckRequest{Service: highlowv1.ServiceName})
		cancel()
		if err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for gRPC health: %w", ctx.Err())
		case <-time.After(backoff):
		}
		if backoff < time.Second {
			backoff *= 2
		}
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
