package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	highlowv1 "HighLow/proto/highlow/v1"
	"HighLow/service/game/internal/cards"
	"HighLow/service/game/internal/config"
	"HighLow/service/game/internal/db"
	"HighLow/service/game/internal/events"
	"HighLow/service/game/internal/highlow"
	"HighLow/service/game/internal/telemetry"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const serviceName = "game-svc"

func main() {
	// Bootstrap di logging e config.
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Carica le variabili da .env se presente (solo per dev).
	envPath := os.Getenv("GO_DOTENV_PATH")
	if envPath == "" {
		envPath = ".env"
	}
	if err := godotenv.Overload(envPath); err != nil {
		// Se manca il file .env, continuiamo con le env già presenti.
		logger.Warn("impossibile caricare .env", "path", envPath, "error", err)
	} else {
		logger.Info(".env caricato", "path", envPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// run ritorna invece di uscire: i defer di chiusura vengono sempre eseguiti.
	if err := run(ctx, logger); err != nil {
		logger.Error("game-svc terminato con errore", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config non valida: %w", err)
	}

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("otel shutdown failed", "error", err)
		}
	}()

	// Store scelto da STORE: postgres (default), redis o memory.
	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("store %s: %w", cfg.Store, err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("chiusura store fallita", "store", cfg.Store, "error", err)
		}
	}()

	// Il broker e' opzionale: senza AMQP_URL gli eventi non vengono pubblicati.
	var publisher highlow.EventPublisher
	if cfg.AMQPURL != "" {
		pub, err := events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return fmt.Errorf("rabbitmq init: %w", err)
		}
		defer pub.Close()
		publisher = pub
	} else {
		logger.Warn("AMQP_URL mancante, eventi disabilitati")
	}

	service := highlow.NewService(logger, store, cards.NewCryptoGenerator(), publisher)

	// Registra HighLowService e health check.
	server := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	highlowv1.RegisterHighLowServiceServer(server, highlow.NewGRPCServer(service))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)

	// Avvia il listener gRPC.
	listener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutdown richiesto")
		healthServer.Shutdown()
		server.GracefulStop()
	}()

	healthServer.SetServingStatus(highlowv1.ServiceName, healthpb.HealthCheckResponse_SERVING)
	logger.Info("game grpc listening", "addr", cfg.GRPCAddr, "store", cfg.Store)
	// ErrServerStopped: lo shutdown e' arrivato prima di Serve.
	if err := server.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// openStore costruisce il Persistence Gateway e la funzione che lo chiude allo shutdown.
func openStore(cfg config.Config, logger *slog.Logger) (highlow.Store, func() error, error) {
	switch cfg.Store {
	case config.StoreRedis:
		client, err := db.OpenRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return highlow.NewRedisStore(client, cfg.RedisMaxRetries), client.Close, nil
	case config.StoreMemory:
		logger.Warn("store in memoria: i dati non sopravvivono al riavvio")
		return highlow.NewMemoryStore(), func() error { return nil }, nil
	default:
		database, err := db.Open(cfg.DBDSN)
		if err != nil {
			return nil, nil, err
		}
		return highlow.NewPGStore(database), database.Close, nil
	}
}
