package db

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// pingTimeout limita l'attesa del primo contatto con lo storage.
const pingTimeout = 5 * time.Second

// Open crea la connessione Postgres e la valida con un ping.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		slog.Error("DB_DSN mancante")
		return nil, errors.New("DB_DSN is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	// Fallisce subito se il database non è raggiungibile.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		slog.Error("ping database fallito", "error", err)
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// OpenRedis crea il client Redis e lo valida con un ping.
func OpenRedis(addr, password string, database int) (*redis.Client, error) {
	if addr == "" {
		slog.Error("REDIS_ADDR mancante")
		return nil, errors.New("REDIS_ADDR is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       database,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("ping redis fallito", "error", err)
		_ = client.Close()
		return nil, err
	}

	return client, nil
}
