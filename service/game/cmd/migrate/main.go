package main

import (
	"context"
	"database/sql"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"HighLow/service/game/internal/config"
	"HighLow/service/game/internal/db"
	"HighLow/service/game/migrations"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 1) Carica env dedicato al game-svc.
	envPath := os.Getenv("GO_DOTENV_PATH")
	if envPath == "" {
		envPath = "service/game/.env"
	}
	if err := godotenv.Overload(envPath); err != nil {
		logger.Warn("impossibile caricare .env", "path", envPath, "error", err)
	} else {
		logger.Info(".env caricato", "path", envPath)
	}

	// 2) Costruisce la DSN e apre il DB.
	cfg, err := config.Load()
	if err != nil {
		logger.Error("config non valida", "error", err)
		os.Exit(1)
	}
	database, err := db.Open(cfg.DBDSN)
	if err != nil {
		logger.Error("db connection failed", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	// 3) Senza argomenti applica gli script incorporati, altrimenti i file passati.
	if len(os.Args) > 1 {
		for _, file := range os.Args[1:] {
			content, err := os.ReadFile(file)
			if err != nil {
				logger.Error("lettura sql fallita", "file", file, "error", err)
				os.Exit(1)
			}
			if err := execSQL(database, string(content)); err != nil {
				logger.Error("esecuzione sql fallita", "file", file, "error", err)
				os.Exit(1)
			}
			logger.Info("sql eseguito", "file", file)
		}
		return
	}

	names, err := migrations.Names()
	if err != nil {
		logger.Error("lista migrazioni fallita", "error", err)
		os.Exit(1)
	}
	for _, name := range names {
		content, err := fs.ReadFile(migrations.FS(), name)
		if err != nil {
			logger.Error("lettura migrazione fallita", "file", name, "error", err)
			os.Exit(1)
		}
		if err := execSQL(database, string(content)); err != nil {
			logger.Error("migrazione fallita", "file", name, "error", err)
			os.Exit(1)
		}
		logger.Info("migrazione applicata", "file", name)
	}
}

// execSQL esegue uno script in una singola transazione.
func execSQL(database *sql.DB, content string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, content); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
