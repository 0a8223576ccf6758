// Command migrate applies the session service schema without starting the
// server.
package main

import (
	"log/slog"
	"os"

	"pomorix/internal/config"
	"pomorix/internal/db"
	"pomorix/migrations"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	applied, err := db.RunMigrations(database, migrations.Source(cfg.MigrationsDir))
	if err != nil {
		logger.Error("run migrations", "error", err)
		database.Close()
		os.Exit(1)
	}

	if len(applied) == 0 {
		logger.Info("schema is up to date", "db", cfg.DBPath)
		return
	}
	logger.Info("migrations applied", "db", cfg.DBPath, "files", applied)
}
