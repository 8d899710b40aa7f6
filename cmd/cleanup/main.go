// Command cleanup deletes old read notifications. It is meant to be run by an
// external scheduler (cron); the server process never purges on its own.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/aischool/dashboard/backend/internal/repositories"
	"github.com/aischool/dashboard/backend/pkg/config"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	days := flag.Int("days", cfg.RetentionDays, "delete read notifications older than this many days")
	flag.Parse()

	db, err := config.InitDB()
	if err != nil {
		logger.Error("failed to initialize database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.CloseDB()

	repo := repositories.NewPostgresNotificationRepository(db.Postgres)
	deleted, err := repo.DeleteOld(*days)
	if err != nil {
		logger.Error("cleanup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("cleanup complete",
		slog.Int64("deleted", deleted),
		slog.Int("retention_days", *days),
	)
}
