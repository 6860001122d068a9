// Command clear-records deletes every activity-log and quarantine entry in
// one transaction. It is an administrative reset for a training or demo
// station, run by hand, not by the service.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/2400030292/MedGuard-AI/internal/adapter/postgres"
	"github.com/2400030292/MedGuard-AI/internal/adapter/postgres/activitylog"
	"github.com/2400030292/MedGuard-AI/internal/adapter/postgres/quarantine"
	"github.com/2400030292/MedGuard-AI/internal/app"
	"github.com/2400030292/MedGuard-AI/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	if cfg.Database.InMemory() {
		logger.Info("no database configured, in-memory records vanish with the server process")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	activity := activitylog.New(logger, pool, nil, nil)
	queue := quarantine.New(logger, pool, nil, nil)

	var logged, quarantined int64
	err = postgres.NewTxManager(pool).RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if logged, err = activity.Clear(ctx); err != nil {
			return err
		}
		quarantined, err = queue.Clear(ctx)
		return err
	})
	if err != nil {
		logger.Error("clear records failed", slog.String("error", err.Error()))
		pool.Close()
		os.Exit(1)
	}

	logger.Info("records cleared",
		slog.Int64("activity_log", logged),
		slog.Int64("quarantine", quarantined),
	)
}
