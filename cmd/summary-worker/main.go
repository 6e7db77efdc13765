package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/attendly/timeclock-backend/internal/attendance"
	"github.com/attendly/timeclock-backend/internal/summary"
	"github.com/attendly/timeclock-backend/internal/users"
	"github.com/attendly/timeclock-backend/pkg/config"
	"github.com/attendly/timeclock-backend/pkg/db"
	"github.com/attendly/timeclock-backend/pkg/logger"
	"github.com/attendly/timeclock-backend/pkg/pubsub"
	"github.com/attendly/timeclock-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "summary-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "summary-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	loc, err := cfg.App.Location()
	requireResource(ctx, logg, "timezone", err)

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "failed to close database", err)
		}
	}()

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "failed to close redis client", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "failed to close pubsub client", err)
		}
	}()

	subscription := pubsubClient.SummarySubscription()
	if subscription == nil {
		requireResource(ctx, logg, "summary subscription", errors.New("subscription not configured"))
	}

	attendanceService, err := attendance.NewService(attendance.ServiceParams{
		Repo:     attendance.NewRepository(dbClient.DB()),
		Users:    users.NewRepository(dbClient.DB()),
		Location: loc,
		Logger:   logg,
	})
	requireResource(ctx, logg, "attendance service", err)

	watcher, err := summary.NewWatcher(summary.Params{
		Subscriber:  subscription,
		Snapshotter: attendanceService,
		Cache:       redisClient,
		Logger:      logg,
	})
	requireResource(ctx, logg, "summary watcher", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{"env": cfg.App.Env})

	// Seed the cache before waiting on events so fresh deploys serve
	// summaries immediately.
	if err := watcher.Recompute(runCtx); err != nil {
		logg.Error(runCtx, "initial summary recompute failed", err)
	}

	if err := watcher.Start(runCtx); err != nil {
		requireResource(runCtx, logg, "summary watcher start", err)
	}
	logg.Info(runCtx, "summary worker ready")

	<-runCtx.Done()
	watcher.Stop()
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
