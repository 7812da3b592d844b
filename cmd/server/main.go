package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/aroi-pos/api/internal/config"
	"github.com/aroi-pos/api/internal/database"
	"github.com/aroi-pos/api/internal/logger"
	"github.com/aroi-pos/api/internal/router"
	"github.com/aroi-pos/api/internal/scheduler"
	"github.com/aroi-pos/api/internal/service"
	"github.com/aroi-pos/api/internal/ws"
)

func main() {
	cfg := config.Load()
	log := logger.Must(logger.New())
	defer log.Sync() //nolint:errcheck

	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatal("migrations failed", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatal("database ping failed", zap.Error(err))
	}
	log.Info("connected to database")

	queries := database.New(pool)
	loc := cfg.Location()

	hub := ws.NewHub()
	go hub.Run()

	feed := service.NewFeed(queries, hub, logger.Named(log, "feed"))
	ledger := service.NewLedgerService(queries, pool, func(db database.DBTX) service.Store {
		return database.New(db)
	}, loc)

	sched := scheduler.NewScheduler(cfg.CloseDayCron, ledger, feed, loc, logger.Named(log, "scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router.New(cfg, queries, hub, feed, ledger),
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-stop
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", zap.Error(err))
	}
}
