package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/draftnight/draftnight-server/internal/config"
	"github.com/draftnight/draftnight-server/internal/httpapi"
	"github.com/draftnight/draftnight-server/internal/hub"
	"github.com/draftnight/draftnight-server/internal/lobby"
	"github.com/draftnight/draftnight-server/internal/models"
	"github.com/draftnight/draftnight-server/internal/pool"
	"github.com/draftnight/draftnight-server/internal/provider"
	"github.com/draftnight/draftnight-server/internal/sched"
	"github.com/draftnight/draftnight-server/internal/scoring"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config", zap.Error(err))
	}

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	scheduler := sched.New(clock)
	rules := scoring.DefaultRules()

	client := provider.NewClient(map[models.League]string{
		models.LeagueNBA: cfg.NBABaseURL,
		models.LeagueNHL: cfg.NHLBaseURL,
	}, cfg.APIKey, log)
	cached := provider.NewCached(client, cfg.ScheduleTTL, cfg.GameLogTTL, clock, log)

	pools := pool.New(cached, rules, clock, log, pool.Config{
		BatchSize:  cfg.BatchSize,
		BatchDelay: cfg.BatchDelay,
	})
	sweep := scheduler.Every(cfg.SweepInterval, func() { pools.Sweep(ctx) })
	defer sweep.Cancel()

	h := hub.NewHub(ctx, lobby.Deps{
		Log:              log,
		Sched:            scheduler,
		Pools:            pools,
		Provider:         cached,
		Rules:            rules,
		PollInterval:     cfg.PollInterval,
		SlowPollInterval: cfg.SlowPollInterval,
	}, hub.Config{
		MaxPlayersCap: 8,
		DefaultMax:    6,
		IdleAfter:     cfg.IdleAfter,
		SweepEvery:    cfg.IdleSweep,
	}, log)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.SetupRoutes(h, cached, pools, rules, log),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("listening", zap.String("addr", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("serve", zap.Error(err))
	}
	log.Info("shutting down")
}
