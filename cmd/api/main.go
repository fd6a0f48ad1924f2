package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/consciousness-labs/platform-api/internal/auth"
	"github.com/consciousness-labs/platform-api/internal/cache"
	"github.com/consciousness-labs/platform-api/internal/config"
	"github.com/consciousness-labs/platform-api/internal/engine"
	"github.com/consciousness-labs/platform-api/internal/heartbeat"
	"github.com/consciousness-labs/platform-api/internal/project"
	"github.com/consciousness-labs/platform-api/internal/router"
	"github.com/consciousness-labs/platform-api/internal/search"
	"github.com/consciousness-labs/platform-api/internal/user"
	"github.com/consciousness-labs/platform-api/pkg/database"
	"github.com/consciousness-labs/platform-api/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	lg, err := utilities.InitLogger(utilities.LogConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting consciousness platform api")

	cfg := config.FromEnv()

	db, err := database.Connect(database.Config{DSN: cfg.DatabaseURL})
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	statsCache, err := cache.New(cfg.RedisURL, cfg.RedisCacheTTL, sugar)
	if err != nil {
		// the cache is an optimization; run without it rather than die
		sugar.Warnf("redis connect: %v (continuing without cache)", err)
		statsCache = nil
	}
	defer statsCache.Close()

	eng := engine.NewClient(cfg.EngineURL, cfg.EngineAPIKey, cfg.EngineTimeout)
	searches := search.NewService(sugar)
	users := user.NewService(db, sugar, nil)
	projects := project.NewService(db, eng, searches, statsCache, sugar)
	tokens := auth.NewTokenIssuer(cfg.SecretKey, cfg.AccessTokenTTL)

	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := users.EnsureTables(initCtx); err != nil {
		initCancel()
		sugar.Fatalf("ensure user tables: %v", err)
	}
	if err := projects.EnsureTables(initCtx); err != nil {
		initCancel()
		sugar.Fatalf("ensure project tables: %v", err)
	}
	initCancel()

	hb := heartbeat.New(eng, users, projects, cfg.HeartbeatInterval, sugar)
	if err := hb.Start(); err != nil {
		sugar.Fatalf("heartbeat start: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := router.RegisterRoutes(router.Deps{
		Logger:   sugar,
		Config:   cfg,
		Users:    users,
		Projects: projects,
		Searches: searches,
		Tokens:   tokens,
	})
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler,
	}

	go func() {
		sugar.Infof("http server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()

	sugar.Info("shutting down")
	hb.Stop()

	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	if err := db.PingContext(doneCtx); err != nil {
		sugar.Warnf("db ping on shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
