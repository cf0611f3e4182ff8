package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hireway/session-gateway/internal/api"
	"github.com/hireway/session-gateway/internal/core/ports"
	"github.com/hireway/session-gateway/internal/core/realtime"
	"github.com/hireway/session-gateway/internal/core/service"
	"github.com/hireway/session-gateway/internal/core/session"
	"github.com/hireway/session-gateway/internal/infrastructure/backendapi"
	"github.com/hireway/session-gateway/internal/infrastructure/config"
	mongodb "github.com/hireway/session-gateway/internal/infrastructure/db/mongo"
	redisdb "github.com/hireway/session-gateway/internal/infrastructure/db/redis"
	"github.com/hireway/session-gateway/internal/infrastructure/queue"
	"github.com/hireway/session-gateway/internal/infrastructure/tokenfile"
	"github.com/hireway/session-gateway/internal/infrastructure/ws"
	"github.com/hireway/session-gateway/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		println("configuration error:", err.Error())
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	// --- Infrastructure ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	tokens := tokenfile.NewStore(cfg.Token.Path)
	backend := backendapi.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, log)
	messages := mongodb.NewMessageRepository(db)
	dedup := redisdb.NewDedupChecker(rdb)
	redirects := redisdb.NewRedirectStore(rdb)

	// --- Core ---
	store := session.NewStore(tokens, backend, log)
	eligibility := service.NewEligibilityService(backend, log)

	manager := realtime.NewManager(store, eligibility, messages, nil, func() ports.RealtimeTransport {
		return ws.NewTransport(cfg.Backend.WSURL, log)
	}, log)

	notifications := service.NewNotificationService(messages, dedup, manager, log)
	dispatcher := queue.NewDispatcher(cfg.Realtime.Workers, notifications, log)
	dispatcher.Start(ctx)
	manager.SetPipeline(dispatcher)

	log.Info().Str("instance", store.InstanceID()).Msg("session gateway starting")

	if err := store.Initialize(ctx); err != nil {
		// Not fatal: an invalid stored token just means anonymous start.
		log.Warn().Err(err).Msg("initial session derivation failed")
	}

	e := api.NewRouter(api.Deps{
		Session:   store,
		Realtime:  manager,
		Backend:   backend,
		Tokens:    tokens,
		Redirects: redirects,
		Mongo:     db,
		Redis:     rdb,
		Log:       log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	go manager.Run(ctx)

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
}
