package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/assembly-hq/assembly/internal/actionitems"
	"github.com/assembly-hq/assembly/internal/advertisements"
	"github.com/assembly-hq/assembly/internal/agenda"
	"github.com/assembly-hq/assembly/internal/app"
	"github.com/assembly-hq/assembly/internal/auth"
	"github.com/assembly-hq/assembly/internal/chats"
	"github.com/assembly-hq/assembly/internal/events"
	"github.com/assembly-hq/assembly/internal/graphql"
	"github.com/assembly-hq/assembly/internal/notifications"
	"github.com/assembly-hq/assembly/internal/observability"
	"github.com/assembly-hq/assembly/internal/organizations"
	"github.com/assembly-hq/assembly/internal/platform/cache"
	"github.com/assembly-hq/assembly/internal/platform/db"
	"github.com/assembly-hq/assembly/internal/posts"
	"github.com/assembly-hq/assembly/internal/tags"
	"github.com/assembly-hq/assembly/internal/users"
	"github.com/assembly-hq/assembly/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	userRepo := users.NewRepository(pool, logger)
	orgRepo := organizations.NewRepository(pool, logger)
	eventRepo := events.NewRepository(pool, logger)
	itemRepo := actionitems.NewRepository(pool, logger)
	postRepo := posts.NewRepository(pool, logger)
	chatRepo := chats.NewRepository(pool, logger)
	tagRepo := tags.NewRepository(pool, logger)
	agendaRepo := agenda.NewRepository(pool, logger)
	adRepo := advertisements.NewRepository(pool, logger)
	notificationRepo := notifications.NewRepository(pool, logger)

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	membershipCache := organizations.NewMembershipCache(redisClient, orgRepo, cfg.MembershipCacheTTL, logger)
	authMiddleware := auth.NewMiddleware(tokens, userRepo, membershipCache, logger)

	notificationSvc := notifications.NewService(notificationRepo, orgRepo, jobClient, logger)

	eventSvc := events.NewService(eventRepo, orgRepo, logger)
	eventSvc.SetNotifier(notificationSvc)
	itemSvc := actionitems.NewService(itemRepo, eventRepo)
	itemSvc.SetNotifier(notificationSvc)
	postSvc := posts.NewService(postRepo, orgRepo)
	postSvc.SetNotifier(notificationSvc)
	chatSvc := chats.NewService(chatRepo, orgRepo)
	chatSvc.SetNotifier(notificationSvc)
	orgSvc := organizations.NewService(orgRepo, membershipCache)
	orgSvc.SetNotifier(notificationSvc)

	svc := graphql.Services{
		Auth:           auth.NewService(userRepo, tokens),
		Users:          users.NewService(userRepo),
		Organizations:  orgSvc,
		Events:         eventSvc,
		ActionItems:    itemSvc,
		Posts:          postSvc,
		Chats:          chatSvc,
		Tags:           tags.NewService(tagRepo),
		Agenda:         agenda.NewService(agendaRepo, eventRepo, logger),
		Advertisements: advertisements.NewService(adRepo),
		Notifications:  notificationSvc,
	}

	metrics := observability.NewMetrics()
	snapshots := observability.NewSnapshotRing(256)

	schema, err := graphql.ParseSchema(graphql.HandlerConfig{
		Services:  svc,
		Metrics:   metrics,
		Snapshots: snapshots,
	})
	if err != nil {
		logger.Error("parse schema", slog.Any("error", err))
		os.Exit(1)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		GraphQLHandler: graphql.NewHandler(schema),
		AuthMiddleware: authMiddleware.Handler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				agg := snapshots.Summarize()
				if agg.Count == 0 {
					continue
				}
				logger.Info("graphql timing summary",
					slog.Int("requests", agg.Count),
					slog.Duration("avg", agg.AvgDuration),
					slog.Duration("max", agg.MaxDuration))
			}
		}
	}()

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
