package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/grievance-service/internal/api/http"
	"github.com/spec-kit/grievance-service/internal/api/http/handlers"
	"github.com/spec-kit/grievance-service/internal/auth"
	"github.com/spec-kit/grievance-service/internal/config"
	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/observability"
	"github.com/spec-kit/grievance-service/internal/persistence"
	"github.com/spec-kit/grievance-service/internal/repository"
	"github.com/spec-kit/grievance-service/internal/repository/memstore"
	"github.com/spec-kit/grievance-service/internal/service"
	"github.com/spec-kit/grievance-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, cfg.App, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var store repository.Store
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewPostgresStore(pg.Pool)
	} else {
		logger.Warn("using in-memory store; data is lost on restart")
		store = memstore.New()
	}

	checks := map[string]handlers.Pinger{"store": store}
	var alertGuard worker.AlertGuard
	if cfg.Redis.Addr != "" {
		redis := persistence.NewRedis(ctx, cfg.Redis, cfg.App, logger)
		defer redis.Close()
		checks["redis"] = redis
		alertGuard = worker.NewRedisAlertGuard(redis, logger)
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	grievanceService := service.NewGrievanceService(service.GrievanceDependencies{
		Store:            store,
		Routing:          service.NewRoutingEngine(cfg.Lifecycle.DefaultDistrict),
		Duplicates:       service.NewDuplicateDetector(cfg.Lifecycle.DuplicateThreshold, cfg.Lifecycle.DuplicateWindow()),
		TicketIDAttempts: cfg.Lifecycle.TicketIDAttempts,
		TicketLocation:   cfg.App.Location,
		Dispatcher:       dispatcher,
		Metrics:          metrics,
		Logger:           logger,
	})
	slaService := service.NewSLAService(service.SLADependencies{Store: store, Logger: logger})
	directoryService := service.NewDirectoryService(store, logger)
	analyticsService := service.NewAnalyticsService(service.AnalyticsDependencies{
		Store:    store,
		Logger:   logger,
		Location: cfg.App.Location,
	})

	notifications := service.NewNotificationService(dispatcher, store,
		service.LogSink{Logger: logger, SenderID: cfg.Notification.SenderID}, logger, cfg.Notification)
	worker.StartNotificationWorker(notifications)

	sweeper := worker.NewSLASweeper(ctx, slaService, dispatcher, alertGuard, cfg.SLA.AlertTTL(), logger)
	if err := sweeper.Start(cfg.SLA.SweepSchedule); err != nil {
		logger.Fatal("failed to start sla sweeper", zap.Error(err))
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, checks, metrics),
		Grievances:     handlers.NewGrievancesHandler(grievanceService),
		Directory:      handlers.NewDirectoryHandler(directoryService),
		SLA:            handlers.NewSLAHandler(slaService),
		Analytics:      handlers.NewAnalyticsHandler(analyticsService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	sweeper.Stop()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
