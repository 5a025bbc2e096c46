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
	"github.com/spec-kit/grievance-service/internal/service"
	"github.com/spec-kit/grievance-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	issueRepo := repository.NewIssueRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	policyRepo := repository.NewSLAPolicyRepository(pool)
	recordRepo := repository.NewTicketSLARepository(pool)
	feedbackRepo := repository.NewFeedbackRepository(pool)
	historyRepo := repository.NewHistoryRepository(pool)
	analyticsRepo := repository.NewAnalyticsRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(cfg.Auth, userRepo)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	catalogService := service.NewCatalogService(departmentRepo, categoryRepo)
	policyService := service.NewSLAPolicyService(policyRepo, categoryRepo, recordRepo)
	attachService := service.NewSLAAttachService(
		ticketRepo, issueRepo, categoryRepo, recordRepo, historyRepo,
		policyService, logger, cfg.SLA.FallbackResponseFraction,
	)
	breachService := service.NewBreachService(recordRepo, historyRepo, dispatcher, logger, cfg.SLA.SweepChunkSize)
	issueService := service.NewIssueService(issueRepo, categoryRepo, historyRepo, dispatcher, logger)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		IssueRepo:      issueRepo,
		DepartmentRepo: departmentRepo,
		HistoryRepo:    historyRepo,
		Attacher:       attachService,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	feedbackService := service.NewFeedbackService(feedbackRepo, ticketRepo, issueRepo)
	analyticsService := service.NewAnalyticsService(
		analyticsRepo, recordRepo, redis.Handle(), cfg.SLA.DashboardCacheTTL(), logger,
	)

	escalation := worker.NewEscalationWorker(logger)
	escalation.Register(dispatcher)

	sweeper := worker.NewSweepWorker(breachService, metrics, logger, cfg.SLA.SweepCron)
	if err := sweeper.Start(ctx); err != nil {
		logger.Fatal("failed to start sla sweep worker", zap.Error(err))
	}
	defer sweeper.Stop()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Catalog:        handlers.NewCatalogHandler(catalogService),
		Issues:         handlers.NewIssuesHandler(issueService),
		Tickets:        handlers.NewTicketsHandler(ticketService, feedbackService),
		SLA:            handlers.NewSLAHandler(policyService, attachService, breachService, recordRepo, metrics),
		Analytics:      handlers.NewAnalyticsHandler(analyticsService, historyRepo),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
