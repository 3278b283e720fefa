package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/squad-service/internal/api/http"
	"github.com/spec-kit/squad-service/internal/api/http/handlers"
	"github.com/spec-kit/squad-service/internal/api/validation"
	"github.com/spec-kit/squad-service/internal/auth"
	"github.com/spec-kit/squad-service/internal/config"
	"github.com/spec-kit/squad-service/internal/events"
	"github.com/spec-kit/squad-service/internal/mail"
	"github.com/spec-kit/squad-service/internal/observability"
	"github.com/spec-kit/squad-service/internal/persistence"
	"github.com/spec-kit/squad-service/internal/quiz"
	"github.com/spec-kit/squad-service/internal/realtime"
	"github.com/spec-kit/squad-service/internal/repository"
	"github.com/spec-kit/squad-service/internal/service"
	"github.com/spec-kit/squad-service/internal/worker"
	"github.com/spec-kit/squad-service/migrations"
)

const shutdownTimeout = 15 * time.Second

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

	metrics := observability.NewMetrics("squad")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), migrations.FS, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	profileRepo := repository.NewProfileRepository(pool)
	teamRepo := repository.NewTeamRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)
	callupRepo := repository.NewCallupRepository(pool)
	scheduledRepo := repository.NewScheduledCallupRepository(pool)
	quizRepo := repository.NewQuizRepository(pool)
	assignmentRepo := repository.NewTheoryAssignmentRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	hub := realtime.NewHub(realtime.NewRedisBus(redis.Client), cfg.Realtime.ChannelPrefix, logger, metrics)
	sender := mail.NewSender(cfg.Notification, cfg.App.Name, logger)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		ProfileRepo: profileRepo,
		ResetRepo:   resetRepo,
		Mailer:      sender,
		Logger:      logger,
	})
	profileService := service.NewProfileService(profileRepo, dispatcher, logger)
	teamService := service.NewTeamService(service.TeamDependencies{
		TeamRepo:    teamRepo,
		ProfileRepo: profileRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	activityService := service.NewActivityService(cfg.Calendar, service.ActivityDependencies{
		ActivityRepo: activityRepo,
		TeamRepo:     teamRepo,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	callupService := service.NewCallupService(service.CallupDependencies{
		ActivityRepo: activityRepo,
		CallupRepo:   callupRepo,
		ProfileRepo:  profileRepo,
		TeamRepo:     teamRepo,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	scheduledService := service.NewScheduledCallupService(service.ScheduledCallupDependencies{
		ScheduledRepo: scheduledRepo,
		ActivityRepo:  activityRepo,
		ProfileRepo:   profileRepo,
		TeamRepo:      teamRepo,
		Callups:       callupService,
		Dispatcher:    dispatcher,
		Logger:        logger,
		BatchSize:     cfg.Scheduler.BatchSize,
	})
	quizService := service.NewQuizService(quizRepo, teamRepo, dispatcher, logger)
	theoryService := service.NewTheoryService(service.TheoryDependencies{
		AssignmentRepo: assignmentRepo,
		QuizRepo:       quizRepo,
		ProfileRepo:    profileRepo,
		TeamRepo:       teamRepo,
		Attempts:       quiz.NewRedisStore(redis.Client, redis.Key(), cfg.Quiz.AttemptTTL()),
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	notificationService := service.NewNotificationService(dispatcher, profileRepo, sender, logger, cfg.Calendar)
	worker.StartNotificationWorker(dispatcher, notificationService, hub)

	var callupWorker *worker.ScheduledCallupWorker
	if cfg.Scheduler.Enabled {
		callupWorker, err = worker.NewScheduledCallupWorker(cfg.Scheduler, scheduledService, logger, metrics)
		if err != nil {
			logger.Fatal("failed to init scheduler", zap.Error(err))
		}
		callupWorker.Start()
	}

	validator, err := validation.New()
	if err != nil {
		logger.Fatal("failed to init validator", zap.Error(err))
	}
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), profileRepo)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.IsProduction(),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, validator, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService, validator),
		Profile:        handlers.NewProfileHandler(profileService, validator),
		Teams:          handlers.NewTeamsHandler(teamService, validator),
		Activities:     handlers.NewActivitiesHandler(activityService, validator),
		Callups:        handlers.NewCallupsHandler(callupService, scheduledService, validator),
		Quizzes:        handlers.NewQuizzesHandler(quizService, theoryService, validator),
		Events:         handlers.NewEventsHandler(teamService, hub, cfg.Realtime.Heartbeat(), logger),
		AuthMiddleware: authMiddleware,
		Registry:       metrics.Registry(),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if callupWorker != nil {
		callupWorker.Stop(shutdownCtx)
	}
	notificationService.Wait()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
