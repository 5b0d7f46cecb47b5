package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable-api/api/swagger"
	"github.com/noah-isme/sma-timetable-api/internal/engine"
	"github.com/noah-isme/sma-timetable-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/cache"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
)

// @title College Timetable API
// @version 1.0.0
// @description Generates weekly college timetables from teachers, rooms, courses and teacher preferences.
// @BasePath /api/v1
// @schemes http

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(ctx, db); err != nil {
		return err
	}

	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			// the service still works without the result cache
			logr.Warn("redis unavailable, result cache disabled", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(client, "timetable:", logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.ResultTTL, logr, cfg.Cache.Enabled)

	validate := validator.New()
	infraRepo := repository.NewInfrastructureRepository(db)
	prefSvc := service.NewTeacherPreferenceService(repository.NewTeacherPreferenceRepository(db), validate, logr)
	infraSvc := service.NewInfrastructureService(infraRepo, prefSvc, cacheSvc, cfg.Scheduler.WorkingDays, validate, logr)

	opts := engine.DefaultOptions()
	if cfg.Scheduler.AttemptFactor > 0 {
		opts.AttemptFactor = cfg.Scheduler.AttemptFactor
	}
	if cfg.Scheduler.TopCandidates > 0 {
		opts.TopCandidates = cfg.Scheduler.TopCandidates
	}
	timetableSvc := service.NewTimetableService(
		repository.NewGenerationRunRepository(db),
		infraRepo,
		prefSvc,
		cacheSvc,
		metrics,
		service.TimetableConfig{
			Enabled:     cfg.Scheduler.Enabled,
			WorkingDays: cfg.Scheduler.WorkingDays,
			Options:     opts,
			ResultTTL:   cfg.Cache.ResultTTL,
		},
		validate,
		logr,
	)

	// One worker keeps generation passes serialized.
	queue := jobs.NewQueue("timetable", timetableSvc.HandleJob, jobs.QueueConfig{
		Workers:     1,
		BufferSize:  cfg.Scheduler.QueueBuffer,
		MaxRetries:  cfg.Scheduler.QueueRetries,
		OnExhausted: timetableSvc.OnExhausted,
		Logger:      logr,
	})
	timetableSvc.AttachQueue(queue)
	queue.Start(ctx)
	defer queue.Stop()

	if n, err := timetableSvc.RequeuePending(ctx); err != nil {
		logr.Warn("requeue pending runs failed", zap.Error(err))
	} else if n > 0 {
		logr.Info("requeued pending runs", zap.Int("count", n))
	}

	metricsHandler := handler.NewMetricsHandler(metrics, map[string]handler.Pinger{
		"postgres": handler.PingFunc(db.PingContext),
		"cache":    cacheSvc,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics, "/metrics"))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	limiter := internalmiddleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	api := r.Group(cfg.APIPrefix)
	handler.RegisterRoutes(api, handler.Handlers{
		Timetable:         handler.NewTimetableHandler(timetableSvc, cfg.APIPrefix+"/timetables/runs"),
		Infrastructure:    handler.NewInfrastructureHandler(infraSvc),
		TeacherPreference: handler.NewTeacherPreferenceHandler(prefSvc),
		Metrics:           metricsHandler,
	}, limiter.Middleware())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
