package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/lesson-booking-api/api/swagger"
	"github.com/noah-isme/lesson-booking-api/internal/cache"
	"github.com/noah-isme/lesson-booking-api/internal/handler"
	"github.com/noah-isme/lesson-booking-api/internal/middleware"
	"github.com/noah-isme/lesson-booking-api/internal/models"
	"github.com/noah-isme/lesson-booking-api/internal/queue"
	"github.com/noah-isme/lesson-booking-api/internal/repository"
	"github.com/noah-isme/lesson-booking-api/internal/service"
	"github.com/noah-isme/lesson-booking-api/internal/store"
	pkgcache "github.com/noah-isme/lesson-booking-api/pkg/cache"
	"github.com/noah-isme/lesson-booking-api/pkg/config"
	"github.com/noah-isme/lesson-booking-api/pkg/database"
	"github.com/noah-isme/lesson-booking-api/pkg/lock"
	"github.com/noah-isme/lesson-booking-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lesson-booking-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lesson-booking-api/pkg/middleware/requestid"
	"github.com/noah-isme/lesson-booking-api/pkg/storage"
)

// @title Lesson Booking API
// @version 1.0.0
// @description Reservation and availability core for classroom lessons
// @BasePath /api/v1
// @schemes http

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := pkgcache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}

	tableStore := store.NewPostgresStore(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	manager := cache.NewManager(cacheRepo, tableStore, metricsSvc, logr, cfg.Cache)
	locker := lock.NewRedisLocker(redisClient)

	var notifier service.Notifier
	if cfg.Notifier.Enabled {
		publisher, err := queue.NewPublisher(cfg.Notifier, logr)
		if err != nil {
			logr.Fatal("failed to connect notifier broker", zap.Error(err))
		}
		defer publisher.Close() //nolint:errcheck
		notifier = publisher
	}

	validate := validator.New()
	authSvc := service.NewAuthService(cfg.JWT.Secret, logr)
	availabilitySvc := service.NewAvailabilityService(manager, cfg.Booking, logr)
	reservationSvc := service.NewReservationService(manager, manager, availabilitySvc, tableStore, locker, notifier, metricsSvc, cfg.Booking, validate, logr)
	lessonSvc := service.NewLessonService(manager, manager, tableStore, logr)

	maintenanceSvc := service.NewMaintenanceService(manager, locker, cfg.Maintenance, logr)
	if cfg.Maintenance.Enabled {
		maintenanceSvc.Start(ctx)
		defer maintenanceSvc.Stop()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	reservationHandler := handler.NewReservationHandler(reservationSvc)
	maintenanceHandler := handler.NewMaintenanceHandler(maintenanceSvc)
	lessonHandler := handler.NewLessonHandler(lessonSvc)

	api := r.Group(cfg.APIPrefix)
	api.GET("/lessons/availability", availabilityHandler.List)
	api.GET("/lessons/:id/availability", availabilityHandler.Get)

	authed := api.Group("", middleware.JWT(authSvc))
	authed.GET("/reservations", reservationHandler.List)
	authed.POST("/reservations", reservationHandler.Create)
	authed.GET("/reservations/:id", reservationHandler.Get)
	authed.PUT("/reservations/:id", reservationHandler.Amend)
	authed.POST("/reservations/:id/cancel", reservationHandler.Cancel)
	authed.POST("/reservations/:id/confirm", reservationHandler.Confirm)

	staff := authed.Group("", middleware.RequireRoles(models.RoleStaff, models.RoleAdmin))
	staff.POST("/reservations/:id/complete", reservationHandler.Complete)
	staff.POST("/lessons/:id/close", lessonHandler.Close)
	staff.POST("/maintenance/rebuild", maintenanceHandler.Rebuild)
	staff.GET("/maintenance/status", maintenanceHandler.Status)
	staff.GET("/metrics/summary", metricsHandler.Snapshot)

	if cfg.Exports.Enabled {
		files, err := storage.NewLocalStorage(cfg.Exports.Dir)
		if err != nil {
			logr.Fatal("failed to init export storage", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.JWT.Secret, cfg.Exports.ResultTTL)
		exportSvc := service.NewExportService(manager, files, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Exports.ResultTTL,
		}, logr, nil, nil)
		exportHandler := handler.NewExportHandler(exportSvc)
		staff.POST("/exports/daily", exportHandler.Generate)
		api.GET("/exports/:token", exportHandler.Download)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("forced shutdown", zap.Error(err))
	}
}
