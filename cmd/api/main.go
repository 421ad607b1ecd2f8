package main

import (
	"context"
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

	_ "github.com/spiritschool/booking-api/api/swagger"
	"github.com/spiritschool/booking-api/internal/handler"
	appmiddleware "github.com/spiritschool/booking-api/internal/middleware"
	"github.com/spiritschool/booking-api/internal/repository"
	"github.com/spiritschool/booking-api/internal/service"
	"github.com/spiritschool/booking-api/pkg/cache"
	"github.com/spiritschool/booking-api/pkg/config"
	"github.com/spiritschool/booking-api/pkg/database"
	"github.com/spiritschool/booking-api/pkg/logger"
	corsmiddleware "github.com/spiritschool/booking-api/pkg/middleware/cors"
	reqidmiddleware "github.com/spiritschool/booking-api/pkg/middleware/requestid"
	"github.com/spiritschool/booking-api/pkg/storage"
)

// @title Spirit School Booking API
// @version 1.0.0
// @description Slot generation and booking engine for lesson scheduling
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	validate := validator.New()
	metrics := service.NewMetricsService()

	slotRepo := repository.NewSlotRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	venueRepo := repository.NewVenueRepository(db)
	userRepo := repository.NewUserRepository(db)
	classLevelRepo := repository.NewClassLevelRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	generatorSvc := service.NewSlotGeneratorService(slotRepo, teacherRepo, cfg.Generator, metrics, logr)
	scheduler := service.NewGenerationScheduler(generatorSvc, teacherRepo, cfg.Generator, logr)
	availabilitySvc := service.NewAvailabilityService(slotRepo, cacheRepo, metrics, cfg.Availability, logr)
	bookingSvc := service.NewBookingService(bookingRepo, classLevelRepo, cacheRepo, metrics, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, slotRepo, cacheRepo, validate, logr)
	venueSvc := service.NewVenueService(venueRepo, validate, logr)
	classLevelSvc := service.NewClassLevelService(classLevelRepo, logr)
	messageSvc := service.NewMessageService(messageRepo, nil, validate, logr)
	exportSvc := service.NewExportService(bookingRepo, store, signer, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(appmiddleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Dependencies{
		Auth:         handler.NewAuthHandler(authSvc),
		Availability: handler.NewAvailabilityHandler(availabilitySvc),
		Bookings:     handler.NewBookingHandler(bookingSvc),
		Teachers:     handler.NewTeacherHandler(teacherSvc, generatorSvc),
		Venues:       handler.NewVenueHandler(venueSvc),
		ClassLevels:  handler.NewClassLevelHandler(classLevelSvc),
		Messages:     handler.NewMessageHandler(messageSvc),
		Exports:      handler.NewExportHandler(exportSvc, store),
		Generation:   handler.NewGenerationHandler(scheduler),
		AuthService:  authSvc,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
