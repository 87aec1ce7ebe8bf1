package main

import (
	"context"
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

	_ "github.com/gatherly/gatherly-api/api/swagger"
	"github.com/gatherly/gatherly-api/internal/handler"
	"github.com/gatherly/gatherly-api/internal/middleware"
	"github.com/gatherly/gatherly-api/internal/repository"
	"github.com/gatherly/gatherly-api/internal/service"
	"github.com/gatherly/gatherly-api/pkg/cache"
	"github.com/gatherly/gatherly-api/pkg/config"
	"github.com/gatherly/gatherly-api/pkg/database"
	"github.com/gatherly/gatherly-api/pkg/export"
	"github.com/gatherly/gatherly-api/pkg/jobs"
	"github.com/gatherly/gatherly-api/pkg/logger"
	corsmiddleware "github.com/gatherly/gatherly-api/pkg/middleware/cors"
	reqidmiddleware "github.com/gatherly/gatherly-api/pkg/middleware/requestid"
)

// @title Gatherly API
// @version 0.1.0
// @description Group scheduling and conflict-resolution engine
// @BasePath /
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
		logr.Sugar().Warnw("redis unavailable, recommendation caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	roomRepo := repository.NewRoomRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "gatherly-api",
	})
	combinationSvc := service.NewCombinationService(logr)
	recommendationSvc := service.NewRecommendationService(service.RecommendationConfig{
		MinHour:            cfg.Recommendation.MinHour,
		MaxHour:            cfg.Recommendation.MaxHour,
		MaxRecommendations: cfg.Recommendation.MaxRecommendations,
		CacheTTL:           cfg.Recommendation.CacheTTL,
	}, cacheRepo, scheduleRepo, validate, logr).WithMetrics(metricsSvc)
	travelSvc := service.NewTravelService(service.TravelConfig{
		AverageSpeedKmh:  cfg.Travel.AverageSpeedKmh,
		SlotMinutes:      cfg.Travel.SlotMinutes,
		MaxDays:          cfg.Travel.MaxDays,
		DayStartHour:     cfg.Travel.DayStartHour,
		SlotSearchBudget: cfg.Travel.SlotSearchBudget,
	}, validate, logr).WithMetrics(metricsSvc)
	coordinationSvc := service.NewCoordinationService(service.CoordinationConfig{
		MaxChainDepth: cfg.Coordination.MaxChainDepth,
	}, roomRepo, requestRepo, activityRepo, scheduleRepo, recommendationSvc, db, validate, logr)
	carryOverSvc := service.NewCarryOverService(roomRepo, slotRepo, logr).WithMetrics(metricsSvc)

	eventHandler := handler.NewEventHandler(recommendationSvc)
	combinationHandler := handler.NewCombinationHandler(combinationSvc)
	travelHandler := handler.NewTravelHandler(roomRepo, slotRepo, travelSvc, export.NewCSVExporter(), export.NewPDFExporter(), cfg.Exports.PDFTitle)
	requestHandler := handler.NewRequestHandler(coordinationSvc, carryOverSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))
	{
		api.POST("/events/recommend-alternative", eventHandler.RecommendAlternative)
		api.POST("/events/recommend-reschedule", eventHandler.RecommendReschedule)
		api.POST("/events/confirm-reschedule", eventHandler.ConfirmReschedule)

		api.POST("/schedules/combinations", combinationHandler.Generate)

		api.GET("/system/metrics", metricsHandler.Snapshot)

		rooms := api.Group("/rooms/:id")
		{
			rooms.POST("/travel-plan", travelHandler.Plan)
			rooms.GET("/travel-plan/export", travelHandler.Export)

			rooms.POST("/requests", requestHandler.Create)
			rooms.GET("/requests", requestHandler.List)
			rooms.POST("/requests/:requestId/resolve", requestHandler.Resolve)
			rooms.DELETE("/requests/:requestId", requestHandler.Delete)

			rooms.GET("/activity", requestHandler.Activity)
			rooms.GET("/carryover", requestHandler.CarryOver)
		}
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var carryOverQueue *jobs.Queue
	if cfg.CarryOver.Enabled {
		carryOverQueue = service.NewCarryOverQueue(carryOverSvc, jobs.QueueConfig{
			Workers:    cfg.CarryOver.WorkerConcurrency,
			MaxRetries: cfg.CarryOver.WorkerRetries,
			Logger:     logr,
		})
		carryOverQueue.Start(rootCtx)
		go func() {
			ticker := time.NewTicker(cfg.CarryOver.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-rootCtx.Done():
					return
				case <-ticker.C:
					if err := carryOverSvc.EnqueueAllRooms(rootCtx, carryOverQueue); err != nil {
						logr.Sugar().Warnw("failed to enqueue carry-over recalculation", "error", err)
					}
				}
			}
		}()
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
	if carryOverQueue != nil {
		carryOverQueue.Stop()
	}
}
