package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/talentwerk/workshop-planner/api/swagger"
	"github.com/talentwerk/workshop-planner/internal/handler"
	"github.com/talentwerk/workshop-planner/internal/middleware"
	"github.com/talentwerk/workshop-planner/internal/repository"
	"github.com/talentwerk/workshop-planner/internal/service"
	"github.com/talentwerk/workshop-planner/pkg/cache"
	"github.com/talentwerk/workshop-planner/pkg/config"
	"github.com/talentwerk/workshop-planner/pkg/database"
	"github.com/talentwerk/workshop-planner/pkg/logger"
	corsmiddleware "github.com/talentwerk/workshop-planner/pkg/middleware/cors"
	reqidmiddleware "github.com/talentwerk/workshop-planner/pkg/middleware/requestid"
)

// @title Workshop Planner API
// @version 1.0.0
// @description Batch assignment engine for the annual company workshop day
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, timetable cache disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()

	eventRepo := repository.NewEventRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	choiceRepo := repository.NewChoiceRepository(db)
	slotRepo := repository.NewTimeSlotRepository(db)
	demandRepo := repository.NewDemandRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(redisClient, metricsSvc, cfg.Planner.TimetableCacheTTL, logr)
	authSvc := service.NewAuthService(cfg.Admin, cfg.JWT, validate, logr)
	importSvc := service.NewImportService(eventRepo, roomRepo, choiceRepo, slotRepo, validate, logr)
	plannerSvc := service.NewPlannerService(eventRepo, roomRepo, choiceRepo, slotRepo, demandRepo, sessionRepo, assignmentRepo, db, cacheSvc, metricsSvc, logr)
	exportSvc := service.NewExportService(eventRepo, roomRepo, slotRepo, sessionRepo, assignmentRepo, logr)

	if cfg.Planner.SeedTimeSlots {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := importSvc.SeedTimeSlots(ctx); err != nil {
			cancel()
			logr.Sugar().Fatalw("failed to seed time slots", "error", err)
		}
		cancel()
	}

	authHandler := handler.NewAuthHandler(authSvc)
	importHandler := handler.NewImportHandler(importSvc)
	plannerHandler := handler.NewPlannerHandler(plannerSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	protected.GET("/events", importHandler.ListEvents)
	protected.POST("/events", importHandler.CreateEvent)
	protected.POST("/events/import", importHandler.ImportEvents)
	protected.GET("/rooms", importHandler.ListRooms)
	protected.POST("/rooms", importHandler.CreateRoom)
	protected.POST("/rooms/import", importHandler.ImportRooms)
	protected.GET("/choices", importHandler.ListChoices)
	protected.POST("/choices", importHandler.CreateChoice)
	protected.POST("/choices/import", importHandler.ImportChoices)
	protected.GET("/timeslots", importHandler.ListTimeSlots)

	protected.POST("/planner/run", plannerHandler.Run)
	protected.POST("/planner/resolve", plannerHandler.Resolve)
	protected.GET("/planner/verify", plannerHandler.Verify)
	protected.GET("/planner/demands", plannerHandler.Demands)
	protected.GET("/planner/timetable", plannerHandler.Timetable)

	protected.GET("/exports/timetable.csv", exportHandler.TimetableCSV)
	protected.GET("/exports/timetable.pdf", exportHandler.TimetablePDF)
	protected.GET("/exports/assignments.csv", exportHandler.AssignmentsCSV)
	protected.GET("/exports/attendance.pdf", exportHandler.AttendancePDF)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
