// Package main runs the rota HTTP API with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/media-rota/backend/config"
	"github.com/media-rota/backend/internal/assignments"
	"github.com/media-rota/backend/internal/availability"
	"github.com/media-rota/backend/internal/events"
	"github.com/media-rota/backend/internal/eventtypes"
	"github.com/media-rota/backend/internal/exports"
	"github.com/media-rota/backend/internal/gridcache"
	"github.com/media-rota/backend/internal/middleware"
	"github.com/media-rota/backend/internal/proficiency"
	"github.com/media-rota/backend/internal/provision"
	"github.com/media-rota/backend/internal/roles"
	"github.com/media-rota/backend/internal/schedules"
	"github.com/media-rota/backend/internal/teams"
	"github.com/media-rota/backend/internal/userroles"
	"github.com/media-rota/backend/internal/users"
	"github.com/media-rota/backend/pkg/database"
	"github.com/media-rota/backend/pkg/queue"
	"github.com/media-rota/backend/pkg/redis"
	"github.com/media-rota/backend/pkg/response"
	"github.com/media-rota/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), "rota-api", logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if cfg.Database.RunMigrations {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
	}

	// Redis backs the grid cache and the export queue; without it both are off.
	var gridCache *gridcache.Cache
	var jobQueue *queue.Queue
	rdb, err := redis.NewClient(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, logger)
	if err != nil {
		logger.Warn("redis unavailable, grid cache and exports disabled", zap.Error(err))
	} else {
		defer rdb.Close()
		gridCache = gridcache.New(rdb.Client, cfg.GridCache.TTL, logger)
		jobQueue = queue.NewQueue(rdb.Client, logger)
	}

	var exportSvc *exports.Service
	tx := database.NewTransactor(pool)

	// Repositories
	roleRepo := roles.NewRepository(pool)
	levelRepo := proficiency.NewRepository(pool)
	eventTypeRepo := eventtypes.NewRepository(pool)
	teamRepo := teams.NewRepository(pool)
	userRepo := users.NewRepository(pool)
	userRoleRepo := userroles.NewRepository(pool)
	scheduleRepo := schedules.NewRepository(pool)
	eventRepo := events.NewRepository(pool)
	assignmentRepo := assignments.NewRepository(pool)
	availabilityRepo := availability.NewRepository(pool)

	// Provisioning and loaders
	provisioner := provision.New(roleRepo, userRepo, levelRepo, assignmentRepo, userRoleRepo, cfg.Provisioning.DefaultProficiencyCode, logger)
	assignmentLoader := assignments.NewLoader(assignmentRepo, userRoleRepo)
	eventLoader := events.NewLoader(eventRepo, assignmentLoader)
	gridService := schedules.NewGridService(scheduleRepo, eventLoader, availabilityRepo, gridCache)

	if jobQueue != nil && cfg.AWS.ExportsEnabled() {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			ExportsBucket:        cfg.AWS.ExportsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			exportSvc = exports.NewService(scheduleRepo, jobQueue, s3Client)
		}
	}

	// Handlers
	roleHandler := roles.NewHandler(roleRepo, provisioner, tx, logger)
	levelHandler := proficiency.NewHandler(levelRepo, tx, logger)
	eventTypeHandler := eventtypes.NewHandler(eventTypeRepo, tx, logger)
	teamHandler := teams.NewHandler(teamRepo, tx, logger)
	userHandler := users.NewHandler(userRepo, provisioner, tx, logger)
	userRoleHandler := userroles.NewHandler(userRoleRepo, userRepo, roleRepo, provisioner, tx, logger)
	scheduleHandler := schedules.NewHandler(scheduleRepo, gridService, tx, logger)
	eventHandler := events.NewHandler(eventRepo, eventLoader, scheduleRepo, provisioner, availabilityRepo, tx, logger)
	assignmentHandler := assignments.NewHandler(assignmentRepo, assignmentLoader, eventRepo, tx, logger)
	availabilityHandler := availability.NewHandler(availabilityRepo, userRepo, tx, logger)
	exportHandler := exports.NewHandler(exportSvc, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins, cfg.Auth.Header))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Protected API (API key required)
	api := router.Group("")
	api.Use(middleware.APIKey(cfg.Auth.Header, cfg.Auth.APIKey))
	api.Use(middleware.InvalidateOnWrite(gridCache, logger))
	{
		// Roles
		api.GET("/roles", roleHandler.List)
		api.POST("/roles", roleHandler.Create)
		api.GET("/roles/:id", roleHandler.GetByID)
		api.PATCH("/roles/:id", roleHandler.Update)
		api.DELETE("/roles/:id", roleHandler.Delete)
		api.GET("/roles/:id/users", userRoleHandler.ListForRole)

		// Proficiency levels
		api.GET("/proficiency-levels", levelHandler.List)
		api.POST("/proficiency-levels", levelHandler.Create)
		api.GET("/proficiency-levels/:id", levelHandler.GetByID)
		api.PATCH("/proficiency-levels/:id", levelHandler.Update)
		api.DELETE("/proficiency-levels/:id", levelHandler.Delete)

		// Event types
		api.GET("/event-types", eventTypeHandler.List)
		api.POST("/event-types", eventTypeHandler.Create)
		api.GET("/event-types/:id", eventTypeHandler.GetByID)
		api.PATCH("/event-types/:id", eventTypeHandler.Update)
		api.DELETE("/event-types/:id", eventTypeHandler.Delete)

		// Teams and memberships
		api.GET("/teams", teamHandler.List)
		api.POST("/teams", teamHandler.Create)
		api.GET("/teams/:id", teamHandler.GetByID)
		api.PATCH("/teams/:id", teamHandler.Update)
		api.DELETE("/teams/:id", teamHandler.Delete)
		api.GET("/teams/:id/users", teamHandler.ListMembers)
		api.POST("/team-users", teamHandler.AddMember)
		api.GET("/team-users/:id", teamHandler.GetMember)
		api.PATCH("/team-users/:id", teamHandler.UpdateMember)
		api.DELETE("/team-users/:id", teamHandler.DeleteMember)

		// Users
		api.GET("/users", userHandler.List)
		api.POST("/users", userHandler.Create)
		api.GET("/users/:id", userHandler.GetByID)
		api.PATCH("/users/:id", userHandler.Update)
		api.DELETE("/users/:id", userHandler.Delete)
		api.GET("/users/:id/roles", userRoleHandler.ListForUser)
		api.GET("/users/:id/unavailability", availabilityHandler.ListByUser)

		// User roles
		api.POST("/user-roles", userRoleHandler.Create)
		api.GET("/user-roles/:id", userRoleHandler.GetByID)
		api.PATCH("/user-roles/:id", userRoleHandler.Update)
		api.DELETE("/user-roles/:id", userRoleHandler.Delete)

		// Schedules
		api.GET("/schedules", scheduleHandler.List)
		api.POST("/schedules", scheduleHandler.Create)
		api.GET("/schedules/:id", scheduleHandler.GetByID)
		api.PATCH("/schedules/:id", scheduleHandler.Update)
		api.DELETE("/schedules/:id", scheduleHandler.Delete)
		api.GET("/schedules/:id/events", eventHandler.ListForSchedule)
		api.GET("/schedules/:id/grid", scheduleHandler.Grid)
		api.POST("/schedules/:id/exports", exportHandler.Request)
		api.GET("/schedules/:id/exports/:jobId", exportHandler.Download)

		// Events
		api.GET("/events", eventHandler.List)
		api.POST("/events", eventHandler.Create)
		api.GET("/events/:id", eventHandler.GetByID)
		api.PATCH("/events/:id", eventHandler.Update)
		api.DELETE("/events/:id", eventHandler.Delete)
		api.GET("/events/:id/assignments", assignmentHandler.ListForEvent)
		api.GET("/events/:id/unavailable-users", eventHandler.UnavailableUsers)

		// Assignments
		api.POST("/assignments", assignmentHandler.Create)
		api.GET("/assignments/:id", assignmentHandler.GetByID)
		api.PATCH("/assignments/:id", assignmentHandler.Update)
		api.DELETE("/assignments/:id", assignmentHandler.Delete)

		// Unavailability
		api.GET("/unavailable-periods", availabilityHandler.List)
		api.POST("/unavailable-periods", availabilityHandler.Create)
		api.GET("/unavailable-periods/:id", availabilityHandler.GetByID)
		api.PATCH("/unavailable-periods/:id", availabilityHandler.Update)
		api.DELETE("/unavailable-periods/:id", availabilityHandler.Delete)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening",
			zap.String("port", cfg.Server.Port),
			zap.Bool("grid_cache", gridCache.Enabled()),
			zap.Bool("exports", exportSvc != nil),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
