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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable-engine/api/swagger"
	"github.com/noah-isme/sma-timetable-engine/internal/handler"
	"github.com/noah-isme/sma-timetable-engine/internal/middleware"
	"github.com/noah-isme/sma-timetable-engine/internal/repository"
	"github.com/noah-isme/sma-timetable-engine/internal/service"
	"github.com/noah-isme/sma-timetable-engine/pkg/cache"
	"github.com/noah-isme/sma-timetable-engine/pkg/config"
	"github.com/noah-isme/sma-timetable-engine/pkg/database"
	"github.com/noah-isme/sma-timetable-engine/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-engine/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-engine/pkg/middleware/requestid"
	"github.com/noah-isme/sma-timetable-engine/pkg/storage"
)

// @title SMA Timetable Engine
// @version 1.0.0
// @description Constraint-solving timetable engine: schedules, solver runs, lunch waves, and exports
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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
	}

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	conflictRepo := repository.NewConflictRepository(db)
	optimizationRepo := repository.NewOptimizationRepository(db)
	lunchRepo := repository.NewLunchRepository(db)
	rosterRepo := repository.NewRosterRepository(db)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}

	// Services.
	validate := validator.New()
	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: "sma-timetable-engine",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	rosterSvc := service.NewRosterService(rosterRepo.Teachers, rosterRepo.Rooms, rosterRepo.Courses, rosterRepo.Students, validate, logr)

	detector := service.NewConflictService(logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, conflictRepo, rosterRepo, detector, validate, logr)
	solverSvc := service.NewSolverService(nil, logr)
	capacitySvc := service.NewCapacityService(logr).WithRoster(rosterRepo, cacheSvc)
	optimizationSvc := service.NewOptimizationService(
		optimizationRepo, optimizationRepo, scheduleRepo, rosterRepo,
		solverSvc, detector, logr, true,
	).WithMetrics(metrics)
	lunchSvc := service.NewLunchService(lunchRepo, rosterRepo, logr)

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("failed to init export storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(scheduleRepo, rosterRepo, lunchRepo, capacitySvc, exportStore, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	rosterHandler := handler.NewRosterHandler(rosterSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	solverHandler := handler.NewSolverHandler(optimizationSvc)
	optimizationHandler := handler.NewOptimizationHandler(optimizationSvc)
	capacityHandler := handler.NewCapacityHandler(capacitySvc)
	lunchHandler := handler.NewLunchHandler(lunchSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	optimizationSvc.StartWorkers(ctx)
	defer optimizationSvc.StopWorkers()

	go runMaintenance(ctx, cfg, optimizationSvc, exportSvc, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(middleware.RequestLog(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r, cfg, authSvc,
		authHandler, userHandler, rosterHandler, scheduleHandler,
		solverHandler, optimizationHandler, capacityHandler,
		lunchHandler, exportHandler, metricsHandler)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("forced shutdown", zap.Error(err))
	}
	logr.Info("server stopped")
}

// runMaintenance prunes old optimization runs and expired export files on
// the configured interval.
func runMaintenance(ctx context.Context, cfg *config.Config, optimization *service.OptimizationService, exports *service.ExportService, logr *zap.Logger) {
	ticker := time.NewTicker(cfg.Solver.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := optimization.DeleteOldResults(ctx, cfg.Solver.ResultRetention); err != nil {
				logr.Warn("failed to prune optimization runs", zap.Error(err))
			} else if n > 0 {
				logr.Info("pruned optimization runs", zap.Int64("count", n))
			}
			if removed, err := exports.Cleanup(cfg.Exports.SignedURLTTL); err != nil {
				logr.Warn("failed to clean export files", zap.Error(err))
			} else if len(removed) > 0 {
				logr.Info("removed expired exports", zap.Int("count", len(removed)))
			}
		}
	}
}

func registerRoutes(
	r *gin.Engine,
	cfg *config.Config,
	authSvc *service.AuthService,
	auth *handler.AuthHandler,
	users *handler.UserHandler,
	roster *handler.RosterHandler,
	schedules *handler.ScheduleHandler,
	solver *handler.SolverHandler,
	optimization *handler.OptimizationHandler,
	capacity *handler.CapacityHandler,
	lunch *handler.LunchHandler,
	exports *handler.ExportHandler,
	metrics *handler.MetricsHandler,
) {
	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", auth.Login)
	// Download links carry their own HMAC token.
	api.GET("/exports/:token", exports.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.GET("/auth/me", auth.Me)
	authed.POST("/auth/change-password", auth.ChangePassword)

	admin := authed.Group("", middleware.AdminOnly())
	admin.GET("/users", users.List)
	admin.POST("/users", users.Create)
	admin.GET("/users/:id", users.Get)
	admin.PUT("/users/:id", users.Update)
	admin.DELETE("/users/:id", users.Delete)
	admin.GET("/metrics/snapshot", metrics.Snapshot)
	admin.POST("/optimizations/prune", optimization.PruneResults)

	// Roster and timetable reads are open to every authenticated role.
	authed.GET("/teachers", roster.ListTeachers)
	authed.GET("/teachers/:id", roster.GetTeacher)
	authed.GET("/rooms", roster.ListRooms)
	authed.GET("/rooms/:id", roster.GetRoom)
	authed.GET("/courses", roster.ListCourses)
	authed.GET("/courses/:id", roster.GetCourse)
	authed.GET("/students", roster.ListStudents)
	authed.GET("/students/:id", roster.GetStudent)

	authed.GET("/schedules", schedules.List)
	authed.GET("/schedules/:id", schedules.Get)
	authed.GET("/schedules/:id/slots", schedules.ListSlots)
	authed.GET("/schedules/:id/conflicts", schedules.ListConflicts)
	authed.GET("/schedules/:id/score", schedules.ScoreBreakdown)
	authed.GET("/schedules/:id/evaluate", solver.Evaluate)
	authed.GET("/schedules/:id/optimizations", optimization.ListResults)
	authed.GET("/optimizations/:resultId", optimization.GetResult)
	authed.GET("/optimization-configs", optimization.ListConfigs)
	authed.GET("/optimization-configs/:configId", optimization.GetConfig)
	authed.GET("/capacity", capacity.Analyze)
	authed.GET("/schedules/:id/lunch/waves", lunch.ListWaves)
	authed.GET("/schedules/:id/lunch/statistics", lunch.Statistics)
	authed.GET("/schedules/:id/lunch/teachers", lunch.ListTeacherAssignments)

	// Mutations require the scheduler or admin role.
	editor := authed.Group("", middleware.SchedulerOrAdmin())

	editor.POST("/teachers", roster.CreateTeacher)
	editor.PUT("/teachers/:id", roster.UpdateTeacher)
	editor.DELETE("/teachers/:id", roster.DeleteTeacher)
	editor.POST("/rooms", roster.CreateRoom)
	editor.PUT("/rooms/:id", roster.UpdateRoom)
	editor.DELETE("/rooms/:id", roster.DeleteRoom)
	editor.POST("/courses", roster.CreateCourse)
	editor.PUT("/courses/:id", roster.UpdateCourse)
	editor.DELETE("/courses/:id", roster.DeleteCourse)
	editor.POST("/students", roster.CreateStudent)
	editor.PUT("/students/:id", roster.UpdateStudent)
	editor.DELETE("/students/:id", roster.DeleteStudent)

	editor.POST("/schedules", schedules.Create)
	editor.PUT("/schedules/:id", schedules.Update)
	editor.DELETE("/schedules/:id", schedules.Delete)
	editor.POST("/schedules/:id/slots", schedules.CreateSlot)
	editor.PUT("/slots/:slotId", schedules.UpdateSlot)
	editor.PUT("/slots/:slotId/pin", schedules.PinSlot)
	editor.DELETE("/slots/:slotId", schedules.DeleteSlot)

	editor.POST("/schedules/:id/conflicts/detect", schedules.DetectConflicts)
	editor.POST("/conflicts/:conflictId/resolve", schedules.ResolveConflict)
	editor.POST("/conflicts/:conflictId/ignore", schedules.IgnoreConflict)

	editor.POST("/schedules/:id/solve", solver.Solve)
	editor.POST("/schedules/:id/solve/partial", solver.SolvePartial)
	editor.POST("/schedules/:id/improve", solver.Improve)
	editor.POST("/schedules/:id/optimize", optimization.Start)
	editor.POST("/schedules/:id/optimize/quick", optimization.QuickOptimize)
	editor.POST("/optimizations/:resultId/cancel", optimization.Cancel)
	editor.POST("/optimization-configs", optimization.CreateConfig)
	editor.PUT("/optimization-configs/:configId", optimization.UpdateConfig)
	editor.DELETE("/optimization-configs/:configId", optimization.DeleteConfig)

	editor.POST("/capacity/refresh", capacity.Refresh)

	editor.POST("/schedules/:id/lunch/waves", lunch.CreateWave)
	editor.PUT("/lunch/waves/:waveId", lunch.UpdateWave)
	editor.DELETE("/lunch/waves/:waveId", lunch.DeleteWave)
	editor.POST("/schedules/:id/lunch/assign", lunch.AssignAll)
	editor.POST("/schedules/:id/lunch/reassign", lunch.Reassign)
	editor.POST("/schedules/:id/lunch/rebalance", lunch.Rebalance)
	editor.POST("/schedules/:id/lunch/teachers/assign", lunch.AssignTeachers)
	editor.POST("/schedules/:id/lunch/teachers/reassign", lunch.ReassignTeacher)
	editor.POST("/schedules/:id/lunch/lock", lunch.SetLock)
	editor.POST("/schedules/:id/lunch/priority", lunch.SetPriority)
	editor.DELETE("/schedules/:id/lunch/assignments", lunch.RemoveAssignments)

	editor.POST("/schedules/:id/export", exports.ExportTimetable)
	editor.POST("/schedules/:id/lunch/export", exports.ExportLunchRoster)
	editor.POST("/capacity/export", exports.ExportCapacityReport)
}
