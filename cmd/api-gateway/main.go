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

	_ "github.com/campushq/campus-admin-api/api/swagger"
	"github.com/campushq/campus-admin-api/internal/handler"
	"github.com/campushq/campus-admin-api/internal/middleware"
	"github.com/campushq/campus-admin-api/internal/models"
	"github.com/campushq/campus-admin-api/internal/repository"
	"github.com/campushq/campus-admin-api/internal/service"
	"github.com/campushq/campus-admin-api/pkg/cache"
	"github.com/campushq/campus-admin-api/pkg/config"
	"github.com/campushq/campus-admin-api/pkg/database"
	"github.com/campushq/campus-admin-api/pkg/jobs"
	"github.com/campushq/campus-admin-api/pkg/logger"
	corsmiddleware "github.com/campushq/campus-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campushq/campus-admin-api/pkg/middleware/requestid"
)

// @title Campus Admin API
// @version 1.0.0
// @description Multi-tenant administration surface for institutions and departments
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
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	institutionRepo := repository.NewInstitutionRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	roleRequestRepo := repository.NewRoleRequestRepository(db)
	importRepo := repository.NewImportRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Analytics.CacheTTL, logr, redisClient != nil)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		SingleSession:      cfg.JWT.SingleSession,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	institutionSvc := service.NewInstitutionService(institutionRepo, departmentRepo, validate, logr)
	settingsSvc := service.NewSettingsService(settingsRepo, departmentRepo, userRepo, cacheSvc, metricsSvc, logr)
	roleRequestSvc := service.NewRoleRequestService(roleRequestRepo, userRepo, userRepo, logr)
	importSvc := service.NewImportService(importRepo, userRepo, validate, logr, service.ImportConfig{
		MaxRows: cfg.Imports.MaxRows,
	})
	notificationSvc := service.NewNotificationService(notificationRepo, settingsSvc, userRepo, service.NewLogSender(logr), jobs.QueueConfig{
		Workers:    cfg.Notifications.WorkerConcurrency,
		MaxRetries: cfg.Notifications.WorkerRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	}, validate, logr)
	analyticsSvc := service.NewAnalyticsService(enrollmentRepo, departmentRepo, settingsSvc, cacheSvc, metricsSvc, cfg.Analytics.CacheTTL, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	institutionHandler := handler.NewInstitutionHandler(institutionSvc)
	settingsHandler := handler.NewSettingsHandler(settingsSvc)
	roleRequestHandler := handler.NewRoleRequestHandler(roleRequestSvc)
	importHandler := handler.NewImportHandler(importSvc, cfg.Imports.MaxFileSizeBytes)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Notifications.Enabled {
		notificationSvc.Start(ctx)
		defer notificationSvc.Stop()
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

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	admins := []models.UserRole{models.RoleSuperAdmin, models.RoleInstitutionAdmin}
	allAdmins := []models.UserRole{models.RoleSuperAdmin, models.RoleInstitutionAdmin, models.RoleDepartmentAdmin}

	institutions := protected.Group("/institutions")
	{
		institutions.GET("", middleware.RequireRoles(admins...), institutionHandler.List)
		institutions.POST("", middleware.RequireRoles(models.RoleSuperAdmin), institutionHandler.Create)
		institutions.GET("/:id", middleware.RequireRoles(allAdmins...), institutionHandler.Get)
		institutions.PUT("/:id", middleware.RequireRoles(admins...), institutionHandler.Update)
		institutions.GET("/:id/departments", middleware.RequireRoles(allAdmins...), institutionHandler.ListDepartments)
		institutions.POST("/:id/departments", middleware.RequireRoles(admins...), institutionHandler.CreateDepartment)
	}

	if cfg.Settings.Enabled {
		institutions.GET("/:id/settings", middleware.RequireRoles(admins...), settingsHandler.GetInstitutionSettings)
		institutions.PUT("/:id/settings", middleware.RequireRoles(admins...), settingsHandler.UpdateInstitutionSettings)
	}

	departments := protected.Group("/departments")
	{
		departments.GET("/:id", middleware.RequireRoles(allAdmins...), institutionHandler.GetDepartment)
		departments.PUT("/:id", middleware.RequireRoles(admins...), institutionHandler.UpdateDepartment)
	}

	if cfg.Settings.Enabled {
		departments.GET("/:id/config", middleware.RequireRoles(allAdmins...), settingsHandler.GetDepartmentConfig)
		departments.GET("/:id/config/hierarchy", middleware.RequireRoles(allAdmins...), settingsHandler.GetConfigHierarchy)
		departments.POST("/:id/config/validate", middleware.RequireRoles(allAdmins...), settingsHandler.ValidateConfig)
		departments.PUT("/:id/config", middleware.RequireRoles(allAdmins...), settingsHandler.UpdateConfig)
		departments.POST("/:id/config/reset", middleware.RequireRoles(allAdmins...), settingsHandler.ResetConfig)
	}

	users := protected.Group("/users")
	{
		users.GET("", middleware.RequireRoles(allAdmins...), userHandler.List)
		users.GET("/:id", middleware.RBAC("SUPERADMIN", "INSTITUTION_ADMIN", "DEPARTMENT_ADMIN", "SELF"), userHandler.Get)
		users.POST("", middleware.RequireRoles(admins...), userHandler.Create)
		users.PUT("/:id", middleware.RequireRoles(admins...), userHandler.Update)
		users.DELETE("/:id", middleware.RequireRoles(admins...), userHandler.Delete)
	}

	roleRequests := protected.Group("/role-requests")
	{
		roleRequests.POST("", roleRequestHandler.Create)
		roleRequests.GET("", roleRequestHandler.List)
		roleRequests.GET("/:id", roleRequestHandler.Get)
		roleRequests.POST("/:id/review", middleware.RequireRoles(admins...), roleRequestHandler.Review)
	}

	if cfg.Imports.Enabled {
		imports := protected.Group("/imports")
		imports.Use(middleware.RequireRoles(admins...))
		{
			imports.POST("/users", importHandler.ImportUsers)
			imports.POST("/:id/rollback", importHandler.Rollback)
			imports.GET("", importHandler.History)
		}
	}

	if cfg.Notifications.Enabled {
		notifications := protected.Group("/notifications")
		notifications.Use(middleware.RequireRoles(allAdmins...))
		{
			notifications.GET("/templates", notificationHandler.ListTemplates)
			notifications.PUT("/templates", middleware.RequireRoles(admins...), notificationHandler.SaveTemplate)
			notifications.DELETE("/templates/:key", middleware.RequireRoles(admins...), notificationHandler.DeleteTemplate)
			notifications.POST("/send", notificationHandler.Send)
		}
	}

	if cfg.Analytics.Enabled {
		analytics := protected.Group("/analytics")
		analytics.Use(middleware.RequireRoles(allAdmins...))
		{
			analytics.GET("/enrollment/summary", analyticsHandler.Summary)
			analytics.GET("/enrollment/trends", analyticsHandler.Trends)
			exportAudit := middleware.Audit(userRepo, models.AuditActionAnalyticsExport, "analytics")
			analytics.GET("/enrollment/summary/export/csv", exportAudit, analyticsHandler.ExportCSV)
			analytics.GET("/enrollment/summary/export/pdf", exportAudit, analyticsHandler.ExportPDF)
			analytics.GET("/system", analyticsHandler.System)
		}
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	if err := cacheRepo.Close(); err != nil {
		logr.Sugar().Warnw("failed to close redis", "error", err)
	}
}
