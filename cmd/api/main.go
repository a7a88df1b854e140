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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/oakwood-trust/safeguard-api/api/swagger"
	"github.com/oakwood-trust/safeguard-api/internal/handler"
	"github.com/oakwood-trust/safeguard-api/internal/middleware"
	"github.com/oakwood-trust/safeguard-api/internal/models"
	"github.com/oakwood-trust/safeguard-api/internal/repository"
	"github.com/oakwood-trust/safeguard-api/internal/service"
	"github.com/oakwood-trust/safeguard-api/pkg/cache"
	"github.com/oakwood-trust/safeguard-api/pkg/config"
	"github.com/oakwood-trust/safeguard-api/pkg/database"
	"github.com/oakwood-trust/safeguard-api/pkg/logger"
	corsmiddleware "github.com/oakwood-trust/safeguard-api/pkg/middleware/cors"
	reqidmiddleware "github.com/oakwood-trust/safeguard-api/pkg/middleware/requestid"
	"github.com/oakwood-trust/safeguard-api/pkg/storage"
)

// @title Safeguard API
// @version 1.0.0
// @description Safeguarding incident reporting service
// @BasePath /api/v1
// @schemes http https

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
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, continuing without cache", zap.Error(err))
		redisClient = nil
	}

	attachmentStore, err := storage.NewLocalStorage(cfg.Attachments.StorageDir)
	if err != nil {
		logr.Fatal("failed to init attachment storage", zap.Error(err))
	}
	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("failed to init export storage", zap.Error(err))
	}

	incidentRepo := repository.NewIncidentRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	lookupRepo := repository.NewLookupRepository(db)
	userRepo := repository.NewUserRepository(db)
	exportRepo := repository.NewExportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "safeguard-api",
	})
	incidentSvc := service.NewIncidentService(incidentRepo, cacheRepo, metricsSvc, nil, logr, cfg.Incidents)
	studentSvc := service.NewStudentService(studentRepo, logr)
	lookupSvc := service.NewLookupService(lookupRepo, cacheRepo, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, logr)
	attachmentSvc := service.NewAttachmentService(
		attachmentRepo, incidentRepo, userRepo, attachmentStore,
		storage.NewSignedURLSigner(cfg.Attachments.SignedURLSecret, cfg.Attachments.SignedURLTTL),
		logr, cfg.Attachments,
	)
	exportSvc := service.NewExportService(
		exportRepo, incidentSvc, userRepo, exportStore,
		storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL),
		metricsSvc, logr, cfg.Exports,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Exports.Enabled {
		exportSvc.Start(ctx)
		defer exportSvc.Stop()
	}

	authHandler := handler.NewAuthHandler(authSvc)
	incidentHandler := handler.NewIncidentHandler(incidentSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	lookupHandler := handler.NewLookupHandler(lookupSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	attachmentHandler := handler.NewAttachmentHandler(attachmentSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
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
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "reason": "database unreachable"})
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
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	protected.POST("/incidents", middleware.Audit(userRepo, models.AuditActionIncidentCreate, "incident"), incidentHandler.Create)
	protected.GET("/incidents", incidentHandler.List)
	protected.GET("/incidents/:id", incidentHandler.Get)
	protected.POST("/incidents/:id/attachments", middleware.RequireRoles(models.RoleAdmin, models.RoleDSL), attachmentHandler.Upload)
	protected.POST("/incidents/:id/exports", middleware.RequireRoles(models.RoleAdmin, models.RoleDSL), exportHandler.Create)

	protected.GET("/students", studentHandler.List)
	protected.GET("/students/:id", studentHandler.Get)

	protected.GET("/lookups/categories", lookupHandler.Categories)
	protected.GET("/lookups/locations", lookupHandler.Locations)
	protected.GET("/lookups/statuses", lookupHandler.Statuses)

	protected.GET("/notifications", notificationHandler.List)
	protected.POST("/notifications/:id/viewed", notificationHandler.MarkViewed)

	protected.GET("/exports/:id", exportHandler.Get)
	protected.GET("/attachments/:id/url", attachmentHandler.SignedURL)

	protected.GET("/system/metrics", middleware.RequireRoles(models.RoleAdmin), metricsHandler.Snapshot)

	// Downloads authenticate via the signed token inside the URL so that
	// browser navigation works without an Authorization header.
	api.GET("/downloads/attachments", attachmentHandler.Download)
	api.GET("/downloads/exports", exportHandler.Download)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
