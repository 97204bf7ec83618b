package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/rs-freight/forwarding-api/api/swagger"
	"github.com/rs-freight/forwarding-api/internal/handler"
	"github.com/rs-freight/forwarding-api/internal/middleware"
	"github.com/rs-freight/forwarding-api/internal/repository"
	"github.com/rs-freight/forwarding-api/internal/service"
	"github.com/rs-freight/forwarding-api/pkg/cache"
	"github.com/rs-freight/forwarding-api/pkg/config"
	"github.com/rs-freight/forwarding-api/pkg/database"
	"github.com/rs-freight/forwarding-api/pkg/jobs"
	"github.com/rs-freight/forwarding-api/pkg/logger"
	corsmiddleware "github.com/rs-freight/forwarding-api/pkg/middleware/cors"
	reqidmiddleware "github.com/rs-freight/forwarding-api/pkg/middleware/requestid"
	"github.com/rs-freight/forwarding-api/pkg/storage"
)

// @title RS Forwarding API
// @version 1.0.0
// @description Freight forwarding back office: shipments, customs clearances, job files and invoicing
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	// Repositories.
	importRepo := repository.NewImportShipmentRepository(db)
	exportRepo := repository.NewExportShipmentRepository(db)
	clearanceRepo := repository.NewClearanceRepository(db)
	jobFileRepo := repository.NewJobFileGroupRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled)
	auditSvc := service.NewAuditService(auditRepo, logr)
	jobRefSvc := service.NewJobRefService(cfg.JobRefs.Floor, logr, importRepo, exportRepo, clearanceRepo)
	signer := storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL)
	fileSvc := service.NewJobFileService(jobFileRepo, signer, cacheSvc, auditSvc, cfg.JobFiles.BackfillEnabled, logr)
	importSvc := service.NewImportShipmentService(importRepo, jobRefSvc, fileSvc, auditSvc, metricsSvc, nil, logr)
	exportSvc := service.NewExportShipmentService(exportRepo, jobRefSvc, fileSvc, auditSvc, metricsSvc, nil, logr)
	clearanceSvc := service.NewClearanceService(clearanceRepo, jobRefSvc, fileSvc, auditSvc, nil, logr)
	invoiceSvc := service.NewInvoiceService(nil, logr)

	// The backfill fans out per job reference over a retrying worker pool.
	fileSvc.AttachPool(jobs.NewPool(cfg.JobFiles.WorkerConcurrency, cfg.JobFiles.WorkerRetries, logr))

	// Handlers.
	importHandler := handler.NewImportShipmentHandler(importSvc)
	exportHandler := handler.NewExportShipmentHandler(exportSvc)
	clearanceHandler := handler.NewClearanceHandler(clearanceSvc)
	fileHandler := handler.NewJobFileHandler(fileSvc)
	invoiceHandler := handler.NewInvoiceHandler(invoiceSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/summary", metricsHandler.Summary)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		imports := api.Group("/import-shipments")
		{
			imports.GET("", importHandler.List)
			imports.POST("", importHandler.Create)
			imports.GET("/:id", importHandler.Get)
			imports.PUT("/:id", importHandler.Update)
			imports.DELETE("/:id", importHandler.Delete)
			imports.PATCH("/:id/status/:indicator", importHandler.UpdateStatus)
		}

		exports := api.Group("/export-shipments")
		{
			exports.GET("", exportHandler.List)
			exports.POST("", exportHandler.Create)
			exports.GET("/:id", exportHandler.Get)
			exports.PUT("/:id", exportHandler.Update)
			exports.DELETE("/:id", exportHandler.Delete)
			exports.PATCH("/:id/status/:indicator", exportHandler.UpdateStatus)
		}

		clearances := api.Group("/custom-clearances")
		{
			clearances.GET("", clearanceHandler.List)
			clearances.POST("", clearanceHandler.Create)
			clearances.GET("/:id", clearanceHandler.Get)
			clearances.PUT("/:id", clearanceHandler.Update)
			clearances.DELETE("/:id", clearanceHandler.Delete)
			clearances.PATCH("/:id/status/:indicator", clearanceHandler.UpdateStatus)
		}

		files := api.Group("/job-files")
		{
			files.POST("/backfill", fileHandler.Backfill)
			files.GET("/:jobRef", fileHandler.Get)
			files.GET("/:jobRef/documents/links", fileHandler.DocumentLinks)
		}

		invoices := api.Group("/invoices")
		{
			invoices.POST("/line-items", invoiceHandler.DeriveLineItems)
			invoices.POST("/totals", invoiceHandler.Totals)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
