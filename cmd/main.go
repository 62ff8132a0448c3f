package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"claims-intake-platform/internal/config"
	"claims-intake-platform/internal/logger"
	"claims-intake-platform/internal/matching"
	"claims-intake-platform/internal/telemetry"
	"claims-intake-platform/middleware"
	"claims-intake-platform/models"
	"claims-intake-platform/routes"
	"claims-intake-platform/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"github.com/hibiken/asynq"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg.GinMode)

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()
	db := mongoClient.Database(cfg.DBName)

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	queueClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer queueClient.Close()

	var metrics *telemetry.Metrics
	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("claims-intake-platform", cfg.OTLPEndpoint)
		if err != nil {
			log.Fatal("Failed to initialize tracer:", err)
		}
		defer shutdown()

		metrics, err = telemetry.InitMetrics()
		if err != nil {
			log.Fatal("Failed to initialize metrics:", err)
		}
	}

	// Services
	claimService := services.NewClaimService(db)
	documentService := services.NewDocumentService(db)
	userService := services.NewUserService(db)
	storageService := services.NewStorageService(cfg.FileStorageDir, cfg.SignedURLSecret, cfg.SignedURLTTL, cfg.MaxFileSize, cfg.AllowedTypes)
	exportService := services.NewExportService()

	matcher := matching.NewMatcher(claimService, cfg.MatchingConfig())
	recorder := services.NewMatchRecorder(documentService, claimService)
	batchService := services.NewBatchService(documentService, matcher, recorder, services.BatchOptions{
		ChunkSize:       cfg.BatchChunkSize,
		DocumentTimeout: cfg.BatchDocumentTimeout,
		Retention:       cfg.BatchRetention,
		Metrics:         metrics,
	})

	// Batch job eviction sweep
	scheduler := gocron.NewScheduler(time.UTC)
	if _, err := scheduler.Every(cfg.BatchSweepInterval).Do(batchService.Sweep); err != nil {
		log.Fatal("Failed to schedule batch sweep:", err)
	}
	scheduler.StartAsync()
	defer scheduler.Stop()

	// Router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	if cfg.TracingEnabled {
		router.Use(middleware.TracingMiddleware())
		router.Use(middleware.EnrichTrace())
		router.Use(middleware.MetricsMiddleware(metrics))
	}
	router.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitReqs, cfg.RateLimitWindow))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	router.POST("/api/auth/login", routes.HandleLogin(userService, cfg.JWTSecret, cfg.JWTExpiresIn))

	// Signed download links carry their own authentication
	router.GET("/api/files/*key", routes.HandleDownloadFile(storageService))

	api := router.Group("/api")
	api.Use(middleware.RequireAuth(cfg.JWTSecret))
	{
		api.POST("/claims", routes.HandleCreateClaim(claimService))
		api.GET("/claims", routes.HandleListClaims(claimService))
		api.GET("/claims/export", middleware.RequireRole(models.RoleAdmin), routes.HandleExportClaims(claimService, exportService))
		api.GET("/claims/:id", routes.HandleGetClaim(claimService))
		api.GET("/claims/:id/matches", routes.HandleGetClaimMatchHistory(claimService))

		api.POST("/documents", routes.HandleUploadDocument(documentService, storageService, queueClient))
		api.GET("/documents/parked", routes.HandleListParkedDocuments(documentService))
		api.GET("/documents/:id", routes.HandleGetDocument(documentService))
		api.GET("/documents/:id/text", routes.HandleGetDocumentText(documentService))
		api.GET("/documents/:id/download", routes.HandleGetDownloadURL(documentService, storageService))
		api.POST("/documents/:id/attach", routes.HandleAttachDocument(documentService, claimService))

		api.POST("/documents/:id/match", routes.HandleMatchDocument(documentService, matcher, recorder, metrics))
		api.GET("/documents/:id/matches", routes.HandleGetDocumentMatches(documentService))

		api.POST("/batches", routes.HandleStartBatch(batchService, cfg.MatchMinScore))
		api.GET("/batches/:id", routes.HandleGetBatchStatus(batchService))
		api.GET("/batches/:id/export", middleware.RequireRole(models.RoleAdmin), routes.HandleExportBatchReport(batchService, exportService))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("server exited")
}
