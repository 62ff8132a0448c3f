package main

import (
	"context"
	"log"
	"time"

	"claims-intake-platform/internal/ai"
	"claims-intake-platform/internal/config"
	"claims-intake-platform/internal/logger"
	"claims-intake-platform/internal/queue"
	"claims-intake-platform/internal/telemetry"
	"claims-intake-platform/services"

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

	var metrics *telemetry.Metrics
	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("claims-intake-worker", cfg.OTLPEndpoint)
		if err != nil {
			log.Fatal("Failed to initialize tracer:", err)
		}
		defer shutdown()

		metrics, err = telemetry.InitMetrics()
		if err != nil {
			log.Fatal("Failed to initialize metrics:", err)
		}
	}

	nerClient, err := ai.NewNERClient(context.Background(), cfg.GeminiAPIKey, "", cfg.GeminiTier)
	if err != nil {
		log.Fatal("Failed to initialize NER client:", err)
	}
	defer nerClient.Close()

	documentService := services.NewDocumentService(db)
	var ocrClient *services.OCRClient
	if cfg.OCRServiceEnabled {
		ocrClient = services.NewOCRClient(cfg.OCRServiceURL, cfg.OCRTimeout)
	}
	extractor := services.NewTextExtractor(ocrClient)

	processor := queue.NewTaskProcessor(documentService, extractor, nerClient, metrics)

	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskDocumentIngest, processor.ProcessDocumentIngest)

	logger.Info("worker starting", "redis", cfg.RedisURL)
	if err := server.Run(mux); err != nil {
		log.Fatal("Worker failed:", err)
	}
}
