package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/docs"
	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/config"
	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/handler"
	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/logger"
	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/queue/sqs"
	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/repository/clickhouse"
	"github.com/Onyx-Veritas/alumoutreach-backend-sub003/internal/service"
)

// @title Outreach Analytics API
// @version 1.0
// @description Analytics ingestion and query API for the outreach backend
// @host localhost:8080
// @BasePath /
// @schemes http https
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Service.Environment, "api")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		err := log.Sync()
		if err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	log.Info("Starting API service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.APIPort))

	// Configure Swagger host dynamically
	docs.SwaggerInfo.Host = cfg.Service.Host

	ctx := context.Background()

	// Initialize SQS client
	sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
	if err != nil {
		log.Fatal("Failed to create SQS client", zap.Error(err))
	}

	// Initialize ClickHouse client. A failed connection leaves analytics
	// degraded (empty query results) but never blocks the API.
	clickhouseClient := clickhouse.NewClient(ctx, &cfg.ClickHouse, log)
	defer func(clickhouseClient *clickhouse.Client) {
		if err := clickhouseClient.Close(); err != nil {
			log.Error("Failed to close ClickHouse client", zap.Error(err))
		}
	}(clickhouseClient)

	repo := clickhouse.NewRepository(clickhouseClient, log)

	eventService := service.NewEventService(sqsClient, log)
	analyticsService := service.NewAnalyticsService(repo, log)

	h := handler.NewHandler(eventService, analyticsService, log)

	addr := fmt.Sprintf(":%s", cfg.Service.APIPort)
	log.Info("API server starting", zap.String("address", addr))

	if err := http.ListenAndServe(addr, h); err != nil {
		log.Fatal("Failed to start API server", zap.Error(err))
	}
}
