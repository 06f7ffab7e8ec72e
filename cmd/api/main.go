package main

import (
	"context"

	"go.uber.org/zap"

	"threedays/internal/config"
	"threedays/internal/db"
	"threedays/internal/handler"
	"threedays/internal/httpserver"
	"threedays/internal/mq"
	"threedays/internal/realtime"
	redisclient "threedays/internal/redis"
	"threedays/internal/repository"
	"threedays/internal/service/auth"
	"threedays/internal/service/rollover"
	"threedays/internal/service/task"
)

func main() {
	cfg := config.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Init Redis
	rdb := redisclient.NewClient(cfg.Redis)
	defer rdb.Close()

	// Init RabbitMQ publisher. The API runs without it; side-effect events
	// are best-effort by design.
	var publisher task.EventPublisher
	pub, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		logger.Warn("MQ unavailable, side-effect events disabled", zap.Error(err))
	} else {
		publisher = pub
		defer pub.Close()
	}

	// Realtime hub
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := realtime.NewHub(logger)
	go hub.Run(ctx)

	// Repositories
	userRepo := repository.NewUserRepository(dbConn)
	taskRepo := repository.NewTaskRepository(dbConn, logger)

	// Services
	authService := auth.NewService(userRepo, cfg.JWT.Secret)
	taskService := task.NewService(taskRepo, hub, publisher, logger)

	rolloverService := rollover.NewService(taskService, rdb, logger)
	if err := rolloverService.Start(cfg.Rollover.At); err != nil {
		logger.Fatal("Failed to schedule rollover job", zap.Error(err))
	}
	defer rolloverService.Stop()

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	taskHandler := handler.NewTaskHandler(taskService, logger)
	wsHandler := handler.NewWSHandler(hub, cfg.JWT.Secret, logger)

	// Router
	router := httpserver.NewRouter(authHandler, taskHandler, wsHandler, cfg.JWT.Secret, dbConn)

	if err := router.Run(cfg.Server.Port); err != nil {
		logger.Fatal("server start failed", zap.Error(err))
	}
}
