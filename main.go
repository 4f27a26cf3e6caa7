package main

import (
	"context"

	"github.com/scissor-io/scissor/config"
	db "github.com/scissor-io/scissor/internal/database"
	applog "github.com/scissor-io/scissor/internal/logger"
	"github.com/scissor-io/scissor/internal/mail"
	route "github.com/scissor-io/scissor/internal/routes"
	"github.com/scissor-io/scissor/internal/tracing"
	"go.uber.org/zap"
)

func main() {
	logger := applog.Init("scissor")
	defer logger.Sync()

	secrets, err := config.LoadConfig()
	if err != nil {
		logger.Fatal(
			"error loading configuration",
			zap.Error(err),
		)
	}

	shutdownTracing, err := tracing.Init(context.Background(), secrets.OTLPEndpoint, "scissor", secrets.Environment)
	if err != nil {
		logger.Fatal("tracing failed to initialize", zap.Error(err))
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	redisClient, err := db.NewRedisClient(secrets)
	if err != nil {
		logger.Fatal("redis failed to initialize",
			zap.Error(err),
		)
	}
	logger.Info("redis connection established")

	pgClient, err := db.NewPostgresClient(secrets)
	if err != nil {
		logger.Fatal("postgres failed to initialize",
			zap.Error(err),
		)
	}
	logger.Info("postgres connection established")

	dispatcher := mail.NewDispatcher(mail.NewSMTPSender(secrets), 4, 64)
	defer dispatcher.Close()

	r, err := route.SetupRouter(secrets, redisClient, pgClient, dispatcher)
	if err != nil {
		logger.Fatal("router failed to initialize", zap.Error(err))
	}
	logger.Info("starting server on :8080")
	if err := r.Run(":8080"); err != nil {
		logger.Fatal("server failed to start", zap.Error(err))
	}
}
