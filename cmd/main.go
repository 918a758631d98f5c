package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sql-research-assistant/config"
	"sql-research-assistant/internal/apis/routes"
	"sql-research-assistant/internal/di"
	"sql-research-assistant/internal/observability"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	env, err := config.LoadEnv()
	if err != nil {
		log.Fatalf("Failed to load environment variables: %v", err)
	}

	logger, err := observability.NewLogger(env.LogLevel, env.LogFormat)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Initialize dependencies
	container, closers, err := di.Initialize(context.Background(), env, logger)
	if err != nil {
		_ = closers.Close(context.Background())
		logger.Fatal("failed to initialize dependencies", zap.Error(err))
	}

	if env.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	var ginApp *gin.Engine
	if err := container.Invoke(func(obs *observability.Observability) {
		ginApp = newRouter(env, logger, obs)
	}); err != nil {
		logger.Fatal("failed to resolve observability", zap.Error(err))
	}

	// Setup routes
	if err := routes.SetupDefaultRoutes(ginApp, container); err != nil {
		logger.Fatal("failed to setup routes", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + env.Port,
		Handler:           ginApp,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server",
			zap.String("port", env.Port),
			zap.String("environment", env.Environment),
			zap.String("database_type", env.DatabaseType),
			zap.String("llm_client", env.DefaultLLMClient),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced to shutdown", zap.Error(err))
	}
	if err := closers.Close(ctx); err != nil {
		logger.Error("failed to release resources", zap.Error(err))
	}

	logger.Info("server has been shut down")
}
