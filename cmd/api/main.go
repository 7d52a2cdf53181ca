package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/windoze95/amitbot-api/internal/config"
	"github.com/windoze95/amitbot-api/internal/db"
	"github.com/windoze95/amitbot-api/internal/logger"
	"github.com/windoze95/amitbot-api/internal/router"
	"github.com/windoze95/amitbot-api/internal/s3"
	"go.uber.org/zap"
)

// init is called before the main function.
func init() {
	// Initialize structured logger (dev mode if GIN_MODE != release)
	isDev := os.Getenv("GIN_MODE") != "release"
	logger.Init(isDev)

	// Configure the runtime
	ConfigureRuntime()
}

// Entry point for the API.
func main() {
	defer logger.Sync()

	// Load the config
	var cfg *config.Config
	if c, err := config.LoadConfig(); err != nil {
		logger.Get().Fatal("failed to load config", zap.Error(err))
	} else {
		cfg = c
	}

	// Check that all ENV variables are set
	if err := cfg.CheckConfigEnvFields(); err != nil {
		logger.Get().Fatal("missing required config fields", zap.Error(err))
	}

	// Load prompts from YAML
	prompts, err := config.LoadPrompts(cfg.EnvVars.PromptsPath)
	if err != nil {
		logger.Get().Fatal("failed to load prompts", zap.Error(err))
	}
	cfg.Prompts = prompts

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	awsCfg, err := s3.LoadAWSConfig(startCtx, cfg)
	if err != nil {
		logger.Get().Fatal("failed to load AWS config", zap.Error(err))
	}

	var backends router.Backends

	// The interaction log is optional
	if cfg.EnvVars.DatabaseUrl != "" {
		database, err := db.New(cfg)
		if err != nil {
			logger.Get().Fatal("failed to connect to database", zap.Error(err))
		}
		sqlDB, err := database.DB()
		if err != nil {
			logger.Get().Fatal("failed to get underlying sql.DB", zap.Error(err))
		}
		defer sqlDB.Close()
		backends.DB = database
	} else {
		logger.Get().Info("DATABASE_URL not set, interaction log disabled")
	}

	if cfg.EnvVars.RedisURL != "" {
		rdb, err := db.NewRedis(startCtx, cfg.EnvVars.RedisURL)
		if err != nil {
			logger.Get().Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		backends.Redis = rdb
	} else {
		logger.Get().Info("REDIS_URL not set, deduplicating updates in memory")
	}

	// Create a new gin router
	gin.SetMode(gin.ReleaseMode)
	r, webhook := router.SetupRouter(cfg, awsCfg, backends)

	server := &http.Server{
		Addr:              ":" + cfg.EnvVars.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Get().Info("starting server", zap.String("port", cfg.EnvVars.Port))
		serverErrors <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Get().Fatal("server error", zap.Error(err))
		}
	case sig := <-sigChan:
		logger.Get().Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	// Pending voice replies get the full request budget to finish
	ctx, cancel := context.WithTimeout(context.Background(), cfg.EnvVars.RequestBudget+5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Get().Warn("graceful shutdown failed", zap.Error(err))
		_ = server.Close()
	}

	done := make(chan struct{})
	go func() {
		webhook.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		logger.Get().Warn("background replies still running at exit")
	}
}

// ConfigureRuntime sets the number of operating system threads.
func ConfigureRuntime() {
	nuCPU := runtime.NumCPU()
	runtime.GOMAXPROCS(nuCPU)
	logger.Get().Info("runtime configured", zap.Int("cpus", nuCPU))
}
