// Command vaultkeeper runs the media-asset catalog HTTP API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/graetzmedia/vaultkeeper-sub001/internal/config"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/database"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/logger"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/server"
)

func main() {
	// .env is optional; real env vars win either way
	_ = godotenv.Load()

	configPath := os.Getenv("VAULTKEEPER_CONFIG")
	if configPath == "" {
		configPath = "vaultkeeper.yaml"
	}
	if err := config.Load(configPath); err != nil {
		logger.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	if err := database.Initialize(); err != nil {
		logger.Error("Failed to initialize database: %v", err)
		os.Exit(1)
	}

	router, err := server.SetupRouter()
	if err != nil {
		logger.Error("Failed to set up server: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, router); err != nil {
		logger.Error("Server error: %v", err)
		os.Exit(1)
	}
}
